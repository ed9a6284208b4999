package limiter

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/time/rate"
)

// Limit bounds calls toward one external dependency: at most Calls per
// Window, and at most Concurrency calls in flight. Zero Concurrency means
// unbounded concurrency; zero Calls means no rate bound.
type Limit struct {
	Calls       int
	Window      time.Duration
	Concurrency int
}

// Registry hands out admission gates per dependency key ("llm:openai",
// "sink:notion", ...). Callers over the limit suspend until a slot frees;
// admission order is best-effort FIFO. This prevents triggering provider
// throttling, as opposed to retry backoff which reacts to it.
type Registry struct {
	mu       sync.Mutex
	limits   map[string]Limit
	fallback Limit
	gates    map[string]*gate
}

type gate struct {
	bucket *rate.Limiter
	sem    chan struct{}
}

// New creates a registry. fallback applies to keys with no explicit limit.
func New(fallback Limit) *Registry {
	return &Registry{
		limits:   make(map[string]Limit),
		fallback: fallback,
		gates:    make(map[string]*gate),
	}
}

// Set configures the limit for a dependency key. Must be called before the
// first Acquire for that key.
func (r *Registry) Set(key string, l Limit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limits[key] = l
}

// Acquire blocks until the dependency admits one more call, then returns a
// release function. The release function is idempotent and must be called
// when the call finishes.
func (r *Registry) Acquire(ctx context.Context, key string) (func(), error) {
	g := r.gateFor(key)

	if g.sem != nil {
		select {
		case <-ctx.Done():
			return nil, goerr.Wrap(ctx.Err(), "cancelled waiting for concurrency slot",
				goerr.V("dependency", key))
		case g.sem <- struct{}{}:
		}
	}

	if g.bucket != nil {
		if err := g.bucket.Wait(ctx); err != nil {
			if g.sem != nil {
				<-g.sem
			}
			return nil, goerr.Wrap(err, "cancelled waiting for rate slot",
				goerr.V("dependency", key))
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if g.sem != nil {
				<-g.sem
			}
		})
	}, nil
}

func (r *Registry) gateFor(key string) *gate {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.gates[key]; ok {
		return g
	}

	l, ok := r.limits[key]
	if !ok {
		l = r.fallback
	}

	g := &gate{}
	if l.Calls > 0 && l.Window > 0 {
		g.bucket = rate.NewLimiter(rate.Limit(float64(l.Calls)/l.Window.Seconds()), l.Calls)
	}
	if l.Concurrency > 0 {
		g.sem = make(chan struct{}, l.Concurrency)
	}
	r.gates[key] = g
	return g
}
