package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/clipline/clipline/pkg/domain/interfaces"
	"github.com/clipline/clipline/pkg/domain/model"
	"github.com/clipline/clipline/pkg/domain/types"
)

// SleepFunc waits for d or until ctx is done. Replaceable in tests.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Publisher fans an enriched item out to destination sinks. Each sink is
// handled by its own task with independent retry; one sink failing never
// blocks or rolls back the others.
type Publisher struct {
	sinks  map[types.SinkID]interfaces.Sink
	store  interfaces.DeliveryStore
	gate   interfaces.Gate
	policy RetryPolicy
	sleep  SleepFunc
}

// PublisherOption configures a Publisher
type PublisherOption func(*Publisher)

// WithSleep overrides the backoff wait function
func WithSleep(fn SleepFunc) PublisherOption {
	return func(p *Publisher) {
		p.sleep = fn
	}
}

// NewPublisher creates a publisher over the given sinks. Deliveries are
// metered through the gate, keyed "sink:<id>".
func NewPublisher(store interfaces.DeliveryStore, gate interfaces.Gate, policy RetryPolicy, sinks []interfaces.Sink, opts ...PublisherOption) *Publisher {
	byID := make(map[types.SinkID]interfaces.Sink, len(sinks))
	for _, s := range sinks {
		byID[s.ID()] = s
	}

	p := &Publisher{
		sinks:  byID,
		store:  store,
		gate:   gate,
		policy: policy,
		sleep:  sleepCtx,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SinkIDs returns the IDs of all configured sinks
func (p *Publisher) SinkIDs() []types.SinkID {
	ids := make([]types.SinkID, 0, len(p.sinks))
	for id := range p.sinks {
		ids = append(ids, id)
	}
	return ids
}

// Publish delivers the item to each target sink in parallel. It returns the
// delivery records written and, per sink, the error for any sink that
// exhausted its retries.
func (p *Publisher) Publish(ctx context.Context, item *model.EnrichedItem, targets []types.SinkID) ([]*model.DeliveryRecord, map[types.SinkID]error) {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		records  []*model.DeliveryRecord
		failures = make(map[types.SinkID]error)
	)

	for _, sinkID := range targets {
		sink, ok := p.sinks[sinkID]
		if !ok {
			mu.Lock()
			failures[sinkID] = goerr.New("unknown sink", goerr.V("sink", sinkID))
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(task *model.SinkTask, sink interfaces.Sink) {
			defer wg.Done()

			rec, err := p.runTask(ctx, task, sink)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[task.SinkID] = err
				return
			}
			records = append(records, rec)
		}(&model.SinkTask{Item: item, SinkID: sinkID}, sink)
	}

	wg.Wait()
	return records, failures
}

// runTask delivers to one sink with exponential backoff. On success the
// delivery record is written before the event is acknowledged; a crash
// between sink success and record write is the accepted at-least-once window.
func (p *Publisher) runTask(ctx context.Context, task *model.SinkTask, sink interfaces.Sink) (*model.DeliveryRecord, error) {
	logger := ctxlog.From(ctx)

	var lastErr error
	for task.Attempt = 1; task.Attempt <= p.policy.maxTries(); task.Attempt++ {
		receipt, err := p.deliver(ctx, task.Item, sink)
		if err == nil {
			rec := &model.DeliveryRecord{
				Hash:        task.Item.Content.Hash,
				SinkID:      task.SinkID,
				DeliveredAt: time.Now(),
				Receipt:     receipt,
			}
			inserted, err := p.store.InsertIfAbsent(ctx, rec)
			if err != nil {
				return nil, goerr.Wrap(err, "delivered but failed to record",
					goerr.T(types.TagSink), goerr.V("sink", task.SinkID))
			}
			if !inserted {
				logger.Debug("delivery record already present",
					"sink", task.SinkID,
					"hash", task.Item.Content.Hash,
				)
			}
			return rec, nil
		}

		lastErr = err
		logger.Warn("sink delivery failed",
			"sink", task.SinkID,
			"attempt", task.Attempt,
			"error", err,
		)

		if task.Attempt == p.policy.maxTries() {
			break
		}
		if err := p.sleep(ctx, p.policy.Delay(task.Attempt)); err != nil {
			return nil, goerr.Wrap(err, "cancelled during sink backoff",
				goerr.T(types.TagSink), goerr.V("sink", task.SinkID))
		}
	}

	return nil, goerr.Wrap(lastErr, "sink delivery exhausted retries",
		goerr.T(types.TagSink),
		goerr.V("sink", task.SinkID),
		goerr.V("attempts", p.policy.maxTries()),
	)
}

func (p *Publisher) deliver(ctx context.Context, item *model.EnrichedItem, sink interfaces.Sink) (string, error) {
	if p.gate != nil {
		release, err := p.gate.Acquire(ctx, "sink:"+string(sink.ID()))
		if err != nil {
			return "", goerr.Wrap(err, "rate limiter rejected sink call")
		}
		defer release()
	}
	return sink.Deliver(ctx, item)
}
