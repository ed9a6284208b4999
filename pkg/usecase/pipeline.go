package usecase

import (
	"context"
	"sync"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/panjf2000/ants/v2"

	"github.com/clipline/clipline/pkg/domain/interfaces"
	"github.com/clipline/clipline/pkg/domain/model"
	"github.com/clipline/clipline/pkg/domain/types"
	"github.com/clipline/clipline/pkg/utils/async"
)

const (
	defaultQueueSize = 64
	defaultWorkers   = 4
)

// AlertFunc sends a best-effort operator notification (e.g. enrichment gave
// up on an item). Errors are swallowed by the caller.
type AlertFunc func(ctx context.Context, text string)

// Pipeline wires sources, extraction, dedup, enrichment and publishing into
// a supervised run loop. Stages communicate over bounded channels and run on
// bounded worker pools; the delivery store is the only shared mutable state.
type Pipeline struct {
	sources   []interfaces.Source
	extractor interfaces.Extractor
	dedup     *Deduplicator
	enricher  interfaces.Enricher
	publisher *Publisher

	policy    RetryPolicy
	sleep     SleepFunc
	queueSize int
	workers   int
	alert     AlertFunc

	mu     sync.RWMutex
	intake chan *model.ChangeEvent
	closed bool
}

// PipelineOption configures a Pipeline
type PipelineOption func(*Pipeline)

// WithQueueSize sets the capacity of inter-stage queues
func WithQueueSize(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.queueSize = n
		}
	}
}

// WithWorkers sets the per-stage worker pool size
func WithWorkers(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithRetryPolicy sets the enrichment retry policy
func WithRetryPolicy(policy RetryPolicy) PipelineOption {
	return func(p *Pipeline) {
		p.policy = policy
	}
}

// WithPipelineSleep overrides the enrichment backoff wait function
func WithPipelineSleep(fn SleepFunc) PipelineOption {
	return func(p *Pipeline) {
		p.sleep = fn
	}
}

// WithAlert sets the operator notification hook
func WithAlert(fn AlertFunc) PipelineOption {
	return func(p *Pipeline) {
		p.alert = fn
	}
}

// NewPipeline assembles the pipeline from its stages
func NewPipeline(
	sources []interfaces.Source,
	extractor interfaces.Extractor,
	dedup *Deduplicator,
	enricher interfaces.Enricher,
	publisher *Publisher,
	opts ...PipelineOption,
) *Pipeline {
	p := &Pipeline{
		sources:   sources,
		extractor: extractor,
		dedup:     dedup,
		enricher:  enricher,
		publisher: publisher,
		policy:    DefaultRetryPolicy(),
		sleep:     sleepCtx,
		queueSize: defaultQueueSize,
		workers:   defaultWorkers,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.intake = make(chan *model.ChangeEvent, p.queueSize)
	return p
}

// Submit enqueues an externally produced event (upload, webhook). Returns an
// error once shutdown has begun.
func (p *Pipeline) Submit(ctx context.Context, event *model.ChangeEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return goerr.New("pipeline is shutting down")
	}

	select {
	case <-ctx.Done():
		return goerr.Wrap(ctx.Err(), "cancelled while enqueueing event")
	case p.intake <- event:
		return nil
	}
}

// enrichJob is content that passed dedup, bound for enrichment
type enrichJob struct {
	content *model.ExtractedContent
	targets []types.SinkID
}

// publishJob is an enriched item bound for its missing sinks
type publishJob struct {
	item    *model.EnrichedItem
	targets []types.SinkID
}

// Run starts the sources and stage workers and blocks until ctx is cancelled
// and all in-flight work has drained. Sink attempts in flight at shutdown
// run to completion on a detached context so no partial sink-side writes are
// left behind.
func (p *Pipeline) Run(ctx context.Context) error {
	logger := ctxlog.From(ctx)

	extractPool, err := ants.NewPool(p.workers)
	if err != nil {
		return goerr.Wrap(err, "failed to create extract pool")
	}
	defer extractPool.Release()
	enrichPool, err := ants.NewPool(p.workers)
	if err != nil {
		return goerr.Wrap(err, "failed to create enrich pool")
	}
	defer enrichPool.Release()
	publishPool, err := ants.NewPool(p.workers)
	if err != nil {
		return goerr.Wrap(err, "failed to create publish pool")
	}
	defer publishPool.Release()

	extracted := make(chan *enrichJob, p.queueSize)
	enriched := make(chan *publishJob, p.queueSize)

	// Detached context for work that must survive ctx cancellation long
	// enough to finish its current attempt.
	workCtx := async.Detach(ctx)

	// Producers
	var srcWG sync.WaitGroup
	for _, src := range p.sources {
		srcWG.Add(1)
		go func(src interfaces.Source) {
			defer srcWG.Done()
			if err := src.Run(ctx, p.intake); err != nil {
				logger.Error("source stopped", "source", src.Name(), "error", err)
			}
		}(src)
	}

	// Close intake once all sources stopped and external submits are fenced
	go func() {
		srcWG.Wait()
		<-ctx.Done()
		p.mu.Lock()
		p.closed = true
		close(p.intake)
		p.mu.Unlock()
	}()

	var stageWG sync.WaitGroup

	// Stage 1: extract + dedup
	stageWG.Add(1)
	go func() {
		defer stageWG.Done()
		var wg sync.WaitGroup
		for event := range p.intake {
			wg.Add(1)
			event := event
			if err := extractPool.Submit(func() {
				defer wg.Done()
				p.runExtract(workCtx, event, extracted)
			}); err != nil {
				wg.Done()
				logger.Error("failed to submit extract task", "error", err)
			}
		}
		wg.Wait()
		close(extracted)
	}()

	// Stage 2: enrich
	stageWG.Add(1)
	go func() {
		defer stageWG.Done()
		var wg sync.WaitGroup
		for job := range extracted {
			wg.Add(1)
			job := job
			if err := enrichPool.Submit(func() {
				defer wg.Done()
				p.runEnrich(ctx, workCtx, job, enriched)
			}); err != nil {
				wg.Done()
				logger.Error("failed to submit enrich task", "error", err)
			}
		}
		wg.Wait()
		close(enriched)
	}()

	// Stage 3: publish
	stageWG.Add(1)
	go func() {
		defer stageWG.Done()
		var wg sync.WaitGroup
		for job := range enriched {
			wg.Add(1)
			job := job
			if err := publishPool.Submit(func() {
				defer wg.Done()
				p.runPublish(workCtx, job)
			}); err != nil {
				wg.Done()
				logger.Error("failed to submit publish task", "error", err)
			}
		}
		wg.Wait()
	}()

	stageWG.Wait()
	logger.Info("pipeline drained")
	return nil
}

func (p *Pipeline) runExtract(ctx context.Context, event *model.ChangeEvent, out chan<- *enrichJob) {
	logger := ctxlog.From(ctx)

	content, err := p.extractor.Extract(ctx, event)
	if err != nil {
		// Extraction failures are terminal for the event: retrying an
		// unchanged source yields the same result.
		logger.Warn("dropping event, extraction failed",
			"source", event.SourceID,
			"ref", event.ExternalRef,
			"error", err,
		)
		return
	}

	missing, err := p.dedup.ShouldProcess(ctx, content.Hash)
	if err != nil {
		logger.Error("dedup query failed, dropping event",
			"hash", content.Hash,
			"error", err,
		)
		return
	}
	if len(missing) == 0 {
		logger.Info("content already delivered everywhere, skipping",
			"hash", content.Hash,
			"ref", event.ExternalRef,
		)
		return
	}

	out <- &enrichJob{content: content, targets: missing}
}

// runEnrich calls the enricher with backoff. runCtx cancels further retries;
// workCtx keeps the in-flight attempt alive through shutdown.
func (p *Pipeline) runEnrich(runCtx, workCtx context.Context, job *enrichJob, out chan<- *publishJob) {
	logger := ctxlog.From(workCtx)

	var item *model.EnrichedItem
	var err error
	for attempt := 1; attempt <= p.policy.maxTries(); attempt++ {
		item, err = p.enricher.Enrich(workCtx, job.content)
		if err == nil {
			break
		}
		logger.Warn("enrichment failed",
			"hash", job.content.Hash,
			"attempt", attempt,
			"error", err,
		)
		if attempt == p.policy.maxTries() {
			break
		}
		if sleepErr := p.sleep(runCtx, p.policy.Delay(attempt)); sleepErr != nil {
			logger.Info("enrichment retries cancelled", "hash", job.content.Hash)
			return
		}
	}
	if err != nil {
		logger.Error("enrichment exhausted retries, item failed",
			"hash", job.content.Hash,
			"ref", job.content.Event.ExternalRef,
			"error", err,
		)
		if p.alert != nil {
			title := job.content.Title
			reason := err.Error()
			async.Dispatch(workCtx, func(ctx context.Context) error {
				p.alert(ctx, "enrichment failed for "+title+": "+reason)
				return nil
			})
		}
		return
	}

	out <- &publishJob{item: item, targets: job.targets}
}

func (p *Pipeline) runPublish(ctx context.Context, job *publishJob) {
	logger := ctxlog.From(ctx)

	records, failures := p.publisher.Publish(ctx, job.item, job.targets)
	for _, rec := range records {
		logger.Info("delivered",
			"sink", rec.SinkID,
			"hash", rec.Hash,
			"receipt", rec.Receipt,
		)
	}
	for sinkID, err := range failures {
		// Failed sinks keep no record, so the content stays eligible for
		// redelivery to them on a later run.
		logger.Error("sink delivery failed permanently",
			"sink", sinkID,
			"hash", job.item.Content.Hash,
			"error", err,
		)
	}
}
