package cli

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/clipline/clipline/pkg/cli/config"
	"github.com/clipline/clipline/pkg/domain/interfaces"
	"github.com/clipline/clipline/pkg/domain/types"
	"github.com/clipline/clipline/pkg/infra/fetch"
	fswatch "github.com/clipline/clipline/pkg/infra/fs"
	githubinfra "github.com/clipline/clipline/pkg/infra/github"
	"github.com/clipline/clipline/pkg/infra/notion"
	"github.com/clipline/clipline/pkg/infra/slack"
	"github.com/clipline/clipline/pkg/infra/sqlite"
	"github.com/clipline/clipline/pkg/infra/telegram"
	"github.com/clipline/clipline/pkg/usecase"
	"github.com/clipline/clipline/pkg/utils/limiter"
)

// notifier is the sink-side capability for operator notices
type notifier interface {
	Notify(ctx context.Context, text string) error
}

// buildPipeline assembles the pipeline from configuration. The returned
// close function releases the delivery store.
func buildPipeline(
	ctx context.Context,
	watchCfg *config.Watch,
	githubCfg *config.GitHub,
	llmCfg *config.LLM,
	notionCfg *config.Notion,
	telegramCfg *config.Telegram,
	slackCfg *config.Slack,
	pipeCfg *config.Pipeline,
) (*usecase.Pipeline, func(), error) {
	logger := ctxlog.From(ctx)

	store, err := sqlite.NewStore(pipeCfg.DBPath)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to open delivery store")
	}
	logger.Info("delivery store opened", "path", store.Path())

	gates := limiter.New(limiter.Limit{
		Calls:       pipeCfg.LimitCalls,
		Window:      pipeCfg.LimitWindow,
		Concurrency: pipeCfg.LimitConcurrency,
	})

	providers, err := llmCfg.Configure(ctx)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	enricher, err := usecase.NewEnricher(gates, providers...)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	// Sinks
	var sinks []interfaces.Sink
	var notifiers []notifier
	if notionCfg.Enabled() {
		sink, err := notion.NewSink(notionCfg.Token, notionCfg.DatabaseID)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		sinks = append(sinks, sink)
	}
	if telegramCfg.Enabled() {
		sink, err := telegram.NewSink(telegramCfg.Token, telegramCfg.ChatID)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		sinks = append(sinks, sink)
		notifiers = append(notifiers, sink)
	}
	if slackCfg.Enabled() {
		sink, err := slack.NewSink(slackCfg.Token, slackCfg.Channel)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		sinks = append(sinks, sink)
		notifiers = append(notifiers, sink)
	}
	if len(sinks) == 0 {
		store.Close()
		return nil, nil, goerr.New("no sink configured", goerr.T(types.TagConfig))
	}

	policy := usecase.RetryPolicy{
		BaseDelay:   pipeCfg.RetryBase,
		Factor:      2,
		MaxDelay:    pipeCfg.RetryMax,
		MaxAttempts: pipeCfg.RetryAttempts,
	}

	publisher := usecase.NewPublisher(store, gates, policy, sinks)
	dedup := usecase.NewDeduplicator(store, publisher.SinkIDs())

	// Sources and fetchers
	ghClient := githubinfra.NewClient(githubCfg.Token)
	extractor := usecase.NewExtractor(
		fetch.NewFile(),
		fetch.NewHTTP(nil),
		githubinfra.NewFetcher(ghClient),
	)

	var sources []interfaces.Source
	if len(watchCfg.Roots) > 0 {
		watcher, err := fswatch.NewWatcher("fs", watchCfg.Roots, watchCfg.Debounce)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		sources = append(sources, watcher)
	}
	for _, repo := range githubCfg.Repos {
		src, err := githubinfra.NewSource(types.SourceID("github:"+repo), ghClient, repo, githubCfg.Branch, githubCfg.PollInterval)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		sources = append(sources, src)
	}

	alert := func(ctx context.Context, text string) {
		for _, n := range notifiers {
			if err := n.Notify(ctx, "⚠️ "+text); err != nil {
				logger.Warn("failed to send operator notice", "error", err)
			}
		}
	}

	pipeline := usecase.NewPipeline(
		sources,
		extractor,
		dedup,
		enricher,
		publisher,
		usecase.WithQueueSize(pipeCfg.QueueSize),
		usecase.WithWorkers(pipeCfg.Workers),
		usecase.WithRetryPolicy(policy),
		usecase.WithAlert(alert),
	)

	return pipeline, func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close delivery store", "error", err)
		}
	}, nil
}
