package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-mizutani/ctxlog"
	"github.com/urfave/cli/v3"

	"github.com/clipline/clipline/pkg/cli/config"
)

func cmdWatch() *cli.Command {
	var (
		githubCfg   config.GitHub
		watchCfg    config.Watch
		llmCfg      config.LLM
		notionCfg   config.Notion
		telegramCfg config.Telegram
		slackCfg    config.Slack
		pipeCfg     config.Pipeline
	)

	flags := watchCfg.Flags()
	flags = append(flags, githubCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, notionCfg.Flags()...)
	flags = append(flags, telegramCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, pipeCfg.Flags()...)

	return &cli.Command{
		Name:    "watch",
		Aliases: []string{"w"},
		Usage:   "Run the pipeline without the HTTP receiver",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			pipeline, closeStore, err := buildPipeline(ctx,
				&watchCfg, &githubCfg, &llmCfg,
				&notionCfg, &telegramCfg, &slackCfg,
				&pipeCfg,
			)
			if err != nil {
				return err
			}
			defer closeStore()

			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- pipeline.Run(runCtx)
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			cancel()
			if err := <-done; err != nil {
				return err
			}

			logger.Info("Pipeline shutdown complete")
			return nil
		},
	}
}
