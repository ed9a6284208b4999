package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/clipline/clipline/pkg/cli/config"
	controller "github.com/clipline/clipline/pkg/controller/http"
	"github.com/clipline/clipline/pkg/usecase"
)

func cmdServe() *cli.Command {
	var (
		serverCfg   config.Server
		githubCfg   config.GitHub
		watchCfg    config.Watch
		llmCfg      config.LLM
		notionCfg   config.Notion
		telegramCfg config.Telegram
		slackCfg    config.Slack
		pipeCfg     config.Pipeline
	)

	flags := serverCfg.Flags()
	flags = append(flags, githubCfg.Flags()...)
	flags = append(flags, watchCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, notionCfg.Flags()...)
	flags = append(flags, telegramCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, pipeCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the pipeline with the HTTP clip receiver",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			logger.Info("Starting clipline server",
				slog.String("addr", serverCfg.Addr),
			)

			pipeline, closeStore, err := buildPipeline(ctx,
				&watchCfg, &githubCfg, &llmCfg,
				&notionCfg, &telegramCfg, &slackCfg,
				&pipeCfg,
			)
			if err != nil {
				return err
			}
			defer closeStore()

			// Create HTTP server with options
			server, err := controller.NewServer(
				ctx,
				pipeline,
				controller.WithAddr(serverCfg.Addr),
				controller.WithWebhookSecret(githubCfg.WebhookSecret),
				controller.WithAPIToken(serverCfg.APIToken),
				controller.WithUploadDir(serverCfg.UploadDir),
				controller.WithMaxUploadSize(serverCfg.MaxUploadSize),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			var wg sync.WaitGroup

			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := pipeline.Run(runCtx); err != nil {
					logger.Error("Pipeline error", slog.Any("error", err))
				}
			}()

			janitor := usecase.NewUploadJanitor(serverCfg.UploadDir, serverCfg.UploadTTL, serverCfg.UploadTTL/2)
			wg.Add(1)
			go func() {
				defer wg.Done()
				janitor.Run(runCtx)
			}()

			// Start server in goroutine
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			// Wait for interrupt signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			// Stop accepting new events, then drain the pipeline
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Error("Failed to shutdown server gracefully", slog.Any("error", err))
			}

			cancel()
			wg.Wait()

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
