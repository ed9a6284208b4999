package config

import (
	"time"

	"github.com/urfave/cli/v3"
)

// Pipeline holds queue, worker pool and rate limit configuration
type Pipeline struct {
	DBPath    string
	QueueSize int
	Workers   int

	RetryBase     time.Duration
	RetryMax      time.Duration
	RetryAttempts int

	LimitCalls       int
	LimitWindow      time.Duration
	LimitConcurrency int
}

// Flags returns CLI flags for pipeline configuration
func (c *Pipeline) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "db-path",
			Usage:       "Path of the delivery record database",
			Value:       "data/clipline.db",
			Destination: &c.DBPath,
			Sources:     cli.EnvVars("CLIPLINE_DB_PATH"),
		},
		&cli.IntFlag{
			Name:        "queue-size",
			Usage:       "Capacity of inter-stage queues",
			Value:       64,
			Destination: &c.QueueSize,
			Sources:     cli.EnvVars("CLIPLINE_QUEUE_SIZE"),
		},
		&cli.IntFlag{
			Name:        "workers",
			Usage:       "Worker pool size per pipeline stage",
			Value:       4,
			Destination: &c.Workers,
			Sources:     cli.EnvVars("CLIPLINE_WORKERS"),
		},
		&cli.DurationFlag{
			Name:        "retry-base",
			Usage:       "Base delay for retry backoff",
			Value:       time.Second,
			Destination: &c.RetryBase,
			Sources:     cli.EnvVars("CLIPLINE_RETRY_BASE"),
		},
		&cli.DurationFlag{
			Name:        "retry-max",
			Usage:       "Maximum delay for retry backoff",
			Value:       60 * time.Second,
			Destination: &c.RetryMax,
			Sources:     cli.EnvVars("CLIPLINE_RETRY_MAX"),
		},
		&cli.IntFlag{
			Name:        "retry-attempts",
			Usage:       "Retries after the first enrichment or sink delivery attempt",
			Value:       5,
			Destination: &c.RetryAttempts,
			Sources:     cli.EnvVars("CLIPLINE_RETRY_ATTEMPTS"),
		},
		&cli.IntFlag{
			Name:        "limit-calls",
			Usage:       "Calls allowed per window toward each external dependency",
			Value:       30,
			Destination: &c.LimitCalls,
			Sources:     cli.EnvVars("CLIPLINE_LIMIT_CALLS"),
		},
		&cli.DurationFlag{
			Name:        "limit-window",
			Usage:       "Rate limit window",
			Value:       time.Minute,
			Destination: &c.LimitWindow,
			Sources:     cli.EnvVars("CLIPLINE_LIMIT_WINDOW"),
		},
		&cli.IntFlag{
			Name:        "limit-concurrency",
			Usage:       "Concurrent calls allowed toward each external dependency",
			Value:       2,
			Destination: &c.LimitConcurrency,
			Sources:     cli.EnvVars("CLIPLINE_LIMIT_CONCURRENCY"),
		},
	}
}
