package config

import (
	"time"

	"github.com/urfave/cli/v3"
)

// Watch holds filesystem watcher configuration
type Watch struct {
	Roots    []string
	Debounce time.Duration
}

// Flags returns CLI flags for the filesystem watcher
func (c *Watch) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "watch-root",
			Usage:       "Directory to watch for new or changed files (repeatable)",
			Destination: &c.Roots,
			Sources:     cli.EnvVars("CLIPLINE_WATCH_ROOTS"),
		},
		&cli.DurationFlag{
			Name:        "watch-debounce",
			Usage:       "Window in which repeated changes to one path collapse",
			Value:       500 * time.Millisecond,
			Destination: &c.Debounce,
			Sources:     cli.EnvVars("CLIPLINE_WATCH_DEBOUNCE"),
		},
	}
}
