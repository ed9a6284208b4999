package config

import (
	"time"

	"github.com/urfave/cli/v3"
)

// GitHub holds GitHub source configuration
type GitHub struct {
	WebhookSecret string
	Token         string
	Repos         []string
	Branch        string
	PollInterval  time.Duration
}

// Flags returns CLI flags for GitHub configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-webhook-secret",
			Usage:       "GitHub webhook secret (webhook endpoint disabled when empty)",
			Destination: &c.WebhookSecret,
			Sources:     cli.EnvVars("CLIPLINE_GITHUB_WEBHOOK_SECRET"),
		},
		&cli.StringFlag{
			Name:        "github-token",
			Usage:       "GitHub API token",
			Destination: &c.Token,
			Sources:     cli.EnvVars("CLIPLINE_GITHUB_TOKEN"),
		},
		&cli.StringSliceFlag{
			Name:        "github-repo",
			Usage:       "Repository to poll for changes (owner/name, repeatable)",
			Destination: &c.Repos,
			Sources:     cli.EnvVars("CLIPLINE_GITHUB_REPOS"),
		},
		&cli.StringFlag{
			Name:        "github-branch",
			Usage:       "Branch to poll (default branch when empty)",
			Destination: &c.Branch,
			Sources:     cli.EnvVars("CLIPLINE_GITHUB_BRANCH"),
		},
		&cli.DurationFlag{
			Name:        "github-poll-interval",
			Usage:       "Poll interval for repository sources",
			Value:       time.Minute,
			Destination: &c.PollInterval,
			Sources:     cli.EnvVars("CLIPLINE_GITHUB_POLL_INTERVAL"),
		},
	}
}
