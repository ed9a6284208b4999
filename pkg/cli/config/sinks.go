package config

import "github.com/urfave/cli/v3"

// Notion holds knowledge-base sink configuration
type Notion struct {
	Token      string
	DatabaseID string
}

// Flags returns CLI flags for the Notion sink
func (c *Notion) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "notion-token",
			Usage:       "Notion integration token (sink disabled when empty)",
			Destination: &c.Token,
			Sources:     cli.EnvVars("CLIPLINE_NOTION_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "notion-database-id",
			Usage:       "Notion database receiving clip pages",
			Destination: &c.DatabaseID,
			Sources:     cli.EnvVars("CLIPLINE_NOTION_DATABASE_ID"),
		},
	}
}

// Enabled reports whether the sink is configured
func (c *Notion) Enabled() bool {
	return c.Token != "" && c.DatabaseID != ""
}

// Telegram holds chat sink configuration
type Telegram struct {
	Token  string
	ChatID int64
}

// Flags returns CLI flags for the Telegram sink
func (c *Telegram) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "telegram-token",
			Usage:       "Telegram bot token (sink disabled when empty)",
			Destination: &c.Token,
			Sources:     cli.EnvVars("CLIPLINE_TELEGRAM_TOKEN"),
		},
		&cli.Int64Flag{
			Name:        "telegram-chat-id",
			Usage:       "Telegram chat receiving notifications",
			Destination: &c.ChatID,
			Sources:     cli.EnvVars("CLIPLINE_TELEGRAM_CHAT_ID"),
		},
	}
}

// Enabled reports whether the sink is configured
func (c *Telegram) Enabled() bool {
	return c.Token != "" && c.ChatID != 0
}

// Slack holds chat sink configuration
type Slack struct {
	Token   string
	Channel string
}

// Flags returns CLI flags for the Slack sink
func (c *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-token",
			Usage:       "Slack bot token (sink disabled when empty)",
			Destination: &c.Token,
			Sources:     cli.EnvVars("CLIPLINE_SLACK_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-channel",
			Usage:       "Slack channel receiving notifications",
			Destination: &c.Channel,
			Sources:     cli.EnvVars("CLIPLINE_SLACK_CHANNEL"),
		},
	}
}

// Enabled reports whether the sink is configured
func (c *Slack) Enabled() bool {
	return c.Token != "" && c.Channel != ""
}
