package config

import (
	"time"

	"github.com/urfave/cli/v3"
)

// Server holds HTTP server and upload endpoint configuration
type Server struct {
	Addr          string
	APIToken      string
	UploadDir     string
	MaxUploadSize int64
	UploadTTL     time.Duration
}

// Flags returns CLI flags for server configuration
func (c *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Server address",
			Value:       "localhost:8080",
			Destination: &c.Addr,
			Sources:     cli.EnvVars("CLIPLINE_ADDR"),
		},
		&cli.StringFlag{
			Name:        "api-token",
			Usage:       "Bearer token required by the upload endpoint",
			Destination: &c.APIToken,
			Sources:     cli.EnvVars("CLIPLINE_API_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "upload-dir",
			Usage:       "Directory for uploaded clips",
			Value:       "uploads",
			Destination: &c.UploadDir,
			Sources:     cli.EnvVars("CLIPLINE_UPLOAD_DIR"),
		},
		&cli.Int64Flag{
			Name:        "max-upload-size",
			Usage:       "Maximum upload size in bytes",
			Value:       10 << 20,
			Destination: &c.MaxUploadSize,
			Sources:     cli.EnvVars("CLIPLINE_MAX_UPLOAD_SIZE"),
		},
		&cli.DurationFlag{
			Name:        "upload-ttl",
			Usage:       "How long processed uploads are kept before cleanup",
			Value:       time.Hour,
			Destination: &c.UploadTTL,
			Sources:     cli.EnvVars("CLIPLINE_UPLOAD_TTL"),
		},
	}
}
