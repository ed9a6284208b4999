package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clipline/clipline/pkg/domain/interfaces"
)

// config holds internal HTTP server configuration
type config struct {
	addr          string
	webhookSecret string
	apiToken      string
	uploadDir     string
	maxUploadSize int64
	allowedExts   []string
	uploadRate    float64
	uploadBurst   int
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithWebhookSecret enables the GitHub webhook endpoint with the given
// HMAC secret
func WithWebhookSecret(secret string) Option {
	return func(c *config) {
		c.webhookSecret = secret
	}
}

// WithAPIToken sets the bearer token required by the upload endpoint
func WithAPIToken(token string) Option {
	return func(c *config) {
		c.apiToken = token
	}
}

// WithUploadDir sets where uploaded clips are stored
func WithUploadDir(dir string) Option {
	return func(c *config) {
		c.uploadDir = dir
	}
}

// WithMaxUploadSize bounds accepted upload size in bytes
func WithMaxUploadSize(n int64) Option {
	return func(c *config) {
		if n > 0 {
			c.maxUploadSize = n
		}
	}
}

// WithUploadRate sets the per-client upload rate (requests per second and
// burst)
func WithUploadRate(perSecond float64, burst int) Option {
	return func(c *config) {
		c.uploadRate = perSecond
		c.uploadBurst = burst
	}
}

// Server represents the HTTP server
type Server struct {
	*http.Server
}

// NewServer creates the HTTP server: health check, clip upload and the
// optional GitHub webhook receiver. Events are handed to the submitter.
func NewServer(
	ctx context.Context,
	submitter interfaces.EventSubmitter,
	opts ...Option,
) (*Server, error) {
	cfg := &config{
		addr:          "localhost:8080",
		uploadDir:     "uploads",
		maxUploadSize: 10 << 20,
		allowedExts:   []string{".html", ".htm"},
		uploadRate:    10.0 / 60.0, // 10 per minute, as a sustained rate
		uploadBurst:   10,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)

	router.Get("/health", handleHealth)

	uploadHandler := NewUploadHandler(cfg, submitter)
	router.Post("/", uploadHandler.Handle)
	router.Post("/upload", uploadHandler.Handle)

	if cfg.webhookSecret != "" {
		webhookHandler := NewWebhookHandler(cfg.webhookSecret, submitter)
		router.Post("/hooks/github", webhookHandler.Handle)
	}

	server := &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
	}

	return server, nil
}
