package fetch

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/clipline/clipline/pkg/domain/interfaces"
)

// maxBodySize caps how much content is read from any payload (16 MiB)
const maxBodySize = 16 << 20

// FileFetcher reads file:// payload refs from the local filesystem
type FileFetcher struct{}

var _ interfaces.Fetcher = (*FileFetcher)(nil)

// NewFile creates a file fetcher
func NewFile() *FileFetcher {
	return &FileFetcher{}
}

// Schemes implements interfaces.Fetcher
func (f *FileFetcher) Schemes() []string {
	return []string{"file"}
}

// Fetch reads the file behind ref
func (f *FileFetcher) Fetch(_ context.Context, ref string) ([]byte, error) {
	path := strings.TrimPrefix(ref, "file://")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read file payload", goerr.V("path", path))
	}
	if len(data) > maxBodySize {
		return nil, goerr.New("file payload exceeds size limit",
			goerr.V("path", path), goerr.V("size", len(data)))
	}
	return data, nil
}

// HTTPFetcher retrieves http:// and https:// payload refs
type HTTPFetcher struct {
	client *http.Client
}

var _ interfaces.Fetcher = (*HTTPFetcher)(nil)

// NewHTTP creates an HTTP fetcher. A nil client uses a default with a 30s
// timeout.
func NewHTTP(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPFetcher{client: client}
}

// Schemes implements interfaces.Fetcher
func (f *HTTPFetcher) Schemes() []string {
	return []string{"http", "https"}
}

// Fetch GETs the ref and returns the body
func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build payload request", goerr.V("url", ref))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch payload", goerr.V("url", ref))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, goerr.New("unexpected status fetching payload",
			goerr.V("url", ref), goerr.V("status", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read payload body", goerr.V("url", ref))
	}
	if len(data) > maxBodySize {
		return nil, goerr.New("payload exceeds size limit", goerr.V("url", ref))
	}
	return data, nil
}
