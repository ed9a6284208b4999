package github

import (
	"context"
	"io"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/clipline/clipline/pkg/domain/interfaces"
)

// Fetcher resolves github://owner/repo/sha/path payload refs to file content
type Fetcher struct {
	client interfaces.GitHubClient
}

var _ interfaces.Fetcher = (*Fetcher)(nil)

// NewFetcher creates a fetcher over the given client
func NewFetcher(client interfaces.GitHubClient) *Fetcher {
	return &Fetcher{client: client}
}

// Schemes implements interfaces.Fetcher
func (f *Fetcher) Schemes() []string {
	return []string{"github"}
}

// Fetch downloads the file behind ref
func (f *Fetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	rest := strings.TrimPrefix(ref, "github://")
	parts := strings.SplitN(rest, "/", 4)
	if len(parts) != 4 {
		return nil, goerr.New("malformed github payload ref", goerr.V("ref", ref))
	}
	owner, repo, sha, path := parts[0], parts[1], parts[2], parts[3]

	rc, err := f.client.DownloadContents(ctx, owner, repo, path, sha)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read github content", goerr.V("ref", ref))
	}
	return data, nil
}
