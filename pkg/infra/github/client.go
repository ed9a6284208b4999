package github

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/goerr/v2"

	"github.com/clipline/clipline/pkg/domain/interfaces"
)

type client struct {
	gh *github.Client
}

// NewClient creates a GitHub API client. An empty token yields an
// unauthenticated client, subject to the anonymous rate limit.
func NewClient(token string) interfaces.GitHubClient {
	gh := github.NewClient(&http.Client{Timeout: 30 * time.Second})
	if token != "" {
		gh = gh.WithAuthToken(token)
	}
	return &client{gh: gh}
}

// ListCommits lists commits on the repository, newest first
func (c *client) ListCommits(ctx context.Context, owner, repo string, opts *github.CommitsListOptions) ([]*github.RepositoryCommit, *github.Response, error) {
	return c.gh.Repositories.ListCommits(ctx, owner, repo, opts)
}

// GetCommit returns one commit with its changed files
func (c *client) GetCommit(ctx context.Context, owner, repo, sha string) (*github.RepositoryCommit, error) {
	commit, _, err := c.gh.Repositories.GetCommit(ctx, owner, repo, sha, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get commit",
			goerr.V("repo", owner+"/"+repo), goerr.V("sha", sha))
	}
	return commit, nil
}

// DownloadContents fetches the raw content of a file at a ref
func (c *client) DownloadContents(ctx context.Context, owner, repo, path, ref string) (io.ReadCloser, error) {
	rc, _, err := c.gh.Repositories.DownloadContents(ctx, owner, repo, path, &github.RepositoryContentGetOptions{
		Ref: ref,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to download file content",
			goerr.V("repo", owner+"/"+repo), goerr.V("path", path), goerr.V("ref", ref))
	}
	return rc, nil
}
