package interfaces

import (
	"context"
	"io"

	"github.com/google/go-github/v75/github"
)

// GitHubClient is the narrow slice of the GitHub API used by the repository
// source. Kept as an interface so the poller can be tested without network.
type GitHubClient interface {
	// ListCommits lists commits on a repository, newest first
	ListCommits(ctx context.Context, owner, repo string, opts *github.CommitsListOptions) ([]*github.RepositoryCommit, *github.Response, error)

	// GetCommit returns one commit including its changed files
	GetCommit(ctx context.Context, owner, repo, sha string) (*github.RepositoryCommit, error)

	// DownloadContents fetches the raw content of a file at a ref
	DownloadContents(ctx context.Context, owner, repo, path, ref string) (io.ReadCloser, error)
}
