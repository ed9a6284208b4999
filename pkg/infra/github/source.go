package github

import (
	"context"
	"strings"
	"time"

	"github.com/google/go-github/v75/github"
	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/clipline/clipline/pkg/domain/interfaces"
	"github.com/clipline/clipline/pkg/domain/model"
	"github.com/clipline/clipline/pkg/domain/types"
)

// DefaultPollInterval is how often the source checks for new commits
const DefaultPollInterval = time.Minute

// Source polls a repository for new commits and emits one ChangeEvent per
// file added or modified in each unseen commit. The cursor is the timestamp
// of the newest commit already processed.
type Source struct {
	sourceID types.SourceID
	client   interfaces.GitHubClient
	owner    string
	repo     string
	branch   string
	interval time.Duration
	cursor   time.Time
}

var _ interfaces.Source = (*Source)(nil)

// NewSource creates a polling source for owner/repo. repoSlug is
// "owner/name"; branch may be empty for the default branch.
func NewSource(sourceID types.SourceID, client interfaces.GitHubClient, repoSlug, branch string, interval time.Duration) (*Source, error) {
	owner, repo, ok := strings.Cut(repoSlug, "/")
	if !ok || owner == "" || repo == "" {
		return nil, goerr.New("repository must be owner/name",
			goerr.T(types.TagConfig), goerr.V("repo", repoSlug))
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	return &Source{
		sourceID: sourceID,
		client:   client,
		owner:    owner,
		repo:     repo,
		branch:   branch,
		interval: interval,
		cursor:   time.Now(),
	}, nil
}

// Name implements interfaces.Source
func (s *Source) Name() string {
	return "github:" + s.owner + "/" + s.repo
}

// Run polls until ctx is done. Poll failures are logged and the next tick
// tries again.
func (s *Source) Run(ctx context.Context, out chan<- *model.ChangeEvent) error {
	logger := ctxlog.From(ctx)

	logger.Info("github source started",
		"repo", s.owner+"/"+s.repo,
		"interval", s.interval,
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.poll(ctx, out); err != nil {
				logger.Warn("github poll failed",
					"repo", s.owner+"/"+s.repo,
					"error", err,
				)
			}
		}
	}
}

func (s *Source) poll(ctx context.Context, out chan<- *model.ChangeEvent) error {
	commits, _, err := s.client.ListCommits(ctx, s.owner, s.repo, &github.CommitsListOptions{
		SHA:   s.branch,
		Since: s.cursor,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to list commits")
	}

	// Newest first from the API; process oldest first so DetectedAt stays
	// monotonic within the source.
	for i := len(commits) - 1; i >= 0; i-- {
		sha := commits[i].GetSHA()
		when := commits[i].GetCommit().GetCommitter().GetDate().Time
		if !when.After(s.cursor) {
			continue
		}

		if err := s.emitCommit(ctx, sha, out); err != nil {
			return err
		}
		s.cursor = when
	}
	return nil
}

func (s *Source) emitCommit(ctx context.Context, sha string, out chan<- *model.ChangeEvent) error {
	commit, err := s.client.GetCommit(ctx, s.owner, s.repo, sha)
	if err != nil {
		return err
	}

	for _, file := range commit.Files {
		switch file.GetStatus() {
		case "added", "modified", "renamed":
		default:
			continue
		}

		event := &model.ChangeEvent{
			ID:          uuid.NewString(),
			SourceID:    s.sourceID,
			ExternalRef: s.owner + "/" + s.repo + "@" + sha + ":" + file.GetFilename(),
			DetectedAt:  time.Now(),
			PayloadRef:  PayloadRef(s.owner, s.repo, sha, file.GetFilename()),
		}

		select {
		case <-ctx.Done():
			return nil
		case out <- event:
		}
	}
	return nil
}

// PayloadRef builds a github:// payload ref for a file at a commit
func PayloadRef(owner, repo, sha, path string) string {
	return "github://" + owner + "/" + repo + "/" + sha + "/" + path
}
