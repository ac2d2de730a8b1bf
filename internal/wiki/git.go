package wiki

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/roach88/ontology/internal/vocab"
)

// GitOptions configures a GitSource.
type GitOptions struct {
	URL    string
	Token  string // injected into https://github.com URLs
	Branch string // empty means the remote HEAD

	// ScratchDir is the parent of per-operation checkouts. Empty means os.TempDir.
	ScratchDir string

	AuthorName  string
	AuthorEmail string

	// CloneRetries is the number of extra clone attempts on transient failures.
	CloneRetries uint64

	Logger *slog.Logger
	Now    func() time.Time
}

// GitSource is a Source backed by a remote git repository.
type GitSource struct {
	opts   GitOptions
	logger *slog.Logger
}

// NewGitSource validates opts and returns a source.
func NewGitSource(opts GitOptions) (*GitSource, error) {
	if opts.URL == "" {
		return nil, errors.New("wiki repository url not configured")
	}
	if opts.AuthorName == "" {
		opts.AuthorName = "ontology"
	}
	if opts.AuthorEmail == "" {
		opts.AuthorEmail = "ontology@localhost"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &GitSource{opts: opts, logger: logger}, nil
}

// AuthURL injects token into a GitHub https URL that carries no credentials.
func AuthURL(url, token string) string {
	if token == "" || !strings.Contains(url, "github.com") || strings.Contains(url, "@") {
		return url
	}
	return strings.Replace(url, "https://github.com/", "https://"+token+"@github.com/", 1)
}

// RemoteURL is the URL used for clone and push.
func (s *GitSource) RemoteURL() string {
	return AuthURL(s.opts.URL, s.opts.Token)
}

func (s *GitSource) redacted() string {
	if s.opts.Token == "" {
		return s.opts.URL
	}
	return strings.ReplaceAll(s.RemoteURL(), s.opts.Token, "***")
}

// CloneOrUpdate makes target/wiki an up-to-date working copy of the remote.
// An existing checkout is pulled, otherwise the remote is cloned. Repeated
// calls converge on the remote state.
func (s *GitSource) CloneOrUpdate(ctx context.Context, target string) (string, error) {
	repoPath := filepath.Join(target, "wiki")

	repo, err := git.PlainOpen(repoPath)
	switch {
	case err == nil:
		if err := s.pull(ctx, repo); err != nil {
			return "", &vocab.SourceUnavailableError{Op: "pull", Err: err}
		}
		return repoPath, nil
	case errors.Is(err, git.ErrRepositoryNotExists):
	default:
		return "", fmt.Errorf("open checkout %s: %w", repoPath, err)
	}

	if err := s.clone(ctx, repoPath); err != nil {
		return "", &vocab.SourceUnavailableError{Op: "clone", Err: err}
	}
	return repoPath, nil
}

func (s *GitSource) clone(ctx context.Context, repoPath string) error {
	opts := &git.CloneOptions{URL: s.RemoteURL()}
	if s.opts.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(s.opts.Branch)
		opts.SingleBranch = true
	}

	attempt := 0
	op := func() error {
		attempt++
		_, err := git.PlainCloneContext(ctx, repoPath, false, opts)
		if err == nil {
			return nil
		}
		_ = os.RemoveAll(repoPath)
		if permanentRemoteError(err) {
			return backoff.Permanent(err)
		}
		s.logger.Debug("wiki clone failed", "url", s.redacted(), "attempt", attempt, "error", err)
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.opts.CloneRetries), ctx)
	return backoff.Retry(op, b)
}

func (s *GitSource) pull(ctx context.Context, repo *git.Repository) error {
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree: %w", err)
	}
	opts := &git.PullOptions{RemoteName: "origin"}
	if s.opts.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(s.opts.Branch)
		opts.SingleBranch = true
	}
	if err := wt.PullContext(ctx, opts); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return err
	}
	return nil
}

func permanentRemoteError(err error) bool {
	return errors.Is(err, transport.ErrAuthenticationRequired) ||
		errors.Is(err, transport.ErrAuthorizationFailed) ||
		errors.Is(err, transport.ErrRepositoryNotFound) ||
		errors.Is(err, transport.ErrEmptyRemoteRepository) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// WithCheckout implements Source.
func (s *GitSource) WithCheckout(ctx context.Context, fn func(Checkout) error) error {
	scratch, err := os.MkdirTemp(s.opts.ScratchDir, "ontology-wiki-")
	if err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			s.logger.Warn("wiki scratch cleanup failed", "dir", scratch, "error", err)
		}
	}()

	repoPath, err := s.CloneOrUpdate(ctx, scratch)
	if err != nil {
		return err
	}
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return fmt.Errorf("open checkout: %w", err)
	}
	s.logger.Debug("wiki checkout ready", "url", s.redacted(), "dir", repoPath)

	return fn(&gitCheckout{source: s, repo: repo, dir: repoPath})
}

type gitCheckout struct {
	source *GitSource
	repo   *git.Repository
	dir    string
}

func (c *gitCheckout) ReadPage(name string) (string, bool, error) {
	data, err := os.ReadFile(filepath.Join(c.dir, FileName(name)))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read page %s: %w", name, err)
	}
	return string(data), true, nil
}

func (c *gitCheckout) WritePage(name, text string) error {
	if err := os.WriteFile(filepath.Join(c.dir, FileName(name)), []byte(text), 0o644); err != nil {
		return fmt.Errorf("write page %s: %w", name, err)
	}
	return nil
}

func (c *gitCheckout) CommitAndPush(ctx context.Context, pages []string, message string) (bool, error) {
	wt, err := c.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("worktree: %w", err)
	}
	for _, p := range pages {
		if _, err := wt.Add(FileName(p)); err != nil {
			return false, fmt.Errorf("stage page %s: %w", p, err)
		}
	}

	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("status: %w", err)
	}
	if status.IsClean() {
		return false, nil
	}

	_, err = wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  c.source.opts.AuthorName,
			Email: c.source.opts.AuthorEmail,
			When:  c.source.opts.Now(),
		},
	})
	if err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}

	err = c.repo.PushContext(ctx, &git.PushOptions{RemoteName: "origin"})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return false, &vocab.SourceUnavailableError{Op: "push", Err: err}
	}
	c.source.logger.Info("wiki pages pushed", "pages", pages, "message", message)
	return true, nil
}
