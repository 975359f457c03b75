package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client

// DefaultDepth is the history depth used for clones and pulls
const DefaultDepth = 1

// ErrRemoteMismatch is returned by Pull when the working copy was cloned
// from another repository
var ErrRemoteMismatch = errors.New("working copy belongs to another remote")

// CheckoutInfo describes the state of a working copy after a clone or pull
type CheckoutInfo struct {
	// Branch is the short name of the checked out branch, empty for a detached HEAD
	Branch string
	// Commit is the hash HEAD points to
	Commit string
}

// Client defines the version control operations used by the catalog
type Client interface {
	// Clone clones url into dir, which must not contain a working copy
	Clone(ctx context.Context, url, dir string) (*CheckoutInfo, error)

	// Pull fast-forwards the working copy in dir from its origin remote. It
	// fails with ErrRemoteMismatch when origin does not point at url.
	Pull(ctx context.Context, url, dir string) (*CheckoutInfo, error)

	// IsRepository reports whether dir holds a working copy
	IsRepository(dir string) bool
}

// Option configures the default client
type Option func(*defaultClient)

// WithDepth overrides the history depth. Zero fetches the full history.
func WithDepth(depth int) Option {
	return func(c *defaultClient) {
		c.depth = depth
	}
}

// defaultClient implements Client using go-git on top of a billy filesystem
type defaultClient struct {
	fs    billy.Filesystem
	depth int
}

// NewDefaultClient creates a Client whose working copies live in fs
func NewDefaultClient(fs billy.Filesystem, opts ...Option) Client {
	c := &defaultClient{
		fs:    fs,
		depth: DefaultDepth,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clone clones url into dir
func (c *defaultClient) Clone(ctx context.Context, url, dir string) (*CheckoutInfo, error) {
	worktree, storer, err := c.open(dir)
	if err != nil {
		return nil, err
	}

	repo, err := git.CloneContext(ctx, storer, worktree, &git.CloneOptions{
		URL:          url,
		Depth:        c.depth,
		SingleBranch: true,
		Tags:         git.NoTags,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to clone repository: %w", err)
	}

	info, err := checkoutInfo(repo)
	if err != nil {
		return nil, err
	}

	slog.Debug("Cloned repository", "url", url, "dir", dir, "branch", info.Branch, "commit", info.Commit)
	return info, nil
}

// Pull updates the working copy in dir
func (c *defaultClient) Pull(ctx context.Context, url, dir string) (*CheckoutInfo, error) {
	worktree, storer, err := c.open(dir)
	if err != nil {
		return nil, err
	}

	repo, err := git.Open(storer, worktree)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	if err := checkOrigin(repo, url); err != nil {
		return nil, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	err = wt.PullContext(ctx, &git.PullOptions{
		RemoteName:   git.DefaultRemoteName,
		Depth:        c.depth,
		SingleBranch: true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil, fmt.Errorf("failed to pull repository: %w", err)
	}

	info, err := checkoutInfo(repo)
	if err != nil {
		return nil, err
	}

	slog.Debug("Pulled repository", "url", url, "dir", dir, "branch", info.Branch, "commit", info.Commit)
	return info, nil
}

// IsRepository reports whether dir contains a .git directory
func (c *defaultClient) IsRepository(dir string) bool {
	fi, err := c.fs.Stat(c.fs.Join(dir, git.GitDirName))
	return err == nil && fi.IsDir()
}

// open returns the worktree filesystem rooted at dir and a storer rooted at
// dir/.git
func (c *defaultClient) open(dir string) (billy.Filesystem, *filesystem.Storage, error) {
	worktree, err := c.fs.Chroot(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open worktree %s: %w", dir, err)
	}

	dot, err := worktree.Chroot(git.GitDirName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open git directory in %s: %w", dir, err)
	}

	return worktree, filesystem.NewStorage(dot, cache.NewObjectLRUDefault()), nil
}

func checkoutInfo(repo *git.Repository) (*CheckoutInfo, error) {
	ref, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD reference: %w", err)
	}

	info := &CheckoutInfo{Commit: ref.Hash().String()}
	if ref.Name().IsBranch() {
		info.Branch = ref.Name().Short()
	}
	return info, nil
}

// checkOrigin verifies that the origin remote of repo points at url
func checkOrigin(repo *git.Repository, url string) error {
	remote, err := repo.Remote(git.DefaultRemoteName)
	if err != nil {
		return fmt.Errorf("failed to read origin remote: %w", err)
	}

	for _, origin := range remote.Config().URLs {
		if sameRemote(origin, url) {
			return nil
		}
	}
	return fmt.Errorf("%w: origin is %v, want %s", ErrRemoteMismatch, remote.Config().URLs, url)
}

// sameRemote compares remote URLs ignoring case, surrounding whitespace and
// a trailing slash or .git suffix
func sameRemote(a, b string) bool {
	return normalizeRemote(a) == normalizeRemote(b)
}

func normalizeRemote(u string) string {
	u = strings.ToLower(strings.TrimSpace(u))
	u = strings.TrimSuffix(u, "/")
	return strings.TrimSuffix(u, ".git")
}
