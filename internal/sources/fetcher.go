package sources

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"slices"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"k8s.io/utils/clock"

	"github.com/stacklok/toolhive-catalog-server/internal/catalog"
	"github.com/stacklok/toolhive-catalog-server/internal/git"
)

//go:generate mockgen -destination=mocks/mock_fetcher.go -package=mocks -source=fetcher.go Fetcher

const (
	// DefaultCacheRoot is the directory holding one checkout per source
	DefaultCacheRoot = "repos"

	// DefaultCloneTimeout bounds a fresh clone
	DefaultCloneTimeout = 30 * time.Second

	// DefaultPullTimeout bounds an update of an existing checkout
	DefaultPullTimeout = 20 * time.Second

	// DefaultBranch is used in item URLs when the checkout branch is unknown
	DefaultBranch = "main"
)

// Fetcher acquires a source repository and parses it into a catalog
// repository
type Fetcher interface {
	// FetchRepository clones or updates url and parses its contents. It always
	// returns a repository; on failure that repository is empty, carries the
	// error message, and the returned error is a *FetchError.
	FetchRepository(ctx context.Context, url string, forceRefresh bool, sourceName string) (*catalog.Repository, error)

	// CacheRoot returns the directory holding the checkouts
	CacheRoot() string
}

// FetcherOption configures the default fetcher
type FetcherOption func(*defaultFetcher)

// WithCacheRoot sets the directory holding the checkouts
func WithCacheRoot(root string) FetcherOption {
	return func(f *defaultFetcher) {
		f.root = root
	}
}

// WithLocale sets the preferred metadata locale and the fallback locale
func WithLocale(locale, defaultLocale string) FetcherOption {
	return func(f *defaultFetcher) {
		f.locale = locale
		f.defaultLocale = defaultLocale
	}
}

// WithCloneTimeout bounds clone operations
func WithCloneTimeout(d time.Duration) FetcherOption {
	return func(f *defaultFetcher) {
		f.cloneTimeout = d
	}
}

// WithPullTimeout bounds pull operations
func WithPullTimeout(d time.Duration) FetcherOption {
	return func(f *defaultFetcher) {
		f.pullTimeout = d
	}
}

// WithFetcherClock sets the clock used for operation timeouts
func WithFetcherClock(clk clock.Clock) FetcherOption {
	return func(f *defaultFetcher) {
		f.clock = clk
	}
}

type defaultFetcher struct {
	fs            billy.Filesystem
	client        git.Client
	clock         clock.Clock
	root          string
	locale        string
	defaultLocale string
	cloneTimeout  time.Duration
	pullTimeout   time.Duration
}

// NewFetcher creates a Fetcher keeping its checkouts in filesystem
func NewFetcher(filesystem billy.Filesystem, client git.Client, opts ...FetcherOption) Fetcher {
	f := &defaultFetcher{
		fs:            filesystem,
		client:        client,
		clock:         clock.RealClock{},
		root:          DefaultCacheRoot,
		locale:        DefaultLocale,
		defaultLocale: DefaultLocale,
		cloneTimeout:  DefaultCloneTimeout,
		pullTimeout:   DefaultPullTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *defaultFetcher) CacheRoot() string {
	return f.root
}

// FetchRepository implements Fetcher
func (f *defaultFetcher) FetchRepository(
	ctx context.Context, url string, forceRefresh bool, sourceName string,
) (*catalog.Repository, error) {
	startTime := f.clock.Now()
	slog.Debug("Fetching repository", "url", url, "force_refresh", forceRefresh)

	if err := f.fs.MkdirAll(f.root, 0755); err != nil {
		return failedRepository(url, KindSetup, "failed to create cache directory", err)
	}

	dir := f.fs.Join(f.root, SafeDirName(url))

	info, err := f.checkout(ctx, url, dir)
	if err != nil {
		return failedRepository(url, KindAcquisition, "failed to fetch repository", err)
	}

	problem, err := validateLayout(f.fs, dir)
	if err != nil {
		return failedRepository(url, KindLayout, "failed to read repository", err)
	}
	if problem != "" {
		return failedRepository(url, KindLayout, problem, nil)
	}

	repo := &catalog.Repository{
		Metadata:      f.readRepositoryMetadata(dir),
		Items:         f.walkItems(dir, url, info.Branch, sourceName),
		URL:           url,
		DefaultBranch: info.Branch,
	}

	slog.Info("Fetched repository",
		"url", url,
		"branch", info.Branch,
		"commit", info.Commit,
		"items", len(repo.Items),
		"duration", f.clock.Since(startTime).String())

	return repo, nil
}

// checkout pulls an existing working copy and falls back to a fresh clone.
// Sources sharing a directory name replace each other's checkout since the
// pull refuses a working copy cloned from another remote.
func (f *defaultFetcher) checkout(ctx context.Context, url, dir string) (*git.CheckoutInfo, error) {
	if f.client.IsRepository(dir) {
		info, err := RunWithTimeout(ctx, f.clock, f.pullTimeout, func(ctx context.Context) (*git.CheckoutInfo, error) {
			return f.client.Pull(ctx, url, dir)
		})
		if err == nil {
			return info, nil
		}
		slog.Warn("Pull failed, re-cloning repository", "url", url, "dir", dir, "error", err)
	}

	// Anything left in dir is a partial or broken checkout
	if err := util.RemoveAll(f.fs, dir); err != nil {
		return nil, fmt.Errorf("failed to remove %s: %w", dir, err)
	}

	return RunWithTimeout(ctx, f.clock, f.cloneTimeout, func(ctx context.Context) (*git.CheckoutInfo, error) {
		return f.client.Clone(ctx, url, dir)
	})
}

func (f *defaultFetcher) readRepositoryMetadata(dir string) catalog.RepositoryMetadata {
	metadataPath, _, ok := f.findMetadata(dir)
	if !ok {
		return repositoryMetadata(fields{})
	}

	flds, err := f.readFields(metadataPath)
	if err != nil {
		slog.Warn("Invalid repository metadata, using placeholders", "path", metadataPath, "error", err)
		return repositoryMetadata(fields{})
	}
	return repositoryMetadata(flds)
}

// walkItems turns every immediate subdirectory of a recognized item
// directory into an item. A failing item is logged and skipped.
func (f *defaultFetcher) walkItems(dir, url, branch, sourceName string) []catalog.Item {
	if branch == "" {
		branch = DefaultBranch
	}
	browse := BrowseURL(url)

	items := []catalog.Item{}
	for _, itemDir := range ItemDirectories {
		typeDir := f.fs.Join(dir, itemDir.Name)
		entries, err := f.fs.ReadDir(typeDir)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				slog.Warn("Failed to list item directory", "path", typeDir, "error", err)
			}
			continue
		}
		slices.SortFunc(entries, byName)

		for _, entry := range entries {
			if !entry.IsDir() || isHidden(entry.Name()) {
				continue
			}

			item, err := f.readItem(f.fs.Join(typeDir, entry.Name()), entry.Name(), itemDir)
			if err != nil {
				slog.Warn("Skipping item", "url", url, "item", path.Join(itemDir.Name, entry.Name()), "error", err)
				continue
			}

			item.URL = fmt.Sprintf("%s/tree/%s/%s/%s", browse, branch, itemDir.Name, entry.Name())
			item.RepoURL = url
			item.SourceName = sourceName
			items = append(items, *item)
		}
	}
	return items
}

func (f *defaultFetcher) readItem(itemPath, dirName string, itemDir ItemDirectory) (*catalog.Item, error) {
	item := &catalog.Item{
		Name: dirName,
		Type: itemDir.Type,
	}

	metadataPath, fi, ok := f.findMetadata(itemPath)
	if !ok {
		return item, nil
	}
	item.LastUpdated = formatModTime(fi)

	flds, err := f.readFields(metadataPath)
	if errors.Is(err, errUnreadable) {
		return nil, err
	}
	if err != nil {
		slog.Warn("Invalid item metadata, using defaults", "path", metadataPath, "error", err)
		return item, nil
	}

	md := itemMetadataFrom(flds)
	if md.Name != "" {
		item.Name = md.Name
	}
	if md.Type != "" {
		item.Type = md.Type
	}
	item.Description = md.Description
	item.Author = md.Author
	item.Version = md.Version
	item.Tags = md.Tags
	item.SourceURL = md.SourceURL

	if item.IsPackage() {
		item.Items = f.readSubItems(itemPath, md.Items)
	}
	return item, nil
}

// readSubItems returns the declared sub-items of a package followed by any
// other subdirectory holding a metadata file
func (f *defaultFetcher) readSubItems(packagePath string, refs []subItemRef) []catalog.SubItem {
	var subItems []catalog.SubItem
	declared := make(map[string]bool, len(refs))

	for _, ref := range refs {
		if !filepath.IsLocal(ref.Path) || declared[ref.Path] {
			slog.Warn("Ignoring sub-item", "package", packagePath, "path", ref.Path)
			continue
		}
		declared[ref.Path] = true
		subItems = append(subItems, f.readSubItem(packagePath, ref.Path, ref.Type))
	}

	entries, err := f.fs.ReadDir(packagePath)
	if err != nil {
		slog.Warn("Failed to list package directory", "path", packagePath, "error", err)
		return subItems
	}
	slices.SortFunc(entries, byName)

	for _, entry := range entries {
		if !entry.IsDir() || isHidden(entry.Name()) || declared[entry.Name()] {
			continue
		}
		if _, _, ok := f.findMetadata(f.fs.Join(packagePath, entry.Name())); !ok {
			continue
		}
		subItems = append(subItems, f.readSubItem(packagePath, entry.Name(), ""))
	}
	return subItems
}

func (f *defaultFetcher) readSubItem(packagePath, rel string, declaredType catalog.ItemType) catalog.SubItem {
	sub := catalog.SubItem{
		Type: declaredType,
		Path: rel,
		Metadata: &catalog.ComponentMetadata{
			Name: path.Base(rel),
		},
	}

	if metadataPath, fi, ok := f.findMetadata(f.fs.Join(packagePath, rel)); ok {
		sub.LastUpdated = formatModTime(fi)

		flds, err := f.readFields(metadataPath)
		if err != nil {
			slog.Warn("Invalid sub-item metadata, using defaults", "path", metadataPath, "error", err)
		} else {
			md := itemMetadataFrom(flds)
			if md.Name != "" {
				sub.Metadata.Name = md.Name
			}
			sub.Metadata.Description = md.Description
			sub.Metadata.Type = md.Type
			sub.Metadata.Author = md.Author
			sub.Metadata.Version = md.Version
			sub.Metadata.Tags = md.Tags
		}
	}

	switch {
	case sub.Type == "" && sub.Metadata.Type != "":
		sub.Type = sub.Metadata.Type
	case sub.Type == "":
		sub.Type = catalog.ItemTypeOther
	}
	if sub.Metadata.Type == "" {
		sub.Metadata.Type = sub.Type
	}
	return sub
}

func (f *defaultFetcher) findMetadata(dir string) (string, fs.FileInfo, bool) {
	return findMetadataFile(f.fs, dir, f.locale, f.defaultLocale)
}

var errUnreadable = errors.New("metadata file is unreadable")

func (f *defaultFetcher) readFields(metadataPath string) (fields, error) {
	data, err := util.ReadFile(f.fs, metadataPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errUnreadable, err)
	}
	return parseFields(data)
}

func failedRepository(url string, kind Kind, message string, err error) (*catalog.Repository, error) {
	fetchErr := &FetchError{Kind: kind, URL: url, Message: message, Err: err}
	slog.Error("Repository fetch failed", "url", url, "kind", string(kind), "error", fetchErr)
	return &catalog.Repository{
		Items: []catalog.Item{},
		URL:   url,
		Error: fetchErr.Error(),
	}, fetchErr
}

func formatModTime(fi fs.FileInfo) string {
	if fi == nil || fi.ModTime().IsZero() {
		return ""
	}
	return fi.ModTime().UTC().Format(time.RFC3339)
}
