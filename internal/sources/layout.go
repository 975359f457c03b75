package sources

import (
	"io/fs"
	"regexp"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/stacklok/toolhive-catalog-server/internal/catalog"
)

const (
	// MetadataFile is the name of the metadata file of a repository or item
	MetadataFile = "metadata.yml"

	// DefaultLocale is used when no locale is configured
	DefaultLocale = "en"

	fallbackDirName = "repository"
)

var (
	unsafeDirChars   = regexp.MustCompile(`[^A-Za-z0-9_-]`)
	localeMetadataRe = regexp.MustCompile(`^metadata\.[A-Za-z0-9_-]+\.yml$`)
)

// ItemDirectory maps a top-level repository directory to the type of the
// items it holds
type ItemDirectory struct {
	Name string
	Type catalog.ItemType
}

// ItemDirectories lists the recognized item directories in walk order
var ItemDirectories = []ItemDirectory{
	{Name: "mcp-servers", Type: catalog.ItemTypeMCPServer},
	{Name: "roles", Type: catalog.ItemTypeRole},
	{Name: "storage-systems", Type: catalog.ItemTypeStorage},
	{Name: "items", Type: catalog.ItemTypeOther},
}

// SafeDirName derives the checkout directory name of a repository URL: the
// last non-empty path segment without a trailing .git, with every character
// outside [A-Za-z0-9_-] replaced by '-'
func SafeDirName(rawURL string) string {
	segments := strings.FieldsFunc(strings.TrimSpace(rawURL), func(r rune) bool {
		return r == '/' || r == ':'
	})
	if len(segments) == 0 {
		return fallbackDirName
	}

	name := strings.TrimSuffix(segments[len(segments)-1], ".git")
	if name == "" {
		return fallbackDirName
	}
	return unsafeDirChars.ReplaceAllString(name, "-")
}

// BrowseURL returns the repository URL without a trailing slash or .git
func BrowseURL(rawURL string) string {
	browse := strings.TrimRight(strings.TrimSpace(rawURL), "/")
	return strings.TrimSuffix(browse, ".git")
}

// validateLayout checks that dir holds a root metadata file and at least one
// recognized item directory. It returns an empty string when the layout is
// valid and an explanation otherwise.
func validateLayout(filesystem billy.Filesystem, dir string) (string, error) {
	entries, err := filesystem.ReadDir(dir)
	if err != nil {
		return "", err
	}

	hasMetadata := false
	hasItemDir := false
	for _, entry := range entries {
		switch {
		case !entry.IsDir() && isMetadataFileName(entry.Name()):
			hasMetadata = true
		case entry.IsDir() && isItemDirectory(entry.Name()):
			hasItemDir = true
		}
	}

	switch {
	case !hasMetadata:
		return "repository is missing " + MetadataFile + " at its root", nil
	case !hasItemDir:
		return "repository has no item directories (expected one of mcp-servers, roles, storage-systems or items)", nil
	}
	return "", nil
}

// findMetadataFile returns the path of the metadata file in dir, trying the
// locale variant, the default locale variant, the plain file and finally any
// other locale variant. It returns false when dir has no metadata file.
func findMetadataFile(filesystem billy.Filesystem, dir, locale, defaultLocale string) (string, fs.FileInfo, bool) {
	candidates := make([]string, 0, 3)
	if locale != "" {
		candidates = append(candidates, localeMetadataName(locale))
	}
	if defaultLocale != "" && defaultLocale != locale {
		candidates = append(candidates, localeMetadataName(defaultLocale))
	}
	candidates = append(candidates, MetadataFile)

	for _, name := range candidates {
		path := filesystem.Join(dir, name)
		if fi, err := filesystem.Stat(path); err == nil && !fi.IsDir() {
			return path, fi, true
		}
	}

	entries, err := filesystem.ReadDir(dir)
	if err != nil {
		return "", nil, false
	}
	slices.SortFunc(entries, byName)
	for _, entry := range entries {
		if !entry.IsDir() && localeMetadataRe.MatchString(entry.Name()) {
			return filesystem.Join(dir, entry.Name()), entry, true
		}
	}
	return "", nil, false
}

func localeMetadataName(locale string) string {
	return "metadata." + locale + ".yml"
}

func isMetadataFileName(name string) bool {
	return name == MetadataFile || localeMetadataRe.MatchString(name)
}

func isItemDirectory(name string) bool {
	return slices.ContainsFunc(ItemDirectories, func(d ItemDirectory) bool {
		return d.Name == name
	})
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func byName(a, b fs.FileInfo) int {
	return strings.Compare(a.Name(), b.Name())
}
