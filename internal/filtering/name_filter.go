package filtering

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

// NameFilter decides whether an item name passes include/exclude glob patterns
type NameFilter interface {
	// ShouldInclude returns whether name passes the patterns and why
	ShouldInclude(name string, include, exclude []string) (bool, string)
}

// defaultNameFilter matches case-insensitively and caches compiled patterns
type defaultNameFilter struct {
	compiled sync.Map // lowercased pattern -> glob.Glob
}

var _ NameFilter = (*defaultNameFilter)(nil)

// NewDefaultNameFilter creates a glob based NameFilter
func NewDefaultNameFilter() NameFilter {
	return &defaultNameFilter{}
}

// ValidatePattern reports whether pattern is a usable name pattern
func ValidatePattern(pattern string) error {
	// filepath.Match rejects malformed classes that glob.Compile accepts
	if _, err := filepath.Match(pattern, "test"); err != nil {
		return err
	}
	if _, err := glob.Compile(pattern); err != nil {
		return fmt.Errorf("invalid glob pattern: %w", err)
	}
	return nil
}

// match reports whether name matches pattern. Without separators '*' also
// matches '/', so "data-*" matches "data-tools/v2".
func (f *defaultNameFilter) match(pattern, name string) (bool, error) {
	key := strings.ToLower(pattern)
	if g, ok := f.compiled.Load(key); ok {
		return g.(glob.Glob).Match(strings.ToLower(name)), nil
	}

	if err := ValidatePattern(key); err != nil {
		return false, err
	}
	g := glob.MustCompile(key)
	f.compiled.Store(key, g)
	return g.Match(strings.ToLower(name)), nil
}

// ShouldInclude applies the patterns with exclude taking precedence.
// With include patterns a name must match one of them; with none every
// name not excluded passes.
func (f *defaultNameFilter) ShouldInclude(name string, include, exclude []string) (bool, string) {
	for _, pattern := range exclude {
		matches, err := f.match(pattern, name)
		if err != nil {
			return false, fmt.Sprintf("invalid exclude pattern '%s': %v", pattern, err)
		}
		if matches {
			return false, fmt.Sprintf("excluded by pattern '%s'", pattern)
		}
	}

	if len(include) > 0 {
		for _, pattern := range include {
			matches, err := f.match(pattern, name)
			if err != nil {
				return false, fmt.Sprintf("invalid include pattern '%s': %v", pattern, err)
			}
			if matches {
				return true, fmt.Sprintf("included by pattern '%s'", pattern)
			}
		}
		return false, fmt.Sprintf("no match found in include patterns %v", include)
	}

	if len(exclude) > 0 {
		return true, fmt.Sprintf("no match in exclude patterns %v", exclude)
	}
	return true, "no name filters specified"
}
