package filtering

import (
	"fmt"
	"slices"
)

// TagFilter decides whether a tag set passes include/exclude tag lists
type TagFilter interface {
	// ShouldInclude returns whether tags pass the lists and why
	ShouldInclude(tags []string, include, exclude []string) (bool, string)
}

// DefaultTagFilter matches tags exactly
type DefaultTagFilter struct{}

// NewDefaultTagFilter creates a new DefaultTagFilter
func NewDefaultTagFilter() *DefaultTagFilter {
	return &DefaultTagFilter{}
}

// ShouldInclude excludes when any tag is in exclude. Otherwise, with an
// include list at least one tag must be in it.
func (*DefaultTagFilter) ShouldInclude(tags []string, include, exclude []string) (bool, string) {
	if tag, ok := firstShared(tags, exclude); ok {
		return false, fmt.Sprintf("excluded by tag '%s'", tag)
	}

	if len(include) > 0 {
		if tag, ok := firstShared(tags, include); ok {
			return true, fmt.Sprintf("included by tag '%s'", tag)
		}
		return false, fmt.Sprintf("no matching tags found in include list %v (item tags: %v)", include, tags)
	}

	if len(exclude) > 0 {
		return true, fmt.Sprintf("no matching tags in exclude list %v (item tags: %v)", exclude, tags)
	}
	return true, "no tag filters specified"
}

// firstShared returns the first entry of list present in tags
func firstShared(tags, list []string) (string, bool) {
	for _, tag := range list {
		if slices.Contains(tags, tag) {
			return tag, true
		}
	}
	return "", false
}
