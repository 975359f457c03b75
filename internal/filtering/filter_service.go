package filtering

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stacklok/toolhive-catalog-server/internal/catalog"
	"github.com/stacklok/toolhive-catalog-server/internal/config"
)

// FilterService applies the configured item policy to an aggregated catalog
type FilterService interface {
	// ApplyFilters returns the items allowed by filter, in their original
	// order. A nil filter returns items unchanged.
	ApplyFilters(ctx context.Context, items []catalog.Item, filter *config.FilterConfig) []catalog.Item
}

type defaultFilterService struct {
	nameFilter NameFilter
	tagFilter  TagFilter
}

// NewDefaultFilterService creates a FilterService with the default name and tag filters
func NewDefaultFilterService() FilterService {
	return NewFilterService(NewDefaultNameFilter(), NewDefaultTagFilter())
}

// NewFilterService creates a FilterService with custom filter implementations
func NewFilterService(nameFilter NameFilter, tagFilter TagFilter) FilterService {
	return &defaultFilterService{
		nameFilter: nameFilter,
		tagFilter:  tagFilter,
	}
}

func (s *defaultFilterService) ApplyFilters(
	ctx context.Context,
	items []catalog.Item,
	filter *config.FilterConfig,
) []catalog.Item {
	if filter == nil {
		return items
	}

	var nameInclude, nameExclude, tagInclude, tagExclude []string
	if filter.Names != nil {
		nameInclude = filter.Names.Include
		nameExclude = filter.Names.Exclude
	}
	if filter.Tags != nil {
		tagInclude = filter.Tags.Include
		tagExclude = filter.Tags.Exclude
	}

	filtered := make([]catalog.Item, 0, len(items))
	for _, item := range items {
		included, reason := s.shouldIncludeItemWithReason(
			item.Name, item.Tags, nameInclude, nameExclude, tagInclude, tagExclude,
		)
		if included {
			filtered = append(filtered, item)
		}
		slog.DebugContext(ctx, "Applied item filter",
			"name", item.Name,
			"repo_url", item.RepoURL,
			"included", included,
			"reason", reason)
	}

	if excluded := len(items) - len(filtered); excluded > 0 {
		slog.InfoContext(ctx, "Catalog filtering completed",
			"included_items", len(filtered),
			"excluded_items", excluded)
	}

	return filtered
}

// shouldIncludeItemWithReason requires both the name and the tag filter to pass
func (s *defaultFilterService) shouldIncludeItemWithReason(
	name string,
	tags []string,
	nameInclude, nameExclude, tagInclude, tagExclude []string) (bool, string) {
	nameIncluded, nameReason := s.nameFilter.ShouldInclude(name, nameInclude, nameExclude)
	if !nameIncluded {
		return false, fmt.Sprintf("name filter: %s", nameReason)
	}

	tagIncluded, tagReason := s.tagFilter.ShouldInclude(tags, tagInclude, tagExclude)
	if !tagIncluded {
		return false, fmt.Sprintf("tag filter: %s", tagReason)
	}

	var reasons []string
	if len(nameInclude) > 0 || len(nameExclude) > 0 {
		reasons = append(reasons, fmt.Sprintf("name filter: %s", nameReason))
	}
	if len(tagInclude) > 0 || len(tagExclude) > 0 {
		reasons = append(reasons, fmt.Sprintf("tag filter: %s", tagReason))
	}

	if len(reasons) == 0 {
		return true, "no filters specified, default include"
	}
	return true, "passed all filters: " + strings.Join(reasons, " AND ")
}
