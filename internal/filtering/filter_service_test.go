package filtering

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stacklok/toolhive-catalog-server/internal/catalog"
	"github.com/stacklok/toolhive-catalog-server/internal/config"
)

func testItems() []catalog.Item {
	return []catalog.Item{
		{Name: "postgres-server", Type: catalog.ItemTypeMCPServer, Tags: []string{"database", "sql"}},
		{Name: "postgres-experimental", Type: catalog.ItemTypeMCPServer, Tags: []string{"database", "beta"}},
		{Name: "redis", Type: catalog.ItemTypeStorage, Tags: []string{"cache"}},
		{Name: "reviewer", Type: catalog.ItemTypeRole},
	}
}

func itemNames(items []catalog.Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Name)
	}
	return out
}

func TestDefaultFilterService_ApplyFilters_NoFilter(t *testing.T) {
	t.Parallel()

	items := testItems()
	result := NewDefaultFilterService().ApplyFilters(context.Background(), items, nil)
	assert.Equal(t, items, result)
}

func TestDefaultFilterService_ApplyFilters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		filter *config.FilterConfig
		want   []string
	}{
		{
			name:   "empty filter keeps everything",
			filter: &config.FilterConfig{},
			want:   []string{"postgres-server", "postgres-experimental", "redis", "reviewer"},
		},
		{
			name: "name include",
			filter: &config.FilterConfig{
				Names: &config.NameFilterConfig{Include: []string{"postgres-*"}},
			},
			want: []string{"postgres-server", "postgres-experimental"},
		},
		{
			name: "name exclude",
			filter: &config.FilterConfig{
				Names: &config.NameFilterConfig{Exclude: []string{"*-experimental"}},
			},
			want: []string{"postgres-server", "redis", "reviewer"},
		},
		{
			name: "tag include drops untagged items",
			filter: &config.FilterConfig{
				Tags: &config.TagFilterConfig{Include: []string{"database", "cache"}},
			},
			want: []string{"postgres-server", "postgres-experimental", "redis"},
		},
		{
			name: "name and tag must both pass",
			filter: &config.FilterConfig{
				Names: &config.NameFilterConfig{Include: []string{"postgres-*"}},
				Tags:  &config.TagFilterConfig{Exclude: []string{"beta"}},
			},
			want: []string{"postgres-server"},
		},
		{
			name: "nothing passes",
			filter: &config.FilterConfig{
				Tags: &config.TagFilterConfig{Include: []string{"unknown"}},
			},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			items := testItems()
			result := NewDefaultFilterService().ApplyFilters(context.Background(), items, tt.filter)
			assert.Equal(t, tt.want, itemNames(result))
			assert.Len(t, items, 4, "input is not modified")
		})
	}
}

type stubNameFilter struct {
	calls []string
}

func (s *stubNameFilter) ShouldInclude(name string, _, _ []string) (bool, string) {
	s.calls = append(s.calls, name)
	return name != "redis", "stub"
}

func TestNewFilterService_CustomFilters(t *testing.T) {
	t.Parallel()

	nameFilter := &stubNameFilter{}
	svc := NewFilterService(nameFilter, NewDefaultTagFilter())

	result := svc.ApplyFilters(context.Background(), testItems(), &config.FilterConfig{})
	assert.Equal(t, []string{"postgres-server", "postgres-experimental", "reviewer"}, itemNames(result))
	assert.Equal(t, []string{"postgres-server", "postgres-experimental", "redis", "reviewer"}, nameFilter.calls)
}

func TestShouldIncludeItemWithReason(t *testing.T) {
	t.Parallel()

	svc := &defaultFilterService{nameFilter: NewDefaultNameFilter(), tagFilter: NewDefaultTagFilter()}

	included, reason := svc.shouldIncludeItemWithReason("redis", []string{"cache"}, nil, nil, nil, nil)
	assert.True(t, included)
	assert.Equal(t, "no filters specified, default include", reason)

	included, reason = svc.shouldIncludeItemWithReason("redis", []string{"cache"}, []string{"re*"}, nil, []string{"cache"}, nil)
	assert.True(t, included)
	assert.Equal(t, "passed all filters: name filter: included by pattern 're*' AND tag filter: included by tag 'cache'", reason)

	included, reason = svc.shouldIncludeItemWithReason("redis", nil, nil, []string{"red*"}, nil, nil)
	assert.False(t, included)
	assert.Equal(t, "name filter: excluded by pattern 'red*'", reason)
}
