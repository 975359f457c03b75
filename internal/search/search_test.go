package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/stacklok/toolhive-catalog-server/internal/catalog"
)

func dataPackage() catalog.Item {
	return catalog.Item{
		Name:        "Data Tools",
		Description: "Helpers for data pipelines",
		Type:        catalog.ItemTypePackage,
		Tags:        []string{"data"},
		Items: []catalog.SubItem{
			{
				Type: catalog.ItemTypeMCPServer,
				Path: "servers/db",
				Metadata: &catalog.ComponentMetadata{
					Name:        "Database Server",
					Description: "Query databases",
					Type:        catalog.ItemTypeMCPServer,
					Tags:        []string{"db"},
				},
			},
			{
				Type: catalog.ItemTypeMode,
				Path: "modes/validator",
				Metadata: &catalog.ComponentMetadata{
					Name:        "Schema Validator",
					Description: "Checks   records",
					Type:        catalog.ItemTypeMode,
				},
			},
		},
	}
}

func names(items []catalog.Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Name)
	}
	return out
}

func TestFilterItems_HierarchicalTypeMatch(t *testing.T) {
	t.Parallel()

	items := []catalog.Item{dataPackage(), {Name: "Reviewer", Type: catalog.ItemTypeRole}}

	got := FilterItems(items, Filters{Type: catalog.ItemTypeMode})
	require.Len(t, got, 1)

	pkg := got[0]
	require.NotNil(t, pkg.MatchInfo)
	assert.True(t, pkg.MatchInfo.Matched)
	require.NotNil(t, pkg.MatchInfo.MatchReason)
	assert.True(t, pkg.MatchInfo.MatchReason.HasMatchingSubcomponents)
	assert.False(t, pkg.MatchInfo.MatchReason.TypeMatch)

	require.Len(t, pkg.Items, 2)
	assert.Equal(t, &catalog.MatchInfo{Matched: false}, pkg.Items[0].MatchInfo)
	require.NotNil(t, pkg.Items[1].MatchInfo)
	assert.True(t, pkg.Items[1].MatchInfo.Matched)
	assert.True(t, pkg.Items[1].MatchInfo.MatchReason.TypeMatch)
}

func TestFilterItems_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	items := []catalog.Item{dataPackage()}
	_ = FilterItems(items, Filters{Search: "validator"})
	_ = FilterItems(items, Filters{})

	assert.Nil(t, items[0].MatchInfo)
	for _, sub := range items[0].Items {
		assert.Nil(t, sub.MatchInfo)
	}
}

func TestFilterItems(t *testing.T) {
	t.Parallel()

	items := []catalog.Item{
		{Name: "Code Reviewer", Description: "Reviews pull requests", Type: catalog.ItemTypeRole, Tags: []string{"review", "git"}},
		{Name: "Filesystem", Description: "Read and write files", Type: catalog.ItemTypeMCPServer, Tags: []string{"io"}},
		{Name: "Postgres", Description: "SQL storage", Type: catalog.ItemTypeStorage},
		dataPackage(),
	}

	tests := []struct {
		name       string
		filters    Filters
		want       []string
		wantReason map[string]catalog.MatchReason
	}{
		{
			name:    "no filters",
			filters: Filters{Search: "   "},
			want:    []string{"Code Reviewer", "Filesystem", "Postgres", "Data Tools"},
		},
		{
			name:    "search name case insensitive",
			filters: Filters{Search: "CODE"},
			want:    []string{"Code Reviewer"},
			wantReason: map[string]catalog.MatchReason{
				"Code Reviewer": {NameMatch: true},
			},
		},
		{
			name:    "search normalizes whitespace",
			filters: Filters{Search: "  pull \t requests "},
			want:    []string{"Code Reviewer"},
			wantReason: map[string]catalog.MatchReason{
				"Code Reviewer": {DescriptionMatch: true},
			},
		},
		{
			name:    "search finds package through sub-item",
			filters: Filters{Search: "validator"},
			want:    []string{"Data Tools"},
			wantReason: map[string]catalog.MatchReason{
				"Data Tools": {HasMatchingSubcomponents: true},
			},
		},
		{
			name:    "sub-item description whitespace is normalized",
			filters: Filters{Search: "checks records"},
			want:    []string{"Data Tools"},
		},
		{
			name:    "package matching directly and through sub-item",
			filters: Filters{Search: "data"},
			want:    []string{"Data Tools"},
			wantReason: map[string]catalog.MatchReason{
				"Data Tools": {NameMatch: true, DescriptionMatch: true, HasMatchingSubcomponents: true},
			},
		},
		{
			name:    "type filter",
			filters: Filters{Type: catalog.ItemTypeStorage},
			want:    []string{"Postgres"},
			wantReason: map[string]catalog.MatchReason{
				"Postgres": {TypeMatch: true},
			},
		},
		{
			name:    "tags match any",
			filters: Filters{Tags: []string{"io", "db"}},
			want:    []string{"Filesystem", "Data Tools"},
			wantReason: map[string]catalog.MatchReason{
				"Filesystem": {TagMatch: true},
				"Data Tools": {HasMatchingSubcomponents: true},
			},
		},
		{
			name:    "dimensions are conjunctive",
			filters: Filters{Type: catalog.ItemTypeRole, Search: "files"},
			want:    []string{},
		},
		{
			name:    "sub-item must satisfy all filters itself",
			filters: Filters{Type: catalog.ItemTypeMode, Tags: []string{"db"}},
			want:    []string{},
		},
		{
			name:    "package type matches directly",
			filters: Filters{Type: catalog.ItemTypePackage},
			want:    []string{"Data Tools"},
			wantReason: map[string]catalog.MatchReason{
				"Data Tools": {TypeMatch: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := FilterItems(items, tt.filters)
			assert.Equal(t, tt.want, names(got))

			for _, item := range got {
				require.NotNil(t, item.MatchInfo)
				assert.True(t, item.MatchInfo.Matched)
				if want, ok := tt.wantReason[item.Name]; ok {
					require.NotNil(t, item.MatchInfo.MatchReason)
					assert.Equal(t, want, *item.MatchInfo.MatchReason)
				}
				for _, sub := range item.Items {
					assert.NotNil(t, sub.MatchInfo, "every sub-item of a returned package is annotated")
				}
			}
		})
	}
}

func TestFilterItems_SubItemsNeverPruned(t *testing.T) {
	t.Parallel()

	got := FilterItems([]catalog.Item{dataPackage()}, Filters{Search: "tools"})
	require.Len(t, got, 1)
	require.Len(t, got[0].Items, 2)
	assert.False(t, got[0].Items[0].MatchInfo.Matched)
	assert.False(t, got[0].Items[1].MatchInfo.Matched)
	assert.False(t, got[0].MatchInfo.MatchReason.HasMatchingSubcomponents)
}

func TestSortItems(t *testing.T) {
	t.Parallel()

	items := []catalog.Item{{Name: "B"}, {Name: "A"}, {Name: "C"}}

	assert.Equal(t, []string{"A", "B", "C"}, names(SortItems(items, SortByName, Ascending, false)))
	assert.Equal(t, []string{"C", "B", "A"}, names(SortItems(items, SortByName, Descending, false)))
	assert.Equal(t, []string{"B", "A", "C"}, names(items), "input order is preserved")
}

func TestSortItems_MissingAuthorFirst(t *testing.T) {
	t.Parallel()

	items := []catalog.Item{
		{Name: "with-zed", Author: "Zed"},
		{Name: "anonymous"},
		{Name: "with-alice", Author: "alice"},
	}

	assert.Equal(t, []string{"anonymous", "with-alice", "with-zed"}, names(SortItems(items, SortByAuthor, Ascending, false)))
	assert.Equal(t, []string{"with-zed", "with-alice", "anonymous"}, names(SortItems(items, SortByAuthor, Descending, false)))
}

func TestSortItems_Stable(t *testing.T) {
	t.Parallel()

	items := []catalog.Item{
		{Name: "first", Author: "Same"},
		{Name: "second", Author: "Same"},
		{Name: "third", Author: "Same"},
	}

	assert.Equal(t, []string{"first", "second", "third"}, names(SortItems(items, SortByAuthor, Ascending, false)))
	assert.Equal(t, []string{"first", "second", "third"}, names(SortItems(items, SortByAuthor, Descending, false)))
}

func TestSortItems_LastUpdated(t *testing.T) {
	t.Parallel()

	items := []catalog.Item{
		{Name: "new", LastUpdated: "2025-03-01T10:00:00Z"},
		{Name: "unknown"},
		{Name: "old", LastUpdated: "2024-12-31T23:59:59Z"},
	}

	assert.Equal(t, []string{"unknown", "old", "new"}, names(SortItems(items, SortByLastUpdated, Ascending, false)))
}

func TestSortItems_LocaleAware(t *testing.T) {
	t.Parallel()

	items := []catalog.Item{{Name: "Zebra"}, {Name: "Äpfel"}, {Name: "banane"}}

	got := names(SortItemsForLocale(items, SortByName, Ascending, false, language.German))
	assert.Equal(t, []string{"Äpfel", "banane", "Zebra"}, got)
}

func TestSortItems_Subcomponents(t *testing.T) {
	t.Parallel()

	items := []catalog.Item{dataPackage()}

	unsorted := SortItems(items, SortByName, Ascending, false)
	assert.Equal(t, "Database Server", unsorted[0].Items[0].Name())

	desc := SortItems(items, SortByName, Descending, true)
	assert.Equal(t, "Schema Validator", desc[0].Items[0].Name())
	assert.Equal(t, "Database Server", desc[0].Items[1].Name())

	asc := SortItems(items, SortByName, Ascending, true)
	assert.Equal(t, "Database Server", asc[0].Items[0].Name())
	assert.Equal(t, "Schema Validator", asc[0].Items[1].Name())

	assert.Equal(t, "Database Server", items[0].Items[0].Name(), "input sub-items are not reordered")
}

func TestDisplayedItems(t *testing.T) {
	t.Parallel()

	items := []catalog.Item{
		{Name: "Zeta mode", Type: catalog.ItemTypeMode},
		{Name: "Alpha role", Type: catalog.ItemTypeRole},
		{Name: "Alpha mode", Type: catalog.ItemTypeMode},
	}

	got := DisplayedItems(items, Filters{Type: catalog.ItemTypeMode}, SortByName, Ascending, false)
	assert.Equal(t, []string{"Alpha mode", "Zeta mode"}, names(got))
}

func TestParseSortOptions(t *testing.T) {
	t.Parallel()

	key, err := ParseSortKey("")
	require.NoError(t, err)
	assert.Equal(t, SortByName, key)

	key, err = ParseSortKey("lastUpdated")
	require.NoError(t, err)
	assert.Equal(t, SortByLastUpdated, key)

	_, err = ParseSortKey("stars")
	assert.Error(t, err)

	order, err := ParseSortOrder("DESC")
	require.NoError(t, err)
	assert.Equal(t, Descending, order)

	_, err = ParseSortOrder("sideways")
	assert.Error(t, err)
}
