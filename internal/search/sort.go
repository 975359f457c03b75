package search

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/stacklok/toolhive-catalog-server/internal/catalog"
)

// SortKey is the item field results are ordered by
type SortKey string

const (
	// SortByName orders by item name
	SortByName SortKey = "name"
	// SortByAuthor orders by author; items without one come first ascending
	SortByAuthor SortKey = "author"
	// SortByLastUpdated orders by the RFC3339 modification time
	SortByLastUpdated SortKey = "lastUpdated"
)

// SortOrder is the direction of a sort
type SortOrder string

const (
	// Ascending sorts from lowest to highest
	Ascending SortOrder = "asc"
	// Descending sorts from highest to lowest
	Descending SortOrder = "desc"
)

// ParseSortKey converts s to a SortKey. An empty string selects SortByName.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(s) {
	case "":
		return SortByName, nil
	case SortByName, SortByAuthor, SortByLastUpdated:
		return SortKey(s), nil
	}
	return "", fmt.Errorf("invalid sort key %q (expected name, author or lastUpdated)", s)
}

// ParseSortOrder converts s to a SortOrder. An empty string selects Ascending.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(s)) {
	case "", Ascending:
		return Ascending, nil
	case Descending:
		return Descending, nil
	}
	return "", fmt.Errorf("invalid sort order %q (expected asc or desc)", s)
}

// SortItems returns a copy of items stably ordered by key using English
// collation. See SortItemsForLocale.
func SortItems(items []catalog.Item, key SortKey, order SortOrder, sortSubcomponents bool) []catalog.Item {
	return SortItemsForLocale(items, key, order, sortSubcomponents, language.English)
}

// SortItemsForLocale returns a copy of items stably ordered by key. Names and
// authors are compared with the collation rules of locale; missing values
// compare as empty strings. With sortSubcomponents every package's sub-items
// are ordered by their metadata name in the same direction.
func SortItemsForLocale(
	items []catalog.Item, key SortKey, order SortOrder, sortSubcomponents bool, locale language.Tag,
) []catalog.Item {
	// A Collator is not safe for concurrent use
	col := collate.New(locale)
	compare := func(a, b string) int {
		if key == SortByLastUpdated {
			return strings.Compare(a, b)
		}
		return col.CompareString(a, b)
	}
	sign := 1
	if order == Descending {
		sign = -1
	}

	out := make([]catalog.Item, len(items))
	for i := range items {
		if sortSubcomponents && len(items[i].Items) > 1 {
			out[i] = items[i].Clone()
			slices.SortStableFunc(out[i].Items, func(a, b catalog.SubItem) int {
				return sign * col.CompareString(a.Name(), b.Name())
			})
		} else {
			out[i] = items[i]
		}
	}

	slices.SortStableFunc(out, func(a, b catalog.Item) int {
		return sign * compare(sortValue(&a, key), sortValue(&b, key))
	})
	return out
}

// DisplayedItems filters items and sorts the result
func DisplayedItems(
	items []catalog.Item, filters Filters, key SortKey, order SortOrder, sortSubcomponents bool,
) []catalog.Item {
	return SortItems(FilterItems(items, filters), key, order, sortSubcomponents)
}

func sortValue(item *catalog.Item, key SortKey) string {
	switch key {
	case SortByAuthor:
		return item.Author
	case SortByLastUpdated:
		return item.LastUpdated
	default:
		return item.Name
	}
}
