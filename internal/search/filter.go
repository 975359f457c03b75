package search

import (
	"slices"
	"strings"

	"github.com/stacklok/toolhive-catalog-server/internal/catalog"
)

// Filters selects catalog items. Empty fields are inactive.
type Filters struct {
	Type   catalog.ItemType `json:"type,omitempty"`
	Search string           `json:"search,omitempty"`
	Tags   []string         `json:"tags,omitempty"`
}

// IsEmpty reports whether no filter is active
func (f Filters) IsEmpty() bool {
	return f.Type == "" && normalizeText(f.Search) == "" && len(f.Tags) == 0
}

// fields is the part of an item or sub-item a filter looks at
type fields struct {
	name        string
	description string
	itemType    catalog.ItemType
	tags        []string
}

// matcher evaluates one set of filters
type matcher struct {
	itemType catalog.ItemType
	term     string
	tags     []string
}

func newMatcher(filters Filters) matcher {
	return matcher{
		itemType: filters.Type,
		term:     normalizeText(filters.Search),
		tags:     filters.Tags,
	}
}

// match reports whether f satisfies every active filter and which fields
// contributed
func (m matcher) match(f fields) (bool, catalog.MatchReason) {
	var reason catalog.MatchReason

	typeOK := true
	if m.itemType != "" {
		typeOK = f.itemType == m.itemType
		reason.TypeMatch = typeOK
	}

	searchOK := true
	if m.term != "" {
		reason.NameMatch = strings.Contains(normalizeText(f.name), m.term)
		reason.DescriptionMatch = strings.Contains(normalizeText(f.description), m.term)
		searchOK = reason.NameMatch || reason.DescriptionMatch
	}

	tagsOK := true
	if len(m.tags) > 0 {
		tagsOK = slices.ContainsFunc(f.tags, func(tag string) bool {
			return slices.Contains(m.tags, tag)
		})
		reason.TagMatch = tagsOK
	}

	return typeOK && searchOK && tagsOK, reason
}

// FilterItems returns annotated copies of the items matching filters.
//
// A package matches when its own fields satisfy every active filter or when
// any of its sub-items does. Every sub-item of a returned package is
// annotated individually; sub-items are never removed. Without active
// filters every item matches. The input items are not modified.
func FilterItems(items []catalog.Item, filters Filters) []catalog.Item {
	out := make([]catalog.Item, 0, len(items))

	if filters.IsEmpty() {
		for i := range items {
			item := items[i].Clone()
			item.MatchInfo = &catalog.MatchInfo{Matched: true}
			for j := range item.Items {
				item.Items[j].MatchInfo = &catalog.MatchInfo{Matched: true}
			}
			out = append(out, item)
		}
		return out
	}

	m := newMatcher(filters)
	for i := range items {
		if item, ok := m.filterItem(&items[i]); ok {
			out = append(out, item)
		}
	}
	return out
}

func (m matcher) filterItem(original *catalog.Item) (catalog.Item, bool) {
	direct, reason := m.match(itemFields(original))

	subMatched := false
	var subInfos []*catalog.MatchInfo
	if original.IsPackage() {
		subInfos = make([]*catalog.MatchInfo, len(original.Items))
		for i := range original.Items {
			ok, subReason := m.match(subItemFields(&original.Items[i]))
			if ok {
				subMatched = true
				subInfos[i] = &catalog.MatchInfo{Matched: true, MatchReason: &subReason}
			} else {
				subInfos[i] = &catalog.MatchInfo{Matched: false}
			}
		}
	}

	if !direct && !subMatched {
		return catalog.Item{}, false
	}

	// Field flags describe a direct match only
	if !direct {
		reason = catalog.MatchReason{}
	}
	reason.HasMatchingSubcomponents = subMatched

	item := original.Clone()
	item.MatchInfo = &catalog.MatchInfo{Matched: true, MatchReason: &reason}
	for i := range subInfos {
		item.Items[i].MatchInfo = subInfos[i]
	}
	return item, true
}

func itemFields(item *catalog.Item) fields {
	return fields{
		name:        item.Name,
		description: item.Description,
		itemType:    item.Type,
		tags:        item.Tags,
	}
}

func subItemFields(sub *catalog.SubItem) fields {
	f := fields{itemType: sub.Type}
	if sub.Metadata != nil {
		f.name = sub.Metadata.Name
		f.description = sub.Metadata.Description
		f.tags = sub.Metadata.Tags
		if f.itemType == "" {
			f.itemType = sub.Metadata.Type
		}
	}
	return f
}

// normalizeText lowercases s and collapses whitespace runs to one space
func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
