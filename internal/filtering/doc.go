// Package filtering applies the operator's catalog policy to aggregated items.
//
// The policy is configured under filter in the server configuration and
// combines two independent checks that must both pass:
//
//   - NameFilter: case-insensitive glob patterns on the item name
//     ("postgres-*", "db?", "server[1-3]"); '*' also matches '/'
//   - TagFilter: exact tag matching; an item passes an include list when
//     any of its tags is listed
//
// For both checks exclude takes precedence over include, an include list
// that matches nothing rejects the item, and no patterns means include.
//
// The policy runs on the aggregated item list after it has left the cache,
// so cached repositories are never filtered. Every decision is logged at
// debug level with its reason:
//
//	svc := filtering.NewDefaultFilterService()
//	visible := svc.ApplyFilters(ctx, items, &config.FilterConfig{
//		Names: &config.NameFilterConfig{Exclude: []string{"*-experimental"}},
//		Tags:  &config.TagFilterConfig{Include: []string{"database"}},
//	})
package filtering
