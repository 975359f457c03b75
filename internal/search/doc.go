// Package search filters, annotates and sorts catalog items.
//
// Filtering is hierarchical: a package is returned when it matches on its
// own fields or when one of its sub-items does, so a search for "validator"
// finds the package holding a "Data Validator" mode. Results are copies
// annotated with MatchInfo; the items passed in are never modified.
package search
