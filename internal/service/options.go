package service

import (
	"strings"

	"github.com/stacklok/toolhive-catalog-server/internal/catalog"
	"github.com/stacklok/toolhive-catalog-server/internal/search"
)

// Option is a function that sets an option for the ListItems operation
type Option func(*ListItemsOptions) error

// ListItemsOptions is the options for the ListItems operation
type ListItemsOptions struct {
	Filters           search.Filters
	SortBy            search.SortKey
	SortOrder         search.SortOrder
	SortSubcomponents bool
}

// WithType restricts the result to items (or packages holding sub-items) of
// the given type
func WithType(itemType string) Option {
	return func(o *ListItemsOptions) error {
		o.Filters.Type = catalog.ItemType(strings.TrimSpace(itemType))
		return nil
	}
}

// WithSearch sets the free-text search term
func WithSearch(term string) Option {
	return func(o *ListItemsOptions) error {
		o.Filters.Search = term
		return nil
	}
}

// WithTags restricts the result to items carrying any of tags. Blank tags
// are ignored.
func WithTags(tags ...string) Option {
	return func(o *ListItemsOptions) error {
		for _, tag := range tags {
			if tag = strings.TrimSpace(tag); tag != "" {
				o.Filters.Tags = append(o.Filters.Tags, tag)
			}
		}
		return nil
	}
}

// WithSortBy sets the sort key, one of name, author or lastUpdated
func WithSortBy(key string) Option {
	return func(o *ListItemsOptions) error {
		parsed, err := search.ParseSortKey(key)
		if err != nil {
			return err
		}
		o.SortBy = parsed
		return nil
	}
}

// WithSortOrder sets the sort direction, asc or desc
func WithSortOrder(order string) Option {
	return func(o *ListItemsOptions) error {
		parsed, err := search.ParseSortOrder(order)
		if err != nil {
			return err
		}
		o.SortOrder = parsed
		return nil
	}
}

// WithSortSubcomponents also orders the sub-items of every package by name
func WithSortSubcomponents(enabled bool) Option {
	return func(o *ListItemsOptions) error {
		o.SortSubcomponents = enabled
		return nil
	}
}

// WithFilters replaces all search filters at once
func WithFilters(filters search.Filters) Option {
	return func(o *ListItemsOptions) error {
		o.Filters = filters
		return nil
	}
}
