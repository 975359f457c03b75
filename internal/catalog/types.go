// Package catalog defines the data model shared by the fetch pipeline, the
// repository cache and the search engine.
package catalog

import "time"

// MaxSources is the maximum number of sources a host may track
const MaxSources = 10

// ItemType identifies the kind of a catalog item or sub-item
type ItemType string

const (
	// ItemTypeMode is a mode definition
	ItemTypeMode ItemType = "mode"
	// ItemTypePrompt is a prompt
	ItemTypePrompt ItemType = "prompt"
	// ItemTypePackage is a composite item owning sub-items
	ItemTypePackage ItemType = "package"
	// ItemTypeMCPServer is an MCP server
	ItemTypeMCPServer ItemType = "mcp-server"
	// ItemTypeStorage is a storage system
	ItemTypeStorage ItemType = "storage"
	// ItemTypeRole is an agent role definition
	ItemTypeRole ItemType = "role"
	// ItemTypeOther is the fallback for unknown content
	ItemTypeOther ItemType = "other"
)

// Source is a configured remote repository
type Source struct {
	URL     string `json:"url" yaml:"url"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// RepositoryMetadata is the root metadata of a repository
type RepositoryMetadata struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Author      string `json:"author,omitempty"`
	Website     string `json:"website,omitempty"`
}

// Repository is the parsed result of one source. A Repository is never
// modified after it has been returned; a later fetch produces a new value.
type Repository struct {
	Metadata      RepositoryMetadata `json:"metadata"`
	Items         []Item             `json:"items"`
	URL           string             `json:"url"`
	DefaultBranch string             `json:"defaultBranch,omitempty"`
	Error         string             `json:"error,omitempty"`
}

// ComponentMetadata is the metadata of a package sub-item
type ComponentMetadata struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        ItemType `json:"type"`
	Author      string   `json:"author,omitempty"`
	Version     string   `json:"version,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// SubItem is a component owned by a package item
type SubItem struct {
	Type        ItemType           `json:"type"`
	Path        string             `json:"path"`
	Metadata    *ComponentMetadata `json:"metadata,omitempty"`
	LastUpdated string             `json:"lastUpdated,omitempty"`
	MatchInfo   *MatchInfo         `json:"matchInfo,omitempty"`
}

// Item is one catalog entry
type Item struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Type        ItemType   `json:"type"`
	URL         string     `json:"url"`
	RepoURL     string     `json:"repoUrl"`
	Author      string     `json:"author,omitempty"`
	Version     string     `json:"version,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	LastUpdated string     `json:"lastUpdated,omitempty"`
	SourceURL   string     `json:"sourceUrl,omitempty"`
	SourceName  string     `json:"sourceName,omitempty"`
	Items       []SubItem  `json:"items,omitempty"`
	MatchInfo   *MatchInfo `json:"matchInfo,omitempty"`
}

// MatchReason records which fields made an item match a query
type MatchReason struct {
	NameMatch                bool `json:"nameMatch,omitempty"`
	DescriptionMatch         bool `json:"descriptionMatch,omitempty"`
	TagMatch                 bool `json:"tagMatch,omitempty"`
	TypeMatch                bool `json:"typeMatch,omitempty"`
	HasMatchingSubcomponents bool `json:"hasMatchingSubcomponents,omitempty"`
}

// MatchInfo is the per-query annotation attached by the search engine
type MatchInfo struct {
	Matched     bool         `json:"matched"`
	MatchReason *MatchReason `json:"matchReason,omitempty"`
}

// CacheEntry is a cached repository with the time it was fetched
type CacheEntry struct {
	Data      *Repository
	Timestamp time.Time
}

// Key returns the UI identity of the item
func (i *Item) Key() string {
	return i.RepoURL + "#" + i.Name
}

// IsPackage reports whether the item owns sub-items
func (i *Item) IsPackage() bool {
	return i.Type == ItemTypePackage
}

// Clone returns a deep copy of the item. Annotations on the copy never
// reach the original.
func (i *Item) Clone() Item {
	out := *i
	if i.Tags != nil {
		out.Tags = append([]string(nil), i.Tags...)
	}
	if i.Items != nil {
		out.Items = make([]SubItem, len(i.Items))
		for idx := range i.Items {
			out.Items[idx] = i.Items[idx].Clone()
		}
	}
	out.MatchInfo = i.MatchInfo.clone()
	return out
}

// Clone returns a deep copy of the sub-item
func (s *SubItem) Clone() SubItem {
	out := *s
	if s.Metadata != nil {
		md := *s.Metadata
		if s.Metadata.Tags != nil {
			md.Tags = append([]string(nil), s.Metadata.Tags...)
		}
		out.Metadata = &md
	}
	out.MatchInfo = s.MatchInfo.clone()
	return out
}

// Name returns the sub-item's metadata name or an empty string
func (s *SubItem) Name() string {
	if s.Metadata == nil {
		return ""
	}
	return s.Metadata.Name
}

func (m *MatchInfo) clone() *MatchInfo {
	if m == nil {
		return nil
	}
	out := *m
	if m.MatchReason != nil {
		reason := *m.MatchReason
		out.MatchReason = &reason
	}
	return &out
}

// EnabledSources returns the enabled sources in their original order
func EnabledSources(sources []Source) []Source {
	enabled := make([]Source, 0, len(sources))
	for _, src := range sources {
		if src.Enabled {
			enabled = append(enabled, src)
		}
	}
	return enabled
}
