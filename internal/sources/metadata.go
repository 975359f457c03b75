package sources

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stacklok/toolhive-catalog-server/internal/catalog"
)

// Placeholders for repository metadata fields that are missing
const (
	PlaceholderRepositoryName        = "Repository Name"
	PlaceholderRepositoryDescription = "Repository Description"
)

// fields holds the top-level keys of a metadata document
type fields map[string]*yaml.Node

// subItemRef is an entry of a package's items list
type subItemRef struct {
	Type catalog.ItemType
	Path string
}

// itemMetadata holds the recognized fields of an item metadata file
type itemMetadata struct {
	Name        string
	Description string
	Type        catalog.ItemType
	Author      string
	Version     string
	Tags        []string
	SourceURL   string
	Items       []subItemRef
}

// parseFields decodes a metadata document into its top-level keys. Each
// field is decoded on its own later so that one malformed value does not
// discard the others.
func parseFields(data []byte) (fields, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	// An empty document has no content node
	if len(doc.Content) == 0 {
		return fields{}, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("metadata must be a mapping, got %s", kindName(root.Kind))
	}

	out := make(fields, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		out[root.Content[i].Value] = root.Content[i+1]
	}
	return out, nil
}

// String returns the scalar value of key, or "" when absent or not a scalar
func (f fields) String(key string) string {
	node, ok := f[key]
	if !ok || node.Kind != yaml.ScalarNode || node.Tag == "!!null" {
		return ""
	}
	return strings.TrimSpace(node.Value)
}

// StringList returns the value of key as a list. A scalar is split on commas.
func (f fields) StringList(key string) []string {
	node, ok := f[key]
	if !ok {
		return nil
	}

	var raw []string
	switch node.Kind {
	case yaml.SequenceNode:
		for _, child := range node.Content {
			if child.Kind == yaml.ScalarNode {
				raw = append(raw, child.Value)
			}
		}
	case yaml.ScalarNode:
		if node.Tag != "!!null" {
			raw = strings.Split(node.Value, ",")
		}
	}

	var out []string
	for _, v := range raw {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// SubItems returns the type/path entries of the items key
func (f fields) SubItems() []subItemRef {
	node, ok := f["items"]
	if !ok || node.Kind != yaml.SequenceNode {
		return nil
	}

	var refs []subItemRef
	for _, child := range node.Content {
		var entry struct {
			Type string `yaml:"type"`
			Path string `yaml:"path"`
		}
		if err := child.Decode(&entry); err != nil || strings.TrimSpace(entry.Path) == "" {
			continue
		}
		refs = append(refs, subItemRef{
			Type: catalog.ItemType(strings.TrimSpace(entry.Type)),
			Path: strings.Trim(strings.TrimSpace(entry.Path), "/"),
		})
	}
	return refs
}

// repositoryMetadata extracts the root metadata of a repository
func repositoryMetadata(f fields) catalog.RepositoryMetadata {
	md := catalog.RepositoryMetadata{
		Name:        f.String("name"),
		Description: f.String("description"),
		Author:      f.String("author"),
		Website:     f.String("website"),
	}
	if md.Name == "" {
		md.Name = PlaceholderRepositoryName
	}
	if md.Description == "" {
		md.Description = PlaceholderRepositoryDescription
	}
	return md
}

// itemMetadataFrom extracts the metadata of an item or sub-item
func itemMetadataFrom(f fields) itemMetadata {
	return itemMetadata{
		Name:        f.String("name"),
		Description: f.String("description"),
		Type:        catalog.ItemType(f.String("type")),
		Author:      f.String("author"),
		Version:     f.String("version"),
		Tags:        f.StringList("tags"),
		SourceURL:   f.String("sourceUrl"),
		Items:       f.SubItems(),
	}
}

func kindName(kind yaml.Kind) string {
	switch kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}
