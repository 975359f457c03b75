package filtering

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultTagFilter_ShouldInclude(t *testing.T) {
	t.Parallel()

	filter := NewDefaultTagFilter()

	tests := []struct {
		name       string
		tags       []string
		include    []string
		exclude    []string
		expected   bool
		wantReason string
	}{
		{name: "no filters", tags: []string{"database"}, expected: true, wantReason: "no tag filters specified"},
		{name: "nil tags no filters", tags: nil, expected: true},
		{name: "include match", tags: []string{"database", "sql"}, include: []string{"sql"}, expected: true},
		{
			name:       "second include matches",
			tags:       []string{"web"},
			include:    []string{"database", "web"},
			expected:   true,
			wantReason: "included by tag 'web'",
		},
		{name: "include is exact", tags: []string{"Database"}, include: []string{"database"}, expected: false},
		{name: "empty tags with include", tags: []string{}, include: []string{"database"}, expected: false},
		{
			name:       "exclude match",
			tags:       []string{"database", "deprecated"},
			exclude:    []string{"deprecated"},
			expected:   false,
			wantReason: "excluded by tag 'deprecated'",
		},
		{
			name:     "exclude wins over include",
			tags:     []string{"database", "beta"},
			include:  []string{"database"},
			exclude:  []string{"beta"},
			expected: false,
		},
		{name: "exclude only, no match", tags: []string{"database"}, exclude: []string{"beta"}, expected: true},
		{name: "nil tags with exclude", tags: nil, exclude: []string{"beta"}, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			included, reason := filter.ShouldInclude(tt.tags, tt.include, tt.exclude)
			assert.Equal(t, tt.expected, included, reason)
			if tt.wantReason != "" {
				assert.Contains(t, reason, tt.wantReason)
			}
		})
	}
}
