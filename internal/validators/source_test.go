package validators

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/toolhive-catalog-server/internal/catalog"
)

func codes(errs []ValidationError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func TestValidateURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		url       string
		wantCodes []string
	}{
		{name: "https url", url: "https://github.com/owner/repo", wantCodes: []string{}},
		{name: "https url with .git", url: "https://github.com/owner/repo.git", wantCodes: []string{}},
		{name: "https url with trailing slash", url: "https://github.com/owner/repo/", wantCodes: []string{}},
		{name: "ssh url", url: "git@github.com:owner/repo.git", wantCodes: []string{}},
		{name: "git protocol url", url: "git://github.com/owner/repo", wantCodes: []string{}},
		{name: "empty", url: "", wantCodes: []string{CodeEmptyURL}},
		{name: "blank", url: "   ", wantCodes: []string{CodeEmptyURL}},
		{name: "not a url", url: "not a url", wantCodes: []string{CodeMalformedURL}},
		{name: "missing host", url: "https://", wantCodes: []string{CodeMalformedURL}},
		{name: "host only", url: "https://github.com", wantCodes: []string{CodeNotAGitURL}},
		{name: "http scheme", url: "http://github.com/owner/repo", wantCodes: []string{CodeNotAGitURL}},
		{name: "too many segments", url: "https://github.com/owner/repo/extra", wantCodes: []string{CodeNotAGitURL}},
		{name: "ftp scheme", url: "ftp://example.com/owner/repo", wantCodes: []string{CodeNotAGitURL}},
		{
			name:      "control character",
			url:       "https://github.com/owner/re\tpo",
			wantCodes: []string{CodeNonVisibleChars, CodeNotAGitURL},
		},
		{
			name:      "trailing newline",
			url:       "https://github.com/owner/repo\n",
			wantCodes: []string{CodeNonVisibleChars},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			errs := ValidateURL(tt.url)
			assert.Equal(t, tt.wantCodes, codes(errs))
			for _, e := range errs {
				assert.Equal(t, FieldURL, e.Field)
				assert.NotEmpty(t, e.Message)
			}
		})
	}
}

func TestValidateURL_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{"", "https://github.com/a/b", "bad url", "https://github.com/a/b\x01", "git@host:a/b"}
	for _, in := range inputs {
		assert.Equal(t, ValidateURL(in), ValidateURL(in), "input %q", in)
	}
}

func TestValidateName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		wantCodes []string
	}{
		{name: "absent", input: "", wantCodes: []string{}},
		{name: "short", input: "My Source", wantCodes: []string{}},
		{name: "exactly twenty", input: strings.Repeat("a", 20), wantCodes: []string{}},
		{name: "twenty one", input: strings.Repeat("a", 21), wantCodes: []string{CodeTooLong}},
		{name: "multibyte counted as characters", input: strings.Repeat("é", 20), wantCodes: []string{}},
		{name: "combining accents counted once", input: strings.Repeat("e\u0301", 20), wantCodes: []string{}},
		{name: "control character", input: "bad\x00name", wantCodes: []string{CodeNonVisibleChars}},
		{
			name:      "too long with control character",
			input:     strings.Repeat("a", 21) + "\n",
			wantCodes: []string{CodeTooLong, CodeNonVisibleChars},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.wantCodes, codes(ValidateName(tt.input)))
		})
	}
}

func TestValidateDuplicates_Symmetric(t *testing.T) {
	t.Parallel()

	sources := []catalog.Source{
		{URL: "https://github.com/owner/repo", Enabled: true},
		{URL: "https://github.com/other/repo", Enabled: true},
		{URL: " HTTPS://GitHub.com/Owner/Repo ", Enabled: false},
	}

	errs := ValidateDuplicates(sources, nil)
	require.Len(t, errs, 2)

	assert.Equal(t, CodeDuplicateURL, errs[0].Code)
	assert.Equal(t, 1, errs[0].Index)
	assert.Contains(t, errs[0].Message, "same as source #3")

	assert.Equal(t, CodeDuplicateURL, errs[1].Code)
	assert.Equal(t, 3, errs[1].Index)
	assert.Contains(t, errs[1].Message, "same as source #1")
}

func TestValidateDuplicates_Names(t *testing.T) {
	t.Parallel()

	sources := []catalog.Source{
		{URL: "https://github.com/a/one", Name: "Team Catalog"},
		{URL: "https://github.com/a/two", Name: "team catalog"},
		{URL: "https://github.com/a/three"},
		{URL: "https://github.com/a/four"},
	}

	errs := ValidateDuplicates(sources, nil)
	require.Len(t, errs, 2, "sources without names are never compared")
	for _, e := range errs {
		assert.Equal(t, CodeDuplicateName, e.Code)
		assert.Equal(t, FieldName, e.Field)
	}
	assert.Contains(t, errs[0].Message, "Source #1")
	assert.Contains(t, errs[1].Message, "Source #2")
}

func TestValidateDuplicates_Candidate(t *testing.T) {
	t.Parallel()

	existing := []catalog.Source{
		{URL: "https://github.com/a/one", Name: "One"},
		{URL: "https://github.com/a/two", Name: "Two"},
	}
	candidate := catalog.Source{URL: "https://github.com/A/TWO", Name: "one"}

	errs := ValidateDuplicates(existing, &candidate)
	require.Len(t, errs, 2)

	assert.Equal(t, CodeDuplicateName, errs[0].Code)
	assert.Contains(t, errs[0].Message, "source #1")
	assert.Equal(t, CodeDuplicateURL, errs[1].Code)
	assert.Contains(t, errs[1].Message, "source #2")
	for _, e := range errs {
		assert.Zero(t, e.Index, "candidate errors are one-sided")
	}
}

func TestValidateSource(t *testing.T) {
	t.Parallel()

	existing := []catalog.Source{{URL: "https://github.com/a/one"}}

	assert.Empty(t, ValidateSource(catalog.Source{URL: "https://github.com/a/two", Name: "Two"}, existing))

	errs := ValidateSource(catalog.Source{URL: "https://github.com/a/one", Name: strings.Repeat("x", 25)}, existing)
	assert.Equal(t, []string{CodeTooLong, CodeDuplicateURL}, codes(errs))
}

func TestValidateSources(t *testing.T) {
	t.Parallel()

	sources := []catalog.Source{
		{URL: "https://github.com/owner/repo", Name: "Main"},
		{URL: "", Name: "Broken"},
		{URL: "https://github.com/owner/repo.git"},
		{URL: "https://github.com/owner/repo"},
	}

	errs := ValidateSources(sources)
	require.Len(t, errs, 3)

	assert.Equal(t, CodeEmptyURL, errs[0].Code)
	assert.Equal(t, 2, errs[0].Index)
	assert.True(t, strings.HasPrefix(errs[0].Message, "Source #2: "))

	assert.Equal(t, CodeDuplicateURL, errs[1].Code)
	assert.Contains(t, errs[1].Message, "Source #1")
	assert.Contains(t, errs[1].Message, "source #4")
	assert.Equal(t, CodeDuplicateURL, errs[2].Code)
	assert.Contains(t, errs[2].Message, "Source #4")
	assert.Contains(t, errs[2].Message, "source #1")
}

func TestValidateSources_TooMany(t *testing.T) {
	t.Parallel()

	sources := make([]catalog.Source, catalog.MaxSources+1)
	for i := range sources {
		sources[i] = catalog.Source{URL: "https://github.com/owner/repo" + strings.Repeat("x", i+1)}
	}

	errs := ValidateSources(sources)
	require.Len(t, errs, 1)
	assert.Equal(t, CodeTooManySources, errs[0].Code)
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://github.com/a/b", Normalize(" HTTPS://GitHub.com/A/B \t"))
	assert.Equal(t, "mycatalog", Normalize("My Catalog"))
	assert.Equal(t, "", Normalize("   "))
}
