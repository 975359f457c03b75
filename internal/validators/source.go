// Package validators provides validation functions for catalog sources.
//
// Validation never fails with an error value: every problem is reported as a
// ValidationError so that a host can render it next to the offending entry.
package validators

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/stacklok/toolhive-catalog-server/internal/catalog"
)

// MaxNameLength is the maximum number of visible characters in a source name
const MaxNameLength = 20

// Validation error codes
const (
	CodeEmptyURL        = "EmptyURL"
	CodeMalformedURL    = "MalformedURL"
	CodeNonVisibleChars = "NonVisibleChars"
	CodeNotAGitURL      = "NotAGitURL"
	CodeTooLong         = "TooLong"
	CodeDuplicateURL    = "DuplicateURL"
	CodeDuplicateName   = "DuplicateName"
	CodeTooManySources  = "TooManySources"
)

// Validated fields
const (
	FieldURL     = "url"
	FieldName    = "name"
	FieldSources = "sources"
)

var (
	// https://host/owner/repo[.git]
	httpsGitPattern = regexp.MustCompile(`^https://[^/\s]+/[^/\s]+/[^/\s]+/?$`)

	// git@host:owner/repo[.git]
	sshGitPattern = regexp.MustCompile(`^git@[^:/\s]+:[^/\s]+/[^/\s]+/?$`)

	// git://host/owner/repo[.git]
	gitProtocolPattern = regexp.MustCompile(`^git://[^/\s]+/[^/\s]+/[^/\s]+/?$`)

	// user@host:path, the scp-like syntax net/url cannot parse
	scpLikePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+@[^:/\s]+:.+$`)
)

// ValidationError describes a single problem with a source. Index is the
// 1-based position of the source the error belongs to, or 0 when the error
// concerns a source that is not part of a list.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Index   int    `json:"index,omitempty"`
}

func (e ValidationError) Error() string {
	return e.Message
}

// ValidateURL checks that url is a non-empty, parseable git repository URL
// without control characters. An empty or unparseable URL short-circuits the
// remaining checks.
func ValidateURL(rawURL string) []ValidationError {
	if strings.TrimSpace(rawURL) == "" {
		return []ValidationError{{Field: FieldURL, Code: CodeEmptyURL, Message: "URL cannot be empty"}}
	}

	if !isParseableURL(stripControl(rawURL)) {
		return []ValidationError{{Field: FieldURL, Code: CodeMalformedURL, Message: "invalid URL format"}}
	}

	var errs []ValidationError
	if hasControlChars(rawURL) {
		errs = append(errs, ValidationError{
			Field:   FieldURL,
			Code:    CodeNonVisibleChars,
			Message: "URL contains non-visible characters other than spaces",
		})
	}

	if !IsGitURL(strings.TrimSpace(rawURL)) {
		errs = append(errs, ValidationError{
			Field:   FieldURL,
			Code:    CodeNotAGitURL,
			Message: "URL must be a git repository URL (https://host/owner/repo, git@host:owner/repo or git://host/owner/repo)",
		})
	}

	return errs
}

// ValidateName checks an optional source name. An empty name is valid.
func ValidateName(name string) []ValidationError {
	if name == "" {
		return nil
	}

	var errs []ValidationError
	if visibleLength(name) > MaxNameLength {
		errs = append(errs, ValidationError{
			Field:   FieldName,
			Code:    CodeTooLong,
			Message: fmt.Sprintf("name must be %d characters or less", MaxNameLength),
		})
	}

	if hasControlChars(name) {
		errs = append(errs, ValidationError{
			Field:   FieldName,
			Code:    CodeNonVisibleChars,
			Message: "name contains non-visible characters other than spaces",
		})
	}

	return errs
}

// ValidateDuplicates reports sources sharing a normalized URL or name.
//
// Without a candidate every unordered pair of duplicates yields two errors,
// one attached to each side and naming the other's 1-based index. Names are
// only compared when both sides have one. With a candidate, the candidate is
// compared against every entry of sources and the errors reference the
// existing indices.
func ValidateDuplicates(sources []catalog.Source, candidate *catalog.Source) []ValidationError {
	urls := make([]string, len(sources))
	names := make([]string, len(sources))
	for i, src := range sources {
		urls[i] = Normalize(src.URL)
		names[i] = Normalize(src.Name)
	}

	var errs []ValidationError

	if candidate != nil {
		candidateURL := Normalize(candidate.URL)
		candidateName := Normalize(candidate.Name)
		for i := range sources {
			if candidateURL != "" && urls[i] == candidateURL {
				errs = append(errs, ValidationError{
					Field:   FieldURL,
					Code:    CodeDuplicateURL,
					Message: fmt.Sprintf("duplicate URL (same as source #%d)", i+1),
				})
			}
			if candidateName != "" && names[i] != "" && names[i] == candidateName {
				errs = append(errs, ValidationError{
					Field:   FieldName,
					Code:    CodeDuplicateName,
					Message: fmt.Sprintf("duplicate name (same as source #%d)", i+1),
				})
			}
		}
		return errs
	}

	for i := 0; i < len(sources); i++ {
		for j := i + 1; j < len(sources); j++ {
			if urls[i] != "" && urls[i] == urls[j] {
				errs = append(errs,
					duplicateError(FieldURL, CodeDuplicateURL, "URL", i+1, j+1),
					duplicateError(FieldURL, CodeDuplicateURL, "URL", j+1, i+1),
				)
			}
			if names[i] != "" && names[j] != "" && names[i] == names[j] {
				errs = append(errs,
					duplicateError(FieldName, CodeDuplicateName, "name", i+1, j+1),
					duplicateError(FieldName, CodeDuplicateName, "name", j+1, i+1),
				)
			}
		}
	}

	return errs
}

func duplicateError(field, code, label string, index, other int) ValidationError {
	return ValidationError{
		Field:   field,
		Code:    code,
		Message: fmt.Sprintf("Source #%d: duplicate %s (same as source #%d)", index, label, other),
		Index:   index,
	}
}

// ValidateSource validates a single source that is about to join existing
func ValidateSource(source catalog.Source, existing []catalog.Source) []ValidationError {
	var errs []ValidationError
	errs = append(errs, ValidateURL(source.URL)...)
	errs = append(errs, ValidateName(source.Name)...)
	errs = append(errs, ValidateDuplicates(existing, &source)...)
	return errs
}

// ValidateSources validates a whole source list: per-source checks prefixed
// with the source position, one duplicate pass over the list, and the list
// size limit.
func ValidateSources(sources []catalog.Source) []ValidationError {
	var errs []ValidationError

	if len(sources) > catalog.MaxSources {
		errs = append(errs, ValidationError{
			Field:   FieldSources,
			Code:    CodeTooManySources,
			Message: fmt.Sprintf("at most %d sources are allowed, got %d", catalog.MaxSources, len(sources)),
		})
	}

	for i, src := range sources {
		perSource := append(ValidateURL(src.URL), ValidateName(src.Name)...)
		for _, e := range perSource {
			e.Index = i + 1
			e.Message = fmt.Sprintf("Source #%d: %s", i+1, e.Message)
			errs = append(errs, e)
		}
	}

	return append(errs, ValidateDuplicates(sources, nil)...)
}

// IsGitURL reports whether url has one of the accepted git URL shapes
func IsGitURL(rawURL string) bool {
	return httpsGitPattern.MatchString(rawURL) ||
		sshGitPattern.MatchString(rawURL) ||
		gitProtocolPattern.MatchString(rawURL)
}

// Normalize lowercases s and removes all whitespace. Source identity and
// duplicate detection compare normalized values.
func Normalize(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}

func isParseableURL(rawURL string) bool {
	trimmed := strings.TrimSpace(rawURL)
	if scpLikePattern.MatchString(trimmed) {
		return true
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

func hasControlChars(s string) bool {
	return strings.IndexFunc(s, isNonVisible) >= 0
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if isNonVisible(r) {
			return -1
		}
		return r
	}, s)
}

func isNonVisible(r rune) bool {
	return r != ' ' && unicode.IsControl(r)
}

// visibleLength counts characters after NFC composition so that a letter
// followed by a combining accent counts once
func visibleLength(s string) int {
	return utf8.RuneCountInString(norm.NFC.String(s))
}
