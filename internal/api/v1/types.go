package v1

import (
	"github.com/stacklok/toolhive-catalog-server/internal/catalog"
	"github.com/stacklok/toolhive-catalog-server/internal/validators"
)

// RefreshRequest is the body of POST /v1/repositories/refresh
type RefreshRequest struct {
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
}

// ValidateSourcesRequest is the body of POST /v1/sources/validate
type ValidateSourcesRequest struct {
	Sources []catalog.Source `json:"sources"`
}

// ValidateSourceRequest is the body of POST /v1/sources/validate-one
type ValidateSourceRequest struct {
	Source   catalog.Source   `json:"source"`
	Existing []catalog.Source `json:"existing,omitempty"`
}

// ValidationResponse reports the outcome of a source validation
type ValidationResponse struct {
	Valid  bool                         `json:"valid"`
	Errors []validators.ValidationError `json:"errors"`
}

// SourcesResponse lists the configured sources
type SourcesResponse struct {
	Sources []catalog.Source `json:"sources"`
}

func validationResponse(errs []validators.ValidationError) ValidationResponse {
	if errs == nil {
		errs = []validators.ValidationError{}
	}
	return ValidationResponse{Valid: len(errs) == 0, Errors: errs}
}
