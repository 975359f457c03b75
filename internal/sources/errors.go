package sources

import (
	"errors"
	"fmt"
)

// Kind classifies a failed fetch
type Kind string

const (
	// KindSetup means the cache root could not be prepared
	KindSetup Kind = "setup"
	// KindAcquisition means no checkout could be obtained (clone, pull or timeout)
	KindAcquisition Kind = "acquisition"
	// KindLayout means the checkout does not have the expected catalog layout
	KindLayout Kind = "layout"
)

// ErrTimeout is returned when an operation does not settle within its timeout
var ErrTimeout = errors.New("operation timed out")

// FetchError is returned by a Fetcher together with a recovered repository
type FetchError struct {
	Kind    Kind
	URL     string
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a FetchError of the given kind
func IsKind(err error, kind Kind) bool {
	var fetchErr *FetchError
	return errors.As(err, &fetchErr) && fetchErr.Kind == kind
}
