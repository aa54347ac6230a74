package catalog

import (
	"errors"
	"fmt"
)

// ErrTableMissing is wrapped by ExtractionError when a detail page lacks its attribute table.
var ErrTableMissing = errors.New("attribute table missing")

// FetchError is returned once every fetch attempt for a URL has failed.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

// Unwrap exposes the last underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// ExtractionError reports a detail page missing a required structural element.
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// ParseError reports a monetary field whose cleaned text is not a number.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}
