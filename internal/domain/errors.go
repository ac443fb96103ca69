package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput signals a catalog record that cannot be indexed (e.g. empty identifier).
	ErrMalformedInput = errors.New("malformed input")
	// ErrEmbeddingUnavailable signals that no embedding could be obtained for a text.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrInputTooLong signals a text exceeding the embedder input limit.
	ErrInputTooLong = errors.New("input exceeds embedding limit")
	// ErrConfiguration signals an invalid ranking or enrichment configuration.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrInvalidRequest signals an invalid search request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrQueryTimeout signals a query that did not finish before its deadline.
	ErrQueryTimeout = errors.New("query timeout")
	// ErrIndexNotReady signals that no index has been built yet.
	ErrIndexNotReady = errors.New("index not ready")
)

// RecordError ties a per-record failure to the record identifier.
type RecordError struct {
	ID  string
	Err error
}

func (e *RecordError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("record <no id>: %s", e.Err.Error())
	}
	return fmt.Sprintf("record %s: %s", e.ID, e.Err.Error())
}

func (e *RecordError) Unwrap() error { return e.Err }

// NewRecordError creates a record-scoped error.
func NewRecordError(id string, err error) error {
	return &RecordError{ID: id, Err: err}
}
