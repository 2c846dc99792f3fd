package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks missing repository objects (documents, labels).
	ErrNotFound = errors.New("not found")
	// ErrTemporary marks transient I/O failures; the poll cadence is
	// the retry mechanism, so nothing is retried within an iteration.
	ErrTemporary = errors.New("temporary failure")
	// ErrMalformedOutput marks classifier responses that violate the
	// single-JSON-object contract. The document stays unmarked and is
	// re-evaluated on a later poll.
	ErrMalformedOutput = errors.New("malformed classifier output")
	// ErrEmptyContent marks documents whose OCR text is not ready yet.
	ErrEmptyContent = errors.New("empty document content")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
