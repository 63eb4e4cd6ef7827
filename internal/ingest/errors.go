package ingest

import (
	"errors"
	"fmt"
)

// ErrEmptyContent rejects ingestion of empty or unusable extracted text,
// so a document with zero chunks is never created silently.
var ErrEmptyContent = errors.New("document has no usable text content")

// ErrProcessingInProgress rejects a second process pass while one is
// already in flight for the same document.
var ErrProcessingInProgress = errors.New("document is already being processed")

// DuplicateDocumentError is returned when an upload collides with an
// existing document by content hash: either the caller already uploaded
// it, or a canonical admin-managed copy exists.
type DuplicateDocumentError struct {
	ExistingID string
}

func (e *DuplicateDocumentError) Error() string {
	return fmt.Sprintf("document already exists: %s", e.ExistingID)
}

// ProcessingError wraps any failure during a processing pass. The same
// message is recorded on the document as processing_error.
type ProcessingError struct {
	DocumentID string
	Err        error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing document %s: %v", e.DocumentID, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }
