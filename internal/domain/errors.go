package domain

import "errors"

var (
	// ErrMissingInputFile indicates a listed document does not resolve to a readable file
	ErrMissingInputFile = errors.New("input file not found")

	// ErrUnreadableDocument indicates a document could not be opened or parsed at all
	ErrUnreadableDocument = errors.New("unreadable document")

	// ErrUnsupportedFormat indicates no extractor is registered for the document type
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrUnreadablePage indicates a single page failed extraction
	ErrUnreadablePage = errors.New("unreadable page")

	// ErrEmptyCandidateSet indicates no text unit survived extraction
	ErrEmptyCandidateSet = errors.New("no valid sections found")

	// ErrEmbeddingFailed indicates the embedding service or vector scoring failed
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrInvalidInput indicates a malformed descriptor or configuration
	ErrInvalidInput = errors.New("invalid input")
)
