package store

import "errors"

// Ingestion error types. Each maps to exactly one terminal pipeline outcome.
var (
	ErrMissingFilename = errors.New("no filename provided")
	ErrInvalidName     = errors.New("filename does not match expected pattern")
	ErrAlreadyExists   = errors.New("artifact already uploaded")
	ErrWriteFailed     = errors.New("failed to write artifact")
	ErrReadFailed      = errors.New("failed to read back artifact")
	ErrHashMismatch    = errors.New("artifact content does not match claimed fingerprint")
)
