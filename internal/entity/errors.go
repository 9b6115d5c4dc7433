package entity

import "errors"

// Domain errors
var (
	// File errors
	ErrFileNotFound     = errors.New("file not found")
	ErrInvalidFile      = errors.New("invalid file")
	ErrFileTooLarge     = errors.New("file too large")
	ErrInvalidExtension = errors.New("invalid file extension")

	// Ingestion errors
	ErrEmbeddingFailed   = errors.New("embedding failed")
	ErrStoreWriteFailed  = errors.New("store write failed")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// Query errors
	ErrRetrievalFailed = errors.New("retrieval failed")
	ErrSynthesisFailed = errors.New("synthesis failed")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidParameter = errors.New("invalid parameter")
)
