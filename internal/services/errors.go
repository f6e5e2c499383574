package services

import "errors"

// Service-level sentinel errors, mapped to API errors at the transport layer.
var (
	// ErrNotLoaded indicates the workbook has not been loaded yet.
	ErrNotLoaded = errors.New("profit data not loaded")

	// ErrBatchNotFound indicates the requested batch reference does not exist.
	ErrBatchNotFound = errors.New("batch not found")
)
