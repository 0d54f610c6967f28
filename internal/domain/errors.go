package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed        = errors.New("file upload to storage failed")
	ErrDuplicateInvoice    = errors.New("invoice already exists for this store")
	ErrNonTargetFormat     = errors.New("document is not a recognized invoice format")
	ErrExtractionFailed    = errors.New("invoice extraction failed")
)
