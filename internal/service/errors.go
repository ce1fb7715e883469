package service

import "errors"

var (
	// ErrNotFound deliberately covers "does not exist" and "owned by
	// another user" so callers cannot probe foreign ids.
	ErrNotFound          = errors.New("document not found")
	ErrDuplicateUpload   = errors.New("a file with the same content already exists")
	ErrInvalidFileType   = errors.New("unsupported file type")
	ErrFileTooLarge      = errors.New("file exceeds the upload size limit")
	ErrInvalidTransition = errors.New("operation not allowed in the current state")
	ErrHasPayments       = errors.New("payments reference this document")
	ErrUnknownTarget     = errors.New("unknown conversion target")
	ErrInvalidDate       = errors.New("invalid date, expected YYYY-MM-DD")
)
