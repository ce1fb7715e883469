package repository

import "errors"

var (
	// ErrNotFound covers both a missing row and a row owned by another
	// user; callers cannot tell the two apart.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate signals a unique constraint conflict.
	ErrDuplicate = errors.New("duplicate record")
	// ErrAlreadyConverted signals a conversion attempt on a file that has
	// already been moved to a bill or receipt.
	ErrAlreadyConverted = errors.New("file already converted")
	// ErrNotConvertible signals a revert attempt on a receipt that was
	// created directly rather than converted from an uploaded file.
	ErrNotConvertible = errors.New("record has no source file")
	// ErrHasPayments guards reverts: a bill or receipt that spawned a
	// payment must keep existing so the payment reference stays valid.
	ErrHasPayments = errors.New("payments reference this record")
)
