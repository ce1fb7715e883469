package models

import (
	"time"

	"github.com/google/uuid"
)

type FileStatus string

const (
	FileStatusNew        FileStatus = "new"
	FileStatusProcessing FileStatus = "processing"
	FileStatusDone       FileStatus = "done"
	FileStatusFailed     FileStatus = "failed"
	FileStatusApproved   FileStatus = "approved"
	FileStatusRejected   FileStatus = "rejected"
	FileStatusConverted  FileStatus = "converted"
)

// IncomingFile is a raw uploaded document waiting in the inbox. A converted
// file keeps its row with status "converted" so a later revert restores the
// original id, upload time and OCR fields exactly.
type IncomingFile struct {
	ID            uuid.UUID  `db:"id"`
	UserID        uuid.UUID  `db:"user_id"`
	FileName      string     `db:"file_name"`
	StorePath     string     `db:"store_path"`
	Checksum      string     `db:"checksum"`
	Status        FileStatus `db:"status"`
	OCRText       *string    `db:"ocr_text"`
	Amount        *float64   `db:"amount"`
	DocDate       *time.Time `db:"doc_date"`
	Provider      *string    `db:"provider"`
	FailureReason *string    `db:"failure_reason"`
	UploadedAt    time.Time  `db:"uploaded_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}
