package models

import (
	"time"

	"github.com/google/uuid"
)

type BillStatus string

const (
	BillStatusNew        BillStatus = "new"
	BillStatusProcessing BillStatus = "processing"
	BillStatusApproved   BillStatus = "approved"
	BillStatusRejected   BillStatus = "rejected"
)

// Bill is a converted IncomingFile representing money owed. The OCR fields
// carry what extraction found; the Draft* fields hold user edits that are
// folded in on approval.
type Bill struct {
	ID            uuid.UUID  `db:"id"`
	UserID        uuid.UUID  `db:"user_id"`
	SourceFileID  uuid.UUID  `db:"source_file_id"`
	FileName      string     `db:"file_name"`
	StorePath     string     `db:"store_path"`
	Status        BillStatus `db:"status"`
	Amount        *float64   `db:"amount"`
	DocDate       *time.Time `db:"doc_date"`
	Provider      *string    `db:"provider"`
	DraftAmount   *float64   `db:"draft_amount"`
	DraftDocDate  *time.Time `db:"draft_doc_date"`
	DraftProvider *string    `db:"draft_provider"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}
