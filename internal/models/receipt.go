package models

import (
	"time"

	"github.com/google/uuid"
)

// Receipt is a converted IncomingFile (or a standalone record) representing
// money already paid. BillID links it to at most one Bill; SourceFileID is
// nil for receipts created directly rather than by conversion.
type Receipt struct {
	ID           uuid.UUID  `db:"id"`
	UserID       uuid.UUID  `db:"user_id"`
	BillID       *uuid.UUID `db:"bill_id"`
	SourceFileID *uuid.UUID `db:"source_file_id"`
	FileName     *string    `db:"file_name"`
	StorePath    *string    `db:"store_path"`
	Merchant     *string    `db:"merchant"`
	Amount       *float64   `db:"amount"`
	PaidOn       *time.Time `db:"paid_on"`
	Description  *string    `db:"description"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}
