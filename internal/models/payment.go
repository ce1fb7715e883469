package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment is a ledger record spawned by approving a Bill or accepting a
// Receipt. Rows are insert-only; exactly one of BillID/ReceiptID is set.
type Payment struct {
	ID                uuid.UUID  `db:"id"`
	UserID            uuid.UUID  `db:"user_id"`
	BillID            *uuid.UUID `db:"bill_id"`
	ReceiptID         *uuid.UUID `db:"receipt_id"`
	ServiceProviderID int64      `db:"service_provider_id"`
	PaymentMethodID   int64      `db:"payment_method_id"`
	Amount            float64    `db:"amount"`
	Currency          string     `db:"currency"`
	InvoiceDate       time.Time  `db:"invoice_date"`
	PaymentDate       time.Time  `db:"payment_date"`
	Comment           *string    `db:"comment"`
	CreatedAt         time.Time  `db:"created_at"`
}
