package service

import (
	"context"
	"time"

	"paperledger/internal/models"

	"github.com/google/uuid"
)

// FileStore is the blob storage the document contents live in.
type FileStore interface {
	Save(name string, data []byte) (string, error)
	Get(path string) ([]byte, error)
	Delete(path string) error
}

// OCRFields is what extraction managed to pull out of a document. RawText
// is always set on success; the structured fields are best effort.
type OCRFields struct {
	RawText  string
	Amount   *float64
	DocDate  *time.Time
	Provider *string
}

// OCRGateway is the pluggable extraction capability. Available reports
// whether any engine is configured; triggering OCR without one is a no-op,
// not an error.
type OCRGateway interface {
	Available() bool
	Engines() []string
	Extract(ctx context.Context, data []byte, fileName string) (*OCRFields, error)
}

type IncomingFileStore interface {
	Create(ctx context.Context, f *models.IncomingFile) error
	GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.IncomingFile, error)
	UpdateFields(ctx context.Context, f *models.IncomingFile) error
	UpdateStatus(ctx context.Context, id, userID uuid.UUID, from []models.FileStatus, to models.FileStatus) (bool, error)
	SetOCRSuccess(ctx context.Context, id uuid.UUID, rawText string, amount *float64, docDate *time.Time, provider *string) error
	SetOCRFailure(ctx context.Context, id uuid.UUID, reason string) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID, status *models.FileStatus, limit, offset int, orderBy string) ([]*models.IncomingFile, error)
	CountByStatus(ctx context.Context, userID uuid.UUID) (map[models.FileStatus]int64, error)
}

type BillStore interface {
	GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Bill, error)
	SaveDraft(ctx context.Context, b *models.Bill) error
	ApplyDraft(ctx context.Context, id, userID uuid.UUID) error
	UpdateStatus(ctx context.Context, id, userID uuid.UUID, from []models.BillStatus, to models.BillStatus) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, status *models.BillStatus, limit, offset int, orderBy string) ([]*models.Bill, error)
	CountByStatus(ctx context.Context, userID uuid.UUID) (map[models.BillStatus]int64, error)
}

type ReceiptStore interface {
	Create(ctx context.Context, rc *models.Receipt) error
	GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Receipt, error)
	UpdateFields(ctx context.Context, rc *models.Receipt) error
	SetBill(ctx context.Context, id, userID uuid.UUID, billID *uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID, billID *uuid.UUID, limit, offset int, orderBy string) ([]*models.Receipt, error)
	CountStats(ctx context.Context, userID uuid.UUID) (total, associated int64, err error)
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
}

type PaymentStore interface {
	Create(ctx context.Context, p *models.Payment) error
	GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Payment, error)
	ExistsForReceipt(ctx context.Context, receiptID uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Payment, error)
}

// ConversionStore is the transactional engine moving a document between
// its representations. Implementations must guarantee all-or-nothing
// behavior for each call.
type ConversionStore interface {
	ConvertToBill(ctx context.Context, fileID, userID uuid.UUID) (*models.Bill, error)
	ConvertToReceipt(ctx context.Context, fileID, userID uuid.UUID) (*models.Receipt, error)
	RevertBill(ctx context.Context, billID, userID uuid.UUID) (*models.IncomingFile, error)
	RevertReceipt(ctx context.Context, receiptID, userID uuid.UUID) (*models.IncomingFile, error)
	DeleteBill(ctx context.Context, billID, userID uuid.UUID) (storePath string, err error)
	DeleteReceipt(ctx context.Context, receiptID, userID uuid.UUID) (storePath *string, err error)
}
