package service

import (
	"context"
	"errors"

	"paperledger/internal/dto"
	"paperledger/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var receiptSortColumns = map[string]string{
	"created_at": "created_at",
	"paid_on":    "paid_on",
	"amount":     "amount",
	"merchant":   "merchant",
}

// ReceiptService manages converted receipts: edits, bill association, the
// accept step with its optional payment side effect, revert and delete.
type ReceiptService struct {
	receipts    ReceiptStore
	bills       BillStore
	payments    PaymentStore
	conversions *ConversionService
	storage     FileStore
	logger      *zap.Logger
}

func NewReceiptService(
	receipts ReceiptStore,
	bills BillStore,
	payments PaymentStore,
	conversions *ConversionService,
	storage FileStore,
	logger *zap.Logger,
) *ReceiptService {
	return &ReceiptService{
		receipts:    receipts,
		bills:       bills,
		payments:    payments,
		conversions: conversions,
		storage:     storage,
		logger:      logger,
	}
}

func (s *ReceiptService) Get(ctx context.Context, userID, receiptID uuid.UUID) (*dto.ReceiptResponse, error) {
	rc, err := s.receipts.GetByIDAndUser(ctx, receiptID, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return toReceiptResponse(rc), nil
}

func (s *ReceiptService) List(ctx context.Context, userID uuid.UUID, billID *uuid.UUID, limit, offset int, sort, dir string) ([]*dto.ReceiptResponse, error) {
	limit, offset = normalizePage(limit, offset)
	orderBy := sortClause(sort, dir, receiptSortColumns, "created_at DESC")

	receipts, err := s.receipts.ListByUser(ctx, userID, billID, limit, offset, orderBy)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.ReceiptResponse, len(receipts))
	for i, rc := range receipts {
		responses[i] = toReceiptResponse(rc)
	}
	return responses, nil
}

func (s *ReceiptService) Stats(ctx context.Context, userID uuid.UUID) (*dto.ReceiptStatsResponse, error) {
	total, associated, err := s.receipts.CountStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.ReceiptStatsResponse{
		Total:      total,
		Associated: associated,
		Standalone: total - associated,
	}, nil
}

func (s *ReceiptService) Update(ctx context.Context, userID, receiptID uuid.UUID, req *dto.UpdateReceiptRequest) (*dto.ReceiptResponse, error) {
	rc, err := s.receipts.GetByIDAndUser(ctx, receiptID, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}

	paidOn, err := parseDatePtr(req.PaidOn)
	if err != nil {
		return nil, err
	}
	if req.Merchant != nil {
		rc.Merchant = req.Merchant
	}
	if req.Amount != nil {
		rc.Amount = req.Amount
	}
	if paidOn != nil {
		rc.PaidOn = paidOn
	}
	if req.Description != nil {
		rc.Description = req.Description
	}

	if err := s.receipts.UpdateFields(ctx, rc); err != nil {
		return nil, mapRepoErr(err)
	}
	return toReceiptResponse(rc), nil
}

// Associate links the receipt to a bill owned by the same user. The bill
// lookup doubles as the ownership check.
func (s *ReceiptService) Associate(ctx context.Context, userID, receiptID, billID uuid.UUID) (*dto.ReceiptResponse, error) {
	if _, err := s.bills.GetByIDAndUser(ctx, billID, userID); err != nil {
		return nil, mapRepoErr(err)
	}

	if err := s.receipts.SetBill(ctx, receiptID, userID, &billID); err != nil {
		return nil, mapRepoErr(err)
	}

	rc, err := s.receipts.GetByIDAndUser(ctx, receiptID, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return toReceiptResponse(rc), nil
}

// Disassociate clears the bill link; the receipt stands alone again.
func (s *ReceiptService) Disassociate(ctx context.Context, userID, receiptID uuid.UUID) (*dto.ReceiptResponse, error) {
	if err := s.receipts.SetBill(ctx, receiptID, userID, nil); err != nil {
		return nil, mapRepoErr(err)
	}

	rc, err := s.receipts.GetByIDAndUser(ctx, receiptID, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return toReceiptResponse(rc), nil
}

// Accept records the receipt as a settled payment. An optional bill
// association is applied first, then a payment is created when the payload
// is complete. A receipt is accepted at most once: an existing payment
// against it refuses the call.
func (s *ReceiptService) Accept(ctx context.Context, userID, receiptID uuid.UUID, req *dto.AcceptReceiptRequest) (*dto.ReceiptAcceptResponse, error) {
	rc, err := s.receipts.GetByIDAndUser(ctx, receiptID, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}

	exists, err := s.payments.ExistsForReceipt(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrInvalidTransition
	}

	var payment *dto.PaymentInput
	if req != nil {
		payment = req.Payment
		if req.BillID != nil {
			billID, parseErr := uuid.Parse(*req.BillID)
			if parseErr != nil {
				return nil, ErrNotFound
			}
			if _, err := s.Associate(ctx, userID, receiptID, billID); err != nil {
				return nil, err
			}
			rc.BillID = &billID
		}
	}

	p, err := paymentFromInput(payment, userID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ReceiptAcceptResponse{Accepted: true}
	if rc.BillID != nil {
		resp.BillID = rc.BillID.String()
	}
	if p == nil {
		s.logger.Info("Receipt accepted without payment",
			zap.String("receipt_id", receiptID.String()))
		return resp, nil
	}

	p.ReceiptID = &receiptID
	if err := s.payments.Create(ctx, p); err != nil {
		// A racing accept can slip past the existence check above; the
		// unique index on receipt_id catches it at insert time.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrInvalidTransition
		}
		s.logger.Warn("Payment creation failed after receipt accept",
			zap.String("receipt_id", receiptID.String()), zap.Error(err))
		resp.PaymentError = err.Error()
		return resp, nil
	}

	resp.PaymentID = p.ID.String()
	s.logger.Info("Receipt accepted",
		zap.String("receipt_id", receiptID.String()),
		zap.String("payment_id", p.ID.String()),
	)
	return resp, nil
}

// Revert undoes the conversion, restoring the source file to the inbox.
func (s *ReceiptService) Revert(ctx context.Context, userID, receiptID uuid.UUID) (*dto.IncomingFileResponse, error) {
	return s.conversions.RevertReceipt(ctx, userID, receiptID)
}

// Delete removes the receipt and, when it came from a conversion, its
// source file row and blob.
func (s *ReceiptService) Delete(ctx context.Context, userID, receiptID uuid.UUID) error {
	storePath, err := s.conversions.DeleteReceipt(ctx, userID, receiptID)
	if err != nil {
		return err
	}

	if storePath != nil {
		if err := s.storage.Delete(*storePath); err != nil {
			s.logger.Warn("Failed to delete stored file",
				zap.String("path", *storePath), zap.Error(err))
		}
	}
	return nil
}
