package service

import (
	"context"

	"paperledger/internal/dto"
	"paperledger/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var billSortColumns = map[string]string{
	"created_at": "created_at",
	"doc_date":   "doc_date",
	"amount":     "amount",
	"status":     "status",
	"provider":   "provider",
}

var billApprovableStates = []models.BillStatus{
	models.BillStatusNew, models.BillStatusProcessing,
}

// BillService manages converted bills: draft edits, the approve step with
// its optional payment side effect, rejection, revert and delete.
type BillService struct {
	bills       BillStore
	payments    PaymentStore
	conversions *ConversionService
	storage     FileStore
	logger      *zap.Logger
}

func NewBillService(
	bills BillStore,
	payments PaymentStore,
	conversions *ConversionService,
	storage FileStore,
	logger *zap.Logger,
) *BillService {
	return &BillService{
		bills:       bills,
		payments:    payments,
		conversions: conversions,
		storage:     storage,
		logger:      logger,
	}
}

func (s *BillService) Get(ctx context.Context, userID, billID uuid.UUID) (*dto.BillResponse, error) {
	b, err := s.bills.GetByIDAndUser(ctx, billID, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return toBillResponse(b), nil
}

func (s *BillService) List(ctx context.Context, userID uuid.UUID, status string, limit, offset int, sort, dir string) ([]*dto.BillResponse, error) {
	limit, offset = normalizePage(limit, offset)
	orderBy := sortClause(sort, dir, billSortColumns, "created_at DESC")

	var statusFilter *models.BillStatus
	if status != "" {
		st := models.BillStatus(status)
		statusFilter = &st
	}

	bills, err := s.bills.ListByUser(ctx, userID, statusFilter, limit, offset, orderBy)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.BillResponse, len(bills))
	for i, b := range bills {
		responses[i] = toBillResponse(b)
	}
	return responses, nil
}

func (s *BillService) Stats(ctx context.Context, userID uuid.UUID) (*dto.StatsResponse, error) {
	counts, err := s.bills.CountByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &dto.StatsResponse{Counts: make(map[string]int64, len(counts))}
	for status, count := range counts {
		resp.Counts[string(status)] = count
	}
	return resp, nil
}

// Update stages user edits as a draft. Drafts are folded into the live
// fields only when the bill is approved; rejecting discards them.
func (s *BillService) Update(ctx context.Context, userID, billID uuid.UUID, req *dto.UpdateBillRequest) (*dto.BillResponse, error) {
	b, err := s.bills.GetByIDAndUser(ctx, billID, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if b.Status == models.BillStatusApproved || b.Status == models.BillStatusRejected {
		return nil, ErrInvalidTransition
	}

	draftDate, err := parseDatePtr(req.DocDate)
	if err != nil {
		return nil, err
	}
	if req.Amount != nil {
		b.DraftAmount = req.Amount
	}
	if draftDate != nil {
		b.DraftDocDate = draftDate
	}
	if req.Provider != nil {
		b.DraftProvider = req.Provider
	}

	if err := s.bills.SaveDraft(ctx, b); err != nil {
		return nil, mapRepoErr(err)
	}
	return toBillResponse(b), nil
}

// Approve finalizes the bill and, when a complete payment payload is
// supplied, records a payment against it. Pending drafts are folded into
// the live fields first; a fold failure aborts the approval with the bill
// status untouched. The status compare-and-set is the serialization point:
// of two racing approvals exactly one proceeds past it, so at most one
// payment is ever created. A payment failure after the approval landed is
// reported alongside the approval, never rolled back.
func (s *BillService) Approve(ctx context.Context, userID, billID uuid.UUID, req *dto.ApproveBillRequest) (*dto.BillApprovalResponse, error) {
	b, err := s.bills.GetByIDAndUser(ctx, billID, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if b.Status != models.BillStatusNew && b.Status != models.BillStatusProcessing {
		return nil, ErrInvalidTransition
	}

	var payment *models.Payment
	if req != nil {
		payment, err = paymentFromInput(req.Payment, userID)
		if err != nil {
			return nil, err
		}
	}

	if err := s.bills.ApplyDraft(ctx, billID, userID); err != nil {
		s.logger.Error("Failed to apply bill draft on approval",
			zap.String("bill_id", billID.String()), zap.Error(err))
		return nil, mapRepoErr(err)
	}

	ok, err := s.bills.UpdateStatus(ctx, billID, userID, billApprovableStates, models.BillStatusApproved)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}

	resp := &dto.BillApprovalResponse{Approved: true}
	if payment == nil {
		s.logger.Info("Bill approved without payment",
			zap.String("bill_id", billID.String()))
		return resp, nil
	}

	payment.BillID = &billID
	if err := s.payments.Create(ctx, payment); err != nil {
		s.logger.Warn("Payment creation failed after bill approval",
			zap.String("bill_id", billID.String()), zap.Error(err))
		resp.PaymentError = err.Error()
		return resp, nil
	}

	resp.PaymentID = payment.ID.String()
	s.logger.Info("Bill approved",
		zap.String("bill_id", billID.String()),
		zap.String("payment_id", payment.ID.String()),
	)
	return resp, nil
}

// Reject closes the bill without a payment. Pending drafts stay staged but
// are never folded in.
func (s *BillService) Reject(ctx context.Context, userID, billID uuid.UUID) (*dto.BillResponse, error) {
	if _, err := s.bills.GetByIDAndUser(ctx, billID, userID); err != nil {
		return nil, mapRepoErr(err)
	}

	ok, err := s.bills.UpdateStatus(ctx, billID, userID, billApprovableStates, models.BillStatusRejected)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}

	b, err := s.bills.GetByIDAndUser(ctx, billID, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return toBillResponse(b), nil
}

// Revert undoes the conversion, restoring the source file to the inbox.
// Refused once any payment references the bill.
func (s *BillService) Revert(ctx context.Context, userID, billID uuid.UUID) (*dto.IncomingFileResponse, error) {
	return s.conversions.RevertBill(ctx, userID, billID)
}

// Delete removes the bill and its source file row, then the stored blob.
func (s *BillService) Delete(ctx context.Context, userID, billID uuid.UUID) error {
	storePath, err := s.conversions.DeleteBill(ctx, userID, billID)
	if err != nil {
		return err
	}

	if err := s.storage.Delete(storePath); err != nil {
		s.logger.Warn("Failed to delete stored file",
			zap.String("path", storePath), zap.Error(err))
	}
	return nil
}
