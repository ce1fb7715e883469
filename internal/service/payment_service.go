package service

import (
	"context"

	"paperledger/internal/dto"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentService is read-only: payments are created as side effects of
// bill approval and receipt accept, never directly.
type PaymentService struct {
	payments PaymentStore
	logger   *zap.Logger
}

func NewPaymentService(payments PaymentStore, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		payments: payments,
		logger:   logger,
	}
}

func (s *PaymentService) Get(ctx context.Context, userID, paymentID uuid.UUID) (*dto.PaymentResponse, error) {
	p, err := s.payments.GetByIDAndUser(ctx, paymentID, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return toPaymentResponse(p), nil
}

func (s *PaymentService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*dto.PaymentResponse, error) {
	limit, offset = normalizePage(limit, offset)

	payments, err := s.payments.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.PaymentResponse, len(payments))
	for i, p := range payments {
		responses[i] = toPaymentResponse(p)
	}
	return responses, nil
}
