package service

import (
	"context"

	"paperledger/internal/dto"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConversionService fronts the transactional conversion engine. All error
// mapping from persistence signals to the service taxonomy happens here so
// callers never see repository sentinels.
type ConversionService struct {
	conversions ConversionStore
	logger      *zap.Logger
}

func NewConversionService(conversions ConversionStore, logger *zap.Logger) *ConversionService {
	return &ConversionService{
		conversions: conversions,
		logger:      logger,
	}
}

func (s *ConversionService) ConvertToBill(ctx context.Context, userID, fileID uuid.UUID) (*dto.BillResponse, error) {
	bill, err := s.conversions.ConvertToBill(ctx, fileID, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}

	s.logger.Info("File converted to bill",
		zap.String("file_id", fileID.String()),
		zap.String("bill_id", bill.ID.String()),
	)
	return toBillResponse(bill), nil
}

func (s *ConversionService) ConvertToReceipt(ctx context.Context, userID, fileID uuid.UUID) (*dto.ReceiptResponse, error) {
	receipt, err := s.conversions.ConvertToReceipt(ctx, fileID, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}

	s.logger.Info("File converted to receipt",
		zap.String("file_id", fileID.String()),
		zap.String("receipt_id", receipt.ID.String()),
	)
	return toReceiptResponse(receipt), nil
}

// RevertBill undoes a bill conversion and reopens the source file.
func (s *ConversionService) RevertBill(ctx context.Context, userID, billID uuid.UUID) (*dto.IncomingFileResponse, error) {
	f, err := s.conversions.RevertBill(ctx, billID, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}

	s.logger.Info("Bill reverted",
		zap.String("bill_id", billID.String()),
		zap.String("file_id", f.ID.String()),
	)
	return toIncomingFileResponse(f), nil
}

// RevertReceipt undoes a receipt conversion. Receipts created by hand have
// no source file and cannot be reverted.
func (s *ConversionService) RevertReceipt(ctx context.Context, userID, receiptID uuid.UUID) (*dto.IncomingFileResponse, error) {
	f, err := s.conversions.RevertReceipt(ctx, receiptID, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}

	s.logger.Info("Receipt reverted",
		zap.String("receipt_id", receiptID.String()),
		zap.String("file_id", f.ID.String()),
	)
	return toIncomingFileResponse(f), nil
}

func (s *ConversionService) DeleteBill(ctx context.Context, userID, billID uuid.UUID) (string, error) {
	storePath, err := s.conversions.DeleteBill(ctx, billID, userID)
	if err != nil {
		return "", mapRepoErr(err)
	}
	return storePath, nil
}

func (s *ConversionService) DeleteReceipt(ctx context.Context, userID, receiptID uuid.UUID) (*string, error) {
	storePath, err := s.conversions.DeleteReceipt(ctx, receiptID, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return storePath, nil
}
