package service

import (
	"time"

	"paperledger/internal/dto"
	"paperledger/internal/models"
)

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func toIncomingFileResponse(f *models.IncomingFile) *dto.IncomingFileResponse {
	return &dto.IncomingFileResponse{
		ID:            f.ID.String(),
		FileName:      f.FileName,
		Status:        string(f.Status),
		Checksum:      f.Checksum,
		OCRText:       derefStr(f.OCRText),
		Amount:        f.Amount,
		DocDate:       formatDate(f.DocDate),
		Provider:      derefStr(f.Provider),
		FailureReason: derefStr(f.FailureReason),
		UploadedAt:    f.UploadedAt.Format(time.RFC3339),
	}
}

func toBillResponse(b *models.Bill) *dto.BillResponse {
	return &dto.BillResponse{
		ID:            b.ID.String(),
		SourceFileID:  b.SourceFileID.String(),
		FileName:      b.FileName,
		Status:        string(b.Status),
		Amount:        b.Amount,
		DocDate:       formatDate(b.DocDate),
		Provider:      derefStr(b.Provider),
		DraftAmount:   b.DraftAmount,
		DraftDocDate:  formatDate(b.DraftDocDate),
		DraftProvider: derefStr(b.DraftProvider),
		CreatedAt:     b.CreatedAt.Format(time.RFC3339),
	}
}

func toReceiptResponse(rc *models.Receipt) *dto.ReceiptResponse {
	resp := &dto.ReceiptResponse{
		ID:          rc.ID.String(),
		FileName:    derefStr(rc.FileName),
		Merchant:    derefStr(rc.Merchant),
		Amount:      rc.Amount,
		PaidOn:      formatDate(rc.PaidOn),
		Description: derefStr(rc.Description),
		CreatedAt:   rc.CreatedAt.Format(time.RFC3339),
	}
	if rc.BillID != nil {
		resp.BillID = rc.BillID.String()
	}
	if rc.SourceFileID != nil {
		resp.SourceFileID = rc.SourceFileID.String()
	}
	return resp
}

func toPaymentResponse(p *models.Payment) *dto.PaymentResponse {
	resp := &dto.PaymentResponse{
		ID:                p.ID.String(),
		ServiceProviderID: p.ServiceProviderID,
		PaymentMethodID:   p.PaymentMethodID,
		Amount:            p.Amount,
		Currency:          p.Currency,
		InvoiceDate:       p.InvoiceDate.Format(dateLayout),
		PaymentDate:       p.PaymentDate.Format(dateLayout),
		Comment:           derefStr(p.Comment),
		CreatedAt:         p.CreatedAt.Format(time.RFC3339),
	}
	if p.BillID != nil {
		resp.BillID = p.BillID.String()
	}
	if p.ReceiptID != nil {
		resp.ReceiptID = p.ReceiptID.String()
	}
	return resp
}
