package dto

type ReceiptResponse struct {
	ID           string   `json:"id"`
	BillID       string   `json:"bill_id,omitempty"`
	SourceFileID string   `json:"source_file_id,omitempty"`
	FileName     string   `json:"file_name,omitempty"`
	Merchant     string   `json:"merchant,omitempty"`
	Amount       *float64 `json:"amount,omitempty"`
	PaidOn       string   `json:"paid_on,omitempty"`
	Description  string   `json:"description,omitempty"`
	CreatedAt    string   `json:"created_at"`
}

type UpdateReceiptRequest struct {
	Merchant    *string  `json:"merchant"`
	Amount      *float64 `json:"amount"`
	PaidOn      *string  `json:"paid_on"`
	Description *string  `json:"description"`
}

type AssociateReceiptRequest struct {
	BillID string `json:"bill_id" validate:"required,uuid"`
}

type AcceptReceiptRequest struct {
	BillID  *string       `json:"bill_id"`
	Payment *PaymentInput `json:"payment"`
}

type ReceiptAcceptResponse struct {
	Accepted     bool   `json:"accepted"`
	BillID       string `json:"bill_id,omitempty"`
	PaymentID    string `json:"payment_id,omitempty"`
	PaymentError string `json:"payment_error,omitempty"`
}

type ReceiptStatsResponse struct {
	Total      int64 `json:"total"`
	Associated int64 `json:"associated"`
	Standalone int64 `json:"standalone"`
}
