package dto

type BillResponse struct {
	ID            string   `json:"id"`
	SourceFileID  string   `json:"source_file_id"`
	FileName      string   `json:"file_name"`
	Status        string   `json:"status"`
	Amount        *float64 `json:"amount,omitempty"`
	DocDate       string   `json:"doc_date,omitempty"`
	Provider      string   `json:"provider,omitempty"`
	DraftAmount   *float64 `json:"draft_amount,omitempty"`
	DraftDocDate  string   `json:"draft_doc_date,omitempty"`
	DraftProvider string   `json:"draft_provider,omitempty"`
	CreatedAt     string   `json:"created_at"`
}

type UpdateBillRequest struct {
	Amount   *float64 `json:"amount"`
	DocDate  *string  `json:"doc_date"`
	Provider *string  `json:"provider"`
}

// PaymentInput is the caller-confirmed payment payload. All fields except
// Comment must be present for a payment to be created; a partial payload
// skips payment creation without failing the surrounding operation.
type PaymentInput struct {
	ServiceProviderID *int64   `json:"service_provider_id"`
	PaymentMethodID   *int64   `json:"payment_method_id"`
	Amount            *float64 `json:"amount"`
	Currency          *string  `json:"currency"`
	InvoiceDate       *string  `json:"invoice_date"`
	PaymentDate       *string  `json:"payment_date"`
	Comment           *string  `json:"comment"`
}

type ApproveBillRequest struct {
	Payment *PaymentInput `json:"payment"`
}

type BillApprovalResponse struct {
	Approved     bool   `json:"approved"`
	PaymentID    string `json:"payment_id,omitempty"`
	PaymentError string `json:"payment_error,omitempty"`
}
