package dto

type PaymentResponse struct {
	ID                string  `json:"id"`
	BillID            string  `json:"bill_id,omitempty"`
	ReceiptID         string  `json:"receipt_id,omitempty"`
	ServiceProviderID int64   `json:"service_provider_id"`
	PaymentMethodID   int64   `json:"payment_method_id"`
	Amount            float64 `json:"amount"`
	Currency          string  `json:"currency"`
	InvoiceDate       string  `json:"invoice_date"`
	PaymentDate       string  `json:"payment_date"`
	Comment           string  `json:"comment,omitempty"`
	CreatedAt         string  `json:"created_at"`
}
