package dto

type IncomingFileResponse struct {
	ID            string   `json:"id"`
	FileName      string   `json:"file_name"`
	Status        string   `json:"status"`
	Checksum      string   `json:"checksum"`
	OCRText       string   `json:"ocr_text,omitempty"`
	Amount        *float64 `json:"amount,omitempty"`
	DocDate       string   `json:"doc_date,omitempty"`
	Provider      string   `json:"provider,omitempty"`
	FailureReason string   `json:"failure_reason,omitempty"`
	UploadedAt    string   `json:"uploaded_at"`
}

type UpdateIncomingFileRequest struct {
	Amount   *float64 `json:"amount"`
	DocDate  *string  `json:"doc_date"`
	Provider *string  `json:"provider"`
}

type OCRTriggerResponse struct {
	Triggered bool   `json:"triggered"`
	Status    string `json:"status,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type OCREnginesResponse struct {
	Available bool     `json:"available"`
	Engines   []string `json:"engines"`
}

type DispatchRequest struct {
	Target string `json:"target" validate:"required,oneof=bill receipt"`
}

type DispatchResponse struct {
	Target  string           `json:"target"`
	Bill    *BillResponse    `json:"bill,omitempty"`
	Receipt *ReceiptResponse `json:"receipt,omitempty"`
}

type StatsResponse struct {
	Counts map[string]int64 `json:"counts"`
}
