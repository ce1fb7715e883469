package service

import (
	"strings"
	"time"
	"unicode/utf8"

	"paperledger/internal/dto"
	"paperledger/internal/models"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// sanitizeUTF8 removes invalid UTF-8 sequences from string
// This prevents PostgreSQL encoding errors when saving text
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	var result strings.Builder
	result.Grow(len(s))

	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			s = s[1:]
			continue
		}
		result.WriteRune(r)
		s = s[size:]
	}

	return result.String()
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

func parseDatePtr(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := parseDate(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// paymentFromInput builds a payment from the caller-confirmed payload.
// A nil or partially filled payload yields (nil, nil): payment creation is
// skipped, never failed, when fields are missing. Only a malformed date in
// an otherwise complete payload is an error.
func paymentFromInput(in *dto.PaymentInput, userID uuid.UUID) (*models.Payment, error) {
	if in == nil {
		return nil, nil
	}
	if in.ServiceProviderID == nil || in.PaymentMethodID == nil || in.Amount == nil ||
		in.Currency == nil || in.InvoiceDate == nil || in.PaymentDate == nil {
		return nil, nil
	}

	invoiceDate, err := parseDate(*in.InvoiceDate)
	if err != nil {
		return nil, err
	}
	paymentDate, err := parseDate(*in.PaymentDate)
	if err != nil {
		return nil, err
	}

	return &models.Payment{
		ID:                uuid.New(),
		UserID:            userID,
		ServiceProviderID: *in.ServiceProviderID,
		PaymentMethodID:   *in.PaymentMethodID,
		Amount:            *in.Amount,
		Currency:          *in.Currency,
		InvoiceDate:       invoiceDate,
		PaymentDate:       paymentDate,
		Comment:           in.Comment,
		CreatedAt:         time.Now(),
	}, nil
}

// sortClause maps a caller-supplied sort key to a SQL ORDER BY through an
// allow-list; anything unknown falls back to the default.
func sortClause(sort, dir string, allowed map[string]string, def string) string {
	column, ok := allowed[sort]
	if !ok {
		return def
	}
	if strings.EqualFold(dir, "asc") {
		return column + " ASC"
	}
	return column + " DESC"
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
