package repository

import (
	"context"
	"errors"

	"paperledger/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Postgres unique_violation SQLSTATE.
const uniqueViolationCode = "23505"

var paymentColumns = []string{
	"id", "user_id", "bill_id", "receipt_id", "service_provider_id",
	"payment_method_id", "amount", "currency", "invoice_date", "payment_date",
	"comment", "created_at",
}

type PaymentRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPaymentRepository(db *pgxpool.Pool, logger *zap.Logger) *PaymentRepository {
	return &PaymentRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a payment. Payments are immutable: there is no update or
// delete path through this repository. A unique index on receipt_id makes
// the insert itself the at-most-once guard for accepted receipts; the
// conflict surfaces as ErrDuplicate.
func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	query := squirrel.Insert("payments").
		Columns(paymentColumns...).
		Values(p.ID, p.UserID, p.BillID, p.ReceiptID, p.ServiceProviderID,
			p.PaymentMethodID, p.Amount, p.Currency, p.InvoiceDate, p.PaymentDate,
			p.Comment, p.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return ErrDuplicate
	}
	return err
}

func (r *PaymentRepository) GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Payment, error) {
	query := squirrel.Select(paymentColumns...).
		From("payments").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var p models.Payment
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&p.ID, &p.UserID, &p.BillID, &p.ReceiptID, &p.ServiceProviderID,
		&p.PaymentMethodID, &p.Amount, &p.Currency, &p.InvoiceDate, &p.PaymentDate,
		&p.Comment, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &p, nil
}

// ExistsForReceipt reports whether the receipt already produced a payment.
// Accepting a receipt as payment is an at-most-once operation.
func (r *PaymentRepository) ExistsForReceipt(ctx context.Context, receiptID uuid.UUID) (bool, error) {
	query := squirrel.Select("1").
		From("payments").
		Where(squirrel.Eq{"receipt_id": receiptID}).
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return false, err
	}

	var one int
	err = r.db.QueryRow(ctx, sql, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *PaymentRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Payment, error) {
	query := squirrel.Select(paymentColumns...).
		From("payments").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.BillID, &p.ReceiptID, &p.ServiceProviderID,
			&p.PaymentMethodID, &p.Amount, &p.Currency, &p.InvoiceDate, &p.PaymentDate,
			&p.Comment, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		payments = append(payments, &p)
	}

	return payments, rows.Err()
}
