package repository

import (
	"context"
	"errors"
	"time"

	"paperledger/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var receiptColumns = []string{
	"id", "user_id", "bill_id", "source_file_id", "file_name", "store_path",
	"merchant", "amount", "paid_on", "description", "created_at", "updated_at",
}

type ReceiptRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewReceiptRepository(db *pgxpool.Pool, logger *zap.Logger) *ReceiptRepository {
	return &ReceiptRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ReceiptRepository) Create(ctx context.Context, rc *models.Receipt) error {
	query := squirrel.Insert("receipts").
		Columns(receiptColumns...).
		Values(rc.ID, rc.UserID, rc.BillID, rc.SourceFileID, rc.FileName, rc.StorePath,
			rc.Merchant, rc.Amount, rc.PaidOn, rc.Description, rc.CreatedAt, rc.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *ReceiptRepository) GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Receipt, error) {
	query := squirrel.Select(receiptColumns...).
		From("receipts").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var rc models.Receipt
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&rc.ID, &rc.UserID, &rc.BillID, &rc.SourceFileID, &rc.FileName, &rc.StorePath,
		&rc.Merchant, &rc.Amount, &rc.PaidOn, &rc.Description, &rc.CreatedAt, &rc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &rc, nil
}

// UpdateFields persists user edits to the receipt's own fields.
func (r *ReceiptRepository) UpdateFields(ctx context.Context, rc *models.Receipt) error {
	query := squirrel.Update("receipts").
		Set("merchant", rc.Merchant).
		Set("amount", rc.Amount).
		Set("paid_on", rc.PaidOn).
		Set("description", rc.Description).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": rc.ID, "user_id": rc.UserID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetBill points the receipt at a bill, or clears the association when
// billID is nil.
func (r *ReceiptRepository) SetBill(ctx context.Context, id, userID uuid.UUID, billID *uuid.UUID) error {
	query := squirrel.Update("receipts").
		Set("bill_id", billID).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ReceiptRepository) ListByUser(ctx context.Context, userID uuid.UUID, billID *uuid.UUID, limit, offset int, orderBy string) ([]*models.Receipt, error) {
	query := squirrel.Select(receiptColumns...).
		From("receipts").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy(orderBy).
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(squirrel.Dollar)
	if billID != nil {
		query = query.Where(squirrel.Eq{"bill_id": *billID})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var receipts []*models.Receipt
	for rows.Next() {
		var rc models.Receipt
		if err := rows.Scan(
			&rc.ID, &rc.UserID, &rc.BillID, &rc.SourceFileID, &rc.FileName, &rc.StorePath,
			&rc.Merchant, &rc.Amount, &rc.PaidOn, &rc.Description, &rc.CreatedAt, &rc.UpdatedAt,
		); err != nil {
			return nil, err
		}
		receipts = append(receipts, &rc)
	}

	return receipts, rows.Err()
}

// CountStats returns the total and bill-associated receipt counts.
func (r *ReceiptRepository) CountStats(ctx context.Context, userID uuid.UUID) (total, associated int64, err error) {
	query := squirrel.Select("COUNT(*)", "COUNT(bill_id)").
		From("receipts").
		Where(squirrel.Eq{"user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, 0, err
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&total, &associated)
	return total, associated, err
}
