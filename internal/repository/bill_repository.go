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

var billColumns = []string{
	"id", "user_id", "source_file_id", "file_name", "store_path", "status",
	"amount", "doc_date", "provider", "draft_amount", "draft_doc_date",
	"draft_provider", "created_at", "updated_at",
}

type BillRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewBillRepository(db *pgxpool.Pool, logger *zap.Logger) *BillRepository {
	return &BillRepository{
		db:     db,
		logger: logger,
	}
}

func (r *BillRepository) GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Bill, error) {
	query := squirrel.Select(billColumns...).
		From("bills").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var b models.Bill
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&b.ID, &b.UserID, &b.SourceFileID, &b.FileName, &b.StorePath, &b.Status,
		&b.Amount, &b.DocDate, &b.Provider, &b.DraftAmount, &b.DraftDocDate,
		&b.DraftProvider, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &b, nil
}

// SaveDraft stores pending user edits without touching the OCR fields.
func (r *BillRepository) SaveDraft(ctx context.Context, b *models.Bill) error {
	query := squirrel.Update("bills").
		Set("draft_amount", b.DraftAmount).
		Set("draft_doc_date", b.DraftDocDate).
		Set("draft_provider", b.DraftProvider).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": b.ID, "user_id": b.UserID}).
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

// ApplyDraft folds the draft fields into the live fields and clears them.
// The fold happens in SQL so a draft staged between the caller's read and
// this update is still the one applied.
func (r *BillRepository) ApplyDraft(ctx context.Context, id, userID uuid.UUID) error {
	query := squirrel.Update("bills").
		Set("amount", squirrel.Expr("COALESCE(draft_amount, amount)")).
		Set("doc_date", squirrel.Expr("COALESCE(draft_doc_date, doc_date)")).
		Set("provider", squirrel.Expr("COALESCE(draft_provider, provider)")).
		Set("draft_amount", nil).
		Set("draft_doc_date", nil).
		Set("draft_provider", nil).
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

// UpdateStatus transitions the bill when its current status matches one of
// from. Concurrent duplicate approvals race on this compare-and-set and
// only one wins.
func (r *BillRepository) UpdateStatus(ctx context.Context, id, userID uuid.UUID, from []models.BillStatus, to models.BillStatus) (bool, error) {
	query := squirrel.Update("bills").
		Set("status", to).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id, "user_id": userID, "status": from}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return false, err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *BillRepository) ListByUser(ctx context.Context, userID uuid.UUID, status *models.BillStatus, limit, offset int, orderBy string) ([]*models.Bill, error) {
	query := squirrel.Select(billColumns...).
		From("bills").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy(orderBy).
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(squirrel.Dollar)
	if status != nil {
		query = query.Where(squirrel.Eq{"status": *status})
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

	var bills []*models.Bill
	for rows.Next() {
		var b models.Bill
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.SourceFileID, &b.FileName, &b.StorePath, &b.Status,
			&b.Amount, &b.DocDate, &b.Provider, &b.DraftAmount, &b.DraftDocDate,
			&b.DraftProvider, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		bills = append(bills, &b)
	}

	return bills, rows.Err()
}

func (r *BillRepository) CountByStatus(ctx context.Context, userID uuid.UUID) (map[models.BillStatus]int64, error) {
	query := squirrel.Select("status", "COUNT(*)").
		From("bills").
		Where(squirrel.Eq{"user_id": userID}).
		GroupBy("status").
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

	counts := make(map[models.BillStatus]int64)
	for rows.Next() {
		var status models.BillStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}

	return counts, rows.Err()
}
