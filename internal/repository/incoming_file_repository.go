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

var incomingFileColumns = []string{
	"id", "user_id", "file_name", "store_path", "checksum", "status",
	"ocr_text", "amount", "doc_date", "provider", "failure_reason",
	"uploaded_at", "updated_at",
}

type IncomingFileRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewIncomingFileRepository(db *pgxpool.Pool, logger *zap.Logger) *IncomingFileRepository {
	return &IncomingFileRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts the file, relying on the (user_id, checksum) unique
// constraint as the single atomic dedup primitive. A conflicting upload
// returns ErrDuplicate and leaves the table untouched.
func (r *IncomingFileRepository) Create(ctx context.Context, f *models.IncomingFile) error {
	query := squirrel.Insert("incoming_files").
		Columns(incomingFileColumns...).
		Values(f.ID, f.UserID, f.FileName, f.StorePath, f.Checksum, f.Status,
			f.OCRText, f.Amount, f.DocDate, f.Provider, f.FailureReason,
			f.UploadedAt, f.UpdatedAt).
		Suffix("ON CONFLICT ON CONSTRAINT incoming_files_user_checksum_key DO NOTHING").
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
		return ErrDuplicate
	}
	return nil
}

func (r *IncomingFileRepository) GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.IncomingFile, error) {
	query := squirrel.Select(incomingFileColumns...).
		From("incoming_files").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var f models.IncomingFile
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&f.ID, &f.UserID, &f.FileName, &f.StorePath, &f.Checksum, &f.Status,
		&f.OCRText, &f.Amount, &f.DocDate, &f.Provider, &f.FailureReason,
		&f.UploadedAt, &f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &f, nil
}

// UpdateFields persists manual edits to the extracted fields.
func (r *IncomingFileRepository) UpdateFields(ctx context.Context, f *models.IncomingFile) error {
	query := squirrel.Update("incoming_files").
		Set("amount", f.Amount).
		Set("doc_date", f.DocDate).
		Set("provider", f.Provider).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": f.ID, "user_id": f.UserID}).
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

// UpdateStatus moves the file from one of the given states to the target
// state. The conditional WHERE makes concurrent transitions serialize on
// the row: only one caller observes an affected row.
func (r *IncomingFileRepository) UpdateStatus(ctx context.Context, id, userID uuid.UUID, from []models.FileStatus, to models.FileStatus) (bool, error) {
	query := squirrel.Update("incoming_files").
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

// SetOCRSuccess records an extraction result and moves the file to done.
func (r *IncomingFileRepository) SetOCRSuccess(ctx context.Context, id uuid.UUID, rawText string, amount *float64, docDate *time.Time, provider *string) error {
	query := squirrel.Update("incoming_files").
		Set("status", models.FileStatusDone).
		Set("ocr_text", rawText).
		Set("amount", amount).
		Set("doc_date", docDate).
		Set("provider", provider).
		Set("failure_reason", nil).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id, "status": models.FileStatusProcessing}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// SetOCRFailure stores the failure reason and moves the file to failed.
func (r *IncomingFileRepository) SetOCRFailure(ctx context.Context, id uuid.UUID, reason string) error {
	query := squirrel.Update("incoming_files").
		Set("status", models.FileStatusFailed).
		Set("failure_reason", reason).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id, "status": models.FileStatusProcessing}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *IncomingFileRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	query := squirrel.Delete("incoming_files").
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

// ListByUser returns the user's inbox, newest first. Converted files are
// excluded: they live on as bills or receipts.
func (r *IncomingFileRepository) ListByUser(ctx context.Context, userID uuid.UUID, status *models.FileStatus, limit, offset int, orderBy string) ([]*models.IncomingFile, error) {
	query := squirrel.Select(incomingFileColumns...).
		From("incoming_files").
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.NotEq{"status": models.FileStatusConverted}).
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

	var files []*models.IncomingFile
	for rows.Next() {
		var f models.IncomingFile
		if err := rows.Scan(
			&f.ID, &f.UserID, &f.FileName, &f.StorePath, &f.Checksum, &f.Status,
			&f.OCRText, &f.Amount, &f.DocDate, &f.Provider, &f.FailureReason,
			&f.UploadedAt, &f.UpdatedAt,
		); err != nil {
			return nil, err
		}
		files = append(files, &f)
	}

	return files, rows.Err()
}

func (r *IncomingFileRepository) CountByStatus(ctx context.Context, userID uuid.UUID) (map[models.FileStatus]int64, error) {
	query := squirrel.Select("status", "COUNT(*)").
		From("incoming_files").
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

	counts := make(map[models.FileStatus]int64)
	for rows.Next() {
		var status models.FileStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}

	return counts, rows.Err()
}
