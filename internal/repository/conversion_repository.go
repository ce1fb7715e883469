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

// ConversionRepository moves a document between its three representations
// (incoming file, bill, receipt). Every operation runs in a single
// transaction: the source row and the target row change together or not at
// all. Conversion soft-flags the incoming file as converted instead of
// deleting it, so revert restores the original row byte for byte (same id,
// upload time, checksum and OCR fields).
type ConversionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewConversionRepository(db *pgxpool.Pool, logger *zap.Logger) *ConversionRepository {
	return &ConversionRepository{
		db:     db,
		logger: logger,
	}
}

// markConverted flags the file inside tx and returns its current fields.
// The conditional UPDATE is the exclusivity guard: once one conversion
// commits, a racing conversion matches zero rows and loses.
func (r *ConversionRepository) markConverted(ctx context.Context, tx pgx.Tx, fileID, userID uuid.UUID) (*models.IncomingFile, error) {
	query := squirrel.Update("incoming_files").
		Set("status", models.FileStatusConverted).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": fileID, "user_id": userID}).
		Where(squirrel.NotEq{"status": models.FileStatusConverted}).
		Suffix("RETURNING " + "file_name, store_path, checksum, ocr_text, amount, doc_date, provider, uploaded_at").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	f := models.IncomingFile{ID: fileID, UserID: userID, Status: models.FileStatusConverted}
	err = tx.QueryRow(ctx, sql, args...).Scan(
		&f.FileName, &f.StorePath, &f.Checksum, &f.OCRText,
		&f.Amount, &f.DocDate, &f.Provider, &f.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.classifyFileMiss(ctx, tx, fileID, userID)
		}
		return nil, err
	}

	return &f, nil
}

// classifyFileMiss distinguishes "no such file for this user" from "file
// exists but is already converted" after a zero-row guard update.
func (r *ConversionRepository) classifyFileMiss(ctx context.Context, tx pgx.Tx, fileID, userID uuid.UUID) error {
	query := squirrel.Select("status").
		From("incoming_files").
		Where(squirrel.Eq{"id": fileID, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	var status models.FileStatus
	if err := tx.QueryRow(ctx, sql, args...).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return ErrAlreadyConverted
}

// ConvertToBill turns an incoming file into a bill, copying the extracted
// fields and the document reference.
func (r *ConversionRepository) ConvertToBill(ctx context.Context, fileID, userID uuid.UUID) (*models.Bill, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	f, err := r.markConverted(ctx, tx, fileID, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	bill := &models.Bill{
		ID:           uuid.New(),
		UserID:       userID,
		SourceFileID: fileID,
		FileName:     f.FileName,
		StorePath:    f.StorePath,
		Status:       models.BillStatusNew,
		Amount:       f.Amount,
		DocDate:      f.DocDate,
		Provider:     f.Provider,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	query := squirrel.Insert("bills").
		Columns(billColumns...).
		Values(bill.ID, bill.UserID, bill.SourceFileID, bill.FileName, bill.StorePath,
			bill.Status, bill.Amount, bill.DocDate, bill.Provider, nil, nil, nil,
			bill.CreatedAt, bill.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	r.logger.Info("Converted file to bill",
		zap.String("file_id", fileID.String()),
		zap.String("bill_id", bill.ID.String()),
	)
	return bill, nil
}

// ConvertToReceipt turns an incoming file into a standalone receipt with no
// bill association.
func (r *ConversionRepository) ConvertToReceipt(ctx context.Context, fileID, userID uuid.UUID) (*models.Receipt, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	f, err := r.markConverted(ctx, tx, fileID, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	receipt := &models.Receipt{
		ID:           uuid.New(),
		UserID:       userID,
		SourceFileID: &f.ID,
		FileName:     &f.FileName,
		StorePath:    &f.StorePath,
		Merchant:     f.Provider,
		Amount:       f.Amount,
		PaidOn:       f.DocDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	query := squirrel.Insert("receipts").
		Columns(receiptColumns...).
		Values(receipt.ID, receipt.UserID, nil, receipt.SourceFileID, receipt.FileName,
			receipt.StorePath, receipt.Merchant, receipt.Amount, receipt.PaidOn, nil,
			receipt.CreatedAt, receipt.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	r.logger.Info("Converted file to receipt",
		zap.String("file_id", fileID.String()),
		zap.String("receipt_id", receipt.ID.String()),
	)
	return receipt, nil
}

// RevertBill deletes the bill and reopens its source file in the inbox.
// A bill that has spawned a payment cannot be reverted: the payment row
// must keep a valid reference.
func (r *ConversionRepository) RevertBill(ctx context.Context, billID, userID uuid.UUID) (*models.IncomingFile, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := r.guardNoPayments(ctx, tx, "bill_id", billID); err != nil {
		return nil, err
	}

	del := squirrel.Delete("bills").
		Where(squirrel.Eq{"id": billID, "user_id": userID}).
		Suffix("RETURNING source_file_id").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := del.ToSql()
	if err != nil {
		return nil, err
	}

	var sourceFileID uuid.UUID
	if err := tx.QueryRow(ctx, sql, args...).Scan(&sourceFileID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	f, err := r.reopenFile(ctx, tx, sourceFileID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	r.logger.Info("Reverted bill to incoming file",
		zap.String("bill_id", billID.String()),
		zap.String("file_id", sourceFileID.String()),
	)
	return f, nil
}

// RevertReceipt deletes the receipt and reopens its source file. Deleting
// the receipt row drops any bill association with it. Receipts created
// directly (no source file) cannot be reverted.
func (r *ConversionRepository) RevertReceipt(ctx context.Context, receiptID, userID uuid.UUID) (*models.IncomingFile, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := r.guardNoPayments(ctx, tx, "receipt_id", receiptID); err != nil {
		return nil, err
	}

	del := squirrel.Delete("receipts").
		Where(squirrel.Eq{"id": receiptID, "user_id": userID}).
		Suffix("RETURNING source_file_id").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := del.ToSql()
	if err != nil {
		return nil, err
	}

	var sourceFileID *uuid.UUID
	if err := tx.QueryRow(ctx, sql, args...).Scan(&sourceFileID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if sourceFileID == nil {
		// Rolling back keeps the directly-created receipt in place.
		return nil, ErrNotConvertible
	}

	f, err := r.reopenFile(ctx, tx, *sourceFileID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	r.logger.Info("Reverted receipt to incoming file",
		zap.String("receipt_id", receiptID.String()),
		zap.String("file_id", sourceFileID.String()),
	)
	return f, nil
}

// DeleteBill removes a bill and its soft-flagged source file together,
// returning the blob path so the caller can clean up storage afterwards.
// Bills with payments cannot be deleted.
func (r *ConversionRepository) DeleteBill(ctx context.Context, billID, userID uuid.UUID) (string, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	if err := r.guardNoPayments(ctx, tx, "bill_id", billID); err != nil {
		return "", err
	}

	del := squirrel.Delete("bills").
		Where(squirrel.Eq{"id": billID, "user_id": userID}).
		Suffix("RETURNING source_file_id, store_path").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := del.ToSql()
	if err != nil {
		return "", err
	}

	var sourceFileID uuid.UUID
	var storePath string
	if err := tx.QueryRow(ctx, sql, args...).Scan(&sourceFileID, &storePath); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}

	if err := r.deleteFileRow(ctx, tx, sourceFileID); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return storePath, nil
}

// DeleteReceipt removes a receipt, and its source file when it was created
// by conversion. The returned path is nil for directly-created receipts
// that never had a stored document.
func (r *ConversionRepository) DeleteReceipt(ctx context.Context, receiptID, userID uuid.UUID) (*string, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := r.guardNoPayments(ctx, tx, "receipt_id", receiptID); err != nil {
		return nil, err
	}

	del := squirrel.Delete("receipts").
		Where(squirrel.Eq{"id": receiptID, "user_id": userID}).
		Suffix("RETURNING source_file_id, store_path").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := del.ToSql()
	if err != nil {
		return nil, err
	}

	var sourceFileID *uuid.UUID
	var storePath *string
	if err := tx.QueryRow(ctx, sql, args...).Scan(&sourceFileID, &storePath); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if sourceFileID != nil {
		if err := r.deleteFileRow(ctx, tx, *sourceFileID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return storePath, nil
}

func (r *ConversionRepository) deleteFileRow(ctx context.Context, tx pgx.Tx, fileID uuid.UUID) error {
	query := squirrel.Delete("incoming_files").
		Where(squirrel.Eq{"id": fileID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, sql, args...)
	return err
}

func (r *ConversionRepository) guardNoPayments(ctx context.Context, tx pgx.Tx, column string, id uuid.UUID) error {
	query := squirrel.Select("1").
		From("payments").
		Where(squirrel.Eq{column: id}).
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	var one int
	err = tx.QueryRow(ctx, sql, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	return ErrHasPayments
}

// reopenFile flips a converted file back to new, leaving every other
// column (path, filename, checksum, OCR fields, upload time) untouched.
func (r *ConversionRepository) reopenFile(ctx context.Context, tx pgx.Tx, fileID uuid.UUID) (*models.IncomingFile, error) {
	query := squirrel.Update("incoming_files").
		Set("status", models.FileStatusNew).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": fileID}).
		Suffix("RETURNING " + "id, user_id, file_name, store_path, checksum, status, ocr_text, amount, doc_date, provider, failure_reason, uploaded_at, updated_at").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var f models.IncomingFile
	err = tx.QueryRow(ctx, sql, args...).Scan(
		&f.ID, &f.UserID, &f.FileName, &f.StorePath, &f.Checksum, &f.Status,
		&f.OCRText, &f.Amount, &f.DocDate, &f.Provider, &f.FailureReason,
		&f.UploadedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &f, nil
}
