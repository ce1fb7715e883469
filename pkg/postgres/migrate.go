package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		last_login_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS incoming_files (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		file_name TEXT NOT NULL,
		store_path TEXT NOT NULL,
		checksum TEXT NOT NULL,
		status TEXT NOT NULL,
		ocr_text TEXT,
		amount DOUBLE PRECISION,
		doc_date DATE,
		provider TEXT,
		failure_reason TEXT,
		uploaded_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		CONSTRAINT incoming_files_user_checksum_key UNIQUE (user_id, checksum)
	)`,
	`CREATE TABLE IF NOT EXISTS bills (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		source_file_id UUID NOT NULL UNIQUE REFERENCES incoming_files(id),
		file_name TEXT NOT NULL,
		store_path TEXT NOT NULL,
		status TEXT NOT NULL,
		amount DOUBLE PRECISION,
		doc_date DATE,
		provider TEXT,
		draft_amount DOUBLE PRECISION,
		draft_doc_date DATE,
		draft_provider TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS receipts (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		bill_id UUID REFERENCES bills(id) ON DELETE SET NULL,
		source_file_id UUID UNIQUE REFERENCES incoming_files(id),
		file_name TEXT,
		store_path TEXT,
		merchant TEXT,
		amount DOUBLE PRECISION,
		paid_on DATE,
		description TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		bill_id UUID REFERENCES bills(id),
		receipt_id UUID REFERENCES receipts(id),
		service_provider_id BIGINT NOT NULL,
		payment_method_id BIGINT NOT NULL,
		amount DOUBLE PRECISION NOT NULL,
		currency TEXT NOT NULL,
		invoice_date DATE NOT NULL,
		payment_date DATE NOT NULL,
		comment TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		CONSTRAINT payments_source_check CHECK (
			(bill_id IS NOT NULL AND receipt_id IS NULL) OR
			(bill_id IS NULL AND receipt_id IS NOT NULL)
		)
	)`,
	`CREATE INDEX IF NOT EXISTS incoming_files_user_status_idx ON incoming_files (user_id, status)`,
	`CREATE INDEX IF NOT EXISTS bills_user_status_idx ON bills (user_id, status)`,
	`CREATE INDEX IF NOT EXISTS receipts_user_idx ON receipts (user_id)`,
	`CREATE INDEX IF NOT EXISTS payments_bill_idx ON payments (bill_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS payments_receipt_id_key
		ON payments (receipt_id) WHERE receipt_id IS NOT NULL`,
}

// Migrate creates the schema. Statements are idempotent so the migration can
// run on every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	for _, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	logger.Info("Database schema up to date", zap.Int("statements", len(migrations)))
	return nil
}
