package models

import (
	"time"

	"github.com/google/uuid"
)

// User owns everything else in the system: files, bills, receipts and
// payments all hang off a user id. Email is the login identity and is
// stored lowercased.
type User struct {
	ID           uuid.UUID  `db:"id"`
	Username     string     `db:"username"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	LastLoginAt  *time.Time `db:"last_login_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}
