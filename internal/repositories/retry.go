package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Postgres SQLSTATEs worth retrying:
// 40001 - serialization failure
// 40P01 - deadlock detected
// 23505 - unique violation (two callers creating the same owner's wallet)
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
)

// ErrSerialization marks a write conflict raised by stores that do not
// speak Postgres error codes (the in-memory test repository does).
var ErrSerialization = errors.New("serialization conflict")

// IsRetryable reports whether an error from ExecuteInTransaction is a
// transient write conflict that a fresh attempt can resolve.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrSerialization) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgUniqueViolation:
			return true
		}
	}
	return false
}
