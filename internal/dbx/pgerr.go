package dbx

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/dmitrijs2005/messagely/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes the repositories care about.
const (
	UniqueViolationCode     = "23505"
	ForeignKeyViolationCode = "23503"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUniqueViolation reports whether err carries a unique constraint failure.
func IsUniqueViolation(err error) bool {
	return pgCode(err) == UniqueViolationCode
}

// IsForeignKeyViolation reports whether err carries a referential integrity failure.
func IsForeignKeyViolation(err error) bool {
	return pgCode(err) == ForeignKeyViolationCode
}

// IsConnectionError reports whether err means the database could not be
// reached, as opposed to a statement failing on a live connection.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// WrapError annotates a driver error for the service layer. Connection
// failures also match common.ErrorUpstream.
func WrapError(err error) error {
	if IsConnectionError(err) {
		return fmt.Errorf("%w: db error: %w", common.ErrorUpstream, err)
	}
	return fmt.Errorf("db error: %w", err)
}
