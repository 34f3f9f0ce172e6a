package dbx

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/snipkeeper/internal/common"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Classify maps driver errors onto the project's sentinel errors so services
// can match them with errors.Is. The original error stays in the chain.
//
//   - sql.ErrNoRows          -> common.ErrorNotFound
//   - SQLITE_CONSTRAINT_*    -> common.ErrConstraintViolation
//
// Any other error is returned unchanged; nil stays nil.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", common.ErrorNotFound, err)
	}
	if IsConstraint(err) {
		return fmt.Errorf("%w: %w", common.ErrConstraintViolation, err)
	}
	return err
}

// IsConstraint reports whether err is a SQLite constraint failure
// (unique, primary key, foreign key, not null or check).
func IsConstraint(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	// extended result codes keep the primary code in the low byte
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}

// RequireAffected returns common.ErrorNotFound when res touched no rows.
func RequireAffected(res sql.Result) error {
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrorNotFound
	}
	return nil
}
