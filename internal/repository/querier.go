package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"

	"risk-assessment/internal/apperr"
)

// Querier is satisfied by *sql.DB and *sql.Tx
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// dbError classifies driver errors. Connection level failures match
// apperr.ErrDependencyUnavailable, everything else is returned unchanged.
func dbError(what string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "23505" {
			return apperr.Conflict(what, err)
		}
		// class 08: connection exception, class 57: operator intervention
		switch pqErr.Code.Class() {
		case "08", "57":
			return apperr.Unavailable(what, err)
		}
		return err
	}

	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(err.Error(), "connection refused") {
		return apperr.Unavailable(what, err)
	}
	return err
}

// escapeLike escapes the LIKE wildcards of a literal prefix
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
