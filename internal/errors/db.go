package errors

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// reKeyField extracts the column list from "Key (field)=(value) already exists.".
var reKeyField = regexp.MustCompile(`Key \(([^)]+)\)=`)

//nolint:gochecknoglobals // static read-only lookup
var tableDomains = map[string]string{
	"students":           "student profile",
	"staff":              "staff profile",
	"visits":             "visit",
	"security_questions": "security question",
	"security_answers":   "security answer",
}

// MapDBError converts storage errors into AppErrors:
// context errors to Timeout/Canceled, pgx.ErrNoRows to NotFound, and
// PostgreSQL constraint violations to Conflict, ForeignKey or Validation.
// Unrecognized errors are returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &AppError{Code: ErrCodeTimeout, Message: "Request timed out. Please try again.", Cause: err}
	case errors.Is(err, context.Canceled):
		return &AppError{Code: ErrCodeCanceled, Message: "Request was canceled.", Cause: err}
	case errors.Is(err, pgx.ErrNoRows):
		return &AppError{Code: ErrCodeNotFound, Message: "Resource not found", Cause: err}
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return &AppError{
			Code:    ErrCodeConflict,
			Message: "This " + domainOf(pgErr.TableName) + " already exists.",
			Field:   uniqueField(pgErr),
			Cause:   err,
		}
	case pgerrcode.ForeignKeyViolation:
		return &AppError{
			Code:    ErrCodeForeignKey,
			Message: "The referenced " + domainOf(referencedTable(pgErr)) + " does not exist or is still in use.",
			Cause:   err,
		}
	case pgerrcode.CheckViolation, pgerrcode.NotNullViolation:
		return &AppError{
			Code:    ErrCodeValidation,
			Message: "Invalid data. Please check your input.",
			Field:   pgErr.ColumnName,
			Cause:   err,
		}
	default:
		return &AppError{Code: ErrCodeInternal, Message: "A database error occurred. Please try again.", Cause: err}
	}
}

func uniqueField(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		// Expression indexes report e.g. "lower(identifier)".
		f := m[1]
		if open := strings.IndexByte(f, '('); open >= 0 && strings.HasSuffix(f, ")") {
			f = f[open+1 : len(f)-1]
		}
		if !strings.Contains(f, ",") {
			return f
		}
	}
	return ""
}

func referencedTable(pgErr *pgconn.PgError) string {
	const marker = `in table "`
	if i := strings.LastIndex(pgErr.Detail, marker); i >= 0 {
		rest := pgErr.Detail[i+len(marker):]
		if j := strings.IndexByte(rest, '"'); j >= 0 {
			return rest[:j]
		}
	}
	return pgErr.TableName
}

func domainOf(table string) string {
	if d, ok := tableDomains[strings.ToLower(strings.TrimSpace(table))]; ok {
		return d
	}
	if table == "" {
		return "record"
	}
	return strings.ReplaceAll(table, "_", " ")
}
