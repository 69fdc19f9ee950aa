// Package errors names errors for metric tags.
package errors

import (
	"context"
	goerrors "errors"
	"reflect"
	"strings"

	apperrors "github.com/dewv/nlc-visits/internal/errors"
	"github.com/dewv/nlc-visits/internal/ports"
)

// portClasses names the storage sentinels services pass through unchanged.
var portClasses = []struct {
	err   error
	class string
}{
	{ports.ErrOpenVisitExists, "open_visit_exists"},
	{ports.ErrVisitNotFound, "visit_not_found"},
	{ports.ErrProfileNotFound, "profile_not_found"},
	{ports.ErrAnswerNotFound, "answer_not_found"},
	{ports.ErrSessionNotFound, "session_not_found"},
}

// Classify returns a short, low-cardinality name for err. Order: context
// errors, port sentinels, AppError codes, then the innermost concrete type.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case goerrors.Is(err, context.DeadlineExceeded):
		return string(apperrors.ErrCodeTimeout)
	case goerrors.Is(err, context.Canceled):
		return string(apperrors.ErrCodeCanceled)
	}
	for _, pc := range portClasses {
		if goerrors.Is(err, pc.err) {
			return pc.class
		}
	}
	if code := apperrors.GetCode(err); code != "" {
		return string(code)
	}
	return typeName(innermost(err))
}

func innermost(err error) error {
	for {
		next := goerrors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// typeName turns *pgconn.PgError into "pgconn_pgerror".
func typeName(err error) string {
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.String() == "" {
		return "unknown"
	}
	return strings.ToLower(strings.ReplaceAll(t.String(), ".", "_"))
}
