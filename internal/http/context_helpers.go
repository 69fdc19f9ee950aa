package httpx

import (
	"context"

	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
	"github.com/dewv/nlc-visits/internal/domain/policy"
)

// sessionKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same key.
type sessionKey struct{}

type subjectKey struct{}

// SetSessionInContext returns a child context that carries the given session.
// If session is nil, the original ctx is returned unchanged.
func SetSessionInContext(ctx context.Context, session *domainauth.Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetSessionFromContext retrieves the session from the request context, or nil.
func GetSessionFromContext(ctx context.Context) *domainauth.Session {
	if s, ok := ctx.Value(sessionKey{}).(*domainauth.Session); ok && s != nil {
		return s
	}
	return nil
}

// setSubjectInContext stores the authorization subject computed for the request.
func setSubjectInContext(ctx context.Context, subj policy.Subject) context.Context {
	return context.WithValue(ctx, subjectKey{}, subj)
}

// GetSubjectFromContext returns the subject the Authorize middleware evaluated.
func GetSubjectFromContext(ctx context.Context) (policy.Subject, bool) {
	subj, ok := ctx.Value(subjectKey{}).(policy.Subject)
	return subj, ok
}
