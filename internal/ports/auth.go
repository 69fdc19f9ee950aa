// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.
package ports

import (
	"context"

	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
)

// Authenticator verifies a credential. Expected failures are reported as
// non-success outcomes, never as errors.
type Authenticator interface {
	Authenticate(ctx context.Context, cred domainauth.Credential) domainauth.Outcome
}

// SessionStore persists and retrieves user sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// RoleMapper maps a directory entry's distinguished name to an application role.
type RoleMapper interface {
	Map(dn string) (domainauth.Role, bool)
}
