// Package devauth provides a deterministic Authenticator for development and
// tests when no directory is configured. The secret alone picks the outcome.
package devauth

import (
	"context"
	"log/slog"

	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
	"github.com/dewv/nlc-visits/internal/ports"
)

// Magic secrets understood by the simulator.
const (
	SecretStudent     = "student"
	SecretStaff       = "staff"
	SecretNoRole      = "neither"
	SecretUnavailable = "noldap"
)

// Simulated names returned for every successful login.
const (
	SimulatedFirstName = "First"
	SimulatedLastName  = "Last"
)

var _ ports.Authenticator = (*Simulator)(nil)

// Simulator implements ports.Authenticator without any network access.
type Simulator struct {
	logger *slog.Logger
}

// NewSimulator constructs a Simulator. A nil logger falls back to slog.Default().
func NewSimulator(logger *slog.Logger) *Simulator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulator{logger: logger}
}

// Authenticate maps the secret to an outcome. The identifier is echoed back
// unchanged on success.
func (s *Simulator) Authenticate(_ context.Context, cred domainauth.Credential) domainauth.Outcome {
	switch cred.Secret {
	case SecretStudent:
		return s.success(domainauth.RoleStudent, cred.Identifier)
	case SecretStaff:
		return s.success(domainauth.RoleStaff, cred.Identifier)
	case SecretNoRole:
		return domainauth.Rejected(domainauth.OutcomeInsufficientRights)
	case SecretUnavailable:
		s.logger.Warn("simulated directory unavailable", "identifier", cred.Identifier)
		return domainauth.Rejected(domainauth.OutcomeDirectoryUnavailable)
	default:
		return domainauth.Rejected(domainauth.OutcomeInvalidCredentials)
	}
}

func (s *Simulator) success(role domainauth.Role, identifier string) domainauth.Outcome {
	return domainauth.Succeeded(domainauth.Identity{
		Role:       role,
		FirstName:  SimulatedFirstName,
		LastName:   SimulatedLastName,
		Identifier: identifier,
	})
}
