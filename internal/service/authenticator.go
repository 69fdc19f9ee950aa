package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
	"github.com/dewv/nlc-visits/internal/observability/metrics"
	"github.com/dewv/nlc-visits/internal/observability/statsd"
	"github.com/dewv/nlc-visits/internal/ports"
)

// Authentication method labels used in logs and metrics.
const (
	MethodDirectory        = "ldap"
	MethodSimulated        = "simulated"
	MethodSecurityQuestion = "security_question"
)

// CredentialAuthenticatorOptions groups dependencies for CredentialAuthenticator.
type CredentialAuthenticatorOptions struct {
	// Directory is the LDAP client. Nil selects simulated mode.
	Directory ports.Authenticator
	// Simulator is required when Directory is nil.
	Simulator ports.Authenticator
	Config    CredentialAuthenticatorConfig
}

// CredentialAuthenticatorConfig holds the non-port settings.
type CredentialAuthenticatorConfig struct {
	DomainSuffix string      // Optional: defaults to domainauth.DefaultDomainSuffix
	Metrics      statsd.Sink // Optional
	Logger       *slog.Logger
}

// CredentialAuthenticator normalizes a login name and hands the credential
// to the directory, or to the simulator when no directory is configured.
type CredentialAuthenticator struct {
	backend ports.Authenticator
	method  string
	suffix  string
	metrics statsd.Sink
	logger  *slog.Logger
}

var _ ports.Authenticator = (*CredentialAuthenticator)(nil)

// NewCredentialAuthenticator constructs a CredentialAuthenticator.
func NewCredentialAuthenticator(opts CredentialAuthenticatorOptions) *CredentialAuthenticator {
	a := &CredentialAuthenticator{
		backend: opts.Directory,
		method:  MethodDirectory,
		suffix:  opts.Config.DomainSuffix,
		metrics: opts.Config.Metrics,
		logger:  opts.Config.Logger,
	}
	if a.backend == nil {
		if opts.Simulator == nil {
			panic("CredentialAuthenticator requires a Directory or a Simulator")
		}
		a.backend = opts.Simulator
		a.method = MethodSimulated
	}
	if a.suffix == "" {
		a.suffix = domainauth.DefaultDomainSuffix
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Method reports which backend is in use.
func (a *CredentialAuthenticator) Method() string { return a.method }

// Normalize returns the canonical login name for identifier.
func (a *CredentialAuthenticator) Normalize(identifier string) string {
	return domainauth.NormalizeIdentifier(strings.TrimSpace(identifier), a.suffix)
}

// Authenticate never returns an error: every expected failure is an Outcome.
func (a *CredentialAuthenticator) Authenticate(ctx context.Context, cred domainauth.Credential) domainauth.Outcome {
	cred.Identifier = a.Normalize(cred.Identifier)
	if cred.Identifier == a.suffix {
		return domainauth.Rejected(domainauth.OutcomeInvalidCredentials)
	}

	start := time.Now()
	out := a.backend.Authenticate(ctx, cred)
	metrics.EmitLogin(a.metrics, metrics.LoginMetric{
		Method:   a.method,
		Outcome:  out.Kind,
		Duration: time.Since(start),
	})

	a.logger.InfoContext(ctx, "authentication attempt",
		"method", a.method,
		"identifier", cred.Identifier,
		"outcome", out.Kind.String(),
	)
	return out
}
