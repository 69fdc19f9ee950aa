package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
	"github.com/dewv/nlc-visits/internal/observability/metrics"
	"github.com/dewv/nlc-visits/internal/observability/statsd"
)

// SecurityQuestionPath is where the browser goes when the directory is down.
const SecurityQuestionPath = "/securityquestion"

// LoginServiceOptions groups dependencies for LoginService.
type LoginServiceOptions struct {
	Authenticator *CredentialAuthenticator
	Fallback      *FallbackService
	Sessions      *AuthService
}

// LoginService runs the login flow: credential check, the security-question
// fallback when the directory is unavailable, and session binding.
type LoginService struct {
	authn    *CredentialAuthenticator
	fallback *FallbackService
	sessions *AuthService
	metrics  statsd.Sink
	logger   *slog.Logger
}

// NewLoginService constructs a LoginService. Metrics are taken from the
// authenticator's configuration.
func NewLoginService(opts LoginServiceOptions) *LoginService {
	if opts.Authenticator == nil || opts.Fallback == nil || opts.Sessions == nil {
		panic("LoginService requires Authenticator, Fallback and Sessions")
	}
	return &LoginService{
		authn:    opts.Authenticator,
		fallback: opts.Fallback,
		sessions: opts.Sessions,
		metrics:  opts.Authenticator.metrics,
		logger:   opts.Authenticator.logger,
	}
}

// LoginResult tells the handler what to do next. When Location is empty the
// login view is shown again with Outcome's banner, and the session is gone.
type LoginResult struct {
	Outcome  domainauth.Outcome
	Location string
	// Session is the live session after the step; nil once it was destroyed.
	Session *domainauth.Session
}

// Banner is the message for the re-rendered login view.
func (r LoginResult) Banner() string { return r.Outcome.Banner() }

// Login authenticates cred on behalf of sess.
func (s *LoginService) Login(ctx context.Context, sess *domainauth.Session, cred domainauth.Credential) (LoginResult, error) {
	out := s.authn.Authenticate(ctx, cred)
	switch out.Kind {
	case domainauth.OutcomeSuccess:
		return s.bind(ctx, sess, out)
	case domainauth.OutcomeDirectoryUnavailable:
		return s.challenge(ctx, sess, s.authn.Normalize(cred.Identifier))
	default:
		return s.reject(ctx, sess, out), nil
	}
}

func (s *LoginService) challenge(ctx context.Context, sess *domainauth.Session, identifier string) (LoginResult, error) {
	s.logger.WarnContext(ctx, "directory unavailable, falling back to security question", "identifier", identifier)

	ch, err := s.fallback.Present(ctx, identifier)
	if errors.Is(err, ErrNoProfile) || errors.Is(err, ErrNoSecurityAnswer) {
		return s.reject(ctx, sess, domainauth.Rejected(domainauth.OutcomeUnsupportedFirstLogin)), nil
	}
	if err != nil {
		return LoginResult{}, err
	}

	sess.PendingIdentifier = identifier
	sess.Challenge = &ch
	if err := s.sessions.Save(ctx, sess); err != nil {
		return LoginResult{}, err
	}
	return LoginResult{
		Outcome:  domainauth.Rejected(domainauth.OutcomeDirectoryUnavailable),
		Location: SecurityQuestionPath,
		Session:  sess,
	}, nil
}

// Challenge returns the question pending on sess.
func (s *LoginService) Challenge(sess *domainauth.Session) (domainauth.Challenge, error) {
	if sess == nil || sess.Challenge == nil {
		return domainauth.Challenge{}, ErrNoChallenge
	}
	return *sess.Challenge, nil
}

// AnswerChallenge checks the security answer for the identity stored on sess.
func (s *LoginService) AnswerChallenge(ctx context.Context, sess *domainauth.Session, answer string) (LoginResult, error) {
	ch, err := s.Challenge(sess)
	if err != nil {
		return LoginResult{}, err
	}
	out, err := s.fallback.Submit(ctx, ch, answer)
	if err != nil {
		return LoginResult{}, err
	}
	metrics.EmitLogin(s.metrics, metrics.LoginMetric{Method: MethodSecurityQuestion, Outcome: out.Kind})
	if !out.OK() {
		return s.reject(ctx, sess, out), nil
	}
	return s.bind(ctx, sess, out)
}

func (s *LoginService) bind(ctx context.Context, sess *domainauth.Session, out domainauth.Outcome) (LoginResult, error) {
	landing, err := s.sessions.Bind(ctx, sess, out.Identity)
	if err != nil {
		return LoginResult{}, fmt.Errorf("bind session: %w", err)
	}
	return LoginResult{Outcome: out, Location: landing, Session: sess}, nil
}

func (s *LoginService) reject(ctx context.Context, sess *domainauth.Session, out domainauth.Outcome) LoginResult {
	if sess != nil {
		s.sessions.Logout(ctx, sess.ID)
	}
	return LoginResult{Outcome: out}
}
