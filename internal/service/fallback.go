package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
	"github.com/dewv/nlc-visits/internal/ports"
)

// FallbackServiceOptions groups dependencies for FallbackService.
type FallbackServiceOptions struct {
	Profiles ports.ProfileRepository
	Security ports.SecurityRepository
	Logger   *slog.Logger
}

// FallbackService is the security-question login used while the directory
// is unreachable. It only works for users who already have a profile and a
// stored answer.
type FallbackService struct {
	profiles ports.ProfileRepository
	security ports.SecurityRepository
	logger   *slog.Logger
}

// NewFallbackService constructs a FallbackService.
func NewFallbackService(opts FallbackServiceOptions) *FallbackService {
	if opts.Profiles == nil {
		panic("ProfileRepository is required")
	}
	if opts.Security == nil {
		panic("SecurityRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackService{profiles: opts.Profiles, security: opts.Security, logger: logger}
}

// Present finds the profile for identifier (students first, then staff) and
// returns the challenge to show. ErrNoProfile means no role has that
// identifier; ErrNoSecurityAnswer means the profile never picked a question.
func (s *FallbackService) Present(ctx context.Context, identifier string) (domainauth.Challenge, error) {
	for _, role := range domainauth.Roles() {
		p, err := s.profiles.GetByIdentifier(ctx, role, identifier)
		if errors.Is(err, ports.ErrProfileNotFound) {
			continue
		}
		if err != nil {
			return domainauth.Challenge{}, fmt.Errorf("look up %s profile: %w", role, err)
		}

		ch := domainauth.Challenge{
			Role:       role,
			Identifier: p.Identifier,
			FirstName:  p.FirstName,
			LastName:   p.LastName,
		}
		rec, err := s.security.GetAnswer(ctx, role, p.Identifier)
		if errors.Is(err, ports.ErrAnswerNotFound) {
			return ch, ErrNoSecurityAnswer
		}
		if err != nil {
			return domainauth.Challenge{}, fmt.Errorf("load security answer: %w", err)
		}
		ch.Question = rec.Question
		return ch, nil
	}
	return domainauth.Challenge{}, ErrNoProfile
}

// Submit checks answer against the stored hash for the challenged identity.
// The identity always comes from ch, never from the request that carried the answer.
func (s *FallbackService) Submit(ctx context.Context, ch domainauth.Challenge, answer string) (domainauth.Outcome, error) {
	if !ch.Role.Valid() || ch.Identifier == "" {
		return domainauth.Outcome{}, ErrNoChallenge
	}

	rec, err := s.security.GetAnswer(ctx, ch.Role, ch.Identifier)
	if errors.Is(err, ports.ErrAnswerNotFound) || errors.Is(err, ports.ErrProfileNotFound) {
		return domainauth.Rejected(domainauth.OutcomeUnsupportedFirstLogin), nil
	}
	if err != nil {
		return domainauth.Outcome{}, fmt.Errorf("load security answer: %w", err)
	}

	if !answerMatches(rec.AnswerHash, answer, rec.Salt) {
		s.logger.InfoContext(ctx, "security answer rejected", "identifier", ch.Identifier, "role", ch.Role)
		return domainauth.Rejected(domainauth.OutcomeInvalidCredentials), nil
	}

	return domainauth.Succeeded(domainauth.Identity{
		Role:       ch.Role,
		FirstName:  ch.FirstName,
		LastName:   ch.LastName,
		Identifier: ch.Identifier,
	}), nil
}
