package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
	"github.com/dewv/nlc-visits/internal/domain/policy"
	"github.com/dewv/nlc-visits/internal/ports"
)

// AuthorizationServiceOptions groups dependencies for AuthorizationService.
type AuthorizationServiceOptions struct {
	Profiles ports.ProfileRepository
	Visits   ports.VisitRepository
	Logger   *slog.Logger
}

// AuthorizationService loads the facts the policy table needs and evaluates it.
type AuthorizationService struct {
	profiles ports.ProfileRepository
	visits   ports.VisitRepository
	logger   *slog.Logger
}

// NewAuthorizationService constructs an AuthorizationService.
func NewAuthorizationService(opts AuthorizationServiceOptions) *AuthorizationService {
	if opts.Profiles == nil {
		panic("ProfileRepository is required")
	}
	if opts.Visits == nil {
		panic("VisitRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationService{profiles: opts.Profiles, visits: opts.Visits, logger: logger}
}

// Subject reads the current profile and, for students, the latest visit.
// Both lookups run concurrently.
func (s *AuthorizationService) Subject(ctx context.Context, sess domainauth.Session) (policy.Subject, error) {
	subj := policy.Subject{Role: sess.Role, UserID: sess.UserID}
	if !sess.Role.Valid() {
		return subj, errors.New("subject: session has no role")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.profiles.GetByID(gctx, sess.Role, sess.UserID)
		if err != nil {
			return fmt.Errorf("load %s profile %d: %w", sess.Role, sess.UserID, err)
		}
		subj.ForceProfileUpdate = p.ForceProfileUpdate
		return nil
	})
	if sess.Role == domainauth.RoleStudent {
		g.Go(func() error {
			latest, err := s.visits.Latest(gctx, sess.UserID)
			if err != nil {
				return fmt.Errorf("load latest visit: %w", err)
			}
			if latest.IsOpen() {
				subj.CheckedIn = true
				subj.OpenVisitID = latest.ID
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return policy.Subject{}, err
	}
	return subj, nil
}

// Authorize evaluates the policy table for a request made with sess.
func (s *AuthorizationService) Authorize(
	ctx context.Context,
	sess domainauth.Session,
	method, path string,
) (policy.Decision, policy.Subject, error) {
	subj, err := s.Subject(ctx, sess)
	if err != nil {
		return policy.Decision{}, subj, err
	}
	d := policy.Evaluate(subj, method, path)
	if d.Effect == policy.Forbid {
		s.logger.InfoContext(ctx, "request forbidden",
			"role", subj.Role, "user_id", subj.UserID, "method", method, "path", path)
	}
	return d, subj, nil
}
