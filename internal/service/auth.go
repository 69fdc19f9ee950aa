package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
	"github.com/dewv/nlc-visits/internal/domain/model"
	"github.com/dewv/nlc-visits/internal/ports"
)

// DefaultSessionTTL bounds how long an idle session lives.
const DefaultSessionTTL = 2 * time.Hour

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Sessions ports.SessionStore
	Profiles ports.ProfileRepository
	Config   AuthServiceConfig
}

// AuthServiceConfig holds session settings.
type AuthServiceConfig struct {
	SessionTTL time.Duration    // Optional: defaults to DefaultSessionTTL
	Now        func() time.Time // Optional: defaults to time.Now
	Logger     *slog.Logger     // Optional
}

// AuthService owns the session lifecycle and binds authenticated identities
// to sessions and profiles.
type AuthService struct {
	sessions ports.SessionStore
	profiles ports.ProfileRepository
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	if opts.Sessions == nil {
		panic("SessionStore is required")
	}
	if opts.Profiles == nil {
		panic("ProfileRepository is required")
	}
	s := &AuthService{
		sessions: opts.Sessions,
		profiles: opts.Profiles,
		ttl:      opts.Config.SessionTTL,
		now:      opts.Config.Now,
		logger:   opts.Config.Logger,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultSessionTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// SessionTTL reports the configured session lifetime.
func (s *AuthService) SessionTTL() time.Duration { return s.ttl }

// NewSession creates and persists an anonymous session.
func (s *AuthService) NewSession(ctx context.Context) (*domainauth.Session, error) {
	sess := &domainauth.Session{
		ID:        generateSessionID(),
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.sessions.Save(ctx, *sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// GetSession retrieves a session by ID. Expired sessions are deleted and
// reported as ErrSessionExpired.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, ports.ErrSessionNotFound
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if s.now().After(session.ExpiresAt) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(ErrSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, ErrSessionExpired
	}

	return &session, nil
}

// Save persists sess, extending its expiry.
func (s *AuthService) Save(ctx context.Context, sess *domainauth.Session) error {
	sess.ExpiresAt = s.now().Add(s.ttl)
	if err := s.sessions.Save(ctx, *sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// TrackVisit records the student's open visit on sess, or clears it when
// openVisitID is zero. The store is written only on change and the expiry
// is left alone.
func (s *AuthService) TrackVisit(ctx context.Context, sess *domainauth.Session, openVisitID int64) error {
	var want *int64
	if openVisitID != 0 {
		want = &openVisitID
	}
	if (sess.CurrentVisitID == nil) == (want == nil) &&
		(want == nil || *sess.CurrentVisitID == *want) {
		return nil
	}
	sess.CurrentVisitID = want
	if err := s.sessions.Save(ctx, *sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Bind attaches an authenticated identity to sess. The session is rotated
// to a new ID, the profile is found or created, and the role's landing path
// is returned. Callers must reissue the session cookie from sess.ID.
func (s *AuthService) Bind(ctx context.Context, sess *domainauth.Session, id domainauth.Identity) (string, error) {
	if !id.Role.Valid() {
		return "", fmt.Errorf("bind session: invalid role %q", id.Role)
	}

	salt, err := NewSalt()
	if err != nil {
		return "", err
	}
	profile, err := s.profiles.FindOrCreate(ctx, model.FindOrCreateProfileRequest{
		Role:       id.Role,
		Identifier: id.Identifier,
		FirstName:  id.FirstName,
		LastName:   id.LastName,
		Salt:       salt,
	})
	if err != nil {
		return "", fmt.Errorf("find or create profile: %w", err)
	}

	oldID := sess.ID
	sess.Clear()
	sess.ID = generateSessionID()
	sess.ApplyIdentity(id)
	sess.UserID = profile.ID
	sess.Identifier = profile.Identifier
	sess.ForceProfileUpdate = profile.ForceProfileUpdate
	sess.DefaultLandingPath = domainauth.LandingPath(id.Role)

	if err := s.Save(ctx, sess); err != nil {
		return "", err
	}
	if oldID != "" {
		if err := s.sessions.Delete(ctx, oldID); err != nil {
			s.logger.WarnContext(ctx, "failed to delete pre-login session", "error", err)
		}
	}

	s.logger.InfoContext(ctx, "session bound",
		"role", sess.Role,
		"user_id", sess.UserID,
		"identifier", sess.Identifier,
	)
	return sess.DefaultLandingPath, nil
}

// Logout deletes the session and returns where to send the browser. It is
// idempotent: missing sessions and empty IDs are not errors.
func (s *AuthService) Logout(ctx context.Context, sessionID string) string {
	if sessionID != "" {
		if err := s.sessions.Delete(ctx, sessionID); err != nil {
			s.logger.WarnContext(ctx, "failed to delete session", "error", err)
		}
	}
	return domainauth.LoginPath
}

// generateSessionID creates a random, URL-safe session ID.
func generateSessionID() string {
	return uuid.New().String()
}
