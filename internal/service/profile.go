package service

import (
	"context"
	"fmt"
	"log/slog"

	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
	"github.com/dewv/nlc-visits/internal/domain/model"
	apperrors "github.com/dewv/nlc-visits/internal/errors"
	"github.com/dewv/nlc-visits/internal/ports"
)

// ProfileServiceOptions groups dependencies for ProfileService.
type ProfileServiceOptions struct {
	Profiles ports.ProfileRepository
	Security ports.SecurityRepository
	Logger   *slog.Logger
}

// ProfileService edits a user's own profile and security answer.
type ProfileService struct {
	profiles ports.ProfileRepository
	security ports.SecurityRepository
	logger   *slog.Logger
}

// NewProfileService constructs a ProfileService.
func NewProfileService(opts ProfileServiceOptions) *ProfileService {
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
	return &ProfileService{profiles: opts.Profiles, security: opts.Security, logger: logger}
}

// Get loads a profile.
func (s *ProfileService) Get(ctx context.Context, role domainauth.Role, id int64) (*model.Profile, error) {
	p, err := s.profiles.GetByID(ctx, role, id)
	if err != nil {
		return nil, fmt.Errorf("get %s profile %d: %w", role, id, err)
	}
	return p, nil
}

// Update saves the profile edit, which clears ForceProfileUpdate, and stores
// the security answer hashed with the profile's salt when one is supplied.
func (s *ProfileService) Update(
	ctx context.Context,
	role domainauth.Role,
	id int64,
	req model.UpdateProfileRequest,
) (*model.Profile, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, err.Error())
	}

	if req.SecurityAnswer != nil {
		current, err := s.profiles.GetByID(ctx, role, id)
		if err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
		hash, err := hashAnswer(*req.SecurityAnswer, current.SecretSalt)
		if err != nil {
			return nil, err
		}
		if err := s.security.SaveAnswer(ctx, role, id, *req.SecurityQuestionID, hash); err != nil {
			return nil, fmt.Errorf("save security answer: %w", err)
		}
	}

	p, err := s.profiles.Update(ctx, role, id, req)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	s.logger.InfoContext(ctx, "profile updated", "role", role, "user_id", id)
	return p, nil
}

// ListQuestions returns the security questions a user can choose from.
func (s *ProfileService) ListQuestions(ctx context.Context) ([]model.SecurityQuestion, error) {
	qs, err := s.security.ListQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list security questions: %w", err)
	}
	return qs, nil
}

// ListStudents pages through student profiles for the staff view.
func (s *ProfileService) ListStudents(ctx context.Context, limit, offset int) ([]*model.Profile, error) {
	ps, err := s.profiles.List(ctx, domainauth.RoleStudent, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return ps, nil
}
