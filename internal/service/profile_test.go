package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
	"github.com/dewv/nlc-visits/internal/domain/model"
	apperrors "github.com/dewv/nlc-visits/internal/errors"
	mockauth "github.com/dewv/nlc-visits/internal/mocks/auth"
)

func newProfileService() (*ProfileService, *mockauth.MemoryProfileRepository, *mockauth.MemorySecurityRepository) {
	profiles := mockauth.NewMemoryProfileRepository()
	security := mockauth.NewMemorySecurityRepository(profiles)
	return NewProfileService(ProfileServiceOptions{Profiles: profiles, Security: security}), profiles, security
}

func TestProfileService_UpdateClearsForcedFlagAndStoresAnswer(t *testing.T) {
	svc, profiles, security := newProfileService()
	ctx := context.Background()
	p, err := profiles.FindOrCreate(ctx, model.FindOrCreateProfileRequest{
		Role: domainauth.RoleStaff, Identifier: "kim@dewv.edu", FirstName: "First", LastName: "Last", Salt: "0011223344556677",
	})
	require.NoError(t, err)
	require.True(t, p.ForceProfileUpdate)

	first, qid, answer := "Kim", int64(1), "Blue"
	updated, err := svc.Update(ctx, domainauth.RoleStaff, p.ID, model.UpdateProfileRequest{
		FirstName:          &first,
		Staff:              &model.StaffDetails{IsSLPInstructor: true},
		SecurityQuestionID: &qid,
		SecurityAnswer:     &answer,
	})
	require.NoError(t, err)
	assert.False(t, updated.ForceProfileUpdate)
	assert.Equal(t, "Kim", updated.FirstName)
	assert.True(t, updated.Staff.IsSLPInstructor)

	rec, err := security.GetAnswer(ctx, domainauth.RoleStaff, "kim@dewv.edu")
	require.NoError(t, err)
	assert.Equal(t, qid, rec.QuestionID)
	assert.True(t, answerMatches(rec.AnswerHash, "Blue", p.SecretSalt))
	assert.False(t, answerMatches(rec.AnswerHash, "blue", p.SecretSalt))
	assert.NotContains(t, rec.AnswerHash, "Blue")
}

func TestProfileService_UpdateValidation(t *testing.T) {
	svc, profiles, _ := newProfileService()
	ctx := context.Background()
	p, err := profiles.FindOrCreate(ctx, model.FindOrCreateProfileRequest{
		Role: domainauth.RoleStudent, Identifier: "v@dewv.edu", Salt: "0011223344556677",
	})
	require.NoError(t, err)

	qid := int64(1)
	_, err = svc.Update(ctx, domainauth.RoleStudent, p.ID, model.UpdateProfileRequest{SecurityQuestionID: &qid})
	assert.True(t, apperrors.IsValidation(err))

	long := strings.Repeat("x", 100)
	_, err = svc.Update(ctx, domainauth.RoleStudent, p.ID, model.UpdateProfileRequest{
		SecurityQuestionID: &qid, SecurityAnswer: &long,
	})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.Update(ctx, domainauth.RoleStudent, p.ID+1, model.UpdateProfileRequest{})
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestProfileService_ListQuestions(t *testing.T) {
	svc, _, _ := newProfileService()
	qs, err := svc.ListQuestions(context.Background())
	require.NoError(t, err)
	assert.Len(t, qs, 2)
}
