package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
	"github.com/dewv/nlc-visits/internal/domain/model"
	"github.com/dewv/nlc-visits/internal/domain/policy"
	"github.com/dewv/nlc-visits/internal/mocks"
	mockauth "github.com/dewv/nlc-visits/internal/mocks/auth"
)

func newAuthorization(t *testing.T) (*AuthorizationService, *mockauth.MemoryProfileRepository, *mocks.MockVisitRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	visits := mocks.NewMockVisitRepository(ctrl)
	profiles := mockauth.NewMemoryProfileRepository()
	return NewAuthorizationService(AuthorizationServiceOptions{Profiles: profiles, Visits: visits}), profiles, visits
}

func seedProfile(t *testing.T, profiles *mockauth.MemoryProfileRepository, role domainauth.Role, force bool) domainauth.Session {
	t.Helper()
	p, err := profiles.FindOrCreate(context.Background(), model.FindOrCreateProfileRequest{
		Role: role, Identifier: string(role) + "@dewv.edu", FirstName: "F", LastName: "L", Salt: "s",
	})
	require.NoError(t, err)
	profiles.SetForceProfileUpdate(role, p.ID, force)
	return domainauth.Session{ID: "sid", Role: role, UserID: p.ID, Identifier: p.Identifier}
}

func TestNewAuthorizationService_RequiredDependencies(t *testing.T) {
	assert.Panics(t, func() {
		NewAuthorizationService(AuthorizationServiceOptions{Profiles: mockauth.NewMemoryProfileRepository()})
	})
}

func TestAuthorizationService_StudentCheckedIn(t *testing.T) {
	svc, profiles, visits := newAuthorization(t)
	sess := seedProfile(t, profiles, domainauth.RoleStudent, false)
	visits.EXPECT().Latest(gomock.Any(), sess.UserID).
		Return(&model.Visit{ID: 42, StudentID: sess.UserID, CheckInTime: time.Now()}, nil).
		AnyTimes()

	subj, err := svc.Subject(context.Background(), sess)
	require.NoError(t, err)
	assert.True(t, subj.CheckedIn)
	assert.Equal(t, int64(42), subj.OpenVisitID)

	d, _, err := svc.Authorize(context.Background(), sess, http.MethodPost, "/visit")
	require.NoError(t, err)
	assert.Equal(t, policy.Forbid, d.Effect)

	d, _, err = svc.Authorize(context.Background(), sess, http.MethodPost, "/visit/42")
	require.NoError(t, err)
	assert.True(t, d.Allowed())
}

func TestAuthorizationService_StudentClosedVisit(t *testing.T) {
	svc, profiles, visits := newAuthorization(t)
	sess := seedProfile(t, profiles, domainauth.RoleStudent, false)
	out := time.Now()
	visits.EXPECT().Latest(gomock.Any(), sess.UserID).
		Return(&model.Visit{ID: 7, CheckInTime: out.Add(-time.Hour), CheckOutTime: &out}, nil)

	d, subj, err := svc.Authorize(context.Background(), sess, http.MethodPost, "/visit")
	require.NoError(t, err)
	assert.False(t, subj.CheckedIn)
	assert.True(t, d.Allowed())
}

func TestAuthorizationService_ForcedUpdateRedirects(t *testing.T) {
	svc, profiles, visits := newAuthorization(t)
	sess := seedProfile(t, profiles, domainauth.RoleStudent, true)
	visits.EXPECT().Latest(gomock.Any(), sess.UserID).Return(nil, nil)

	d, _, err := svc.Authorize(context.Background(), sess, http.MethodGet, "/student/visit")
	require.NoError(t, err)
	assert.Equal(t, policy.Redirect, d.Effect)
	assert.Equal(t, domainauth.ProfilePath(domainauth.RoleStudent, sess.UserID)+"/edit", d.Location)
}

func TestAuthorizationService_StaffSkipsVisitLookup(t *testing.T) {
	svc, profiles, _ := newAuthorization(t)
	sess := seedProfile(t, profiles, domainauth.RoleStaff, false)

	d, _, err := svc.Authorize(context.Background(), sess, http.MethodGet, "/staffmenu")
	require.NoError(t, err)
	assert.True(t, d.Allowed())
}

func TestAuthorizationService_Errors(t *testing.T) {
	svc, profiles, visits := newAuthorization(t)

	_, err := svc.Subject(context.Background(), domainauth.Session{})
	assert.Error(t, err)

	sess := seedProfile(t, profiles, domainauth.RoleStudent, false)
	visits.EXPECT().Latest(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))
	_, err = svc.Subject(context.Background(), sess)
	assert.ErrorContains(t, err, "db down")

	missing := domainauth.Session{Role: domainauth.RoleStaff, UserID: 999}
	_, err = svc.Subject(context.Background(), missing)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}
