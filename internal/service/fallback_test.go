package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
	"github.com/dewv/nlc-visits/internal/domain/model"
	mockauth "github.com/dewv/nlc-visits/internal/mocks/auth"
)

func seedProfileWithAnswer(
	t *testing.T,
	profiles *mockauth.MemoryProfileRepository,
	security *mockauth.MemorySecurityRepository,
	role domainauth.Role,
	identifier, answer string,
) *model.Profile {
	t.Helper()
	ctx := context.Background()
	p, err := profiles.FindOrCreate(ctx, model.FindOrCreateProfileRequest{
		Role: role, Identifier: identifier, FirstName: "Grace", LastName: "Hopper", Salt: "0123456789abcdef",
	})
	require.NoError(t, err)
	if answer != "" {
		hash, err := hashAnswer(answer, p.SecretSalt)
		require.NoError(t, err)
		require.NoError(t, security.SaveAnswer(ctx, role, p.ID, 2, hash))
	}
	return p
}

func newFallback() (*FallbackService, *mockauth.MemoryProfileRepository, *mockauth.MemorySecurityRepository) {
	profiles := mockauth.NewMemoryProfileRepository()
	security := mockauth.NewMemorySecurityRepository(profiles)
	return NewFallbackService(FallbackServiceOptions{Profiles: profiles, Security: security}), profiles, security
}

func TestFallbackService_Present(t *testing.T) {
	svc, profiles, security := newFallback()
	seedProfileWithAnswer(t, profiles, security, domainauth.RoleStaff, "grace@dewv.edu", "Rex")

	ch, err := svc.Present(context.Background(), "GRACE@dewv.edu")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleStaff, ch.Role)
	assert.Equal(t, "grace@dewv.edu", ch.Identifier)
	assert.Equal(t, "Grace", ch.FirstName)
	assert.Equal(t, "What was the name of your first pet?", ch.Question)
}

func TestFallbackService_PresentWithoutProfileOrAnswer(t *testing.T) {
	svc, profiles, security := newFallback()
	seedProfileWithAnswer(t, profiles, security, domainauth.RoleStudent, "new@dewv.edu", "")

	_, err := svc.Present(context.Background(), "nobody@dewv.edu")
	assert.ErrorIs(t, err, ErrNoProfile)

	_, err = svc.Present(context.Background(), "new@dewv.edu")
	assert.ErrorIs(t, err, ErrNoSecurityAnswer)
}

func TestFallbackService_Submit(t *testing.T) {
	svc, profiles, security := newFallback()
	seedProfileWithAnswer(t, profiles, security, domainauth.RoleStudent, "sam@dewv.edu", "Rex")
	ctx := context.Background()

	ch, err := svc.Present(ctx, "sam@dewv.edu")
	require.NoError(t, err)

	out, err := svc.Submit(ctx, ch, "Rex")
	require.NoError(t, err)
	require.True(t, out.OK())
	assert.Equal(t, domainauth.Identity{
		Role: domainauth.RoleStudent, FirstName: "Grace", LastName: "Hopper", Identifier: "sam@dewv.edu",
	}, out.Identity)

	for _, wrong := range []string{"Fido", "rex", "REX", " Rex", "Rex "} {
		out, err = svc.Submit(ctx, ch, wrong)
		require.NoError(t, err)
		assert.Equal(t, domainauth.OutcomeInvalidCredentials, out.Kind, "answer %q", wrong)
	}
}

func TestAnswerMatches_ExactConcatenation(t *testing.T) {
	const salt = "0123456789abcdef"
	h, err := hashAnswer("blue", salt)
	require.NoError(t, err)

	assert.True(t, answerMatches(h, "blue", salt))
	for _, other := range []string{"BLUE", "Blue", "  blue ", "blue" + salt, ""} {
		assert.False(t, answerMatches(h, other, salt), "answer %q", other)
	}
	assert.False(t, answerMatches(h, "blue", "fedcba9876543210"), "salt must be the stored one")
}

func TestFallbackService_SubmitUsesChallengeIdentity(t *testing.T) {
	svc, profiles, security := newFallback()
	seedProfileWithAnswer(t, profiles, security, domainauth.RoleStudent, "victim@dewv.edu", "secret-one")
	seedProfileWithAnswer(t, profiles, security, domainauth.RoleStudent, "attacker@dewv.edu", "known")
	ctx := context.Background()

	ch, err := svc.Present(ctx, "victim@dewv.edu")
	require.NoError(t, err)

	out, err := svc.Submit(ctx, ch, "known")
	require.NoError(t, err)
	assert.False(t, out.OK(), "an answer for another account must not unlock the challenged one")
}

func TestFallbackService_SubmitWithoutStoredAnswer(t *testing.T) {
	svc, _, _ := newFallback()
	out, err := svc.Submit(context.Background(), domainauth.Challenge{
		Role: domainauth.RoleStaff, Identifier: "ghost@dewv.edu",
	}, "x")
	require.NoError(t, err)
	assert.Equal(t, domainauth.OutcomeUnsupportedFirstLogin, out.Kind)

	_, err = svc.Submit(context.Background(), domainauth.Challenge{}, "x")
	assert.ErrorIs(t, err, ErrNoChallenge)
}

func TestHashAnswer_TooLong(t *testing.T) {
	long := make([]byte, maxAnswerBytes+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err := hashAnswer(string(long), "0123456789abcdef")
	assert.Error(t, err)

	ok := string(long[:maxAnswerBytes])
	h, err := hashAnswer(ok, "0123456789abcdef")
	require.NoError(t, err)
	assert.True(t, answerMatches(h, ok, "0123456789abcdef"))
}
