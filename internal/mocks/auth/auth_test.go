package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
	"github.com/dewv/nlc-visits/internal/domain/model"
	"github.com/dewv/nlc-visits/internal/ports"
)

func TestStubAuthenticator(t *testing.T) {
	stub := NewStubAuthenticator()
	stub.Accept("a@dewv.edu", domainauth.Identity{Role: domainauth.RoleStaff, Identifier: "a@dewv.edu"})

	ok := stub.Authenticate(context.Background(), domainauth.Credential{Identifier: "a@dewv.edu", Secret: "x"})
	assert.True(t, ok.OK())

	no := stub.Authenticate(context.Background(), domainauth.Credential{Identifier: "b@dewv.edu", Secret: "x"})
	assert.Equal(t, domainauth.OutcomeInvalidCredentials, no.Kind)
	assert.Len(t, stub.Calls, 2)
}

func TestMemorySessionStore_SaveGetDelete(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	sess := domainauth.Session{ID: "s1", Role: domainauth.RoleStudent, UserID: 3, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, got.UserID)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)

	assert.Error(t, store.Save(ctx, domainauth.Session{}))
	assert.NoError(t, store.Delete(ctx, ""))
}

func TestMemoryProfileRepository_FindOrCreate(t *testing.T) {
	repo := NewMemoryProfileRepository()
	ctx := context.Background()

	p, err := repo.FindOrCreate(ctx, model.FindOrCreateProfileRequest{
		Role: domainauth.RoleStudent, Identifier: "Jo@dewv.edu", FirstName: "Jo", LastName: "Ng", Salt: "s1",
	})
	require.NoError(t, err)
	assert.True(t, p.ForceProfileUpdate)

	again, err := repo.FindOrCreate(ctx, model.FindOrCreateProfileRequest{
		Role: domainauth.RoleStudent, Identifier: "jo@dewv.edu", FirstName: "X", LastName: "Y", Salt: "s2",
	})
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)
	assert.Equal(t, "s1", again.SecretSalt)

	_, err = repo.GetByIdentifier(ctx, domainauth.RoleStaff, "jo@dewv.edu")
	assert.ErrorIs(t, err, ports.ErrProfileNotFound)
}

func TestMemorySecurityRepository_Answer(t *testing.T) {
	profiles := NewMemoryProfileRepository()
	sec := NewMemorySecurityRepository(profiles)
	ctx := context.Background()

	p, err := profiles.FindOrCreate(ctx, model.FindOrCreateProfileRequest{
		Role: domainauth.RoleStaff, Identifier: "t@dewv.edu", FirstName: "T", LastName: "U", Salt: "salt",
	})
	require.NoError(t, err)

	_, err = sec.GetAnswer(ctx, domainauth.RoleStaff, "t@dewv.edu")
	assert.ErrorIs(t, err, ports.ErrAnswerNotFound)

	require.NoError(t, sec.SaveAnswer(ctx, domainauth.RoleStaff, p.ID, 2, "h"))
	rec, err := sec.GetAnswer(ctx, domainauth.RoleStaff, "T@dewv.edu")
	require.NoError(t, err)
	assert.Equal(t, "salt", rec.Salt)
	assert.Equal(t, "What was the name of your first pet?", rec.Question)
}
