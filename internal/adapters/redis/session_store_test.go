package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
	"github.com/dewv/nlc-visits/internal/testutil"
)

// setupTestRedis skips the test when Redis is not reachable.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.SetupTestRedis(t)
}

func testSession(id string, ttl time.Duration) domainauth.Session {
	visitID := int64(12)
	return domainauth.Session{
		ID:                 id,
		Role:               domainauth.RoleStudent,
		UserID:             42,
		Identifier:         "jdoe@dewv.edu",
		FirstName:          "Jane",
		LastName:           "Doe",
		DefaultLandingPath: domainauth.StudentLandingPath,
		CurrentVisitID:     &visitID,
		Challenge:          &domainauth.Challenge{Role: domainauth.RoleStudent, Identifier: "jdoe@dewv.edu", Question: "Pet?"},
		ExpiresAt:          time.Now().Add(ttl),
	}
}

func TestSessionStore_SaveAndGet(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStoreWithPrefix(client, "test:session:")
	ctx := context.Background()
	sess := testSession("sess-roundtrip", 30*time.Minute)

	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.Role, got.Role)
	assert.Equal(t, sess.UserID, got.UserID)
	assert.Equal(t, sess.Identifier, got.Identifier)
	require.NotNil(t, got.CurrentVisitID)
	assert.Equal(t, int64(12), *got.CurrentVisitID)
	require.NotNil(t, got.Challenge)
	assert.Equal(t, "Pet?", got.Challenge.Question)
	assert.WithinDuration(t, sess.ExpiresAt, got.ExpiresAt, time.Second)

	ttl := client.TTL(ctx, "test:session:sess-roundtrip").Val()
	assert.Greater(t, ttl, 29*time.Minute)
}

func TestSessionStore_DeleteIsIdempotent(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStoreWithPrefix(client, "test:session:")
	ctx := context.Background()
	sess := testSession("sess-delete", time.Minute)
	require.NoError(t, store.Save(ctx, sess))

	require.NoError(t, store.Delete(ctx, sess.ID))
	require.NoError(t, store.Delete(ctx, sess.ID))
	require.NoError(t, store.Delete(ctx, ""))

	_, err := store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionStore_TTLExpiration(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStoreWithPrefix(client, "test:session:")
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, testSession("sess-ttl", 100*time.Millisecond)))

	time.Sleep(200 * time.Millisecond)

	_, err := store.Get(ctx, "sess-ttl")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionStore_ClockSkewTreatedAsExpired(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStoreWithPrefix(client, "test:session:")
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, testSession("sess-skew", time.Hour)))

	store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err := store.Get(ctx, "sess-skew")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int64(0), client.Exists(ctx, "test:session:sess-skew").Val())
}

func TestSessionStore_RejectsInvalidSessions(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	err := store.Save(ctx, testSession("", time.Minute))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session ID cannot be empty")

	err = store.Save(ctx, testSession("sess-expired", -time.Hour))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session is expired")

	_, err = store.Get(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionStore_ListCountClear(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStoreWithPrefix(client, "test:session:")
	other := NewSessionStoreWithPrefix(client, "other:session:")
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Save(ctx, testSession(id, time.Hour)))
	}
	require.NoError(t, other.Save(ctx, testSession("keep", time.Hour)))
	require.NoError(t, client.Set(ctx, "test:session:junk", "not json", time.Hour).Err())

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	assert.ElementsMatch(t, []string{"a", "b", "c"}, ids)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n, "undecodable keys still count")

	deleted, err := store.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, deleted)

	n, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = other.Get(ctx, "keep")
	assert.NoError(t, err, "other prefixes are untouched")
}
