package testutil

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// SetupTestRedis returns a client on a flushed test database index
// (TEST_REDIS_ADDR, TEST_REDIS_DB; defaults localhost:6379 and 15).
func SetupTestRedis(t testing.TB) *redis.Client {
	t.Helper()

	addr := getEnvOrDefault("TEST_REDIS_ADDR", "localhost:6379")
	dbIndex, err := strconv.Atoi(getEnvOrDefault("TEST_REDIS_DB", "15"))
	if err != nil || dbIndex < 0 {
		dbIndex = 15
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: dbIndex})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if pingErr := client.Ping(ctx).Err(); pingErr != nil {
		_ = client.Close()
		skipOrFail(t, requireRedis(), "Redis not available for testing at %s: %v", addr, pingErr)
	}
	if flushErr := client.FlushDB(ctx).Err(); flushErr != nil {
		t.Fatalf("flush redis db %d: %v", dbIndex, flushErr)
	}
	return client
}
