package cache

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authKey(email, passwordHash string) string {
	return base64.StdEncoding.EncodeToString([]byte(email + ":" + passwordHash))
}

func TestGetUserIDByAuth(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := NewWithClient(db, "users_auth")

	mock.ExpectHGet("users_auth", authKey("alice@example.com", "deadbeef")).SetVal("42")

	userID, err := client.GetUserIDByAuth(context.Background(), "alice@example.com", "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserIDByAuthMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := NewWithClient(db, "users_auth")

	mock.ExpectHGet("users_auth", authKey("alice@example.com", "deadbeef")).RedisNil()

	_, err := client.GetUserIDByAuth(context.Background(), "alice@example.com", "deadbeef")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserIDByAuthGarbage(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := NewWithClient(db, "users_auth")

	mock.ExpectHGet("users_auth", authKey("alice@example.com", "deadbeef")).SetVal("not-a-number")

	_, err := client.GetUserIDByAuth(context.Background(), "alice@example.com", "deadbeef")
	assert.Error(t, err)
}

func TestCacheUserAuth(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := NewWithClient(db, "users_auth")

	mock.ExpectHSet("users_auth", authKey("alice@example.com", "deadbeef"), "42").SetVal(1)

	err := client.CacheUserAuth(context.Background(), "alice@example.com", "deadbeef", 42)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrWindowSetsExpiryOnFirstHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := NewWithClient(db, "users_auth")

	mock.ExpectIncr("ratelimit:user:1").SetVal(1)
	mock.ExpectExpire("ratelimit:user:1", time.Minute).SetVal(true)

	count, err := client.IncrWindow(context.Background(), "ratelimit:user:1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrWindowSubsequentHits(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := NewWithClient(db, "users_auth")

	// No Expire call after the first hit.
	mock.ExpectIncr("ratelimit:user:1").SetVal(7)

	count, err := client.IncrWindow(context.Background(), "ratelimit:user:1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
