package cache

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr         string
	Password     string
	UsersHashKey string
}

type ValkeyClient struct {
	client       *redis.Client
	usersHashKey string
}

func NewValkeyClient(cfg Config) (*ValkeyClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	return &ValkeyClient{
		client:       rdb,
		usersHashKey: cfg.UsersHashKey,
	}, nil
}

// NewWithClient wraps an existing redis client. Used by tests.
func NewWithClient(client *redis.Client, usersHashKey string) *ValkeyClient {
	return &ValkeyClient{client: client, usersHashKey: usersHashKey}
}

func (v *ValkeyClient) GetUserIDByAuth(ctx context.Context, email, passwordHash string) (int64, error) {
	authString := fmt.Sprintf("%s:%s", email, passwordHash)
	cacheKey := base64.StdEncoding.EncodeToString([]byte(authString))

	userIDStr, err := v.client.HGet(ctx, v.usersHashKey, cacheKey).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, fmt.Errorf("user not found in cache")
		}
		return 0, fmt.Errorf("cache lookup error: %w", err)
	}

	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user ID in cache: %w", err)
	}

	return userID, nil
}

// CacheUserAuth stores a verified email/password-hash pair so subsequent
// requests skip the database lookup.
func (v *ValkeyClient) CacheUserAuth(ctx context.Context, email, passwordHash string, userID int64) error {
	authString := fmt.Sprintf("%s:%s", email, passwordHash)
	cacheKey := base64.StdEncoding.EncodeToString([]byte(authString))

	return v.client.HSet(ctx, v.usersHashKey, cacheKey, strconv.FormatInt(userID, 10)).Err()
}

// IncrWindow increments a per-key counter scoped to a fixed time window and
// returns the new count. The key expires with the window, so counters reset
// themselves; there is no ambient in-process state.
func (v *ValkeyClient) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := v.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("rate counter incr error: %w", err)
	}

	// First hit in the window sets the expiry.
	if count == 1 {
		if err := v.client.Expire(ctx, key, window).Err(); err != nil {
			return count, fmt.Errorf("rate counter expire error: %w", err)
		}
	}

	return count, nil
}

func (v *ValkeyClient) Close() error {
	return v.client.Close()
}
