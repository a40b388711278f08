package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/cocoiru/internal/tokens"
)

const DefaultPrefix = "revoked:"

// RedisList keeps revoked token fingerprints as keys that expire with the token.
type RedisList struct {
	Client *redis.Client
	Prefix string
	Now    func() time.Time
}

func NewRedisList(client *redis.Client) *RedisList {
	return &RedisList{Client: client, Prefix: DefaultPrefix}
}

// Open parses a redis:// URL and checks the connection.
func Open(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (l *RedisList) key(token string) string {
	return l.Prefix + tokens.Fingerprint(token)
}

func (l *RedisList) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l *RedisList) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(l.now())
	if ttl <= 0 {
		return nil
	}
	if err := l.Client.SetNX(ctx, l.key(token), l.now().UTC().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (l *RedisList) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := l.Client.Exists(ctx, l.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation lookup: %w", err)
	}
	return n > 0, nil
}

// Sweep is a no-op: redis expires the keys itself.
func (l *RedisList) Sweep(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
