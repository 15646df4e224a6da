package repository

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
)

// DefaultRedisResetPrefix namespaces reset secret keys
const DefaultRedisResetPrefix = "auth:reset:"

// consumeScript deletes the key only when it still holds the expected hash
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisResetSecrets keeps one hashed secret per user and purpose in redis,
// expiring it with the key TTL. Consumption is atomic but happens outside
// the database transaction that stores the new password.
type RedisResetSecrets struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

var _ ResetSecrets = (*RedisResetSecrets)(nil)

// NewRedisResetSecrets creates the redis backed implementation
func NewRedisResetSecrets(client redis.UniversalClient, ttl time.Duration) *RedisResetSecrets {
	if ttl <= 0 {
		ttl = DefaultResetSecretTTL
	}
	return &RedisResetSecrets{client: client, ttl: ttl, prefix: DefaultRedisResetPrefix}
}

// WithPrefix overrides the key prefix
func (s *RedisResetSecrets) WithPrefix(prefix string) *RedisResetSecrets {
	if prefix != "" {
		s.prefix = prefix
	}
	return s
}

// Issue replaces any outstanding secret for userID and purpose
func (s *RedisResetSecrets) Issue(ctx context.Context, userID uuid.UUID, purpose string) (string, error) {
	secret, err := newResetSecret()
	if err != nil {
		return "", err
	}

	if err := s.client.Set(ctx, s.key(userID, purpose), hashResetSecret(secret), s.ttl).Err(); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store reset secret")
	}

	return secret, nil
}

// Verify compares secret with the stored hash without consuming it
func (s *RedisResetSecrets) Verify(ctx context.Context, userID uuid.UUID, purpose, secret string) (bool, error) {
	if secret == "" {
		return false, nil
	}

	stored, err := s.client.Get(ctx, s.key(userID, purpose)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read reset secret")
	}

	return subtle.ConstantTimeCompare([]byte(stored), []byte(hashResetSecret(secret))) == 1, nil
}

// Consume deletes the secret if it matches. tx is not used.
func (s *RedisResetSecrets) Consume(ctx context.Context, _ bun.IDB, userID uuid.UUID, purpose, secret string) (bool, error) {
	if secret == "" {
		return false, nil
	}

	n, err := consumeScript.Run(ctx, s.client, []string{s.key(userID, purpose)}, hashResetSecret(secret)).Int()
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume reset secret")
	}

	return n == 1, nil
}

func (s *RedisResetSecrets) key(userID uuid.UUID, purpose string) string {
	return fmt.Sprintf("%s%s:%s", s.prefix, purpose, userID.String())
}
