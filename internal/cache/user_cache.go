package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"contacts-server/internal/interfaces"
	"contacts-server/internal/models"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Compile-time check to ensure redisUserCache implements UserCache
var _ interfaces.UserCache = (*redisUserCache)(nil)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "user_cache_hits_total",
		Help: "Number of user lookups served from Redis.",
	})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "user_cache_misses_total",
		Help: "Number of user lookups that fell through to PostgreSQL.",
	})
)

// userSnapshot mirrors models.User with every field serialized. The model's
// JSON tags hide the password hash and refresh token from API responses, but
// the cache must round-trip them for login and token rotation to work.
type userSnapshot struct {
	ID                     uuid.UUID `json:"id"`
	Username               string    `json:"username"`
	Email                  string    `json:"email"`
	Password               string    `json:"password"`
	Avatar                 *string   `json:"avatar"`
	RefreshToken           *string   `json:"refresh_token"`
	EmailVerified          bool      `json:"email_verified"`
	OpenVerificationLetter bool      `json:"open_verification_letter"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

func snapshotFromUser(u *models.User) userSnapshot {
	return userSnapshot(*u)
}

func (s userSnapshot) toUser() *models.User {
	u := models.User(s)
	return &u
}

type redisUserCache struct {
	client *redis.Client
	repo   interfaces.UserRepository
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisUserCache wraps a UserRepository with a Redis read-through cache
// keyed by email. The repository stays the source of truth; cache failures
// degrade to repository reads instead of failing the request.
func NewRedisUserCache(client *redis.Client, repo interfaces.UserRepository, ttl time.Duration, logger *zap.Logger) interfaces.UserCache {
	return &redisUserCache{
		client: client,
		repo:   repo,
		ttl:    ttl,
		logger: logger.Named("RedisUserCache"),
	}
}

func cacheKey(email string) string {
	return fmt.Sprintf("user:%s", email)
}

// GetUser returns the cached snapshot for the email, falling back to the
// repository and populating the cache on a miss.
func (c *redisUserCache) GetUser(ctx context.Context, email string) (*models.User, error) {
	key := cacheKey(email)
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var snap userSnapshot
		if jsonErr := json.Unmarshal(payload, &snap); jsonErr == nil {
			cacheHits.Inc()
			c.logger.Debug("User cache hit", zap.String("email", email))
			return snap.toUser(), nil
		}
		// Corrupted entry: drop it and fall through to the repository.
		c.logger.Warn("Dropping unreadable cache entry", zap.String("key", key))
		c.client.Del(ctx, key)
	} else if err != redis.Nil {
		c.logger.Warn("Redis get failed, falling back to repository", zap.Error(err), zap.String("email", email))
	}

	cacheMisses.Inc()
	user, err := c.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := c.set(ctx, user); err != nil {
		c.logger.Warn("Failed to populate user cache", zap.Error(err), zap.String("email", email))
	}
	return user, nil
}

// UpdateUser unconditionally overwrites the cache entry for the user's email
// and resets its TTL.
func (c *redisUserCache) UpdateUser(ctx context.Context, user *models.User) error {
	if err := c.set(ctx, user); err != nil {
		c.logger.Error("Failed to update user cache", zap.Error(err), zap.String("email", user.Email))
		return fmt.Errorf("failed to update user cache: %w", err)
	}
	c.logger.Debug("User cache refreshed", zap.String("email", user.Email))
	return nil
}

func (c *redisUserCache) set(ctx context.Context, user *models.User) error {
	payload, err := json.Marshal(snapshotFromUser(user))
	if err != nil {
		return fmt.Errorf("failed to marshal user snapshot: %w", err)
	}
	return c.client.Set(ctx, cacheKey(user.Email), payload, c.ttl).Err()
}
