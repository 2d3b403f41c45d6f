// Package cache adds a redis read-through layer in front of the postgres
// token store so hot settings skip a database round trip.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/application"
	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/domain"
)

// TokenCache decorates a TokenStore. Entries carry the encrypted token
// value and expire no later than the token itself. Cache failures
// degrade to the inner store, never to the caller.
type TokenCache struct {
	client *redis.Client
	inner  application.TokenStore
	cipher application.TokenCipher
	logger *slog.Logger
}

func NewTokenCache(client *redis.Client, inner application.TokenStore, cipher application.TokenCipher, logger *slog.Logger) *TokenCache {
	return &TokenCache{
		client: client,
		inner:  inner,
		cipher: cipher,
		logger: logger,
	}
}

var _ application.TokenStore = (*TokenCache)(nil)

type cachedToken struct {
	EncryptedValue string    `json:"v"`
	FetchedAt      time.Time `json:"fetched_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

func tokenKey(setting string) string {
	return fmt.Sprintf("token:%s", setting)
}

func (c *TokenCache) Save(ctx context.Context, token *domain.AccessToken) error {
	if err := c.inner.Save(ctx, token); err != nil {
		return err
	}

	c.fill(ctx, token, time.Now())
	return nil
}

func (c *TokenCache) FindActive(ctx context.Context, setting string, now time.Time) (*domain.AccessToken, error) {
	if token := c.lookup(ctx, setting, now); token != nil {
		return token, nil
	}

	token, err := c.inner.FindActive(ctx, setting, now)
	if err != nil || token == nil {
		return token, err
	}

	c.fill(ctx, token, now)
	return token, nil
}

func (c *TokenCache) lookup(ctx context.Context, setting string, now time.Time) *domain.AccessToken {
	raw, err := c.client.Get(ctx, tokenKey(setting)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("token cache read failed", "setting", setting, "error", err)
		}
		return nil
	}

	var entry cachedToken
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.Warn("discarding malformed cache entry", "setting", setting, "error", err)
		return nil
	}

	if !entry.ExpiresAt.After(now) {
		return nil
	}

	value, err := c.cipher.Decrypt(entry.EncryptedValue)
	if err != nil {
		c.logger.Warn("discarding undecryptable cache entry", "setting", setting, "error", err)
		return nil
	}

	return &domain.AccessToken{
		Value:             value,
		AssociatedSetting: setting,
		FetchedAt:         entry.FetchedAt,
		ExpiresAt:         entry.ExpiresAt,
	}
}

func (c *TokenCache) fill(ctx context.Context, token *domain.AccessToken, now time.Time) {
	ttl := token.Lifetime(now)
	if ttl <= 0 {
		return
	}

	encrypted, err := c.cipher.Encrypt(token.Value)
	if err != nil {
		c.logger.Warn("failed to encrypt token for cache", "setting", token.AssociatedSetting, "error", err)
		return
	}

	raw, err := json.Marshal(cachedToken{
		EncryptedValue: encrypted,
		FetchedAt:      token.FetchedAt,
		ExpiresAt:      token.ExpiresAt,
	})
	if err != nil {
		return
	}

	err = c.client.Set(ctx, tokenKey(token.AssociatedSetting), raw, ttl).Err()
	if err != nil {
		c.logger.Warn("token cache write failed", "setting", token.AssociatedSetting, "error", err)
	}
}
