package client

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// CredentialProvider owns the upstream API key. It is injected into every
// client that talks to the AI collaborator, so no component reaches for
// process-global key state.
type CredentialProvider interface {
	// Token returns the current API key, or "" when none is stored.
	Token(ctx context.Context) (string, error)
	// Save persists a new API key.
	Save(ctx context.Context, token string) error
	// Clear removes the stored API key.
	Clear(ctx context.Context) error
}

const credentialKey = "credentials:gemini"

// RedisCredentialProvider persists the API key in Redis so it survives
// restarts. A configured fallback key (from env/config) is used when the
// store is empty; Save and Clear only ever touch the stored value.
type RedisCredentialProvider struct {
	redis    *redis.Client
	fallback string
}

func NewRedisCredentialProvider(redisClient *redis.Client, fallback string) *RedisCredentialProvider {
	return &RedisCredentialProvider{redis: redisClient, fallback: fallback}
}

func (p *RedisCredentialProvider) Token(ctx context.Context) (string, error) {
	token, err := p.redis.Get(ctx, credentialKey).Result()
	if err == redis.Nil || (err == nil && token == "") {
		return p.fallback, nil
	}
	if err != nil {
		// Redis being down should not lock out a statically configured key.
		if p.fallback != "" {
			return p.fallback, nil
		}
		return "", fmt.Errorf("failed to load credentials: %w", err)
	}
	return token, nil
}

func (p *RedisCredentialProvider) Save(ctx context.Context, token string) error {
	if err := p.redis.Set(ctx, credentialKey, token, 0).Err(); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

func (p *RedisCredentialProvider) Clear(ctx context.Context) error {
	if err := p.redis.Del(ctx, credentialKey).Err(); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}

// StaticCredentialProvider serves a fixed key. Used in tests and when the
// deployment pins the key through the environment only.
type StaticCredentialProvider struct {
	key string
}

func NewStaticCredentialProvider(key string) *StaticCredentialProvider {
	return &StaticCredentialProvider{key: key}
}

func (p *StaticCredentialProvider) Token(ctx context.Context) (string, error) { return p.key, nil }

func (p *StaticCredentialProvider) Save(ctx context.Context, token string) error {
	p.key = token
	return nil
}

func (p *StaticCredentialProvider) Clear(ctx context.Context) error {
	p.key = ""
	return nil
}

var _ CredentialProvider = (*RedisCredentialProvider)(nil)
var _ CredentialProvider = (*StaticCredentialProvider)(nil)
