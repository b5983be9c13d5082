// Package cache - хранилище ключ-значение с TTL. Значения сериализуются в JSON.
// Политику вытеснения код не задает: записи просто истекают.
package cache

import (
	"context"
	"time"
)

const (
	RefreshTokenTTL = 365 * 24 * time.Hour
	WarmTTL         = 30 * time.Minute
	VerificationTTL = 24 * time.Hour
)

// Cache - порт TTL-хранилища.
type Cache interface {
	Set(ctx context.Context, key string, ttl time.Duration, value any) error
	// Get декодирует значение в dst. false - ключа нет или он истек.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Delete(ctx context.Context, key string) error
}

func RefreshTokenKey(username string) string { return username + ":refreshToken" }

func CommunitiesKey(username string) string { return username + ":communities" }

func PostsKey(username string) string { return username + ":posts" }

func VerificationKey(token string) string { return "verification:" + token }
