package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"errors"        // redis.Nil comparison
	"fmt"           // Key formatting
	"time"          // Time durations

	"github.com/google/uuid"       // Wallet identity in keys
	"github.com/redis/go-redis/v9" // Redis client
)

// HistoryCachePrefix is the key prefix shared by every cached history page of a wallet
func HistoryCachePrefix(walletID uuid.UUID) string {
	return "ophistory:wallet:" + walletID.String()
}

// HistoryCacheKey is the key of one cached history page at a given history version
func HistoryCacheKey(walletID uuid.UUID, version int64, page, pageSize int) string {
	return fmt.Sprintf("%s:v%d:page:%d:size:%d", HistoryCachePrefix(walletID), version, page, pageSize)
}

func historyVersionKey(walletID uuid.UUID) string {
	return HistoryCachePrefix(walletID) + ":version"
}

// HistoryVersion returns the wallet's current history version, 0 if never bumped
func HistoryVersion(ctx context.Context, rdb redis.Cmdable, walletID uuid.UUID) (int64, error) {
	v, err := rdb.Get(ctx, historyVersionKey(walletID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil // No operation since the cache was empty
	}
	return v, err
}

// BumpHistoryVersion makes every cached history page of the wallet unreachable.
// Old pages are left to expire with their TTL.
func BumpHistoryVersion(ctx context.Context, rdb redis.Cmdable, walletID uuid.UUID) error {
	return rdb.Incr(ctx, historyVersionKey(walletID)).Err()
}

// GetCache retrieves a value from Redis and unmarshals it into dest
func GetCache(ctx context.Context, rdb redis.Cmdable, key string, dest any) (bool, error) {
	val, err := rdb.Get(ctx, key).Bytes() // Get value from Redis
	if errors.Is(err, redis.Nil) {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal(val, dest) // Unmarshal JSON into dest
}

// SetCache sets a value in Redis with a specified TTL
func SetCache(ctx context.Context, rdb redis.Cmdable, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return rdb.Set(ctx, key, b, ttl).Err() // Set value in Redis with TTL
}

// DeleteCache deletes keys from Redis
func DeleteCache(ctx context.Context, rdb redis.Cmdable, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return rdb.Del(ctx, keys...).Err() // Delete keys from Redis
}
