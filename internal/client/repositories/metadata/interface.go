// Package metadata stores small key/value records of the client, such as the
// session token, with an optional expiry.
package metadata

import (
	"context"
	"time"
)

// Repository is a key/value store with per-key expiry. A zero expiresAt means
// the record never expires. Expired records are invisible to Get.
type Repository interface {
	Get(ctx context.Context, key string, now time.Time) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, expiresAt time.Time) error
	Delete(ctx context.Context, key string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
