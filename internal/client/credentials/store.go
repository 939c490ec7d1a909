// Package credentials persists the session token in the local metadata
// table. A stored token expires at the earlier of its TTL and, when the token
// is a JWT, its exp claim.
package credentials

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophblog/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophblog/internal/common"
	"github.com/dmitrijs2005/gophblog/internal/dbx"
	"github.com/golang-jwt/jwt/v5"
)

// SQLiteStore implements the durable token store on top of a SQLite handle.
type SQLiteStore struct {
	db  *sql.DB
	key string
	now func() time.Time
}

type Option func(*SQLiteStore)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) { s.now = now }
}

// WithKey stores the token under a metadata key other than the default.
func WithKey(key string) Option {
	return func(s *SQLiteStore) { s.key = key }
}

func NewSQLiteStore(db *sql.DB, opts ...Option) *SQLiteStore {
	s := &SQLiteStore{db: db, key: common.TokenMetadataKey, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Get returns the persisted token or "" when none is stored. Expired rows are
// purged as a side effect. A JWT whose exp has passed is removed and reported
// as absent.
func (s *SQLiteStore) Get(ctx context.Context) (string, error) {
	now := s.now()
	var token string

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if _, err := repo.DeleteExpired(ctx, now); err != nil {
			return err
		}
		v, err := repo.Get(ctx, s.key, now)
		if err != nil {
			return err
		}
		token = string(v)
		if token == "" {
			return nil
		}
		if exp, ok := ExpiresAt(token); ok && !now.Before(exp) {
			token = ""
			return repo.Delete(ctx, s.key)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return token, nil
}

// Set persists token for ttl. A non-positive ttl means no TTL bound, though a
// JWT exp claim still applies.
func (s *SQLiteStore) Set(ctx context.Context, token string, ttl time.Duration) error {
	if token == "" {
		return fmt.Errorf("store token: %w", common.ErrInvalidToken)
	}
	now := s.now()
	expiresAt := expiry(now, ttl, token)

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if _, err := repo.DeleteExpired(ctx, now); err != nil {
			return err
		}
		return repo.Set(ctx, s.key, []byte(token), expiresAt)
	})
	if err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

// Remove deletes the persisted token. Removing an absent token is not an error.
func (s *SQLiteStore) Remove(ctx context.Context) error {
	if err := metadata.NewSQLiteRepository(s.db).Delete(ctx, s.key); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

func expiry(now time.Time, ttl time.Duration, token string) time.Time {
	var at time.Time
	if ttl > 0 {
		at = now.Add(ttl)
	}
	if exp, ok := ExpiresAt(token); ok && (at.IsZero() || exp.Before(at)) {
		at = exp
	}
	return at
}

// ExpiresAt extracts the exp claim of a JWT without verifying its signature.
// ok is false for opaque tokens and JWTs without exp.
func ExpiresAt(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
