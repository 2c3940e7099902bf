// Package metadata is a small key/value table for client-side state such as
// cached credentials and sync timestamps.
package metadata

import (
	"context"
)

// Well-known keys.
const (
	KeyUsername     = "username"
	KeySalt         = "salt"
	KeyVerifier     = "verifier"
	KeyUserID       = "user_id"
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyLastPullAt   = "last_pull_at"
	KeyLastPushAt   = "last_push_at"
)

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
