package persistence

import (
	"context"
	"strings"
)

// KeyValueStore persists opaque blobs under fixed keys.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Well known key names within a profile namespace.
const (
	KeyUser = "user"
	KeyCart = "cart"
)

// ProfileKey namespaces name under profile, e.g. "default:user".
func ProfileKey(profile, name string) string {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		profile = "default"
	}
	return profile + ":" + name
}
