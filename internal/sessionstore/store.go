// Package sessionstore persists per-identity session records. The relay
// only needs get/set by identity key; serialization of concurrent updates
// for one identity is the caller's job (see internal/keymutex).
package sessionstore

import (
	"context"

	"github.com/hollyfell/vaultrelay/internal/relay"
)

type Store interface {
	// Get returns the record for the key, or a fresh default record when
	// the key has never been seen.
	Get(ctx context.Context, key string) (relay.SessionRecord, error)
	Put(ctx context.Context, key string, rec relay.SessionRecord) error
	Close() error
}
