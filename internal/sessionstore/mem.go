package sessionstore

import (
	"context"
	"sync"

	"github.com/hollyfell/vaultrelay/internal/relay"
)

// MemStore is a map-backed Store for tests and ephemeral runs. State is
// lost on restart.
type MemStore struct {
	mu      sync.Mutex
	records map[string]relay.SessionRecord
}

func NewMem() *MemStore {
	return &MemStore{records: make(map[string]relay.SessionRecord)}
}

func (s *MemStore) Get(ctx context.Context, key string) (relay.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return relay.SessionRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return relay.NewSessionRecord(), nil
	}
	return rec, nil
}

func (s *MemStore) Put(ctx context.Context, key string, rec relay.SessionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = rec
	return nil
}

func (s *MemStore) Close() error { return nil }
