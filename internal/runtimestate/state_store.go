// Package runtimestate persists the relay's poll position across restarts
// so updates already handled are not replayed.
package runtimestate

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hollyfell/vaultrelay/internal/fsstore"
)

type Snapshot struct {
	TelegramOffset int64     `json:"telegram_offset"`
	UpdatedAt      time.Time `json:"updated_at,omitempty"`
}

type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(runtimeDir string) (*Store, error) {
	runtimeDir = strings.TrimSpace(runtimeDir)
	if runtimeDir == "" {
		return nil, fmt.Errorf("runtime dir is required")
	}
	return &Store{path: filepath.Join(runtimeDir, "state.json")}, nil
}

func (s *Store) Load() (Snapshot, bool, error) {
	if s == nil {
		return Snapshot{}, false, fmt.Errorf("nil runtime state store")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var snapshot Snapshot
	found, err := fsstore.ReadJSONStrict(s.path, &snapshot)
	if err != nil {
		return Snapshot{}, false, err
	}
	if !found {
		return Snapshot{}, false, nil
	}
	if snapshot.TelegramOffset < 0 {
		return Snapshot{}, false, fmt.Errorf("telegram_offset must be >= 0")
	}
	return snapshot, true, nil
}

func (s *Store) Save(snapshot Snapshot) error {
	if s == nil {
		return fmt.Errorf("nil runtime state store")
	}
	if snapshot.TelegramOffset < 0 {
		return fmt.Errorf("telegram_offset must be >= 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fsstore.WriteJSONAtomic(s.path, snapshot)
}
