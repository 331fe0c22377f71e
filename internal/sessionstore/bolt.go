package sessionstore

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"

	"github.com/hollyfell/vaultrelay/internal/fsstore"
	"github.com/hollyfell/vaultrelay/internal/relay"
)

var sessionsBucket = []byte("sessions")

// BoltStore keeps session records in a single-file Bolt database, one JSON
// value per identity key.
type BoltStore struct {
	db *bolt.DB
}

func OpenBolt(path string) (*BoltStore, error) {
	if err := fsstore.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open session db %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init session db %s: %w", path, err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Get(ctx context.Context, key string) (relay.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return relay.SessionRecord{}, err
	}
	rec := relay.NewSessionRecord()
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(sessionsBucket).Get([]byte(key))
		if raw == nil {
			return nil
		}
		return json.Unmarshal(raw, &rec)
	})
	if err != nil {
		return relay.SessionRecord{}, fmt.Errorf("get session %s: %w", key, err)
	}
	return rec, nil
}

func (s *BoltStore) Put(ctx context.Context, key string, rec relay.SessionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", key, err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).Put([]byte(key), raw)
	})
	if err != nil {
		return fmt.Errorf("put session %s: %w", key, err)
	}
	return nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
