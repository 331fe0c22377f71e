// Package fsstore writes the relay's state files: small JSON snapshots
// replaced atomically under a private directory.
package fsstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// The whole state dir is private to the relay process.
const (
	dirPerm  = 0o700
	filePerm = 0o600
)

func EnsureDir(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("fsstore: empty dir path")
	}
	if err := os.MkdirAll(filepath.Clean(path), dirPerm); err != nil {
		return fmt.Errorf("fsstore: ensure dir %s: %w", path, err)
	}
	return nil
}

// ReadJSONStrict loads one JSON document into out. Missing files report
// (false, nil); empty files, unknown fields, and trailing data are errors so
// a corrupt snapshot fails loudly instead of silently resetting state.
func ReadJSONStrict(path string, out any) (bool, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return false, fmt.Errorf("fsstore: empty file path")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("fsstore: read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return false, fmt.Errorf("fsstore: %s is empty", path)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return false, fmt.Errorf("fsstore: decode %s: %w", path, err)
	}
	var trailing any
	if err := dec.Decode(&trailing); err != io.EOF {
		return false, fmt.Errorf("fsstore: decode %s: trailing data", path)
	}
	return true, nil
}

// WriteJSONAtomic replaces the file via temp+rename so readers never see a
// half-written snapshot. Parent directories are created as needed.
func WriteJSONAtomic(path string, v any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("fsstore: empty file path")
	}
	path = filepath.Clean(path)
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("fsstore: encode %s: %w", path, err)
	}
	data = append(data, '\n')

	parentDir := filepath.Dir(path)
	if err := EnsureDir(parentDir); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(parentDir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("fsstore: create temp for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("fsstore: write temp for %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsstore: sync temp for %s: %w", path, err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		return fmt.Errorf("fsstore: chmod temp for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("fsstore: close temp for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("fsstore: rename temp for %s: %w", path, err)
	}

	// Best effort directory sync for durability; ignore failures.
	if dirFD, err := os.Open(parentDir); err == nil {
		_ = dirFD.Sync()
		_ = dirFD.Close()
	}
	return nil
}
