package fsstore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteThenReadJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	type payload struct {
		Name string `json:"name"`
	}
	in := payload{Name: "alpha"}
	if err := WriteJSONAtomic(path, in); err != nil {
		t.Fatalf("WriteJSONAtomic() error = %v", err)
	}
	var out payload
	ok, err := ReadJSONStrict(path, &out)
	if err != nil {
		t.Fatalf("ReadJSONStrict() error = %v", err)
	}
	if !ok {
		t.Fatalf("ReadJSONStrict() exists = false, want true")
	}
	if out.Name != in.Name {
		t.Fatalf("ReadJSONStrict() value = %+v, want %+v", out, in)
	}
}

func TestReadJSONStrictMissingFile(t *testing.T) {
	t.Parallel()

	var out struct{}
	ok, err := ReadJSONStrict(filepath.Join(t.TempDir(), "missing.json"), &out)
	if err != nil {
		t.Fatalf("ReadJSONStrict() error = %v", err)
	}
	if ok {
		t.Fatalf("ReadJSONStrict() exists = true, want false")
	}
}

func TestReadJSONStrictRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte(`{"name":"a","stray":1}`), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	var out struct {
		Name string `json:"name"`
	}
	if _, err := ReadJSONStrict(path, &out); err == nil {
		t.Fatalf("unknown field should be rejected")
	}
}

func TestReadJSONStrictRejectsTrailingData(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte(`{"name":"a"} {"name":"b"}`), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	var out struct {
		Name string `json:"name"`
	}
	if _, err := ReadJSONStrict(path, &out); err == nil {
		t.Fatalf("trailing data should be rejected")
	}
}

func TestWriteJSONAtomicCreatesParentDirs(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "deep", "state.json")
	if err := WriteJSONAtomic(path, map[string]int{"n": 1}); err != nil {
		t.Fatalf("WriteJSONAtomic() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("file perm = %o, want 600", perm)
	}
}
