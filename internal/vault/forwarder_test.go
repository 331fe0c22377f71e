package vault

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNoteTitle(t *testing.T) {
	if got := NoteTitle("My Note\nBody line"); got != "My Note" {
		t.Fatalf("NoteTitle() = %q, want %q", got, "My Note")
	}
	if got := NoteTitle("a/b\\c"); got != "a-b-c" {
		t.Fatalf("NoteTitle() = %q, want %q", got, "a-b-c")
	}
	if got := NoteTitle("one line"); got != "one line" {
		t.Fatalf("NoteTitle() = %q, want %q", got, "one line")
	}
	if got := NoteTitle("crlf title\r\nbody"); got != "crlf title" {
		t.Fatalf("NoteTitle() = %q, want %q", got, "crlf title")
	}
}

func TestForwardPostsTitleAndTrailer(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		gotPath = r.URL.Query().Get("path")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := NewForwarder(srv.Client(), "#from-telegram")
	err := f.Forward(context.Background(), srv.URL, "My Note\nBody line")
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	if gotPath != "My Note.md" {
		t.Fatalf("path = %q, want %q", gotPath, "My Note.md")
	}
	if gotBody != "My Note\nBody line\n\n#from-telegram" {
		t.Fatalf("body = %q", gotBody)
	}
}

func TestForwardEscapesSlashInTitle(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Query().Get("path")
	}))
	defer srv.Close()

	f := NewForwarder(srv.Client(), "")
	if err := f.Forward(context.Background(), srv.URL, "a/b note"); err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	if gotPath != "a-b note.md" {
		t.Fatalf("path = %q, want %q", gotPath, "a-b note.md")
	}
}

func TestForwardNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "vault is locked", http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewForwarder(srv.Client(), "")
	err := f.Forward(context.Background(), srv.URL, "note")
	if err == nil {
		t.Fatalf("expected error for 403 response")
	}
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error type = %T, want *RequestError", err)
	}
	if reqErr.StatusCode != http.StatusForbidden {
		t.Fatalf("StatusCode = %d, want 403", reqErr.StatusCode)
	}
	if !strings.Contains(reqErr.Error(), "vault is locked") {
		t.Fatalf("error text missing body: %q", reqErr.Error())
	}
}

func TestForwardTransportErrorIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	f := NewForwarder(nil, "")
	if err := f.Forward(context.Background(), srv.URL, "note"); err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestForwardRejectsEmptyLink(t *testing.T) {
	f := NewForwarder(nil, "")
	if err := f.Forward(context.Background(), "  ", "note"); err == nil {
		t.Fatalf("expected error for empty link")
	}
}
