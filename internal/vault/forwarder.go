// Package vault turns chat messages into notes and writes them to a user's
// webhook link.
package vault

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultTrailer = "#from-telegram"

// Forwarder performs one outbound write per note. No retries: a failed
// write is failed-and-done, reported back to the user by the caller.
type Forwarder struct {
	http    *http.Client
	trailer string
}

func NewForwarder(httpClient *http.Client, trailer string) *Forwarder {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	trailer = strings.TrimSpace(trailer)
	if trailer == "" {
		trailer = DefaultTrailer
	}
	return &Forwarder{http: httpClient, trailer: trailer}
}

// NoteTitle derives the note title from the text up to the first line
// break. Path separators are replaced so the title cannot add path segments
// inside the vault.
func NoteTitle(text string) string {
	title := text
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = title[:i]
	}
	title = strings.TrimSpace(strings.TrimSuffix(title, "\r"))
	title = strings.ReplaceAll(title, "/", "-")
	title = strings.ReplaceAll(title, "\\", "-")
	return title
}

// Forward writes one note to the webhook link: POST <link>?path=<title>.md
// with the trailer-augmented text as the body.
func (f *Forwarder) Forward(ctx context.Context, link, text string) error {
	link = strings.TrimSpace(link)
	if link == "" {
		return fmt.Errorf("webhook link is required")
	}
	title := NoteTitle(text)
	target := fmt.Sprintf("%s?path=%s.md", link, url.QueryEscape(title))
	body := text + "\n\n" + f.trailer

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	resp, err := f.http.Do(req)
	if err != nil {
		return err
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RequestError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}
	return nil
}

type RequestError struct {
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	if e == nil {
		return "vault request failed"
	}
	if strings.TrimSpace(e.Body) != "" {
		return fmt.Sprintf("vault http %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("vault http %d", e.StatusCode)
}
