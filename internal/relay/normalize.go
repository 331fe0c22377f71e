package relay

import "strings"

// The Obsidian webhook setup page hands out links with a test path query
// attached; users paste them as-is.
const testPathSuffix = "?path=test/spotify.md"

// NormalizeWebhookLink strips the known test suffix from a pasted webhook
// link. No further validation happens here: a malformed link surfaces later
// as a forwarding failure, not at capture time.
func NormalizeWebhookLink(raw string) string {
	raw = strings.TrimSpace(raw)
	return strings.Replace(raw, testPathSuffix, "", 1)
}
