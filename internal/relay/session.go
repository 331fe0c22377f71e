// Package relay holds the per-user session lifecycle and the message
// routing rules of the vault relay. Everything here is plain values: the
// caller loads a SessionRecord, runs Classify and Transition, performs the
// returned action, and stores the new record.
package relay

type SessionState string

const (
	// StateUnset: no webhook link has ever been accepted.
	StateUnset SessionState = "unset"
	// StateEditing: a link is stored but setup has not completed.
	StateEditing SessionState = "editing"
	// StateReady: setup completed; messages are forwarded.
	StateReady SessionState = "ready"
)

// SessionRecord is the durable per-identity state. The zero value is not a
// valid fresh record; use NewSessionRecord.
type SessionRecord struct {
	WebhookLink    string `json:"webhook_link,omitempty"`
	EditingWebhook bool   `json:"is_editing_webhook_link"`

	UserID    int64  `json:"user_id,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

func NewSessionRecord() SessionRecord {
	return SessionRecord{EditingWebhook: true}
}

func (r SessionRecord) State() SessionState {
	switch {
	case r.WebhookLink == "":
		return StateUnset
	case r.EditingWebhook:
		return StateEditing
	default:
		return StateReady
	}
}

// Configured reports whether setup has completed and forwarding may happen.
func (r SessionRecord) Configured() bool {
	return r.State() == StateReady
}
