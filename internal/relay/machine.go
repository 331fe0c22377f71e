package relay

// Action is the zero-or-one side effect the transport performs after a
// transition.
type Action string

const (
	ActionNone Action = "none"
	// ActionReplySetup: send the setup prompt / instructions.
	ActionReplySetup Action = "reply_setup"
	// ActionReplyCaptured: a link was just stored; confirm it.
	ActionReplyCaptured Action = "reply_captured"
	// ActionForward: forward the message to the stored webhook.
	ActionForward Action = "forward"
)

// Transition applies one routing decision to a session record and returns
// the next record plus the action to perform. It never fails; forwarding
// failures belong to the forwarder and never roll state back, because
// forwarding does not change state. Capture is a one-time transition: once
// READY, later URL-bearing messages are ordinary notes.
func Transition(rec SessionRecord, dec Decision, rawText string) (SessionRecord, Action) {
	switch dec {
	case DecisionStart:
		// Idempotent in every state.
		return rec, ActionReplySetup
	case DecisionCapture:
		if rec.Configured() {
			// Late capture decisions (raced past a just-completed setup)
			// degrade to forwarding.
			return rec, ActionForward
		}
		rec.WebhookLink = NormalizeWebhookLink(rawText)
		rec.EditingWebhook = false
		return rec, ActionReplyCaptured
	case DecisionForward:
		if !rec.Configured() {
			return rec, ActionReplySetup
		}
		return rec, ActionForward
	case DecisionPromptSetup:
		return rec, ActionReplySetup
	default:
		return rec, ActionNone
	}
}
