package relay

// Decision is the routing outcome for one inbound message. It is computed
// per message and never persisted.
type Decision string

const (
	// DecisionStart: the explicit setup command.
	DecisionStart Decision = "command_start"
	// DecisionCapture: the message text should be captured as the webhook link.
	DecisionCapture Decision = "url_capture"
	// DecisionForward: the message qualifies as a note for the vault.
	DecisionForward Decision = "forward"
	// DecisionPromptSetup: setup is incomplete and the message cannot
	// complete it; reply with the setup prompt.
	DecisionPromptSetup Decision = "prompt_setup"
	// DecisionIgnore: silently dropped (unaddressed group traffic).
	DecisionIgnore Decision = "ignore"
)

// Inbound is the classifier's view of one message event. The transport
// fills it in; the classifier never touches the wire types.
type Inbound struct {
	Text         string
	IsDirect     bool
	IsReply      bool
	ReplyText    string
	BotMentioned bool
	HasURL       bool
	Command      string // normalized slash command ("/start"), or ""
}

// Addressed reports whether a group message is directed at the bot: a reply
// to another message or an explicit mention. Direct chats are always
// addressed.
func (in Inbound) Addressed() bool {
	return in.IsDirect || in.IsReply || in.BotMentioned
}

// Classify turns one inbound message into a routing decision, given the
// sender's current session record.
//
// While setup is incomplete, URL capture takes priority over everything but
// the setup command: a message carrying both a URL and note-like text is
// configuration, not content, until setup completes. Unaddressed group
// messages never produce a reply, so group chatter cannot trigger setup
// prompts or captures from bystanders.
func Classify(rec SessionRecord, in Inbound) Decision {
	if in.Command == "/start" || in.Command == "/help" {
		return DecisionStart
	}
	if !in.Addressed() {
		return DecisionIgnore
	}
	if !rec.Configured() {
		if in.HasURL {
			return DecisionCapture
		}
		return DecisionPromptSetup
	}
	return DecisionForward
}
