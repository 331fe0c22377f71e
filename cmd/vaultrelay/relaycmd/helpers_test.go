package relaycmd

import (
	"testing"
)

func TestSplitCommand(t *testing.T) {
	cmd, rest := splitCommand("/start now please")
	if cmd != "/start" || rest != "now please" {
		t.Fatalf("splitCommand() = %q, %q", cmd, rest)
	}
	cmd, rest = splitCommand("  /help  ")
	if cmd != "/help" || rest != "" {
		t.Fatalf("splitCommand() = %q, %q", cmd, rest)
	}
	cmd, _ = splitCommand("")
	if cmd != "" {
		t.Fatalf("splitCommand(empty) = %q", cmd)
	}
}

func TestNormalizeSlashCommand(t *testing.T) {
	if got := normalizeSlashCommand("/Start@NoteBot"); got != "/start" {
		t.Fatalf("normalizeSlashCommand() = %q, want /start", got)
	}
	if got := normalizeSlashCommand("start"); got != "" {
		t.Fatalf("non-slash word should normalize to empty, got %q", got)
	}
}

func TestMessageMentionsBot_Entity(t *testing.T) {
	msg := &telegramMessage{
		Text: "@notebot save this",
		Entities: []telegramEntity{
			{Type: "mention", Offset: 0, Length: 8},
		},
	}
	if !messageMentionsBot(msg, "notebot", 42) {
		t.Fatalf("mention entity should match bot username")
	}
	if messageMentionsBot(msg, "otherbot", 7) {
		t.Fatalf("mention entity for a different bot should not match")
	}
}

func TestMessageMentionsBot_TextMention(t *testing.T) {
	msg := &telegramMessage{
		Text: "NoteBot save this",
		Entities: []telegramEntity{
			{Type: "text_mention", Offset: 0, Length: 7, User: &telegramUser{ID: 42}},
		},
	}
	if !messageMentionsBot(msg, "", 42) {
		t.Fatalf("text_mention with the bot's user id should match")
	}
}

func TestMessageMentionsBot_SubstringFallback(t *testing.T) {
	msg := &telegramMessage{Text: "hey @NoteBot can you keep this"}
	if !messageMentionsBot(msg, "notebot", 42) {
		t.Fatalf("substring fallback should match when entities are missing")
	}
	if messageMentionsBot(&telegramMessage{Text: "no mention here"}, "notebot", 42) {
		t.Fatalf("plain text should not match")
	}
}

func TestMessageMentionsBot_UTF16Offsets(t *testing.T) {
	// The emoji occupies two UTF-16 units, so the mention entity offset is 3.
	msg := &telegramMessage{
		Text: "\U0001F600 @notebot hi",
		Entities: []telegramEntity{
			{Type: "mention", Offset: 3, Length: 8},
		},
	}
	if !messageMentionsBot(msg, "notebot", 42) {
		t.Fatalf("mention after an emoji should resolve via utf-16 offsets")
	}
}

func TestMessageHasURL(t *testing.T) {
	withEntity := &telegramMessage{
		Text:     "example.com/webhook",
		Entities: []telegramEntity{{Type: "url", Offset: 0, Length: 19}},
	}
	if !messageHasURL(withEntity) {
		t.Fatalf("url entity should count")
	}
	bare := &telegramMessage{Text: "see https://example.com/webhook"}
	if !messageHasURL(bare) {
		t.Fatalf("https scheme should count without entities")
	}
	if messageHasURL(&telegramMessage{Text: "just words"}) {
		t.Fatalf("plain text should not count")
	}
}

func TestForwardText_ReplyWins(t *testing.T) {
	msg := &telegramMessage{
		Text:    "@notebot save this one",
		ReplyTo: &telegramMessage{Text: "the quoted insight"},
	}
	if got := forwardText(msg, "notebot"); got != "the quoted insight" {
		t.Fatalf("forwardText() = %q", got)
	}
}

func TestForwardText_StripsMention(t *testing.T) {
	msg := &telegramMessage{Text: "@NoteBot remember the milk"}
	if got := forwardText(msg, "notebot"); got != "remember the milk" {
		t.Fatalf("forwardText() = %q", got)
	}
}

func TestStripBotMention_NonASCIIContext(t *testing.T) {
	// U+0130 grows by a byte under ToLower, so offsets derived from the
	// lowered string would land inside a rune.
	got := stripBotMention("İstanbul notes @NoteBot please", "notebot")
	if got != "İstanbul notes  please" {
		t.Fatalf("stripBotMention() = %q", got)
	}
}

func TestForwardText_Caption(t *testing.T) {
	msg := &telegramMessage{Caption: "photo caption note"}
	if got := forwardText(msg, "notebot"); got != "photo caption note" {
		t.Fatalf("forwardText() = %q", got)
	}
}

func TestTelegramDisplayName(t *testing.T) {
	cases := []struct {
		user *telegramUser
		want string
	}{
		{&telegramUser{FirstName: "Ada", LastName: "Lovelace"}, "Ada Lovelace"},
		{&telegramUser{FirstName: "Ada"}, "Ada"},
		{&telegramUser{Username: "ada"}, "@ada"},
		{&telegramUser{}, ""},
		{nil, ""},
	}
	for _, c := range cases {
		if got := telegramDisplayName(c.user); got != c.want {
			t.Fatalf("telegramDisplayName(%+v) = %q, want %q", c.user, got, c.want)
		}
	}
}

func TestSliceByUTF16(t *testing.T) {
	s := "\U0001F600 hello"
	if got := sliceByUTF16(s, 3, 5); got != "hello" {
		t.Fatalf("sliceByUTF16() = %q, want hello", got)
	}
	if got := sliceByUTF16("abc", 10, 5); got != "" {
		t.Fatalf("out-of-range slice should be empty, got %q", got)
	}
}

func TestBuildInbound(t *testing.T) {
	msg := &telegramMessage{
		Text:    "/start@notebot",
		ReplyTo: &telegramMessage{Text: "earlier"},
	}
	in := buildInbound(msg, "supergroup", "notebot", 42)
	if in.Command != "/start" {
		t.Fatalf("command = %q", in.Command)
	}
	if !in.IsReply || in.ReplyText != "earlier" {
		t.Fatalf("reply fields = %v, %q", in.IsReply, in.ReplyText)
	}
	if in.IsDirect {
		t.Fatalf("supergroup should not be direct")
	}

	dm := buildInbound(&telegramMessage{Text: "hi"}, "private", "notebot", 42)
	if !dm.IsDirect {
		t.Fatalf("private chat should be direct")
	}
}
