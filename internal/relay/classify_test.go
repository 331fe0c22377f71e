package relay

import "testing"

func readyRecord() SessionRecord {
	rec, _ := Transition(NewSessionRecord(), DecisionCapture, "https://hooks.example.com/v1/abc")
	return rec
}

func TestClassifyGroupSuppression(t *testing.T) {
	rec := readyRecord()

	plain := Inbound{Text: "just chatting"}
	if dec := Classify(rec, plain); dec != DecisionIgnore {
		t.Fatalf("unaddressed group message: Classify() = %q, want %q", dec, DecisionIgnore)
	}

	reply := Inbound{Text: "save this one", IsReply: true, ReplyText: "original note"}
	if dec := Classify(rec, reply); dec != DecisionForward {
		t.Fatalf("reply in group: Classify() = %q, want %q", dec, DecisionForward)
	}

	mention := Inbound{Text: "@vaultbot keep this", BotMentioned: true}
	if dec := Classify(rec, mention); dec != DecisionForward {
		t.Fatalf("mention in group: Classify() = %q, want %q", dec, DecisionForward)
	}
}

func TestClassifyGroupUnaddressedNeverPrompts(t *testing.T) {
	rec := NewSessionRecord()
	// Unconfigured session, plain group chatter: no setup prompt, no capture.
	if dec := Classify(rec, Inbound{Text: "morning all"}); dec != DecisionIgnore {
		t.Fatalf("Classify() = %q, want %q", dec, DecisionIgnore)
	}
	if dec := Classify(rec, Inbound{Text: "https://example.com", HasURL: true}); dec != DecisionIgnore {
		t.Fatalf("unaddressed URL in group: Classify() = %q, want %q", dec, DecisionIgnore)
	}
}

func TestClassifyCapturePriorityDuringSetup(t *testing.T) {
	rec := NewSessionRecord()
	in := Inbound{
		Text:     "My note\nhttps://hooks.example.com/v1/abc",
		IsDirect: true,
		HasURL:   true,
	}
	if dec := Classify(rec, in); dec != DecisionCapture {
		t.Fatalf("Classify() = %q, want %q", dec, DecisionCapture)
	}
}

func TestClassifyDirectAlwaysQualifiesOnceReady(t *testing.T) {
	rec := readyRecord()
	if dec := Classify(rec, Inbound{Text: "any text", IsDirect: true}); dec != DecisionForward {
		t.Fatalf("Classify() = %q, want %q", dec, DecisionForward)
	}
}

func TestClassifyStartCommandWinsOverCapture(t *testing.T) {
	rec := NewSessionRecord()
	in := Inbound{Text: "/start", IsDirect: true, Command: "/start", HasURL: true}
	if dec := Classify(rec, in); dec != DecisionStart {
		t.Fatalf("Classify() = %q, want %q", dec, DecisionStart)
	}
}

func TestIdentityKey(t *testing.T) {
	key, err := IdentityKey(42, 100)
	if err != nil {
		t.Fatalf("IdentityKey() error = %v", err)
	}
	if key != "tg:42" {
		t.Fatalf("key = %q, want %q", key, "tg:42")
	}

	key, err = IdentityKey(0, -100123)
	if err != nil {
		t.Fatalf("IdentityKey() error = %v", err)
	}
	if key != "tg:-100123" {
		t.Fatalf("key = %q, want %q", key, "tg:-100123")
	}

	if _, err := IdentityKey(0, 0); err == nil {
		t.Fatalf("expected error for unresolvable identity")
	}
}

func TestNormalizeWebhookLink(t *testing.T) {
	got := NormalizeWebhookLink(" https://hooks.example.com/v1/abc?path=test/spotify.md ")
	if got != "https://hooks.example.com/v1/abc" {
		t.Fatalf("NormalizeWebhookLink() = %q", got)
	}
	raw := "https://hooks.example.com/v1/abc?token=x"
	if got := NormalizeWebhookLink(raw); got != raw {
		t.Fatalf("NormalizeWebhookLink() = %q, want unchanged", got)
	}
}
