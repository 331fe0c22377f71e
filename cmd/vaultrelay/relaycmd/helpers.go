package relaycmd

import (
	"strings"

	"github.com/hollyfell/vaultrelay/internal/relay"
)

func splitCommand(text string) (cmd string, rest string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}
	i := strings.IndexAny(text, " \n\t")
	if i == -1 {
		return text, ""
	}
	return text[:i], strings.TrimSpace(text[i:])
}

func normalizeSlashCommand(cmd string) string {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" || !strings.HasPrefix(cmd, "/") {
		return ""
	}
	// Allow "/cmd@BotName" variants by stripping "@...".
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd)
}

func isGroupChat(chatType string) bool {
	chatType = strings.ToLower(strings.TrimSpace(chatType))
	return chatType == "group" || chatType == "supergroup"
}

func isDirectChat(chatType string) bool {
	return strings.ToLower(strings.TrimSpace(chatType)) == "private"
}

func messageTextOrCaption(msg *telegramMessage) string {
	if msg == nil {
		return ""
	}
	if strings.TrimSpace(msg.Text) != "" {
		return msg.Text
	}
	return msg.Caption
}

// messageMentionsBot checks entity-based mentions of the bot (mention and
// text_mention) with a plain substring fallback for clients that omit
// entities.
func messageMentionsBot(msg *telegramMessage, botUser string, botID int64) bool {
	if msg == nil {
		return false
	}
	text := messageTextOrCaption(msg)
	check := func(text string, entities []telegramEntity) bool {
		for _, e := range entities {
			switch strings.ToLower(strings.TrimSpace(e.Type)) {
			case "text_mention":
				if e.User != nil && e.User.ID == botID {
					return true
				}
			case "mention":
				if botUser != "" {
					mention := sliceByUTF16(text, e.Offset, e.Length)
					if strings.EqualFold(mention, "@"+botUser) {
						return true
					}
				}
			}
		}
		return false
	}
	if check(msg.Text, msg.Entities) || check(msg.Caption, msg.CaptionEntities) {
		return true
	}
	if botUser != "" && strings.Contains(strings.ToLower(text), "@"+strings.ToLower(botUser)) {
		return true
	}
	return false
}

// messageHasURL reports whether the message carries a URL-like entity, the
// capture signal while setup is incomplete. Entities are authoritative; the
// scheme check covers clients that omit them.
func messageHasURL(msg *telegramMessage) bool {
	if msg == nil {
		return false
	}
	for _, e := range append(append([]telegramEntity(nil), msg.Entities...), msg.CaptionEntities...) {
		switch strings.ToLower(strings.TrimSpace(e.Type)) {
		case "url", "text_link":
			return true
		}
	}
	text := strings.ToLower(messageTextOrCaption(msg))
	return strings.Contains(text, "http://") || strings.Contains(text, "https://")
}

// stripBotMention removes the bot's @mention from text and trims the
// surrounding whitespace. Used when forwarding, so the mention that
// triggered the relay does not end up inside the note.
func stripBotMention(text, botUser string) string {
	if botUser == "" {
		return strings.TrimSpace(text)
	}
	mention := "@" + botUser
	for {
		i := mentionIndex(text, mention)
		if i < 0 {
			break
		}
		text = text[:i] + text[i+len(mention):]
	}
	return strings.TrimSpace(text)
}

// mentionIndex finds a case-insensitive occurrence of mention in s. The
// candidate windows are anchored on '@' bytes in s itself, so the byte
// offsets stay valid even when lowercasing s would change its length
// (bot usernames are ASCII; the surrounding text need not be).
func mentionIndex(s, mention string) int {
	for i := 0; i+len(mention) <= len(s); i++ {
		if s[i] != '@' {
			continue
		}
		if strings.EqualFold(s[i:i+len(mention)], mention) {
			return i
		}
	}
	return -1
}

// forwardText picks what gets written to the vault: for replies, the
// replied-to message is the note; otherwise the message itself. The bot
// mention is stripped either way.
func forwardText(msg *telegramMessage, botUser string) string {
	if msg == nil {
		return ""
	}
	if msg.ReplyTo != nil {
		if quoted := strings.TrimSpace(messageTextOrCaption(msg.ReplyTo)); quoted != "" {
			return stripBotMention(quoted, botUser)
		}
	}
	return stripBotMention(messageTextOrCaption(msg), botUser)
}

// buildInbound assembles the classifier's view of a message.
func buildInbound(msg *telegramMessage, chatType, botUser string, botID int64) relay.Inbound {
	text := strings.TrimSpace(messageTextOrCaption(msg))
	cmdWord, _ := splitCommand(text)
	in := relay.Inbound{
		Text:         text,
		IsDirect:     isDirectChat(chatType),
		BotMentioned: messageMentionsBot(msg, botUser, botID),
		HasURL:       messageHasURL(msg),
		Command:      normalizeSlashCommand(cmdWord),
	}
	if msg != nil && msg.ReplyTo != nil {
		in.IsReply = true
		in.ReplyText = strings.TrimSpace(messageTextOrCaption(msg.ReplyTo))
	}
	return in
}

func sliceByUTF16(s string, offset, length int) string {
	if offset < 0 {
		offset = 0
	}
	if length <= 0 || s == "" {
		return ""
	}
	start := utf16OffsetToByteIndex(s, offset)
	end := utf16OffsetToByteIndex(s, offset+length)
	if start < 0 {
		start = 0
	}
	if end > len(s) {
		end = len(s)
	}
	if start > end {
		return ""
	}
	return s[start:end]
}

func utf16OffsetToByteIndex(s string, offset int) int {
	if offset <= 0 {
		return 0
	}
	utf16Count := 0
	for i, r := range s {
		if utf16Count >= offset {
			return i
		}
		if r <= 0xFFFF {
			utf16Count++
		} else {
			utf16Count += 2
		}
	}
	return len(s)
}
