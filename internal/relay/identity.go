package relay

import (
	"fmt"
	"strconv"
)

// IdentityKey derives the stable key that session state is stored under.
// It prefers the sender id and falls back to the chat id (channel posts have
// no sender). Both zero means the update cannot be attributed to anyone and
// must be dropped by the caller.
func IdentityKey(fromUserID, chatID int64) (string, error) {
	switch {
	case fromUserID != 0:
		return "tg:" + strconv.FormatInt(fromUserID, 10), nil
	case chatID != 0:
		return "tg:" + strconv.FormatInt(chatID, 10), nil
	default:
		return "", fmt.Errorf("identity is unresolvable: no sender and no chat id")
	}
}
