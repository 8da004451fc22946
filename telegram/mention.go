package telegram

import "strings"

// IsMention reports whether the message addresses the bot. It prefers
// Telegram's entities (mention, text_mention) and falls back to a
// case-insensitive @username substring check for clients that omit
// them. botID 0 disables the text_mention check.
func IsMention(msg *Message, botUsername string, botID int64) bool {
	botUsername = NormalizeBotUsername(botUsername)
	text := strings.TrimSpace(MessageText(msg))
	if msg == nil || text == "" {
		return false
	}

	entities := msg.Entities
	if strings.TrimSpace(msg.Text) == "" && strings.TrimSpace(msg.Caption) != "" {
		entities = msg.CaptionEntities
	}
	for _, e := range entities {
		switch strings.ToLower(strings.TrimSpace(e.Type)) {
		case "text_mention":
			if botID != 0 && e.User != nil && e.User.ID == botID {
				return true
			}
		case "mention":
			if botUsername != "" {
				mention := sliceByUTF16(text, e.Offset, e.Length)
				if strings.EqualFold(mention, "@"+botUsername) {
					return true
				}
			}
		}
	}

	if botUsername != "" && strings.Contains(strings.ToLower(text), "@"+botUsername) {
		return true
	}
	return false
}

// IsReplyToBot reports whether the message replies to one of the bot's
// own messages. Without a known username any bot counts, matching the
// behavior before getMe resolved.
func IsReplyToBot(msg *Message, botUsername string) bool {
	if msg == nil || msg.ReplyTo == nil || msg.ReplyTo.From == nil {
		return false
	}
	from := msg.ReplyTo.From
	if !from.IsBot {
		return false
	}
	botUsername = NormalizeBotUsername(botUsername)
	if botUsername == "" {
		return true
	}
	return NormalizeBotUsername(from.Username) == botUsername
}

// Telegram entity offsets count UTF-16 code units, not bytes or runes.
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
