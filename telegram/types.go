package telegram

import "strings"

type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
	// Some clients @mention by editing an existing message.
	EditedMessage *Message `json:"edited_message,omitempty"`
}

type Message struct {
	MessageID       int64    `json:"message_id"`
	Date            int64    `json:"date,omitempty"`
	Chat            *Chat    `json:"chat,omitempty"`
	From            *User    `json:"from,omitempty"`
	ReplyTo         *Message `json:"reply_to_message,omitempty"`
	Entities        []Entity `json:"entities,omitempty"`
	Text            string   `json:"text,omitempty"`
	Caption         string   `json:"caption,omitempty"`
	CaptionEntities []Entity `json:"caption_entities,omitempty"`
}

type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type,omitempty"` // private|group|supergroup|channel
}

type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type Entity struct {
	Type   string `json:"type"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	User   *User  `json:"user,omitempty"` // for text_mention
}

// IsGroup reports whether the message lives in a group or supergroup.
func IsGroup(msg *Message) bool {
	if msg == nil || msg.Chat == nil {
		return false
	}
	t := strings.ToLower(strings.TrimSpace(msg.Chat.Type))
	return t == "group" || t == "supergroup"
}

// MessageText returns the text or, for media messages, the caption.
func MessageText(msg *Message) string {
	if msg == nil {
		return ""
	}
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

// NormalizeBotUsername lowercases and strips a leading "@".
func NormalizeBotUsername(value string) string {
	v := strings.TrimSpace(value)
	v = strings.TrimPrefix(v, "@")
	return strings.ToLower(v)
}
