// Package compose assembles the bounded prompt payloads for the text
// generator. Reply prompts carry the drained queue transcript; ambient
// prompts carry style, memory and activity magnitude only — never
// message content.
package compose

import (
	"fmt"
	"strings"

	"github.com/janstenner/NickerchenBot/trigger"
)

type Limits struct {
	MessageChars int
	ReplyChars   int
}

func (l Limits) withDefaults() Limits {
	if l.MessageChars <= 0 {
		l.MessageChars = 1000
	}
	if l.ReplyChars <= 0 {
		l.ReplyChars = 500
	}
	return l
}

// Clamp hard-truncates s to at most max runes. Truncation happens
// before the generation call and is never renegotiated afterwards.
func Clamp(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func orNone(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(none)"
	}
	return s
}

func senderLabel(e trigger.Entry) string {
	if u := strings.TrimSpace(e.SenderUsername); u != "" {
		return "@" + u
	}
	return fmt.Sprintf("user_%d", e.SenderID)
}

// Reply builds the prompt for a mention or queue-timer reply. Each
// transcript line is clamped to MessageChars; the replied-to text of
// the trigger message is clamped to ReplyChars.
func Reply(entries []trigger.Entry, styleReply, memory string, lim Limits) string {
	lim = lim.withDefaults()

	var transcript strings.Builder
	var repliedTo string
	for _, e := range entries {
		transcript.WriteString(senderLabel(e))
		transcript.WriteString(": ")
		transcript.WriteString(Clamp(strings.TrimSpace(e.Text), lim.MessageChars))
		transcript.WriteString("\n")
		if e.IsTrigger && e.ReplyToText != "" {
			repliedTo = Clamp(strings.TrimSpace(e.ReplyToText), lim.ReplyChars)
		}
	}

	var b strings.Builder
	b.WriteString("You are a concise Telegram group assistant. ")
	b.WriteString("Follow the style notes exactly. Keep output short and safe.")
	b.WriteString("\n\nStyle notes:\n")
	b.WriteString(orNone(styleReply))
	b.WriteString("\n\nMemory notes:\n")
	b.WriteString(orNone(memory))
	b.WriteString("\n\nRecent messages (oldest first):\n")
	b.WriteString(orNone(transcript.String()))
	if repliedTo != "" {
		b.WriteString("\n\nReplied-to message:\n")
		b.WriteString(repliedTo)
	}
	b.WriteString("\n\nTask: Reply to the latest message addressed to you.")
	return b.String()
}

// Ambient builds the prompt for an activity-triggered post. No queue
// content is ever included, only the activity magnitude.
func Ambient(stylePost, memory, nick string, count int, perMin float64) string {
	var b strings.Builder
	b.WriteString("You are a concise Telegram group assistant. ")
	b.WriteString("Generate exactly one harmless sentence with no assumptions about specific chat content.")
	b.WriteString("\n\nStyle notes:\n")
	b.WriteString(orNone(stylePost))
	b.WriteString("\n\nMemory notes:\n")
	b.WriteString(orNone(memory))
	if nick = strings.TrimSpace(nick); nick != "" {
		b.WriteString("\n\nIf it fits, address the group member nicknamed: ")
		b.WriteString(nick)
	}
	b.WriteString("\n\nActivity metrics only:")
	fmt.Fprintf(&b, "\ncount_in_window=%d", count)
	fmt.Fprintf(&b, "\nmsgs_per_min=%.2f", perMin)
	b.WriteString("\n\nTask: Produce one short ambient comment.")
	return b.String()
}

// CondenseMemory builds the memory_update prompt used when the memory
// note has grown to its budget.
func CondenseMemory(memory string, maxChars int) string {
	var b strings.Builder
	b.WriteString("Condense the following memory notes. ")
	fmt.Fprintf(&b, "Keep every section heading, drop redundancy, stay under %d characters.", maxChars)
	b.WriteString("\n\nMemory notes:\n")
	b.WriteString(orNone(memory))
	b.WriteString("\n\nTask: Return only the condensed notes.")
	return b.String()
}
