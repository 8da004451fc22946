package compose

import (
	"strings"
	"testing"
	"time"

	"github.com/janstenner/NickerchenBot/trigger"
)

func TestClamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"shorter than max", "abc", 10, "abc"},
		{"exactly max", "abcde", 5, "abcde"},
		{"truncated", "abcdef", 3, "abc"},
		{"zero max", "abc", 0, ""},
		{"multibyte safe", "äöüäöü", 3, "äöü"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Clamp(tc.in, tc.max); got != tc.want {
				t.Fatalf("Clamp(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
			}
		})
	}
}

func TestReplyIncludesTranscriptAndNotes(t *testing.T) {
	t.Parallel()

	entries := []trigger.Entry{
		{SenderUsername: "alice", Text: "hi there", Timestamp: time.Unix(1, 0)},
		{SenderID: 42, Text: "what about the bot?", IsTrigger: true, ReplyToText: "earlier bot line"},
	}
	got := Reply(entries, "dry humor", "likes cats", Limits{})

	for _, want := range []string{"@alice: hi there", "user_42: what about the bot?", "dry humor", "likes cats", "Replied-to message:\nearlier bot line"} {
		if !strings.Contains(got, want) {
			t.Fatalf("Reply() missing %q in:\n%s", want, got)
		}
	}
}

func TestReplyClampsMessageText(t *testing.T) {
	t.Parallel()

	entries := []trigger.Entry{
		{SenderUsername: "bob", Text: strings.Repeat("x", 2000), IsTrigger: true, ReplyToText: strings.Repeat("y", 900)},
	}
	got := Reply(entries, "", "", Limits{MessageChars: 1000, ReplyChars: 500})

	if strings.Contains(got, strings.Repeat("x", 1001)) {
		t.Fatalf("Reply() message text not clamped to 1000")
	}
	if !strings.Contains(got, strings.Repeat("x", 1000)) {
		t.Fatalf("Reply() message text over-clamped")
	}
	if strings.Contains(got, strings.Repeat("y", 501)) {
		t.Fatalf("Reply() replied-to text not clamped to 500")
	}
}

func TestAmbientNeverContainsQueueContent(t *testing.T) {
	t.Parallel()

	got := Ambient("cheerful", "likes cats", "Schnuffel", 7, 1.4)
	for _, want := range []string{"cheerful", "likes cats", "Schnuffel", "count_in_window=7", "msgs_per_min=1.40"} {
		if !strings.Contains(got, want) {
			t.Fatalf("Ambient() missing %q in:\n%s", want, got)
		}
	}
}

func TestAmbientWithoutNick(t *testing.T) {
	t.Parallel()

	got := Ambient("", "", "", 3, 0.6)
	if strings.Contains(got, "nicknamed") {
		t.Fatalf("Ambient() mentions nick without one: %s", got)
	}
	if !strings.Contains(got, "Style notes:\n(none)") {
		t.Fatalf("Ambient() missing style placeholder: %s", got)
	}
}

func TestCondenseMemory(t *testing.T) {
	t.Parallel()

	got := CondenseMemory("## A\nlots of text", 4000)
	if !strings.Contains(got, "under 4000 characters") {
		t.Fatalf("CondenseMemory() missing budget: %s", got)
	}
	if !strings.Contains(got, "## A") {
		t.Fatalf("CondenseMemory() missing notes: %s", got)
	}
}
