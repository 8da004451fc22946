// Package activity maintains the per-chat sliding window of message
// timestamps. Only event times are kept, never content, so the window
// is a pure magnitude signal.
package activity

import (
	"time"

	"github.com/janstenner/NickerchenBot/state"
)

const defaultMaxEntries = 10000

// Tracker prunes and counts timestamps inside a sliding window.
// MaxEntries is a safety cap against pathological bursts; the oldest
// entries are dropped first.
type Tracker struct {
	Window     time.Duration
	MaxEntries int
}

func NewTracker(window time.Duration) *Tracker {
	return &Tracker{Window: window, MaxEntries: defaultMaxEntries}
}

// Record appends now to the chat's window and prunes expired entries.
func (t *Tracker) Record(cs *state.ChatState, now time.Time) {
	cs.ActivityTimestamps = append(cs.ActivityTimestamps, now.Unix())
	t.prune(cs, now)
}

// Level prunes and returns the number of events inside the window.
func (t *Tracker) Level(cs *state.ChatState, now time.Time) int {
	t.prune(cs, now)
	return len(cs.ActivityTimestamps)
}

// PerMinute converts a window count into a messages-per-minute rate.
func (t *Tracker) PerMinute(count int) float64 {
	if t.Window <= 0 {
		return 0
	}
	return float64(count) * 60.0 / t.Window.Seconds()
}

func (t *Tracker) prune(cs *state.ChatState, now time.Time) {
	cutoff := now.Unix() - int64(t.Window.Seconds())
	kept := cs.ActivityTimestamps[:0]
	for _, ts := range cs.ActivityTimestamps {
		if ts >= cutoff {
			kept = append(kept, ts)
		}
	}
	maxEntries := t.MaxEntries
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	if len(kept) > maxEntries {
		kept = kept[len(kept)-maxEntries:]
	}
	cs.ActivityTimestamps = kept
}
