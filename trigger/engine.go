// Package trigger decides when the bot speaks: immediately on a
// mention or reply-to-bot, on the queue timer once enough messages
// have accumulated, or ambiently from activity volume alone.
package trigger

import (
	"time"
)

const (
	ReasonMention = "mention"
	ReasonTimer   = "timer"
)

// Entry is one buffered message. The queue lives in memory only and is
// dropped wholesale when a reply fires.
type Entry struct {
	SenderID       int64
	SenderUsername string
	Text           string
	ReplyToText    string
	Timestamp      time.Time
	IsTrigger      bool
	MessageID      int64
}

// Fire is a consumed queue snapshot handed to the context assembler.
type Fire struct {
	ChatID           int64
	Entries          []Entry
	Reason           string
	ReplyToMessageID int64
}

type Config struct {
	QueueCap        int
	TimerThreshold  time.Duration
	TimerMinEntries int
	ReplyEnabled    bool
}

func (c Config) withDefaults() Config {
	if c.QueueCap <= 0 {
		c.QueueCap = 30
	}
	if c.TimerThreshold <= 0 {
		c.TimerThreshold = 120 * time.Second
	}
	if c.TimerMinEntries <= 0 {
		c.TimerMinEntries = 2
	}
	return c
}

type queueState int

const (
	stateIdle queueState = iota
	stateAwaitingTimer
)

type chatQueue struct {
	entries     []Entry
	state       queueState
	windowStart time.Time
	// entries appended since the window started; eviction does not
	// decrement this, only a drain resets it.
	sinceStart int
}

// Engine owns one queue per chat. It is not safe for concurrent use;
// the dispatch loop is the single caller.
type Engine struct {
	cfg   Config
	chats map[int64]*chatQueue
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults(), chats: map[int64]*chatQueue{}}
}

func (e *Engine) chat(chatID int64) *chatQueue {
	q, ok := e.chats[chatID]
	if !ok {
		q = &chatQueue{}
		e.chats[chatID] = q
	}
	return q
}

// QueueLen reports the current queue length for a chat.
func (e *Engine) QueueLen(chatID int64) int {
	if q, ok := e.chats[chatID]; ok {
		return len(q.entries)
	}
	return 0
}

// Observe appends entry to the chat's queue and reports an immediate
// fire when the entry is itself a mention/reply-to-bot. The oldest
// entry is evicted first when the cap would be exceeded; ingestion
// never blocks. With replies disabled the queue still accumulates but
// no fire is ever reported.
func (e *Engine) Observe(chatID int64, entry Entry) (Fire, bool) {
	q := e.chat(chatID)

	if len(q.entries) >= e.cfg.QueueCap {
		q.entries = q.entries[1:]
	}
	q.entries = append(q.entries, entry)

	if q.state == stateIdle {
		q.state = stateAwaitingTimer
		q.windowStart = entry.Timestamp
		q.sinceStart = 0
	}
	q.sinceStart++

	if !e.cfg.ReplyEnabled {
		return Fire{}, false
	}
	if !entry.IsTrigger {
		return Fire{}, false
	}
	return e.drain(chatID, q, ReasonMention, entry.MessageID), true
}

// EvaluateTimers fires every chat whose timer window has elapsed with
// enough accumulated entries. Called once per loop iteration; trigger
// latency is therefore capped by the loop period.
func (e *Engine) EvaluateTimers(now time.Time) []Fire {
	if !e.cfg.ReplyEnabled {
		return nil
	}
	var fires []Fire
	for chatID, q := range e.chats {
		if q.state != stateAwaitingTimer {
			continue
		}
		if now.Sub(q.windowStart) <= e.cfg.TimerThreshold {
			continue
		}
		if q.sinceStart < e.cfg.TimerMinEntries {
			continue
		}
		last := q.entries[len(q.entries)-1]
		fires = append(fires, e.drain(chatID, q, ReasonTimer, last.MessageID))
	}
	return fires
}

// Reset discards the chat's queue and returns it to idle. A fire
// already drains, so a failed generation needs no extra cleanup; this
// exists for callers that want to drop a queue without firing.
func (e *Engine) Reset(chatID int64) {
	if q, ok := e.chats[chatID]; ok {
		q.entries = nil
		q.state = stateIdle
		q.sinceStart = 0
	}
}

func (e *Engine) drain(chatID int64, q *chatQueue, reason string, replyTo int64) Fire {
	snapshot := make([]Entry, len(q.entries))
	copy(snapshot, q.entries)
	q.entries = nil
	q.state = stateIdle
	q.sinceStart = 0
	return Fire{
		ChatID:           chatID,
		Entries:          snapshot,
		Reason:           reason,
		ReplyToMessageID: replyTo,
	}
}
