// Package state persists the per-chat counters the bot needs across
// restarts: activity timestamps, ambient cooldown and daily-cap
// bookkeeping, and the Telegram update offset. Message text is never
// stored.
package state

import (
	"sort"
	"strconv"
)

// ChatState is the persisted record for one chat. Timestamps are epoch
// seconds; LastPostTime is nil until the first post. LastPostDate is a
// UTC "2006-01-02" date used for the lazy daily-cap reset.
type ChatState struct {
	ActivityTimestamps []int64 `json:"activity_timestamps"`
	LastPostTime       *int64  `json:"last_post_time"`
	PostsToday         int     `json:"posts_today"`
	LastPostDate       string  `json:"last_post_date"`
}

// Snapshot is the whole persisted state: the acknowledgment offset for
// the Telegram long poll plus every known chat, keyed by decimal id.
type Snapshot struct {
	TelegramOffset int64                 `json:"telegram_offset"`
	Chats          map[string]*ChatState `json:"chats"`
}

func NewSnapshot() *Snapshot {
	return &Snapshot{Chats: map[string]*ChatState{}}
}

func (s *Snapshot) normalize() {
	if s.Chats == nil {
		s.Chats = map[string]*ChatState{}
	}
	for key, cs := range s.Chats {
		if cs == nil {
			s.Chats[key] = &ChatState{ActivityTimestamps: []int64{}}
			continue
		}
		if cs.ActivityTimestamps == nil {
			cs.ActivityTimestamps = []int64{}
		}
	}
}

// Chat returns the state record for chatID, creating it lazily on
// first access.
func (s *Snapshot) Chat(chatID int64) *ChatState {
	if s.Chats == nil {
		s.Chats = map[string]*ChatState{}
	}
	key := strconv.FormatInt(chatID, 10)
	cs, ok := s.Chats[key]
	if !ok || cs == nil {
		cs = &ChatState{ActivityTimestamps: []int64{}}
		s.Chats[key] = cs
	}
	return cs
}

// ChatIDs returns every chat id the snapshot knows, sorted. Keys that
// do not parse as integers are skipped.
func (s *Snapshot) ChatIDs() []int64 {
	ids := make([]int64, 0, len(s.Chats))
	for key := range s.Chats {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
