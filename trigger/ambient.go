package trigger

import (
	"time"

	"github.com/janstenner/NickerchenBot/state"
)

// Block reasons surfaced in debug logs.
const (
	BlockDisabled    = "disabled"
	BlockLowActivity = "low_activity"
	BlockCooldown    = "cooldown"
	BlockDailyCap    = "daily_cap"
)

type AmbientConfig struct {
	Enabled        bool
	MinMessages    int
	Cooldown       time.Duration
	MaxPostsPerDay int
}

// postDay is the day key for the lazy daily reset. Days roll over at
// UTC midnight.
func postDay(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}

// rollDay resets PostsToday when the stored date is not today.
func rollDay(cs *state.ChatState, now time.Time) {
	d := postDay(now)
	if cs.LastPostDate != d {
		cs.LastPostDate = d
		cs.PostsToday = 0
	}
}

// CanPostAmbient checks every ambient gate: enabled flag, activity
// level, cooldown since the last post, and the daily cap (0 =
// unlimited). Returns a block reason when posting is not allowed.
func CanPostAmbient(cs *state.ChatState, now time.Time, level int, cfg AmbientConfig) (bool, string) {
	if !cfg.Enabled {
		return false, BlockDisabled
	}
	if level < cfg.MinMessages {
		return false, BlockLowActivity
	}
	if cs.LastPostTime != nil && now.Unix()-*cs.LastPostTime < int64(cfg.Cooldown.Seconds()) {
		return false, BlockCooldown
	}
	if cfg.MaxPostsPerDay > 0 {
		rollDay(cs, now)
		if cs.PostsToday >= cfg.MaxPostsPerDay {
			return false, BlockDailyCap
		}
	}
	return true, ""
}

// CanPostReply checks only the daily cap; replies are exempt from the
// ambient cooldown and activity gates.
func CanPostReply(cs *state.ChatState, now time.Time, cfg AmbientConfig) (bool, string) {
	if cfg.MaxPostsPerDay <= 0 {
		return true, ""
	}
	rollDay(cs, now)
	if cs.PostsToday >= cfg.MaxPostsPerDay {
		return false, BlockDailyCap
	}
	return true, ""
}

// RegisterPost records a successful outgoing post (ambient or reply):
// cooldown anchor, day rollover, daily counter.
func RegisterPost(cs *state.ChatState, now time.Time) {
	ts := now.Unix()
	cs.LastPostTime = &ts
	rollDay(cs, now)
	cs.PostsToday++
}
