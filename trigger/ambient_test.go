package trigger

import (
	"testing"
	"time"

	"github.com/janstenner/NickerchenBot/activity"
	"github.com/janstenner/NickerchenBot/state"
)

func ambientConfig() AmbientConfig {
	return AmbientConfig{
		Enabled:        true,
		MinMessages:    3,
		Cooldown:       600 * time.Second,
		MaxPostsPerDay: 0,
	}
}

func TestAmbientDisabled(t *testing.T) {
	t.Parallel()

	cfg := ambientConfig()
	cfg.Enabled = false
	cs := &state.ChatState{}

	ok, reason := CanPostAmbient(cs, time.Unix(1700000000, 0), 100, cfg)
	if ok {
		t.Fatalf("CanPostAmbient() = true with ambient disabled")
	}
	if reason != BlockDisabled {
		t.Fatalf("reason = %q, want %q", reason, BlockDisabled)
	}
}

func TestAmbientNeedsActivity(t *testing.T) {
	t.Parallel()

	cs := &state.ChatState{}
	ok, reason := CanPostAmbient(cs, time.Unix(1700000000, 0), 2, ambientConfig())
	if ok {
		t.Fatalf("CanPostAmbient() = true below activity minimum")
	}
	if reason != BlockLowActivity {
		t.Fatalf("reason = %q, want %q", reason, BlockLowActivity)
	}
}

func TestAmbientCooldownScenario(t *testing.T) {
	t.Parallel()

	// window=300s, min_msgs=3, cooldown=600s, cap=0; three messages in
	// 120s with no prior post fire once, a fourth 30s later does not.
	tr := activity.NewTracker(300 * time.Second)
	cfg := ambientConfig()
	cs := &state.ChatState{}
	base := time.Unix(1700000000, 0)

	tr.Record(cs, base)
	tr.Record(cs, base.Add(60*time.Second))
	tr.Record(cs, base.Add(120*time.Second))

	now := base.Add(120 * time.Second)
	ok, _ := CanPostAmbient(cs, now, tr.Level(cs, now), cfg)
	if !ok {
		t.Fatalf("CanPostAmbient() = false, want fire")
	}
	RegisterPost(cs, now)

	later := now.Add(30 * time.Second)
	tr.Record(cs, later)
	ok, reason := CanPostAmbient(cs, later, tr.Level(cs, later), cfg)
	if ok {
		t.Fatalf("CanPostAmbient() = true inside cooldown")
	}
	if reason != BlockCooldown {
		t.Fatalf("reason = %q, want %q", reason, BlockCooldown)
	}
}

func TestAmbientCooldownElapsed(t *testing.T) {
	t.Parallel()

	cfg := ambientConfig()
	cs := &state.ChatState{}
	base := time.Unix(1700000000, 0)
	RegisterPost(cs, base)

	ok, _ := CanPostAmbient(cs, base.Add(600*time.Second), 10, cfg)
	if !ok {
		t.Fatalf("CanPostAmbient() = false after cooldown elapsed")
	}
}

func TestDailyCapNeverExceeded(t *testing.T) {
	t.Parallel()

	cfg := ambientConfig()
	cfg.MaxPostsPerDay = 2
	cfg.Cooldown = 0
	cs := &state.ChatState{}
	base := time.Date(2023, 11, 14, 10, 0, 0, 0, time.UTC)

	fired := 0
	for i := 0; i < 10; i++ {
		now := base.Add(time.Duration(i) * time.Minute)
		if ok, _ := CanPostAmbient(cs, now, 10, cfg); ok {
			RegisterPost(cs, now)
			fired++
		}
	}
	if fired != 2 {
		t.Fatalf("fired = %d, want 2", fired)
	}
	if cs.PostsToday > cfg.MaxPostsPerDay {
		t.Fatalf("PostsToday = %d, exceeds cap %d", cs.PostsToday, cfg.MaxPostsPerDay)
	}
}

func TestDailyCapResetsAtUTCDayBoundary(t *testing.T) {
	t.Parallel()

	cfg := ambientConfig()
	cfg.MaxPostsPerDay = 1
	cfg.Cooldown = 0
	cs := &state.ChatState{}

	day1 := time.Date(2023, 11, 14, 23, 50, 0, 0, time.UTC)
	if ok, _ := CanPostAmbient(cs, day1, 10, cfg); !ok {
		t.Fatalf("CanPostAmbient() = false on first post of the day")
	}
	RegisterPost(cs, day1)

	if ok, reason := CanPostAmbient(cs, day1.Add(time.Minute), 10, cfg); ok || reason != BlockDailyCap {
		t.Fatalf("CanPostAmbient() = %v (%q), want capped", ok, reason)
	}

	day2 := time.Date(2023, 11, 15, 0, 5, 0, 0, time.UTC)
	if ok, _ := CanPostAmbient(cs, day2, 10, cfg); !ok {
		t.Fatalf("CanPostAmbient() = false after day rollover")
	}
}

func TestCanPostReplyCapOnly(t *testing.T) {
	t.Parallel()

	cfg := ambientConfig()
	now := time.Date(2023, 11, 14, 10, 0, 0, 0, time.UTC)

	// Unlimited cap: always allowed, even right after a post.
	cs := &state.ChatState{}
	RegisterPost(cs, now)
	if ok, _ := CanPostReply(cs, now.Add(time.Second), cfg); !ok {
		t.Fatalf("CanPostReply() = false with unlimited cap")
	}

	cfg.MaxPostsPerDay = 1
	if ok, reason := CanPostReply(cs, now.Add(time.Second), cfg); ok || reason != BlockDailyCap {
		t.Fatalf("CanPostReply() = %v (%q), want capped", ok, reason)
	}
}

func TestRegisterPostBookkeeping(t *testing.T) {
	t.Parallel()

	cs := &state.ChatState{}
	now := time.Date(2023, 11, 14, 10, 0, 0, 0, time.UTC)
	RegisterPost(cs, now)

	if cs.LastPostTime == nil || *cs.LastPostTime != now.Unix() {
		t.Fatalf("LastPostTime = %v, want %d", cs.LastPostTime, now.Unix())
	}
	if cs.PostsToday != 1 {
		t.Fatalf("PostsToday = %d, want 1", cs.PostsToday)
	}
	if cs.LastPostDate != "2023-11-14" {
		t.Fatalf("LastPostDate = %q, want 2023-11-14", cs.LastPostDate)
	}

	RegisterPost(cs, now.Add(time.Hour))
	if cs.PostsToday != 2 {
		t.Fatalf("PostsToday = %d, want 2", cs.PostsToday)
	}
}
