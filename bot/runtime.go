// Package bot runs the dispatch loop: it pulls updates from the
// message source, feeds the activity tracker and reply queue, fires
// replies and ambient posts, and persists state after every mutation
// that matters for cooldown or cap correctness.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/janstenner/NickerchenBot/activity"
	"github.com/janstenner/NickerchenBot/compose"
	"github.com/janstenner/NickerchenBot/internal/logutil"
	"github.com/janstenner/NickerchenBot/llm"
	"github.com/janstenner/NickerchenBot/notes"
	"github.com/janstenner/NickerchenBot/state"
	"github.com/janstenner/NickerchenBot/telegram"
	"github.com/janstenner/NickerchenBot/trigger"
)

// Generation modes, bounded output length per mode.
const (
	ModeReply        = "reply"
	ModeAmbient      = "ambient"
	ModeMemoryUpdate = "memory_update"

	defaultReplyMaxTokens   = 140
	defaultAmbientMaxTokens = 60
	defaultMemoryMaxTokens  = 200

	maxBackoff = 60 * time.Second
)

// Source is the long-poll side of the Telegram API. nextOffset
// acknowledges everything received; acknowledged updates are never
// redelivered.
type Source interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, int64, error)
	GetMe(ctx context.Context) (*telegram.User, error)
}

// Sender posts generated text back into a chat.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, replyToMessageID int64) error
}

type Options struct {
	Logger *slog.Logger
	Source Source
	Sender Sender
	LLM    llm.Client
	Model  string
	Store  *state.Store
	Notes  *notes.Store

	BotUsername    string
	AllowedChatIDs []int64

	PollTimeout time.Duration
	AmbientTick time.Duration

	ActivityWindow time.Duration

	Ambient trigger.AmbientConfig
	Trigger trigger.Config

	Limits         compose.Limits
	MemoryMaxChars int

	// Now overrides the wall clock in tests.
	Now func() time.Time
}

func (o Options) validate() error {
	if o.Source == nil || o.Sender == nil {
		return fmt.Errorf("bot: missing telegram transport")
	}
	if o.LLM == nil {
		return fmt.Errorf("bot: missing llm client")
	}
	if o.Store == nil {
		return fmt.Errorf("bot: missing state store")
	}
	if o.Notes == nil {
		return fmt.Errorf("bot: missing note store")
	}
	return nil
}

type runtime struct {
	opts    Options
	logger  *slog.Logger
	now     func() time.Time
	allowed map[int64]bool

	tracker *activity.Tracker
	engine  *trigger.Engine
	snap    *state.Snapshot

	botUsername string
	botID       int64

	// pendingSave survives a failed write so the next iteration
	// retries; the in-memory snapshot stays authoritative.
	pendingSave bool
}

// Run drives the bot until ctx is canceled. It returns nil on a clean
// shutdown and an error only for unrecoverable startup problems.
func Run(ctx context.Context, opts Options) error {
	if err := opts.validate(); err != nil {
		return err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	nowFn := opts.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 25 * time.Second
	}
	if opts.AmbientTick <= 0 {
		opts.AmbientTick = 10 * time.Second
	}

	snap, err := opts.Store.Load()
	if err != nil {
		logger.Warn("state_load_error", "error", err.Error())
	}

	r := &runtime{
		opts:    opts,
		logger:  logger,
		now:     nowFn,
		allowed: map[int64]bool{},
		tracker: activity.NewTracker(opts.ActivityWindow),
		engine:  trigger.NewEngine(opts.Trigger),
		snap:    snap,
	}
	for _, id := range opts.AllowedChatIDs {
		if id != 0 {
			r.allowed[id] = true
		}
	}

	r.resolveIdentity(ctx)

	logger.Info("bot_start",
		"bot_username", r.botUsername,
		"allowed_chats", len(r.allowed),
		"reply_enabled", opts.Trigger.ReplyEnabled,
		"ambient_enabled", opts.Ambient.Enabled,
		"activity_window", opts.ActivityWindow.String(),
		"activity_min_msgs", opts.Ambient.MinMessages,
		"ambient_cooldown", opts.Ambient.Cooldown.String(),
		"max_posts_per_day", opts.Ambient.MaxPostsPerDay,
	)

	r.loop(ctx)

	if r.pendingSave {
		if err := opts.Store.Save(r.snap); err != nil {
			logger.Error("state_save_error", "stage", "shutdown", "error", err.Error())
		}
	}
	logger.Info("bot_stop")
	return nil
}

// resolveIdentity fills the bot username/id via getMe. With a
// configured username a failed getMe only costs text_mention
// detection; without one the loop keeps trying, since mention
// detection cannot work at all until it succeeds.
func (r *runtime) resolveIdentity(ctx context.Context) {
	r.botUsername = telegram.NormalizeBotUsername(r.opts.BotUsername)
	for {
		me, err := r.opts.Source.GetMe(ctx)
		if err == nil {
			r.botID = me.ID
			if r.botUsername == "" {
				r.botUsername = telegram.NormalizeBotUsername(me.Username)
			}
			if r.botUsername == "" {
				r.logger.Warn("bot_username_empty")
			}
			return
		}
		if r.botUsername != "" {
			return
		}
		r.logger.Warn("bot_get_me_error", "error", err.Error())
		if !sleepCtx(ctx, 2*time.Second) {
			return
		}
	}
}

func (r *runtime) loop(ctx context.Context) {
	backoff := 2 * time.Second
	nextAmbient := r.now().Add(r.opts.AmbientTick)

	for {
		if ctx.Err() != nil {
			return
		}

		pollTimeout := r.opts.PollTimeout
		if until := nextAmbient.Sub(r.now()); until < pollTimeout {
			pollTimeout = until
		}
		if pollTimeout < time.Second {
			pollTimeout = time.Second
		}

		updates, nextOffset, err := r.opts.Source.GetUpdates(ctx, r.snap.TelegramOffset, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if telegram.IsPollTimeout(err) {
				r.logger.Debug("poll_timeout", "error", err.Error())
			} else {
				r.logger.Warn("poll_error", "error", err.Error())
				if !sleepCtx(ctx, backoff) {
					return
				}
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
			}
			continue
		}
		backoff = 2 * time.Second

		if nextOffset != r.snap.TelegramOffset {
			r.snap.TelegramOffset = nextOffset
			r.pendingSave = true
		}

		for _, u := range updates {
			msg := u.Message
			if msg == nil {
				msg = u.EditedMessage
			}
			if msg == nil {
				continue
			}
			r.handleMessage(ctx, msg)
		}

		now := r.now()
		for _, fire := range r.engine.EvaluateTimers(now) {
			r.fireReply(ctx, fire, now)
		}

		if !r.now().Before(nextAmbient) {
			r.ambientPass(ctx)
			nextAmbient = r.now().Add(r.opts.AmbientTick)
		}

		if r.pendingSave {
			if err := r.opts.Store.Save(r.snap); err != nil {
				r.logger.Warn("state_save_error", "error", err.Error())
			} else {
				r.pendingSave = false
			}
		}
	}
}

func (r *runtime) chatAllowed(chatID int64) bool {
	if len(r.allowed) == 0 {
		return true
	}
	return r.allowed[chatID]
}

func (r *runtime) handleMessage(ctx context.Context, msg *telegram.Message) {
	if !telegram.IsGroup(msg) {
		return
	}
	chatID := msg.Chat.ID
	if !r.chatAllowed(chatID) {
		return
	}

	now := r.now()
	cs := r.snap.Chat(chatID)
	r.tracker.Record(cs, now)
	r.pendingSave = true

	text := strings.TrimSpace(telegram.MessageText(msg))
	mentioned := telegram.IsMention(msg, r.botUsername, r.botID)
	replied := telegram.IsReplyToBot(msg, r.botUsername)

	entry := trigger.Entry{
		Text:      text,
		Timestamp: now,
		IsTrigger: mentioned || replied,
		MessageID: msg.MessageID,
	}
	if msg.From != nil {
		entry.SenderID = msg.From.ID
		entry.SenderUsername = msg.From.Username
	}
	if entry.IsTrigger && msg.ReplyTo != nil {
		entry.ReplyToText = strings.TrimSpace(telegram.MessageText(msg.ReplyTo))
	}

	level := r.tracker.Level(cs, now)
	r.logger.Debug("message_observed",
		"chat", logutil.MaskChatID(chatID),
		"message_id", msg.MessageID,
		"mention", mentioned,
		"reply_to_bot", replied,
		"activity_level", level,
		"queue_len", r.engine.QueueLen(chatID),
	)

	if fire, ok := r.engine.Observe(chatID, entry); ok {
		r.fireReply(ctx, fire, now)
	}
}

// fireReply runs a drained queue snapshot through the generator and
// posts the result. The snapshot is consumed either way: a failed
// attempt is logged and dropped rather than retried, so a flaky
// backend cannot build a backlog.
func (r *runtime) fireReply(ctx context.Context, fire trigger.Fire, now time.Time) {
	cs := r.snap.Chat(fire.ChatID)
	chat := logutil.MaskChatID(fire.ChatID)

	if ok, reason := trigger.CanPostReply(cs, now, r.opts.Ambient); !ok {
		r.logger.Info("reply_skipped", "chat", chat, "reason", reason)
		return
	}

	prompt := compose.Reply(fire.Entries, r.opts.Notes.StyleReply(), r.opts.Notes.Memory(), r.opts.Limits)
	text, ok := r.generate(ctx, ModeReply, prompt, defaultReplyMaxTokens, chat, fire.Reason)
	if !ok {
		return
	}

	if err := r.opts.Sender.SendMessage(ctx, fire.ChatID, text, fire.ReplyToMessageID); err != nil {
		r.logger.Warn("reply_send_error", "chat", chat, "error", err.Error())
		return
	}

	trigger.RegisterPost(cs, now)
	r.pendingSave = true
	r.logger.Info("reply_posted", "chat", chat, "reason", fire.Reason, "entries", len(fire.Entries))
}

// ambientPass evaluates every candidate chat: the allow list when
// configured, otherwise every chat the snapshot has seen.
func (r *runtime) ambientPass(ctx context.Context) {
	var candidates []int64
	if len(r.allowed) > 0 {
		for id := range r.allowed {
			candidates = append(candidates, id)
		}
	} else {
		candidates = r.snap.ChatIDs()
	}
	for _, chatID := range candidates {
		r.maybePostAmbient(ctx, chatID)
	}
}

func (r *runtime) maybePostAmbient(ctx context.Context, chatID int64) {
	now := r.now()
	cs := r.snap.Chat(chatID)
	level := r.tracker.Level(cs, now)
	chat := logutil.MaskChatID(chatID)

	ok, reason := trigger.CanPostAmbient(cs, now, level, r.opts.Ambient)
	if !ok {
		if reason != trigger.BlockLowActivity && reason != trigger.BlockDisabled {
			r.logger.Debug("ambient_blocked", "chat", chat, "reason", reason)
		}
		return
	}

	prompt := compose.Ambient(
		r.opts.Notes.StylePost(),
		r.opts.Notes.Memory(),
		r.opts.Notes.RandomNick(),
		level,
		r.tracker.PerMinute(level),
	)
	text, genOK := r.generate(ctx, ModeAmbient, prompt, defaultAmbientMaxTokens, chat, "activity")
	if !genOK {
		// Counted as a spent attempt: the cooldown anchor moves so a
		// failing backend is not hammered every tick.
		trigger.RegisterPost(cs, now)
		r.pendingSave = true
		return
	}

	if err := r.opts.Sender.SendMessage(ctx, chatID, text, 0); err != nil {
		r.logger.Warn("ambient_send_error", "chat", chat, "error", err.Error())
		trigger.RegisterPost(cs, now)
		r.pendingSave = true
		return
	}

	trigger.RegisterPost(cs, now)
	r.pendingSave = true
	r.logger.Info("ambient_posted", "chat", chat, "activity_level", level)

	if err := r.opts.Notes.SetLastAmbientPost(text, now); err != nil {
		r.logger.Warn("memory_note_error", "error", err.Error())
		return
	}
	r.maybeCondenseMemory(ctx, chat)
}

// maybeCondenseMemory shrinks the memory note through the generator
// once it reaches its budget. The note store already hard-clamps, so a
// failed condense only costs fidelity, never correctness.
func (r *runtime) maybeCondenseMemory(ctx context.Context, chat string) {
	if !r.opts.Notes.MemoryOverBudget() {
		return
	}
	maxChars := r.opts.MemoryMaxChars
	if maxChars <= 0 {
		maxChars = notes.DefaultMemoryMaxChars
	}
	prompt := compose.CondenseMemory(r.opts.Notes.Memory(), maxChars)
	text, ok := r.generate(ctx, ModeMemoryUpdate, prompt, defaultMemoryMaxTokens, chat, "memory_budget")
	if !ok {
		return
	}
	err := r.opts.Notes.SetMemoryBody(func(string) string { return text }, r.now())
	if err != nil {
		r.logger.Warn("memory_note_error", "error", err.Error())
	}
}

// generate performs one bounded, at-most-once generation call. Prompt
// content never reaches the logs; failures are summarized.
func (r *runtime) generate(ctx context.Context, mode, prompt string, maxTokens int, chat, reason string) (string, bool) {
	correlationID := uuid.NewString()
	res, err := r.opts.LLM.Chat(ctx, llm.Request{
		Model:     r.opts.Model,
		Messages:  []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens: maxTokens,
	})
	if err != nil {
		r.logger.Warn("generate_error",
			"mode", mode, "chat", chat, "reason", reason,
			"correlation_id", correlationID, "error", err.Error(),
		)
		return "", false
	}
	text := strings.TrimSpace(res.Text)
	if text == "" {
		r.logger.Warn("generate_empty",
			"mode", mode, "chat", chat, "reason", reason,
			"correlation_id", correlationID,
		)
		return "", false
	}
	r.logger.Debug("generate_ok",
		"mode", mode, "chat", chat, "reason", reason,
		"correlation_id", correlationID,
		"duration", res.Duration.String(),
		"output_tokens", res.Usage.OutputTokens,
	)
	return text, true
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
