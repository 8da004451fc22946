package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/janstenner/NickerchenBot/bot"
	"github.com/janstenner/NickerchenBot/compose"
	"github.com/janstenner/NickerchenBot/internal/fsstore"
	"github.com/janstenner/NickerchenBot/internal/logutil"
	"github.com/janstenner/NickerchenBot/internal/statepaths"
	"github.com/janstenner/NickerchenBot/llm"
	"github.com/janstenner/NickerchenBot/notes"
	"github.com/janstenner/NickerchenBot/providers/openai"
	"github.com/janstenner/NickerchenBot/state"
	"github.com/janstenner/NickerchenBot/telegram"
	"github.com/janstenner/NickerchenBot/trigger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the bot: long-poll Telegram and post replies / ambient messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			token := strings.TrimSpace(flagOrViperString(cmd, "telegram-bot-token", "telegram.bot_token"))
			if token == "" {
				return fmt.Errorf("missing telegram.bot_token (set via --telegram-bot-token or %s_TELEGRAM_BOT_TOKEN)", envPrefix)
			}

			client, err := llmClientFromViper()
			if err != nil {
				return err
			}

			allowed, err := allowedChatIDs(flagOrViperStringArray(cmd, "telegram-allowed-chat-id", "telegram.allowed_chat_ids"))
			if err != nil {
				return err
			}

			notesDir := statepaths.NotesDir()
			if err := fsstore.EnsureDir(notesDir, 0o700); err != nil {
				return fmt.Errorf("create notes dir: %w", err)
			}

			pollTimeout := flagOrViperDuration(cmd, "telegram-poll-timeout", "telegram.poll_timeout")
			if pollTimeout <= 0 {
				pollTimeout = 25 * time.Second
			}

			api := telegram.NewAPI(nil, "", token)

			opts := bot.Options{
				Logger:      logger,
				Source:      api,
				Sender:      api,
				LLM:         client,
				Model:       viper.GetString("llm.model"),
				Store:       state.NewStore(statepaths.StateFilePath()),
				Notes: notes.NewStore(notes.Config{
					Dir:            notesDir,
					Reload:         viper.GetDuration("notes.reload"),
					StylePostFile:  viper.GetString("notes.style_post_filename"),
					StyleReplyFile: viper.GetString("notes.style_reply_filename"),
					MemoryFile:     viper.GetString("notes.memory_filename"),
					NicksFile:      viper.GetString("notes.nicks_filename"),
					MaxStyleChars:  viper.GetInt("notes.max_style_chars"),
					MemoryMaxChars: viper.GetInt("notes.memory_max_chars"),
				}, logger),
				BotUsername:    viper.GetString("telegram.bot_username"),
				AllowedChatIDs: allowed,
				PollTimeout:    pollTimeout,
				AmbientTick:    viper.GetDuration("ambient.tick"),
				ActivityWindow: viper.GetDuration("activity.window"),
				Ambient: trigger.AmbientConfig{
					Enabled:        viper.GetBool("ambient.enabled"),
					MinMessages:    viper.GetInt("activity.min_msgs_per_window"),
					Cooldown:       viper.GetDuration("ambient.cooldown"),
					MaxPostsPerDay: viper.GetInt("ambient.max_posts_per_day"),
				},
				Trigger: trigger.Config{
					QueueCap:        viper.GetInt("reply.queue_cap"),
					TimerThreshold:  viper.GetDuration("reply.queue_timer"),
					TimerMinEntries: viper.GetInt("reply.queue_min_entries"),
					ReplyEnabled:    viper.GetBool("reply.enabled"),
				},
				Limits: compose.Limits{
					MessageChars: viper.GetInt("limits.message_chars"),
					ReplyChars:   viper.GetInt("limits.reply_chars"),
				},
				MemoryMaxChars: viper.GetInt("notes.memory_max_chars"),
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return bot.Run(ctx, opts)
		},
	}

	cmd.Flags().String("telegram-bot-token", "", "Telegram bot token (falls back to telegram.bot_token).")
	cmd.Flags().StringArray("telegram-allowed-chat-id", nil, "Allowed group chat id (repeatable; empty allows all groups).")
	cmd.Flags().Duration("telegram-poll-timeout", 0, "Long-poll timeout (falls back to telegram.poll_timeout).")

	return cmd
}

func llmClientFromViper() (llm.Client, error) {
	provider := strings.ToLower(strings.TrimSpace(viper.GetString("llm.provider")))
	if provider != "" && provider != "openai" {
		return nil, fmt.Errorf("unsupported llm.provider: %s", provider)
	}
	apiKey := strings.TrimSpace(viper.GetString("llm.api_key"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing llm.api_key (set via %s_LLM_API_KEY)", envPrefix)
	}
	return openai.New(
		viper.GetString("llm.endpoint"),
		apiKey,
		viper.GetDuration("llm.request_timeout"),
	), nil
}

func allowedChatIDs(raw []string) ([]int64, error) {
	var ids []int64
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid telegram.allowed_chat_ids entry %q: %w", s, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
