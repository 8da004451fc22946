package main

import (
	"time"

	"github.com/spf13/viper"
)

func initViperDefaults() {
	// Telegram
	viper.SetDefault("telegram.bot_token", "")
	viper.SetDefault("telegram.bot_username", "")
	viper.SetDefault("telegram.allowed_chat_ids", []string{})
	viper.SetDefault("telegram.poll_timeout", 25*time.Second)

	// LLM
	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.endpoint", "https://api.openai.com/v1")
	viper.SetDefault("llm.api_key", "")
	viper.SetDefault("llm.model", "gpt-5-mini")
	viper.SetDefault("llm.request_timeout", 90*time.Second)

	// Activity tracking
	viper.SetDefault("activity.window", 300*time.Second)
	viper.SetDefault("activity.min_msgs_per_window", 3)

	// Ambient posting
	viper.SetDefault("ambient.enabled", true)
	viper.SetDefault("ambient.cooldown", 600*time.Second)
	viper.SetDefault("ambient.max_posts_per_day", 0)
	viper.SetDefault("ambient.tick", 10*time.Second)

	// Reply queue
	viper.SetDefault("reply.enabled", true)
	viper.SetDefault("reply.queue_timer", 120*time.Second)
	viper.SetDefault("reply.queue_min_entries", 2)
	viper.SetDefault("reply.queue_cap", 30)

	// Notes (style, memory, nicks)
	viper.SetDefault("notes.dir_name", "notes")
	viper.SetDefault("notes.reload", 60*time.Second)
	viper.SetDefault("notes.style_post_filename", "style_post.md")
	viper.SetDefault("notes.style_reply_filename", "style_reply.md")
	viper.SetDefault("notes.memory_filename", "MEMORY.md")
	viper.SetDefault("notes.nicks_filename", "nicks.txt")
	viper.SetDefault("notes.max_style_chars", 20000)
	viper.SetDefault("notes.memory_max_chars", 4000)

	// Prompt clamps
	viper.SetDefault("limits.message_chars", 1000)
	viper.SetDefault("limits.reply_chars", 500)

	// Global
	viper.SetDefault("file_state_dir", "~/.nickerchenbot")
}
