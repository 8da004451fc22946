package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/janstenner/NickerchenBot/internal/pathutil"
	"github.com/spf13/cobra"
)

// newInitCmd scaffolds the state directory with starter notes so the
// bot has a voice from its first run.
func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Initialize the state dir with config.yaml and starter note files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "~/.nickerchenbot/"
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				dir = args[0]
			}
			dir = pathutil.ExpandHomePath(dir)
			if strings.TrimSpace(dir) == "" {
				return fmt.Errorf("invalid dir")
			}
			dir = filepath.Clean(dir)

			if err := os.MkdirAll(dir, 0o700); err != nil {
				return err
			}

			cfgPath := filepath.Join(dir, "config.yaml")
			if _, err := os.Stat(cfgPath); err == nil {
				return fmt.Errorf("config already exists: %s", cfgPath)
			}
			if err := os.WriteFile(cfgPath, []byte(defaultConfigTemplate(dir)), 0o600); err != nil {
				return err
			}

			notesDir := filepath.Join(dir, "notes")
			if err := os.MkdirAll(notesDir, 0o700); err != nil {
				return err
			}
			starters := map[string]string{
				"style_post.md":  defaultStylePostTemplate(),
				"style_reply.md": defaultStyleReplyTemplate(),
				"nicks.txt":      defaultNicksTemplate(),
			}
			for name, body := range starters {
				p := filepath.Join(notesDir, name)
				if _, err := os.Stat(p); err == nil {
					continue
				}
				if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
					return err
				}
			}

			fmt.Printf("initialized %s\n", dir)
			return nil
		},
	}

	return cmd
}

func defaultConfigTemplate(dir string) string {
	dir = filepath.ToSlash(filepath.Clean(dir))
	return strings.Join([]string{
		"telegram:",
		`  bot_token: ""`,
		"  allowed_chat_ids: []",
		"",
		"llm:",
		`  api_key: ""`,
		`  model: "gpt-5-mini"`,
		"",
		fmt.Sprintf("file_state_dir: %q", dir),
		"",
	}, "\n")
}

func defaultStylePostTemplate() string {
	return strings.Join([]string{
		"# Posting style",
		"",
		"Short, casual, one thought per post. No hashtags, no emoji walls.",
		"",
	}, "\n")
}

func defaultStyleReplyTemplate() string {
	return strings.Join([]string{
		"# Reply style",
		"",
		"Answer what was actually asked. Keep it to a sentence or two.",
		"",
	}, "\n")
}

func defaultNicksTemplate() string {
	return strings.Join([]string{
		"# One nickname per line; lines starting with # are ignored.",
		"Nickerchen",
		"",
	}, "\n")
}
