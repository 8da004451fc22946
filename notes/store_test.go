package notes

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestStore(t *testing.T, cfg Config) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	cfg.Dir = dir
	return NewStore(cfg, testLogger()), dir
}

func TestStyleNoteMissingFile(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t, Config{})
	if got := s.StylePost(); got != "" {
		t.Fatalf("StylePost() = %q, want empty", got)
	}
}

func TestStyleNoteReloadInterval(t *testing.T) {
	t.Parallel()

	s, dir := newTestStore(t, Config{Reload: 60 * time.Second})
	base := time.Unix(1700000000, 0)
	now := base
	s.now = func() time.Time { return now }

	path := filepath.Join(dir, "style_post.md")
	if err := os.WriteFile(path, []byte("first"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if got := s.StylePost(); got != "first" {
		t.Fatalf("StylePost() = %q, want first", got)
	}

	if err := os.WriteFile(path, []byte("second"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	// Inside the interval the cache answers.
	now = base.Add(30 * time.Second)
	if got := s.StylePost(); got != "first" {
		t.Fatalf("StylePost() = %q, want cached first", got)
	}
	// Past the interval the file is re-read.
	now = base.Add(61 * time.Second)
	if got := s.StylePost(); got != "second" {
		t.Fatalf("StylePost() = %q, want second", got)
	}
}

func TestStyleNoteCappedLength(t *testing.T) {
	t.Parallel()

	s, dir := newTestStore(t, Config{MaxStyleChars: 10})
	path := filepath.Join(dir, "style_reply.md")
	if err := os.WriteFile(path, []byte(strings.Repeat("x", 50)), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if got := s.StyleReply(); len(got) != 10 {
		t.Fatalf("len(StyleReply()) = %d, want 10", len(got))
	}
}

func TestStyleNoteCapKeepsRunesIntact(t *testing.T) {
	t.Parallel()

	s, dir := newTestStore(t, Config{MaxStyleChars: 5})
	path := filepath.Join(dir, "style_post.md")
	if err := os.WriteFile(path, []byte(strings.Repeat("ä", 10)), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got := s.StylePost()
	if !utf8.ValidString(got) {
		t.Fatalf("StylePost() = %q, invalid UTF-8 after cap", got)
	}
	if n := utf8.RuneCountInString(got); n != 5 {
		t.Fatalf("rune count = %d, want 5", n)
	}
}

func TestRandomNick(t *testing.T) {
	t.Parallel()

	s, dir := newTestStore(t, Config{})
	if got := s.RandomNick(); got != "" {
		t.Fatalf("RandomNick() = %q, want empty without file", got)
	}

	path := filepath.Join(dir, "nicks.txt")
	content := "# comment\nSchnuffel\n\n  Mausi  \n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	// Fresh store, no cache of the missing file.
	s = NewStore(Config{Dir: dir}, testLogger())
	for i := 0; i < 20; i++ {
		got := s.RandomNick()
		if got != "Schnuffel" && got != "Mausi" {
			t.Fatalf("RandomNick() = %q, want Schnuffel or Mausi", got)
		}
	}
}

func TestSetLastAmbientPostCreatesNote(t *testing.T) {
	t.Parallel()

	s, dir := newTestStore(t, Config{})
	now := time.Date(2023, 11, 14, 12, 0, 0, 0, time.UTC)

	if err := s.SetLastAmbientPost("hello from the void", now); err != nil {
		t.Fatalf("SetLastAmbientPost() error = %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "MEMORY.md"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	fm, body, ok := ParseFrontmatter(string(raw))
	if !ok {
		t.Fatalf("ParseFrontmatter() ok = false")
	}
	if fm.UpdatedAt != "2023-11-14T12:00:00Z" {
		t.Fatalf("UpdatedAt = %q", fm.UpdatedAt)
	}
	if !strings.Contains(body, "## Last Ambient Post") {
		t.Fatalf("body missing section heading: %q", body)
	}
	if !strings.Contains(body, "hello from the void") {
		t.Fatalf("body missing post text: %q", body)
	}
}

func TestSetLastAmbientPostReplacesNotAppends(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t, Config{})
	now := time.Date(2023, 11, 14, 12, 0, 0, 0, time.UTC)

	for i, text := range []string{"post one", "post two", "post three"} {
		if err := s.SetLastAmbientPost(text, now.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("SetLastAmbientPost() error = %v", err)
		}
	}

	body := s.Memory()
	if strings.Count(body, "## Last Ambient Post") != 1 {
		t.Fatalf("section count = %d, want 1: %q", strings.Count(body, "## Last Ambient Post"), body)
	}
	if strings.Contains(body, "post one") || strings.Contains(body, "post two") {
		t.Fatalf("old posts still present: %q", body)
	}
	if !strings.Contains(body, "post three") {
		t.Fatalf("latest post missing: %q", body)
	}
}

func TestSetLastAmbientPostKeepsOtherSections(t *testing.T) {
	t.Parallel()

	s, dir := newTestStore(t, Config{})
	now := time.Date(2023, 11, 14, 12, 0, 0, 0, time.UTC)

	seed := "---\nsource: hand\n---\n\n## House Rules\n\nbe nice\n\n## Last Ambient Post\n\nold text\n"
	if err := os.WriteFile(filepath.Join(dir, "MEMORY.md"), []byte(seed), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := s.SetLastAmbientPost("new text", now); err != nil {
		t.Fatalf("SetLastAmbientPost() error = %v", err)
	}
	body := s.Memory()
	if !strings.Contains(body, "be nice") {
		t.Fatalf("other section lost: %q", body)
	}
	if strings.Contains(body, "old text") {
		t.Fatalf("old section text still present: %q", body)
	}
	if !strings.Contains(body, "new text") {
		t.Fatalf("new section text missing: %q", body)
	}
}

func TestMemoryBounded(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t, Config{MemoryMaxChars: 120})
	now := time.Date(2023, 11, 14, 12, 0, 0, 0, time.UTC)

	if err := s.SetLastAmbientPost(strings.Repeat("a", 500), now); err != nil {
		t.Fatalf("SetLastAmbientPost() error = %v", err)
	}
	if got := len(s.Memory()); got > 120 {
		t.Fatalf("len(Memory()) = %d, want <= 120", got)
	}
}

func TestMemoryClampKeepsRunesIntact(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t, Config{MemoryMaxChars: 60})
	now := time.Date(2023, 11, 14, 12, 0, 0, 0, time.UTC)

	if err := s.SetLastAmbientPost(strings.Repeat("ü", 200), now); err != nil {
		t.Fatalf("SetLastAmbientPost() error = %v", err)
	}
	body := s.Memory()
	if !utf8.ValidString(body) {
		t.Fatalf("Memory() = %q, invalid UTF-8 after clamp", body)
	}
	if n := utf8.RuneCountInString(body); n > 60 {
		t.Fatalf("rune count = %d, want <= 60", n)
	}
}

func TestReplaceSection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		content string
		want    string
	}{
		{
			name:    "empty body",
			body:    "",
			content: "x",
			want:    "## Last Ambient Post\n\nx\n",
		},
		{
			name:    "section at end",
			body:    "## A\n\na\n\n## Last Ambient Post\n\nold\n",
			content: "new",
			want:    "## A\n\na\n\n## Last Ambient Post\n\nnew\n",
		},
		{
			name:    "section in middle",
			body:    "## Last Ambient Post\n\nold\n\n## B\n\nb\n",
			content: "new",
			want:    "## Last Ambient Post\n\nnew\n\n## B\n\nb\n",
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ReplaceSection(tc.body, "Last Ambient Post", tc.content)
			if got != tc.want {
				t.Fatalf("ReplaceSection() = %q, want %q", got, tc.want)
			}
		})
	}
}
