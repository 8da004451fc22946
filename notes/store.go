// Package notes serves the on-disk text assets the bot generates from:
// style notes for posts and replies, the memory note, and the nick
// list. Files are cached and re-read on an interval so edits land
// without a restart.
package notes

import (
	"log/slog"
	"math/rand"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/janstenner/NickerchenBot/compose"
	"github.com/janstenner/NickerchenBot/internal/fsstore"
)

const (
	DefaultMaxStyleChars  = 20000
	DefaultMemoryMaxChars = 4000

	lastAmbientHeading = "Last Ambient Post"
)

type Config struct {
	Dir            string
	Reload         time.Duration
	StylePostFile  string
	StyleReplyFile string
	MemoryFile     string
	NicksFile      string
	MaxStyleChars  int
	MemoryMaxChars int
}

func (c Config) withDefaults() Config {
	if c.Reload <= 0 {
		c.Reload = 60 * time.Second
	}
	if c.StylePostFile == "" {
		c.StylePostFile = "style_post.md"
	}
	if c.StyleReplyFile == "" {
		c.StyleReplyFile = "style_reply.md"
	}
	if c.MemoryFile == "" {
		c.MemoryFile = "MEMORY.md"
	}
	if c.NicksFile == "" {
		c.NicksFile = "nicks.txt"
	}
	if c.MaxStyleChars <= 0 {
		c.MaxStyleChars = DefaultMaxStyleChars
	}
	if c.MemoryMaxChars <= 0 {
		c.MemoryMaxChars = DefaultMemoryMaxChars
	}
	return c
}

type cacheEntry struct {
	content  string
	loadedAt time.Time
	warned   bool
}

// Store caches each note and refreshes it lazily once the reload
// interval has elapsed. Not safe for concurrent use; the dispatch loop
// is the single caller.
type Store struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
	rand   *rand.Rand
	cache  map[string]*cacheEntry
}

func NewStore(cfg Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		cfg:    cfg.withDefaults(),
		logger: logger,
		now:    time.Now,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  map[string]*cacheEntry{},
	}
}

func (s *Store) Dir() string {
	return s.cfg.Dir
}

func (s *Store) path(filename string) string {
	return filepath.Join(s.cfg.Dir, filepath.Base(filename))
}

func (s *Store) get(filename string) string {
	entry, ok := s.cache[filename]
	if ok && s.now().Sub(entry.loadedAt) < s.cfg.Reload {
		return entry.content
	}
	if !ok {
		entry = &cacheEntry{}
		s.cache[filename] = entry
	}

	content, exists, err := fsstore.ReadText(s.path(filename))
	switch {
	case err != nil:
		s.logger.Error("note_read_error", "file", filename, "error", err.Error())
		// Keep the previous content on a transient read failure.
	case !exists:
		if !entry.warned {
			s.logger.Warn("note_missing", "file", filename)
			entry.warned = true
		}
		entry.content = ""
	default:
		entry.content = compose.Clamp(content, s.cfg.MaxStyleChars)
		entry.warned = false
	}
	entry.loadedAt = s.now()
	return entry.content
}

func (s *Store) StylePost() string {
	return s.get(s.cfg.StylePostFile)
}

func (s *Store) StyleReply() string {
	return s.get(s.cfg.StyleReplyFile)
}

// Memory returns the body of the memory note, without frontmatter.
func (s *Store) Memory() string {
	raw := s.get(s.cfg.MemoryFile)
	if raw == "" {
		return ""
	}
	_, body, _ := ParseFrontmatter(raw)
	return strings.TrimSpace(body)
}

// RandomNick picks a random non-empty line of the nicks file, or ""
// when the file is absent or empty.
func (s *Store) RandomNick() string {
	raw := s.get(s.cfg.NicksFile)
	var nicks []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		nicks = append(nicks, line)
	}
	if len(nicks) == 0 {
		return ""
	}
	return nicks[s.rand.Intn(len(nicks))]
}

// SetLastAmbientPost replaces the "Last Ambient Post" section of the
// memory note and writes it back atomically. The body is clamped to
// MemoryMaxChars so repeated updates cannot grow the note. The cache
// is refreshed in place so the next read sees the new content.
func (s *Store) SetLastAmbientPost(text string, now time.Time) error {
	return s.SetMemoryBody(func(body string) string {
		return ReplaceSection(body, lastAmbientHeading, strings.TrimSpace(text))
	}, now)
}

// SetMemoryBody rewrites the memory note body through mutate, keeping
// frontmatter current and the body bounded.
func (s *Store) SetMemoryBody(mutate func(body string) string, now time.Time) error {
	raw, _, err := fsstore.ReadText(s.path(s.cfg.MemoryFile))
	if err != nil {
		return err
	}
	fm, body, _ := ParseFrontmatter(raw)

	body = mutate(body)
	body = strings.TrimSpace(body)
	body = compose.Clamp(body, s.cfg.MemoryMaxChars)

	fm.UpdatedAt = now.UTC().Format(time.RFC3339)
	if fm.Source == "" {
		fm.Source = "nickerchenbot"
	}

	out := RenderFrontmatter(fm) + "\n" + body + "\n"
	if err := fsstore.WriteTextAtomic(s.path(s.cfg.MemoryFile), out, fsstore.FileOptions{}); err != nil {
		return err
	}

	entry, ok := s.cache[s.cfg.MemoryFile]
	if !ok {
		entry = &cacheEntry{}
		s.cache[s.cfg.MemoryFile] = entry
	}
	entry.content = out
	entry.loadedAt = s.now()
	entry.warned = false
	return nil
}

// MemoryOverBudget reports whether the memory body currently exceeds
// the configured maximum. Counted in runes to match the clamp.
func (s *Store) MemoryOverBudget() bool {
	return utf8.RuneCountInString(s.Memory()) >= s.cfg.MemoryMaxChars
}
