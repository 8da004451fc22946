package state

import (
	"github.com/janstenner/NickerchenBot/internal/fsstore"
)

// Store round-trips the whole Snapshot against a single JSON file.
// Writes are atomic (temp file + rename), so a crashed write never
// corrupts the previous state.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the snapshot from disk. A missing or empty file yields a
// fresh snapshot and no error. Unknown fields in the file are ignored.
func (s *Store) Load() (*Snapshot, error) {
	snap := NewSnapshot()
	_, err := fsstore.ReadJSON(s.path, snap)
	if err != nil {
		return NewSnapshot(), err
	}
	snap.normalize()
	return snap, nil
}

// Save rewrites the whole snapshot atomically.
func (s *Store) Save(snap *Snapshot) error {
	return fsstore.WriteJSONAtomic(s.path, snap, fsstore.FileOptions{})
}
