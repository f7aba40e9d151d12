package note

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// DefaultText is the placeholder content of a freshly created note.
const DefaultText = "New note\n"

// ErrNoTextPath is returned by Save for notes that have no text file yet.
var ErrNoTextPath = errors.New("note has no text path")

// createRetries bounds the collision-suffix search in Create.
const createRetries = 100

// Store owns the note collection persisted in a single directory.
// It is the only writer of note text files; callers are expected to
// serialize Save/Create/Reconcile per directory.
type Store struct {
	dir string
}

// NewStore returns a store over the given notes directory.
// The directory is created lazily on first use.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the notes directory this store operates on.
func (s *Store) Dir() string {
	return s.dir
}

// Reconcile scans the notes directory and merges its files into a
// deduplicated, newest-first note list. A missing directory is created and
// yields an empty list. Individual unreadable files are logged and skipped;
// one bad file never aborts the pass.
func (s *Store) Reconcile() ([]Note, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("note: reading directory %q: %w", s.dir, err)
		}
		if err := os.MkdirAll(s.dir, 0755); err != nil {
			return nil, fmt.Errorf("note: creating directory %q: %w", s.dir, err)
		}
		return []Note{}, nil
	}

	var entries []FileEntry
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			slog.Warn("skipping unreadable directory entry", "name", de.Name(), "error", err)
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		entries = append(entries, FileEntry{Name: de.Name(), ModTime: info.ModTime()})
	}

	notes := Merge(entries)

	out := make([]Note, 0, len(notes))
	for _, n := range notes {
		if n.TextPath != "" {
			n.TextPath = filepath.Join(s.dir, n.TextPath)
		}
		if n.AudioPath != "" {
			n.AudioPath = filepath.Join(s.dir, n.AudioPath)
		}

		if n.TextPath != "" {
			data, err := os.ReadFile(n.TextPath)
			if err != nil {
				slog.Warn("skipping unreadable note text", "path", n.TextPath, "error", err)
				n.TextPath = ""
				n.Text = ""
				if n.AudioPath == "" {
					continue
				}
			} else {
				n.Text = string(data)
			}
		}
		out = append(out, n)
	}

	return out, nil
}

// Create mints a new note id from the current wall clock and immediately
// writes a placeholder text file, so the note survives a crash before the
// first edit. Creations within the same second get a counter suffix.
func (s *Store) Create() (Note, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return Note{}, fmt.Errorf("note: creating directory %q: %w", s.dir, err)
	}

	now := time.Now()
	base := NewID(now)

	id := base
	for i := 2; ; i++ {
		path := filepath.Join(s.dir, id+".txt")
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			if _, err := f.WriteString(DefaultText); err != nil {
				f.Close()
				return Note{}, fmt.Errorf("note: writing placeholder %q: %w", path, err)
			}
			if err := f.Close(); err != nil {
				return Note{}, fmt.Errorf("note: writing placeholder %q: %w", path, err)
			}
			return Note{
				ID:           id,
				TextPath:     path,
				Text:         DefaultText,
				CreatedLabel: now.Format(labelLayout),
			}, nil
		}
		if !os.IsExist(err) {
			return Note{}, fmt.Errorf("note: creating %q: %w", path, err)
		}
		if i > createRetries {
			return Note{}, fmt.Errorf("note: creating %q: too many id collisions", base)
		}
		id = fmt.Sprintf("%s_%d", base, i)
	}
}

// Save writes the note's in-memory text over its text file. The write goes
// to a temp file in the same directory followed by a rename, so a concurrent
// reader never observes a torn file. Notes without a text path report
// ErrNoTextPath.
func (s *Store) Save(n Note) error {
	if n.TextPath == "" {
		return fmt.Errorf("note: saving %q: %w", n.ID, ErrNoTextPath)
	}
	if err := WriteFileAtomic(n.TextPath, []byte(n.Text)); err != nil {
		return fmt.Errorf("note: saving %q: %w", n.ID, err)
	}
	return nil
}

// WriteFileAtomic overwrites path via write-temp-then-rename.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
