// Package note models voice memos as loosely-paired .txt/.wav files and
// reconciles a notes directory into an ordered in-memory collection.
package note

import (
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// idTimeLayout is the timestamp embedded in note ids, chosen so that
// lexicographic order equals chronological order.
const idTimeLayout = "2006-01-02_15-04-05"

// idPrefix is the conventional prefix for generated note ids.
const idPrefix = "note_"

// labelLayout is the short human-readable form shown in note lists.
const labelLayout = "2006-01-02 15:04"

// Note is a user voice/text memo. At least one of TextPath/AudioPath is set.
type Note struct {
	ID           string
	TextPath     string // "" if no text file exists
	AudioPath    string // "" if no audio file exists
	Text         string // in-memory content of TextPath, authoritative once loaded
	CreatedLabel string
}

// FileEntry is one row of a directory listing. Merge operates on these
// instead of the filesystem so the pairing logic is testable in isolation.
type FileEntry struct {
	Name    string
	ModTime time.Time
}

// NewID generates a note id from a timestamp at one-second granularity.
func NewID(t time.Time) string {
	return idPrefix + t.Format(idTimeLayout)
}

// ParseID extracts the timestamp from a generated note id.
// Returns false for ids that do not follow the note_<timestamp> convention.
func ParseID(id string) (time.Time, bool) {
	if !strings.HasPrefix(id, idPrefix) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(idTimeLayout, id[len(idPrefix):], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Merge pairs directory entries into one Note per unique base name.
// Files with extension .txt (case-insensitive) contribute TextPath, .wav
// contribute AudioPath; anything else is ignored. The result is sorted
// descending by id, so time-derived ids come out newest first. Text contents
// are not loaded here; Merge is a pure function of the listing.
func Merge(entries []FileEntry) []Note {
	byID := make(map[string]*Note)

	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name))
		if ext != ".txt" && ext != ".wav" {
			continue
		}
		id := strings.TrimSuffix(e.Name, filepath.Ext(e.Name))
		if id == "" {
			continue
		}

		n, ok := byID[id]
		if !ok {
			n = &Note{ID: id}
			byID[id] = n
		}
		if ext == ".txt" {
			n.TextPath = e.Name
		} else {
			n.AudioPath = e.Name
		}
	}

	notes := make([]Note, 0, len(byID))
	for _, n := range byID {
		n.CreatedLabel = createdLabel(*n, entries)
		notes = append(notes, *n)
	}

	sort.Slice(notes, func(i, j int) bool {
		if notes[i].ID != notes[j].ID {
			return notes[i].ID > notes[j].ID
		}
		return notes[i].TextPath+notes[i].AudioPath > notes[j].TextPath+notes[j].AudioPath
	})

	return notes
}

// createdLabel derives the display timestamp: from the id when it parses,
// otherwise from the newest modification time among the note's files,
// falling back to the current time.
func createdLabel(n Note, entries []FileEntry) string {
	if t, ok := ParseID(n.ID); ok {
		return t.Format(labelLayout)
	}

	var newest time.Time
	for _, e := range entries {
		if e.Name == n.TextPath || e.Name == n.AudioPath {
			if e.ModTime.After(newest) {
				newest = e.ModTime
			}
		}
	}
	if !newest.IsZero() {
		return newest.Format(labelLayout)
	}

	return time.Now().Format(labelLayout)
}

// FormatLabel renders a timestamp in the short display form used for
// created labels.
func FormatLabel(t time.Time) string {
	return t.Format(labelLayout)
}

// Title returns the first line of the note text, for list displays.
func (n Note) Title() string {
	text := strings.TrimRight(n.Text, "\n")
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	if text == "" {
		return "(empty)"
	}
	return text
}
