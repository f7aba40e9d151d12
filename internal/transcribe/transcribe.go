// Package transcribe defines the speech-to-text engine boundary.
//
// The engine is an opaque capability: given mono float32 samples at
// SampleRate, it produces ordered, timestamped text segments. The default
// backend talks to a whisper-server style HTTP endpoint.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"voicenotes/internal/config"
)

// SampleRate is the fixed input rate the engine accepts, in Hz.
const SampleRate = 16000

// Engine errors.
var (
	ErrEmptyInput          = errors.New("no audio samples")
	ErrTranscriptionFailed = errors.New("transcription failed")
)

// Segment is one unit of transcribed text with its time range in seconds.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// Engine converts audio samples to text segments. Transcribe blocks until
// inference completes; callers that need a responsive UI run it off the
// interactive thread.
type Engine interface {
	// Transcribe processes mono float32 samples at SampleRate.
	Transcribe(ctx context.Context, samples []float32) ([]Segment, error)
	// Close releases backend resources.
	Close() error
}

// NewEngine creates an Engine based on the config backend setting.
func NewEngine(cfg *config.TranscribeConfig) (Engine, error) {
	switch cfg.Backend {
	case "server", "":
		return NewServer(cfg), nil
	default:
		return nil, fmt.Errorf("transcribe: unknown backend %q (supported: server)", cfg.Backend)
	}
}

// JoinSegments flattens ordered segments into note text, one segment per
// line, matching the on-disk text file format.
func JoinSegments(segments []Segment) string {
	if len(segments) == 0 {
		return ""
	}
	var b strings.Builder
	for _, seg := range segments {
		b.WriteString(strings.TrimSpace(seg.Text))
		b.WriteByte('\n')
	}
	return b.String()
}
