// Package pipeline drives a stopped recording through persistence,
// resampling and transcription, ending in an updated note.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"voicenotes/internal/audio"
	"voicenotes/internal/note"
	"voicenotes/internal/transcribe"
)

// ErrAudioPersistFailed aborts the pipeline: the engine is never invoked on
// audio that was not durably saved first.
var ErrAudioPersistFailed = errors.New("audio persist failed")

// ErrTranscriptionFailed marks runs where the audio and an empty text file
// were persisted but no transcript was produced. The note remains editable.
var ErrTranscriptionFailed = transcribe.ErrTranscriptionFailed

// Pipeline orchestrates capture output into the note store. Construct with
// New; there is no package-level state.
type Pipeline struct {
	store  *note.Store
	engine transcribe.Engine
}

// New wires a pipeline to a note store and a transcription engine.
func New(store *note.Store, engine transcribe.Engine) *Pipeline {
	return &Pipeline{store: store, engine: engine}
}

// Run persists the raw capture as <baseID>.wav, creates <baseID>.txt
// eagerly so the note is discoverable even if transcription fails, then
// resamples, invokes the engine and overwrites the text file with the
// newline-joined segments.
//
// A failed WAV write aborts with ErrAudioPersistFailed. Any later failure
// returns the note (audio saved, text empty) together with an error wrapping
// ErrTranscriptionFailed.
func (p *Pipeline) Run(ctx context.Context, raw audio.RawAudio, baseID string) (note.Note, error) {
	dir := p.store.Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return note.Note{}, fmt.Errorf("pipeline: %w: %v", ErrAudioPersistFailed, err)
	}

	wavPath := filepath.Join(dir, baseID+".wav")
	txtPath := filepath.Join(dir, baseID+".txt")

	if err := audio.WriteWAV(wavPath, raw); err != nil {
		return note.Note{}, fmt.Errorf("pipeline: %w: %v", ErrAudioPersistFailed, err)
	}
	slog.Info("saved recording", "path", wavPath, "duration_s", raw.Duration())

	n := note.Note{
		ID:           baseID,
		AudioPath:    wavPath,
		CreatedLabel: createdLabel(baseID),
	}

	// Empty text file first: a note with a text file survives reconciliation
	// even when the engine fails or hangs.
	if err := os.WriteFile(txtPath, nil, 0644); err != nil {
		return n, fmt.Errorf("pipeline: creating %q: %w", txtPath, err)
	}
	n.TextPath = txtPath

	text, err := p.transcribeRaw(ctx, raw)
	if err != nil {
		slog.Warn("transcription failed, keeping empty note", "id", baseID, "error", err)
		if errors.Is(err, transcribe.ErrTranscriptionFailed) {
			return n, err
		}
		return n, fmt.Errorf("pipeline: %w: %v", ErrTranscriptionFailed, err)
	}

	if err := note.WriteFileAtomic(txtPath, []byte(text)); err != nil {
		return n, fmt.Errorf("pipeline: writing transcript %q: %w", txtPath, err)
	}
	n.Text = text

	slog.Info("transcription complete", "id", baseID, "chars", len(text))
	return n, nil
}

// transcribeRaw downmixes, resamples and runs the engine.
func (p *Pipeline) transcribeRaw(ctx context.Context, raw audio.RawAudio) (string, error) {
	mono, err := audio.DownmixToMono(raw)
	if err != nil {
		return "", err
	}

	resampled, err := audio.Resample(mono, raw.SampleRate, transcribe.SampleRate)
	if err != nil {
		return "", err
	}
	if raw.SampleRate != transcribe.SampleRate {
		slog.Debug("resampled capture",
			"from_hz", raw.SampleRate, "to_hz", transcribe.SampleRate,
			"in_frames", len(mono), "out_frames", len(resampled))
	}

	segments, err := p.engine.Transcribe(ctx, resampled)
	if err != nil {
		return "", err
	}

	return transcribe.JoinSegments(segments), nil
}

func createdLabel(baseID string) string {
	if t, ok := note.ParseID(baseID); ok {
		return note.FormatLabel(t)
	}
	return note.FormatLabel(time.Now())
}
