package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"voicenotes/internal/audio"
	"voicenotes/internal/note"
	"voicenotes/internal/transcribe"
)

const testID = "note_2024-01-01_10-00-00"

func testRaw() audio.RawAudio {
	samples := make([]int16, 1600)
	for i := range samples {
		samples[i] = int16(i % 1000)
	}
	return audio.RawAudio{Samples: samples, SampleRate: 16000, Channels: 1}
}

func TestRunSuccess(t *testing.T) {
	dir := t.TempDir()
	store := note.NewStore(dir)
	engine := transcribe.NewFake([]transcribe.Segment{
		{Start: 0, End: 1, Text: " remember the milk"},
		{Start: 1, End: 2, Text: " and the eggs"},
	}, nil)

	n, err := New(store, engine).Run(context.Background(), testRaw(), testID)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantText := "remember the milk\nand the eggs\n"
	if n.Text != wantText {
		t.Errorf("note.Text = %q, want %q", n.Text, wantText)
	}
	if n.ID != testID {
		t.Errorf("note.ID = %q, want %q", n.ID, testID)
	}

	data, err := os.ReadFile(filepath.Join(dir, testID+".txt"))
	if err != nil {
		t.Fatalf("reading transcript: %v", err)
	}
	if string(data) != wantText {
		t.Errorf("transcript on disk = %q, want %q", string(data), wantText)
	}

	if engine.Calls != 1 {
		t.Errorf("engine called %d times, want 1", engine.Calls)
	}
}

func TestRunPersistsWavBeforeEngine(t *testing.T) {
	dir := t.TempDir()
	store := note.NewStore(dir)
	wavPath := filepath.Join(dir, testID+".wav")

	engine := &wavCheckingEngine{t: t, wavPath: wavPath}
	_, err := New(store, engine).Run(context.Background(), testRaw(), testID)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !engine.sawWav {
		t.Error("engine ran before the wav file was persisted")
	}
}

// wavCheckingEngine asserts the raw capture is on disk when inference starts.
type wavCheckingEngine struct {
	t       *testing.T
	wavPath string
	sawWav  bool
}

func (e *wavCheckingEngine) Transcribe(_ context.Context, _ []float32) ([]transcribe.Segment, error) {
	info, err := os.Stat(e.wavPath)
	if err == nil && info.Size() > 0 {
		e.sawWav = true
	}
	return []transcribe.Segment{{Text: "ok"}}, nil
}

func (e *wavCheckingEngine) Close() error { return nil }

func TestRunEngineFailureKeepsAudioAndEmptyText(t *testing.T) {
	dir := t.TempDir()
	store := note.NewStore(dir)
	engine := transcribe.NewFake(nil, fmt.Errorf("%w: model exploded", transcribe.ErrTranscriptionFailed))

	n, err := New(store, engine).Run(context.Background(), testRaw(), testID)
	if err == nil {
		t.Fatal("Run() should fail when the engine fails")
	}
	if !errors.Is(err, ErrTranscriptionFailed) {
		t.Errorf("error = %v, want ErrTranscriptionFailed", err)
	}

	info, statErr := os.Stat(filepath.Join(dir, testID+".wav"))
	if statErr != nil {
		t.Fatalf("wav file missing after engine failure: %v", statErr)
	}
	if info.Size() == 0 {
		t.Error("wav file is empty")
	}

	data, readErr := os.ReadFile(filepath.Join(dir, testID+".txt"))
	if readErr != nil {
		t.Fatalf("txt file missing after engine failure: %v", readErr)
	}
	if len(data) != 0 {
		t.Errorf("txt file should be empty, got %q", string(data))
	}

	if n.AudioPath == "" || n.TextPath == "" {
		t.Errorf("returned note should carry both paths: %+v", n)
	}
}

func TestRunEngineFailureNoteIsReconcilable(t *testing.T) {
	dir := t.TempDir()
	store := note.NewStore(dir)
	engine := transcribe.NewFake(nil, errors.New("engine down"))

	if _, err := New(store, engine).Run(context.Background(), testRaw(), testID); err == nil {
		t.Fatal("Run() should fail")
	}

	notes, err := store.Reconcile()
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("Reconcile() returned %d notes, want 1", len(notes))
	}
	if notes[0].ID != testID {
		t.Errorf("ID = %q, want %q", notes[0].ID, testID)
	}
	if notes[0].Text != "" {
		t.Errorf("Text = %q, want empty", notes[0].Text)
	}
	if notes[0].AudioPath == "" || notes[0].TextPath == "" {
		t.Errorf("note should have both paths: %+v", notes[0])
	}
}

func TestRunEmptyCaptureAbortsBeforeEngine(t *testing.T) {
	dir := t.TempDir()
	store := note.NewStore(dir)
	engine := transcribe.NewFake([]transcribe.Segment{{Text: "never"}}, nil)

	_, err := New(store, engine).Run(context.Background(),
		audio.RawAudio{SampleRate: 16000, Channels: 1}, testID)
	if err == nil {
		t.Fatal("Run() with empty capture should fail")
	}
	if !errors.Is(err, ErrAudioPersistFailed) {
		t.Errorf("error = %v, want ErrAudioPersistFailed", err)
	}
	if engine.Calls != 0 {
		t.Errorf("engine called %d times, want 0", engine.Calls)
	}
	if _, statErr := os.Stat(filepath.Join(dir, testID+".txt")); !os.IsNotExist(statErr) {
		t.Error("no txt file should exist after an aborted persist")
	}
}

func TestRunResamplesForEngine(t *testing.T) {
	dir := t.TempDir()
	store := note.NewStore(dir)
	engine := transcribe.NewFake([]transcribe.Segment{{Text: "ok"}}, nil)

	// 100 frames at 8 kHz stereo must reach the engine as 200 mono frames
	// at 16 kHz.
	raw := audio.RawAudio{
		Samples:    make([]int16, 200),
		SampleRate: 8000,
		Channels:   2,
	}
	if _, err := New(store, engine).Run(context.Background(), raw, testID); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(engine.LastSamples) != 200 {
		t.Errorf("engine received %d samples, want 200", len(engine.LastSamples))
	}
}

func TestRunNativeRatePersisted(t *testing.T) {
	dir := t.TempDir()
	store := note.NewStore(dir)
	engine := transcribe.NewFake([]transcribe.Segment{{Text: "ok"}}, nil)

	raw := audio.RawAudio{
		Samples:    make([]int16, 441),
		SampleRate: 44100,
		Channels:   1,
	}
	if _, err := New(store, engine).Run(context.Background(), raw, testID); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// The persisted wav keeps the native capture rate; resampling is
	// pipeline-internal only.
	got, err := audio.ReadWAV(filepath.Join(dir, testID+".wav"))
	if err != nil {
		t.Fatalf("ReadWAV() error = %v", err)
	}
	if got.SampleRate != 44100 {
		t.Errorf("persisted SampleRate = %d, want 44100", got.SampleRate)
	}
}
