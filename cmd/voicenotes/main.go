package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"voicenotes/internal/audio"
	"voicenotes/internal/config"
	"voicenotes/internal/note"
	"voicenotes/internal/pipeline"
	"voicenotes/internal/transcribe"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: ~/.config/voicenotes/config.yaml)")
	initConfig := flag.Bool("init", false, "write a default config file and exit")
	flag.Parse()

	if *initConfig {
		path, err := config.WriteDefault()
		if err != nil {
			fmt.Fprintf(os.Stderr, "writing default config: %v\n", err)
			os.Exit(1)
		}
		if path == "" {
			fmt.Println("config file already exists, not overwritten")
		} else {
			fmt.Println("wrote", path)
		}
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.ParseLogLevel(cfg.LogLevel),
	})))

	printBanner(cfg)

	app, err := newApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer app.close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig.String())
		app.shutdown()
		os.Exit(0)
	}()

	app.loop(os.Stdin, os.Stdout)
}

// app bundles the core components behind the interactive command loop.
// The loop is the single writer per note directory; reconciliation never
// races an in-flight save or pipeline run.
type app struct {
	cfg      *config.Config
	store    *note.Store
	engine   transcribe.Engine
	recorder *audio.Recorder
	pipe     *pipeline.Pipeline

	mu      sync.Mutex
	notes   []note.Note
	editing *note.Note
	dirty   bool
}

func newApp(cfg *config.Config) (*app, error) {
	store := note.NewStore(cfg.NotesDir)

	engine, err := transcribe.NewEngine(&cfg.Transcribe)
	if err != nil {
		return nil, fmt.Errorf("transcription engine: %w", err)
	}

	// Notes stay readable and editable on hosts without audio hardware;
	// only recording is unavailable.
	recorder, err := audio.NewRecorder(cfg.Audio.SampleRate, cfg.Audio.Channels)
	if err != nil {
		slog.Warn("audio capture unavailable", "error", err)
		recorder = nil
	}

	a := &app{
		cfg:      cfg,
		store:    store,
		engine:   engine,
		recorder: recorder,
		pipe:     pipeline.New(store, engine),
	}

	go a.autosaveLoop()
	return a, nil
}

// autosaveLoop periodically flushes the note being edited. The store itself
// is interval-agnostic; the interval lives up here with the rest of the UI
// plumbing.
func (a *app) autosaveLoop() {
	interval := time.Duration(a.cfg.AutosaveSeconds) * time.Second
	for range time.Tick(interval) {
		a.flushEdit()
	}
}

func (a *app) flushEdit() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.editing == nil || !a.dirty {
		return
	}
	if err := a.store.Save(*a.editing); err != nil {
		slog.Error("autosave failed", "id", a.editing.ID, "error", err)
		return
	}
	a.dirty = false
}

func (a *app) loop(in *os.File, out *os.File) {
	fmt.Fprintln(out, `commands: list, new, rec, stop, show <n>, edit <n>, retx <n>, quit`)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		cmd, arg, _ := strings.Cut(line, " ")

		switch cmd {
		case "":
		case "list":
			a.cmdList(out)
		case "new":
			a.cmdNew(out)
		case "rec":
			a.cmdRecord(out)
		case "stop":
			a.cmdStop(out)
		case "show":
			a.cmdShow(out, arg)
		case "edit":
			a.cmdEdit(out, scanner, arg)
		case "retx":
			a.cmdRetranscribe(out, arg)
		case "quit", "exit":
			a.shutdown()
			return
		default:
			fmt.Fprintf(out, "unknown command %q\n", cmd)
		}
	}
	a.shutdown()
}

func (a *app) cmdList(out *os.File) {
	notes, err := a.store.Reconcile()
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	a.mu.Lock()
	a.notes = notes
	a.mu.Unlock()

	if len(notes) == 0 {
		fmt.Fprintln(out, "no notes yet")
		return
	}
	for i, n := range notes {
		marks := ""
		if n.AudioPath != "" {
			marks = " [audio]"
		}
		fmt.Fprintf(out, "%3d  %s  %s%s\n", i+1, n.CreatedLabel, n.Title(), marks)
	}
}

func (a *app) cmdNew(out *os.File) {
	n, err := a.store.Create()
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(out, "created %s\n", n.ID)
}

func (a *app) cmdRecord(out *os.File) {
	if a.recorder == nil {
		fmt.Fprintln(out, "no audio capture available on this host")
		return
	}
	if err := a.recorder.Start(a.cfg.Audio.Device); err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	fmt.Fprintln(out, "recording... (stop to finish)")
}

func (a *app) cmdStop(out *os.File) {
	if a.recorder == nil || !a.recorder.IsRecording() {
		fmt.Fprintln(out, "not recording")
		return
	}

	raw := a.recorder.Stop()
	if raw.Empty() {
		fmt.Fprintln(out, "nothing captured")
		return
	}
	fmt.Fprintf(out, "captured %.1fs, transcribing...\n", raw.Duration())

	baseID := note.NewID(time.Now())
	n, err := a.pipe.Run(context.Background(), raw, baseID)
	if err != nil {
		fmt.Fprintf(out, "transcription failed (%v); audio kept at %s\n", err, n.AudioPath)
		return
	}
	fmt.Fprintf(out, "saved %s: %s\n", n.ID, n.Title())
}

func (a *app) cmdShow(out *os.File, arg string) {
	n, ok := a.noteAt(out, arg)
	if !ok {
		return
	}
	fmt.Fprintf(out, "-- %s (%s)\n%s", n.ID, n.CreatedLabel, n.Text)
	if n.AudioPath != "" {
		fmt.Fprintf(out, "-- audio: %s\n", n.AudioPath)
	}
}

// cmdEdit replaces a note's text with lines read from the terminal, until a
// single "." line. The autosave ticker flushes partial edits.
func (a *app) cmdEdit(out *os.File, scanner *bufio.Scanner, arg string) {
	n, ok := a.noteAt(out, arg)
	if !ok {
		return
	}
	if n.TextPath == "" {
		fmt.Fprintln(out, "note has no text file; transcribe or create one first")
		return
	}

	a.mu.Lock()
	a.editing = &n
	a.editing.Text = ""
	a.mu.Unlock()

	fmt.Fprintln(out, `enter text, finish with a single "."`)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "." {
			break
		}
		a.mu.Lock()
		a.editing.Text += line + "\n"
		a.dirty = true
		a.mu.Unlock()
	}

	a.flushEdit()
	a.mu.Lock()
	saved := a.editing.ID
	a.editing = nil
	a.mu.Unlock()
	fmt.Fprintf(out, "saved %s\n", saved)
}

func (a *app) cmdRetranscribe(out *os.File, arg string) {
	n, ok := a.noteAt(out, arg)
	if !ok {
		return
	}
	if n.AudioPath == "" {
		fmt.Fprintln(out, "note has no audio file")
		return
	}

	raw, err := audio.ReadWAV(n.AudioPath)
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}

	updated, err := a.pipe.Run(context.Background(), raw, n.ID)
	if err != nil {
		fmt.Fprintf(out, "transcription failed: %v\n", err)
		return
	}
	fmt.Fprintf(out, "updated %s: %s\n", updated.ID, updated.Title())
}

// noteAt resolves a 1-based index from the last list into a note, running a
// reconcile pass first if there is none cached.
func (a *app) noteAt(out *os.File, arg string) (note.Note, bool) {
	a.mu.Lock()
	cached := a.notes
	a.mu.Unlock()

	if cached == nil {
		notes, err := a.store.Reconcile()
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			return note.Note{}, false
		}
		a.mu.Lock()
		a.notes = notes
		cached = notes
		a.mu.Unlock()
	}

	i, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || i < 1 || i > len(cached) {
		fmt.Fprintf(out, "usage: expects a note number 1..%d\n", len(cached))
		return note.Note{}, false
	}
	return cached[i-1], true
}

func (a *app) shutdown() {
	if a.recorder != nil && a.recorder.IsRecording() {
		// Never discard a live capture on exit.
		raw := a.recorder.Stop()
		if !raw.Empty() {
			baseID := note.NewID(time.Now())
			if _, err := a.pipe.Run(context.Background(), raw, baseID); err != nil {
				slog.Error("saving in-flight recording", "error", err)
			}
		}
	}
	a.flushEdit()
}

func (a *app) close() {
	if a.recorder != nil {
		a.recorder.Close()
	}
	a.engine.Close()
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		slog.Info("config loaded", "path", defaultPath)
		return cfg, nil
	}

	return config.Default(), nil
}

// printBanner displays the startup configuration summary.
func printBanner(cfg *config.Config) {
	fmt.Println("=== voicenotes ===")
	fmt.Printf("  Notes:    %s\n", cfg.NotesDir)
	fmt.Printf("  Audio:    %dHz, %dch", cfg.Audio.SampleRate, cfg.Audio.Channels)
	if cfg.Audio.Device != "" {
		fmt.Printf(" (%s)", cfg.Audio.Device)
	}
	fmt.Println()
	fmt.Printf("  Engine:   %s\n", cfg.Transcribe.Endpoint)
	fmt.Printf("  Autosave: %ds\n", cfg.AutosaveSeconds)
	fmt.Println("==================")
}
