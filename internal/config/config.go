package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	NotesDir        string           `yaml:"notes_dir"`
	Audio           AudioConfig      `yaml:"audio"`
	Transcribe      TranscribeConfig `yaml:"transcribe"`
	AutosaveSeconds int              `yaml:"autosave_seconds"`
	LogLevel        string           `yaml:"log_level"`
}

// AudioConfig holds audio capture settings.
type AudioConfig struct {
	SampleRate uint32 `yaml:"sample_rate"`
	Channels   uint32 `yaml:"channels"`
	Device     string `yaml:"device"` // empty means system default
}

// TranscribeConfig holds transcription engine settings.
type TranscribeConfig struct {
	Backend        string `yaml:"backend"` // "server"
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"api_key"`
	Language       string `yaml:"language"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "voicenotes")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		NotesDir: filepath.Join(home, "voice_notes"),
		Audio: AudioConfig{
			SampleRate: 44100,
			Channels:   1,
		},
		Transcribe: TranscribeConfig{
			Backend:        "server",
			Endpoint:       "http://127.0.0.1:8080/inference",
			TimeoutSeconds: 120,
		},
		AutosaveSeconds: 3,
		LogLevel:        "info",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in notes_dir is expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.NotesDir = expandTilde(cfg.NotesDir)

	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.NotesDir == "" {
		return fmt.Errorf("notes_dir must not be empty")
	}

	if c.Audio.SampleRate == 0 {
		return fmt.Errorf("audio.sample_rate must be > 0")
	}

	if c.Audio.Channels == 0 {
		return fmt.Errorf("audio.channels must be > 0")
	}

	switch c.Transcribe.Backend {
	case "server", "":
	default:
		return fmt.Errorf("transcribe.backend must be \"server\", got %q", c.Transcribe.Backend)
	}

	if c.Transcribe.Endpoint == "" {
		return fmt.Errorf("transcribe.endpoint must not be empty")
	}

	if c.AutosaveSeconds <= 0 {
		return fmt.Errorf("autosave_seconds must be > 0")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// ParseLogLevel maps a config log level string to a slog.Level.
// Unknown values default to info.
func ParseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WriteDefault writes a commented default config file to the default path.
// Returns the written path, or "" if a config file already exists.
func WriteDefault() (string, error) {
	path := DefaultConfigPath()
	if _, err := os.Stat(path); err == nil {
		return "", nil
	}

	if err := os.MkdirAll(DefaultConfigDir(), 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	cfg := Default()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling default config: %w", err)
	}

	content := "# voicenotes configuration\n" +
		"# notes_dir: where .txt/.wav note pairs live\n" +
		"# audio.device: capture device name (substring match), empty for system default\n" +
		"# transcribe.endpoint: whisper-server inference endpoint\n" +
		string(data)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("writing default config: %w", err)
	}

	return path, nil
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
