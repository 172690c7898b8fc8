package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"desklock/internal/chord"
)

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
)

// AppDirName is the per-user settings directory name.
const AppDirName = "DeskLock"

// Config represents the application settings
type Config struct {
	Hotkey     string        `json:"hotkey" yaml:"hotkey"`
	Appearance Appearance    `json:"appearance" yaml:"appearance"`
	Lock       LockConfig    `json:"lock" yaml:"lock"`
	Journal    JournalConfig `json:"journal" yaml:"journal"`
	Control    ControlConfig `json:"control" yaml:"control"`
	Log        LogConfig     `json:"log" yaml:"log"`
}

// Appearance is handed to the cover surface as-is
type Appearance struct {
	BackgroundColor        string  `json:"background_color" yaml:"background_color"`
	TextColor              string  `json:"text_color" yaml:"text_color"`
	LockText               string  `json:"lock_text" yaml:"lock_text"`
	SubtitleText           string  `json:"subtitle_text" yaml:"subtitle_text"`
	FontSize               int     `json:"font_size" yaml:"font_size"`
	BackgroundImagePath    string  `json:"background_image_path,omitempty" yaml:"background_image_path,omitempty"`
	BackgroundImageOpacity float64 `json:"background_image_opacity" yaml:"background_image_opacity"`
	ShowClock              bool    `json:"show_clock" yaml:"show_clock"`
	ShowUnlockHint         bool    `json:"show_unlock_hint" yaml:"show_unlock_hint"`
}

// LockConfig contains lock state machine timings
type LockConfig struct {
	FocusIntervalMS int  `json:"focus_interval_ms" yaml:"focus_interval_ms"`
	FadeMS          int  `json:"fade_ms" yaml:"fade_ms"`
	CoalesceMS      int  `json:"coalesce_ms" yaml:"coalesce_ms"`
	SuppressOSUI    bool `json:"suppress_os_ui" yaml:"suppress_os_ui"`
}

// JournalConfig contains lock-session journal settings
type JournalConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

// ControlConfig contains local control API settings
type ControlConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
	APIKey  string `json:"api_key" yaml:"api_key"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	Path   string `json:"path,omitempty" yaml:"path,omitempty"` // empty = stderr
}

// FocusInterval returns the focus re-assertion period
func (l LockConfig) FocusInterval() time.Duration {
	return time.Duration(l.FocusIntervalMS) * time.Millisecond
}

// Fade returns the cover fade duration
func (l LockConfig) Fade() time.Duration {
	return time.Duration(l.FadeMS) * time.Millisecond
}

// CoalesceWindow returns the cross-origin toggle coalescing window
func (l LockConfig) CoalesceWindow() time.Duration {
	return time.Duration(l.CoalesceMS) * time.Millisecond
}

// DefaultAppearance returns the stock cover look
func DefaultAppearance() Appearance {
	return Appearance{
		BackgroundColor:        "#0D0D1F",
		TextColor:              "#FFFFFF",
		LockText:               "DESK LOCKED",
		SubtitleText:           "Input is blocked",
		FontSize:               72,
		BackgroundImageOpacity: 0.3,
		ShowClock:              true,
		ShowUnlockHint:         true,
	}
}

// Default returns a config with default values. The journal path is left
// empty and resolved next to the settings file by ResolvePaths.
func Default() *Config {
	return &Config{
		Hotkey:     chord.DefaultSpec(),
		Appearance: DefaultAppearance(),
		Lock: LockConfig{
			FocusIntervalMS: 500,
			FadeMS:          150,
			CoalesceMS:      250,
			SuppressOSUI:    true,
		},
		Journal: JournalConfig{
			Enabled: true,
		},
		Control: ControlConfig{
			Enabled: false,
			Addr:    "127.0.0.1:7345",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultPath returns <user config dir>/DeskLock/settings.json
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config dir: %w", err)
	}
	return filepath.Join(dir, AppDirName, "settings.json"), nil
}

// Chord parses the configured hotkey
func (c *Config) Chord() (chord.Chord, error) {
	ch, err := chord.Parse(c.Hotkey)
	if err != nil {
		return chord.Chord{}, fmt.Errorf("%w: %w", chord.ErrInvalidChord, err)
	}
	if err := ch.Validate(); err != nil {
		return chord.Chord{}, err
	}
	return ch, nil
}

// Validate validates the configuration. The hotkey is not checked here: an
// invalid chord is rejected on its own by the engine, which keeps the
// previous chord while every other setting still applies.
func (c *Config) Validate() error {
	if c.Lock.FocusIntervalMS <= 0 {
		return fmt.Errorf("%w: lock.focus_interval_ms must be positive", ErrInvalidConfig)
	}
	if c.Lock.FadeMS < 0 {
		return fmt.Errorf("%w: lock.fade_ms must not be negative", ErrInvalidConfig)
	}
	if c.Lock.CoalesceMS < 0 {
		return fmt.Errorf("%w: lock.coalesce_ms must not be negative", ErrInvalidConfig)
	}

	if c.Journal.Enabled && c.Journal.Path == "" {
		return fmt.Errorf("%w: journal path is required", ErrInvalidConfig)
	}

	if c.Control.Enabled {
		if c.Control.Addr == "" {
			return fmt.Errorf("%w: control address is required", ErrInvalidConfig)
		}
		if c.Control.APIKey == "" {
			return fmt.Errorf("%w: control API key is required", ErrInvalidConfig)
		}
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log format must be text or json", ErrInvalidConfig)
	}

	return nil
}

// ResolvePaths fills empty relative paths from the settings file location
func (c *Config) ResolvePaths(settingsPath string) {
	if c.Journal.Path == "" {
		c.Journal.Path = filepath.Join(filepath.Dir(settingsPath), "journal.db")
	}
}

// Load loads configuration from a JSON or YAML file, chosen by extension.
// Missing fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigFileNotFound
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := unmarshal(path, data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %w", ErrInvalidConfig, err)
	}
	config.ResolvePaths(path)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Save writes the configuration in the format matching the extension,
// creating the directory. The file is replaced atomically so a watcher never
// reads a partial write.
func Save(path string, c *Config) error {
	data, err := marshal(path, c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func unmarshal(path string, data []byte, c *Config) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, c)
	}
	return json.Unmarshal(data, c)
}

func marshal(path string, c *Config) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(c)
	}
	return json.MarshalIndent(c, "", "  ")
}

// ApplyEnv overrides settings from DESKLOCK_* environment variables
func (c *Config) ApplyEnv() {
	c.Hotkey = getEnv("DESKLOCK_HOTKEY", c.Hotkey)
	c.Log.Level = getEnv("DESKLOCK_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("DESKLOCK_LOG_FORMAT", c.Log.Format)
	c.Log.Path = getEnv("DESKLOCK_LOG_PATH", c.Log.Path)
	c.Journal.Path = getEnv("DESKLOCK_JOURNAL_PATH", c.Journal.Path)
	c.Journal.Enabled = getEnvBool("DESKLOCK_JOURNAL_ENABLED", c.Journal.Enabled)
	c.Control.Enabled = getEnvBool("DESKLOCK_CONTROL_ENABLED", c.Control.Enabled)
	c.Control.Addr = getEnv("DESKLOCK_CONTROL_ADDR", c.Control.Addr)
	c.Control.APIKey = getEnv("DESKLOCK_CONTROL_API_KEY", c.Control.APIKey)
	c.Lock.FocusIntervalMS = getEnvInt("DESKLOCK_FOCUS_INTERVAL_MS", c.Lock.FocusIntervalMS)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}
