// Package config loads the YAML configuration file and applies
// command-line overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sadopc/jobtimer/internal/store"
	"github.com/sadopc/jobtimer/internal/worktimer"
)

const (
	appName        = "jobtimer"
	configFileName = "config.yaml"
	logFileName    = "jobtimer.log"
)

type Config struct {
	User      UserConfig     `yaml:"user"`
	Backend   BackendConfig  `yaml:"backend"`
	Storage   StorageConfig  `yaml:"storage"`
	Reminders ReminderConfig `yaml:"reminders"`
	Notes     NotesConfig    `yaml:"notes"`
	Log       LogConfig      `yaml:"log"`
}

// UserConfig is the session identity. Sign-in happens elsewhere; the
// timer only needs to know who it logs time for.
type UserConfig struct {
	ID   string `yaml:"id"`
	Role string `yaml:"role"`
}

type BackendConfig struct {
	// URL of the API. Empty keeps time logs in the local journal only.
	URL string `yaml:"url"`
	// TokenEnv names the environment variable holding the bearer token.
	TokenEnv       string `yaml:"token_env"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type StorageConfig struct {
	Path      string `yaml:"path"`
	Ephemeral bool   `yaml:"ephemeral"`
}

type ReminderConfig struct {
	ThresholdsMinutes []int `yaml:"thresholds_minutes"`
	TickIntervalMS    int   `yaml:"tick_interval_ms"`
}

// NotesConfig holds the default notes. Reminder is used when a reminder
// is answered with a stop; %s in it is replaced by the threshold.
type NotesConfig struct {
	Stop     string `yaml:"stop"`
	Logout   string `yaml:"logout"`
	Reminder string `yaml:"reminder"`
}

type LogConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		User: UserConfig{
			ID:   os.Getenv("USER"),
			Role: string(worktimer.RoleFreelancer),
		},
		Backend: BackendConfig{
			TokenEnv:       "JOBTIMER_TOKEN",
			TimeoutSeconds: 15,
		},
		Reminders: ReminderConfig{
			ThresholdsMinutes: []int{60, 120},
			TickIntervalMS:    1000,
		},
		Notes: NotesConfig{
			Logout:   worktimer.DefaultAutoStopNote,
			Reminder: worktimer.DefaultReminderNote,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at path over the defaults. A missing file
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config yaml: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating the directory.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate reports the first invalid value.
func (c Config) Validate() error {
	if !worktimer.Role(c.User.Role).Valid() {
		return fmt.Errorf("user.role %q: must be admin, client or freelancer", c.User.Role)
	}
	if worktimer.Role(c.User.Role).CanTrackTime() && strings.TrimSpace(c.User.ID) == "" {
		return fmt.Errorf("user.id is required to log time")
	}
	if c.Backend.URL != "" {
		u, err := url.Parse(c.Backend.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("backend.url %q: must be an http(s) URL", c.Backend.URL)
		}
	}
	if c.Backend.TimeoutSeconds < 0 {
		return fmt.Errorf("backend.timeout_seconds must not be negative")
	}
	for _, m := range c.Reminders.ThresholdsMinutes {
		if m <= 0 {
			return fmt.Errorf("reminders.thresholds_minutes: %d is not positive", m)
		}
	}
	if c.Reminders.TickIntervalMS < 0 {
		return fmt.Errorf("reminders.tick_interval_ms must not be negative")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Identity returns the session identity.
func (c Config) Identity() worktimer.Identity {
	return worktimer.Identity{UserID: c.User.ID, Role: worktimer.Role(c.User.Role)}
}

// Thresholds returns the reminder thresholds as durations.
func (c Config) Thresholds() []time.Duration {
	out := make([]time.Duration, 0, len(c.Reminders.ThresholdsMinutes))
	for _, m := range c.Reminders.ThresholdsMinutes {
		out = append(out, time.Duration(m)*time.Minute)
	}
	return out
}

func (c Config) TickInterval() time.Duration {
	return time.Duration(c.Reminders.TickIntervalMS) * time.Millisecond
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

// Token reads the bearer token from the configured environment variable.
func (c Config) Token() string {
	if c.Backend.TokenEnv == "" {
		return ""
	}
	return os.Getenv(c.Backend.TokenEnv)
}

// LogLevel returns the slog level for Log.Level.
func (c Config) LogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

// SettingsSeed returns the values the settings table starts from.
func (c Config) SettingsSeed() map[string]string {
	return map[string]string{
		store.SettingReminderMinutes: FormatMinutes(c.Thresholds()),
		store.SettingStopNote:        c.Notes.Stop,
		store.SettingLogoutNote:      c.Notes.Logout,
		store.SettingReminderNote:    c.Notes.Reminder,
	}
}

// Runtime holds the settings that can be edited from the app.
type Runtime struct {
	Thresholds []time.Duration
	StopNote     string
	LogoutNote   string
	ReminderNote string
}

// SettingsReader reads the settings table.
type SettingsReader interface {
	GetSetting(key string) (string, error)
}

// Runtime reads the editable settings from st. Missing or unparsable
// values fall back to c.
func (c Config) Runtime(st SettingsReader) Runtime {
	rt := Runtime{
		Thresholds: c.Thresholds(),
		StopNote:     c.Notes.Stop,
		LogoutNote:   c.Notes.Logout,
		ReminderNote: c.Notes.Reminder,
	}
	if v, err := st.GetSetting(store.SettingReminderMinutes); err == nil {
		if ds, err := ParseMinutes(v); err == nil {
			rt.Thresholds = ds
		}
	}
	if v, err := st.GetSetting(store.SettingStopNote); err == nil {
		rt.StopNote = v
	}
	if v, err := st.GetSetting(store.SettingLogoutNote); err == nil {
		rt.LogoutNote = v
	}
	if v, err := st.GetSetting(store.SettingReminderNote); err == nil {
		rt.ReminderNote = v
	}
	return rt
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log.level %q: must be debug, info, warn or error", s)
}

// ParseMinutes parses a comma separated list of minutes, e.g. "60,120".
// An empty string yields an empty, non-nil list: reminders off.
func ParseMinutes(s string) ([]time.Duration, error) {
	out := []time.Duration{}
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		m, err := strconv.Atoi(field)
		if err != nil || m <= 0 {
			return nil, fmt.Errorf("invalid minutes %q", field)
		}
		out = append(out, time.Duration(m)*time.Minute)
	}
	return out, nil
}

// FormatMinutes is the inverse of ParseMinutes.
func FormatMinutes(ds []time.Duration) string {
	parts := make([]string, 0, len(ds))
	for _, d := range ds {
		parts = append(parts, strconv.Itoa(int(d/time.Minute)))
	}
	return strings.Join(parts, ",")
}

// DefaultPath returns ~/.config/jobtimer/config.yaml
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, appName, configFileName), nil
}

// DefaultLogPath returns ~/.config/jobtimer/jobtimer.log
func DefaultLogPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, appName, logFileName), nil
}
