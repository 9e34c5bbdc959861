// Package config holds the YAML-backed application configuration and the
// immutable per-cycle snapshot consumed by the pipeline.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"gridclock/internal/model"
)

// Default feed locations, one per series. Overridable via the feeds map.
const (
	defaultF1Feed = "https://raw.githubusercontent.com/silentdragoon/f1count/refs/heads/main/Formula_1.ics"
	defaultF2Feed = "https://raw.githubusercontent.com/silentdragoon/f1count/refs/heads/main/Formula_2.ics"
	defaultF3Feed = "https://raw.githubusercontent.com/silentdragoon/f1count/refs/heads/main/Formula_3.ics"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
//
// Boolean toggles that default to true are pointers so that an absent key
// can be told apart from an explicit false; Normalize fills them in.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used for display timestamps
	// (e.g. "Europe/London"). Empty means the process-local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// used for periodic feed refresh.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays bounds how far ahead recurring feed entries are expanded.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// YearToken is the season year stripped from session titles.
	YearToken string `yaml:"year_token" json:"year_token"`

	// Per-series visibility toggles.
	ShowF1 *bool `yaml:"show_f1" json:"show_f1"`
	ShowF2 bool  `yaml:"show_f2" json:"show_f2"`
	ShowF3 bool  `yaml:"show_f3" json:"show_f3"`

	// MaxSessions is the number of upcoming sessions to display.
	MaxSessions int `yaml:"max_sessions" json:"max_sessions"`

	// ShowSeconds toggles the seconds column of countdowns.
	ShowSeconds *bool `yaml:"show_seconds" json:"show_seconds"`

	// ShowFantasyLock toggles the fantasy-lock warning banner.
	ShowFantasyLock *bool `yaml:"show_fantasy_lock" json:"show_fantasy_lock"`

	// NotificationsEnabled toggles session-start alarms.
	NotificationsEnabled bool `yaml:"notifications_enabled" json:"notifications_enabled"`

	// NotifyWebhook, if set, receives fired notifications as JSON POSTs.
	NotifyWebhook string `yaml:"notify_webhook,omitempty" json:"notify_webhook,omitempty"`

	// Feeds overrides the feed URL per series ("F1", "F2", "F3").
	Feeds map[string]string `yaml:"feeds,omitempty" json:"feeds,omitempty"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

func boolPtr(v bool) *bool { return &v }

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:               "127.0.0.1:8118",
		Timezone:             "",
		RefreshCron:          "*/15 * * * *",
		HorizonDays:          120,
		YearToken:            "2025",
		ShowF1:               boolPtr(true),
		ShowF2:               false,
		ShowF3:               false,
		MaxSessions:          5,
		ShowSeconds:          boolPtr(true),
		ShowFantasyLock:      boolPtr(true),
		NotificationsEnabled: false,
		Feeds:                map[string]string{},
		BasicAuth:            nil,
	}
}

// Normalize fills in missing/zero values with documented defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8118"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = 120
	}
	if c.YearToken == "" {
		c.YearToken = "2025"
	}
	if c.ShowF1 == nil {
		c.ShowF1 = boolPtr(true)
	}
	if c.MaxSessions <= 0 {
		c.MaxSessions = 5
	}
	if c.ShowSeconds == nil {
		c.ShowSeconds = boolPtr(true)
	}
	if c.ShowFantasyLock == nil {
		c.ShowFantasyLock = boolPtr(true)
	}
	if c.Feeds == nil {
		c.Feeds = map[string]string{}
	}
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written there (parent
// directory created as needed, 0600 perms) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Return cfg with the error so the caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path atomically
// (temp file + rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".gridclock-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

// FeedRef pairs a series with its feed location.
type FeedRef struct {
	Series model.Series
	URL    string
}

// Snapshot is the immutable per-cycle view of the configuration. The
// pipeline takes one at the start of every cycle and never reads live
// config state mid-cycle.
type Snapshot struct {
	Feeds                []FeedRef
	MaxSessions          int
	ShowSeconds          bool
	ShowFantasyLock      bool
	NotificationsEnabled bool
	NotifyWebhook        string
	YearToken            string
	// OnlyF1 is true when F2 and F3 are both disabled; some title cleanup
	// rules only apply in that case.
	OnlyF1   bool
	Horizon  time.Duration
	Location *time.Location
}

// Snapshot derives the immutable cycle view from the current config.
func (c *Config) Snapshot() Snapshot {
	c.Normalize()

	loc := time.Local
	if c.Timezone != "" {
		if l, err := time.LoadLocation(c.Timezone); err == nil {
			loc = l
		}
	}

	snap := Snapshot{
		MaxSessions:          c.MaxSessions,
		ShowSeconds:          *c.ShowSeconds,
		ShowFantasyLock:      *c.ShowFantasyLock,
		NotificationsEnabled: c.NotificationsEnabled,
		NotifyWebhook:        c.NotifyWebhook,
		YearToken:            c.YearToken,
		OnlyF1:               !c.ShowF2 && !c.ShowF3,
		Horizon:              time.Duration(c.HorizonDays) * 24 * time.Hour,
		Location:             loc,
	}

	if *c.ShowF1 {
		snap.Feeds = append(snap.Feeds, FeedRef{Series: model.SeriesF1, URL: c.feedURL(model.SeriesF1)})
	}
	if c.ShowF2 {
		snap.Feeds = append(snap.Feeds, FeedRef{Series: model.SeriesF2, URL: c.feedURL(model.SeriesF2)})
	}
	if c.ShowF3 {
		snap.Feeds = append(snap.Feeds, FeedRef{Series: model.SeriesF3, URL: c.feedURL(model.SeriesF3)})
	}

	return snap
}

func (c *Config) feedURL(s model.Series) string {
	if u, ok := c.Feeds[string(s)]; ok && u != "" {
		return u
	}
	switch s {
	case model.SeriesF2:
		return defaultF2Feed
	case model.SeriesF3:
		return defaultF3Feed
	default:
		return defaultF1Feed
	}
}
