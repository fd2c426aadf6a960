package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

const EnvPrefix = "WATCHTRACK_"

type Config struct {
	DataDir   string          `koanf:"data_dir"`
	Collector CollectorConfig `koanf:"collector"`
	Tracker   TrackerConfig   `koanf:"tracker"`
	Bridge    BridgeConfig    `koanf:"bridge"`
	Log       LogConfig       `koanf:"log"`
}

type CollectorConfig struct {
	BaseURL          string        `koanf:"base_url"`
	Timeout          time.Duration `koanf:"timeout"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
	OpenTimeout      time.Duration `koanf:"open_timeout"`
}

type TrackerConfig struct {
	InactivityThreshold time.Duration `koanf:"inactivity_threshold"`
	PollInterval        time.Duration `koanf:"poll_interval"`
	TickInterval        time.Duration `koanf:"tick_interval"`
}

type BridgeConfig struct {
	Listen         string   `koanf:"listen"`
	AllowedOrigins []string `koanf:"allowed_origins"`
}

type LogConfig struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
}

func Defaults() Config {
	return Config{
		DataDir: defaultDataDir(),
		Collector: CollectorConfig{
			BaseURL:          "http://localhost:5000",
			Timeout:          10 * time.Second,
			FailureThreshold: 5,
			OpenTimeout:      30 * time.Second,
		},
		Tracker: TrackerConfig{
			InactivityThreshold: 2 * time.Minute,
			PollInterval:        time.Second,
			TickInterval:        time.Second,
		},
		Bridge: BridgeConfig{
			Listen:         "127.0.0.1:8765",
			AllowedOrigins: []string{"*"},
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load layers defaults, the YAML file at path (when present) and
// WATCHTRACK_* environment variables. A non-empty dataDir wins over all.
func Load(path, dataDir string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}
	if path == "" {
		base := dataDir
		if base == "" {
			base = k.String("data_dir")
		}
		path = filepath.Join(base, "config.yaml")
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	cfg := Config{}
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var sections = []string{"collector", "tracker", "bridge", "log"}

// envKey maps WATCHTRACK_COLLECTOR_BASE_URL to collector.base_url.
func envKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	for _, section := range sections {
		if strings.HasPrefix(key, section+"_") {
			return section + "." + strings.TrimPrefix(key, section+"_")
		}
	}
	return key
}

func (c Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	u, err := url.Parse(c.Collector.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("collector.base_url must be an http(s) url, got %q", c.Collector.BaseURL))
	}
	if c.Collector.Timeout <= 0 {
		errs = append(errs, errors.New("collector.timeout must be positive"))
	}
	if c.Tracker.InactivityThreshold <= 0 {
		errs = append(errs, errors.New("tracker.inactivity_threshold must be positive"))
	}
	if c.Tracker.PollInterval <= 0 || c.Tracker.TickInterval <= 0 {
		errs = append(errs, errors.New("tracker intervals must be positive"))
	}
	if c.Bridge.Listen == "" {
		errs = append(errs, errors.New("bridge.listen is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func (c Config) StatePath() string   { return filepath.Join(c.DataDir, "state.json") }
func (c Config) JournalPath() string { return filepath.Join(c.DataDir, "journal.db") }
func (c Config) DaemonDir() string   { return filepath.Join(c.DataDir, "daemon") }
func (c Config) FilePath() string    { return filepath.Join(c.DataDir, "config.yaml") }

// WriteDefault writes the default configuration as YAML. Existing files are
// left alone unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}
	raw, err := Marshal(Defaults())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, raw, 0o644)
}

// Marshal renders cfg as YAML with human-readable durations.
func Marshal(cfg Config) ([]byte, error) {
	doc := map[string]any{
		"data_dir": cfg.DataDir,
		"collector": map[string]any{
			"base_url":          cfg.Collector.BaseURL,
			"timeout":           cfg.Collector.Timeout.String(),
			"failure_threshold": cfg.Collector.FailureThreshold,
			"open_timeout":      cfg.Collector.OpenTimeout.String(),
		},
		"tracker": map[string]any{
			"inactivity_threshold": cfg.Tracker.InactivityThreshold.String(),
			"poll_interval":        cfg.Tracker.PollInterval.String(),
			"tick_interval":        cfg.Tracker.TickInterval.String(),
		},
		"bridge": map[string]any{
			"listen":          cfg.Bridge.Listen,
			"allowed_origins": cfg.Bridge.AllowedOrigins,
		},
		"log": map[string]any{
			"level":        cfg.Log.Level,
			"format":       cfg.Log.Format,
			"file":         cfg.Log.File,
			"max_size_mb":  cfg.Log.MaxSizeMB,
			"max_backups":  cfg.Log.MaxBackups,
			"max_age_days": cfg.Log.MaxAgeDays,
		},
	}
	raw, err := yamlv3.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return raw, nil
}

func defaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		return ".watchtrack"
	}
	return filepath.Join(base, "watchtrack")
}
