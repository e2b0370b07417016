// Package config handles loading and saving user configuration for clinote.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/clinote/clinote/internal/backend"
)

// FileName is the name of the config file inside the config directory.
const FileName = "config.yaml"

// Config holds all user configuration for clinote.
type Config struct {
	Backend   BackendConfig   `yaml:"backend" mapstructure:"backend"`
	Downloads DownloadsConfig `yaml:"downloads" mapstructure:"downloads"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`

	// Doctor preselects a doctor code instead of the first one listed.
	Doctor string `yaml:"doctor,omitempty" mapstructure:"doctor"`
}

// BackendConfig locates the typing-engine backend.
type BackendConfig struct {
	URL     string        `yaml:"url" mapstructure:"url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"` // 0 waits indefinitely
}

// DownloadsConfig controls where generated documents are saved.
type DownloadsConfig struct {
	Dir string `yaml:"dir,omitempty" mapstructure:"dir"` // empty means ~/Downloads
}

// LogConfig controls the log file.
type LogConfig struct {
	File  string `yaml:"file" mapstructure:"file"`
	Level string `yaml:"level" mapstructure:"level"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	logFile := "clinote.log"
	if dir, err := GetConfigDir(); err == nil {
		logFile = filepath.Join(dir, "clinote.log")
	}
	return Config{
		Backend: BackendConfig{
			URL: backend.DefaultBaseURL,
		},
		Log: LogConfig{
			File:  logFile,
			Level: "info",
		},
	}
}

// SetDefaults registers the defaults with v so env vars and flags layer on top.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("backend.url", d.Backend.URL)
	v.SetDefault("backend.timeout", d.Backend.Timeout)
	v.SetDefault("downloads.dir", d.Downloads.Dir)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("doctor", "")
}

// FromViper builds a Config from the merged viper state.
func FromViper(v *viper.Viper) (Config, error) {
	timeout, err := parseDuration(v.Get("backend.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("parsing backend.timeout: %w", err)
	}
	cfg := Config{
		Backend: BackendConfig{
			URL:     v.GetString("backend.url"),
			Timeout: timeout,
		},
		Downloads: DownloadsConfig{Dir: v.GetString("downloads.dir")},
		Log: LogConfig{
			File:  v.GetString("log.file"),
			Level: v.GetString("log.level"),
		},
		Doctor: v.GetString("doctor"),
	}
	if cfg.Backend.URL == "" {
		cfg.Backend.URL = backend.DefaultBaseURL
	}
	return cfg, nil
}

func parseDuration(raw any) (time.Duration, error) {
	switch t := raw.(type) {
	case nil:
		return 0, nil
	case time.Duration:
		return t, nil
	case int:
		return time.Duration(t) * time.Second, nil
	case string:
		if t == "" {
			return 0, nil
		}
		return time.ParseDuration(t)
	}
	return 0, fmt.Errorf("unsupported value %v", raw)
}

// Load reads a config file written by Save.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes cfg as YAML.
func Save(path string, cfg Config) error {
	out, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// GetConfigDir returns the default configuration directory.
func GetConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "clinote"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "clinote"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
