// Package config loads service configuration from an optional YAML file
// with environment overrides. Every field has a usable default so the
// binary runs with no config at all.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const snapshotFile = "applicant_data.json"

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Storage StorageConfig `yaml:"storage"`
	Ollama  OllamaConfig  `yaml:"ollama"`
	Scrape  ScrapeConfig  `yaml:"scrape"`
	Refresh RefreshConfig `yaml:"refresh"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

type OllamaConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type ScrapeConfig struct {
	BaseURL   string `yaml:"base_url"`
	UserAgent string `yaml:"user_agent"`
	StartPage int    `yaml:"start_page"`
	EndPage   int    `yaml:"end_page"`
}

type RefreshConfig struct {
	// Schedule is a cron expression; empty disables scheduled refreshes.
	Schedule  string `yaml:"schedule"`
	StartPage int    `yaml:"start_page"`
	EndPage   int    `yaml:"end_page"`
}

func Default() Config {
	return Config{
		Server:  ServerConfig{Port: 8080},
		Log:     LogConfig{Level: "info"},
		Storage: StorageConfig{DataDir: "./data"},
		Ollama: OllamaConfig{
			BaseURL: "http://localhost:11434",
			Model:   "tinyllama",
		},
		Scrape: ScrapeConfig{
			StartPage: 1,
			EndPage:   20,
		},
		Refresh: RefreshConfig{
			StartPage: 1,
			EndPage:   10,
		},
	}
}

// Load reads the config file at path and applies ADMITDB_* environment
// overrides on top. A missing file is not an error; an unreadable or
// malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// defaults only
		case err != nil:
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Log.Level, "ADMITDB_LOG_LEVEL")
	setString(&cfg.Storage.DataDir, "ADMITDB_DATA_DIR")
	setString(&cfg.Ollama.BaseURL, "ADMITDB_OLLAMA_URL")
	setString(&cfg.Ollama.Model, "ADMITDB_OLLAMA_MODEL")
	setString(&cfg.Scrape.BaseURL, "ADMITDB_SCRAPE_URL")
	setString(&cfg.Scrape.UserAgent, "ADMITDB_SCRAPE_USER_AGENT")
	setString(&cfg.Refresh.Schedule, "ADMITDB_REFRESH_SCHEDULE")
	setInt(&cfg.Server.Port, "ADMITDB_PORT")
	setInt(&cfg.Scrape.StartPage, "ADMITDB_SCRAPE_START_PAGE")
	setInt(&cfg.Scrape.EndPage, "ADMITDB_SCRAPE_END_PAGE")
	setInt(&cfg.Refresh.StartPage, "ADMITDB_REFRESH_START_PAGE")
	setInt(&cfg.Refresh.EndPage, "ADMITDB_REFRESH_END_PAGE")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// SnapshotPath is where the raw scrape snapshot, and with it the delta
// marker, lives.
func (c Config) SnapshotPath() string {
	if c.Storage.DataDir == ":memory:" {
		return snapshotFile
	}
	return filepath.Join(c.Storage.DataDir, snapshotFile)
}

// LogLevel maps the configured level name onto slog's scale; unrecognized
// names mean info.
func (c Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
