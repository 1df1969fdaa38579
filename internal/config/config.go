// Package config loads client configuration from a YAML file and environment.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultAPIURL is the hosted Degree Dialog deployment.
const DefaultAPIURL = "https://degree-dialog-1-1.onrender.com"

// Config holds all configuration values.
type Config struct {
	// Degree Dialog API
	APIURL         string
	RequestTimeout time.Duration

	// Local state
	CredentialsFile string

	// Logging
	LogFile  string
	LogLevel slog.Level

	// Session list presentation
	PreviewLength int
}

// fileConfig mirrors Config for YAML decoding; durations and levels are
// strings on disk.
type fileConfig struct {
	APIURL          string `yaml:"api_url"`
	RequestTimeout  string `yaml:"request_timeout"`
	CredentialsFile string `yaml:"credentials_file"`
	LogFile         string `yaml:"log_file"`
	LogLevel        string `yaml:"log_level"`
	PreviewLength   int    `yaml:"preview_length"`
}

// Load reads configuration with precedence: defaults, then the config file,
// then environment variables.
func Load() Config {
	cfg := Config{
		APIURL:          DefaultAPIURL,
		RequestTimeout:  30 * time.Second,
		CredentialsFile: defaultStatePath("credentials.json"),
		LogFile:         defaultStatePath("dialog.log"),
		LogLevel:        slog.LevelInfo,
		PreviewLength:   50,
	}

	if fc, ok := readConfigFile(); ok {
		if fc.APIURL != "" {
			cfg.APIURL = fc.APIURL
		}
		if fc.RequestTimeout != "" {
			if d, err := time.ParseDuration(fc.RequestTimeout); err == nil {
				cfg.RequestTimeout = d
			}
		}
		if fc.CredentialsFile != "" {
			cfg.CredentialsFile = fc.CredentialsFile
		}
		if fc.LogFile != "" {
			cfg.LogFile = fc.LogFile
		}
		if fc.LogLevel != "" {
			cfg.LogLevel = parseLogLevel(fc.LogLevel)
		}
		if fc.PreviewLength > 0 {
			cfg.PreviewLength = fc.PreviewLength
		}
	}

	cfg.APIURL = getEnv("DIALOG_API_URL", cfg.APIURL)
	cfg.CredentialsFile = getEnv("DIALOG_CREDENTIALS_FILE", cfg.CredentialsFile)
	cfg.LogFile = getEnv("DIALOG_LOG_FILE", cfg.LogFile)
	if lvl := os.Getenv("DIALOG_LOG_LEVEL"); lvl != "" {
		cfg.LogLevel = parseLogLevel(lvl)
	}
	if t := os.Getenv("DIALOG_REQUEST_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			cfg.RequestTimeout = d
		}
	}

	return cfg
}

// configFilePath returns the config file location, honoring DIALOG_CONFIG.
func configFilePath() string {
	if p := os.Getenv("DIALOG_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "dialog", "config.yaml")
}

func readConfigFile() (fileConfig, bool) {
	var fc fileConfig

	path := configFilePath()
	if path == "" {
		return fc, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, false
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		slog.Warn("ignoring malformed config file", "path", path, "error", err)
		return fileConfig{}, false
	}
	return fc, true
}

// defaultStatePath places client state under ~/.config/dialog.
func defaultStatePath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".config", "dialog", name)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
