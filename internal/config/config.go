package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvConfigFile names the environment variable pointing at an optional
// YAML or TOML config file.
const EnvConfigFile = "BOXOFFICE_CONFIG"

// Config captures all runtime configuration. Values come from defaults,
// then an optional config file, then environment variables.
type Config struct {
	Port             string  `yaml:"port" toml:"port"`
	TMDBAPIKey       string  `yaml:"tmdb_api_key" toml:"tmdb_api_key"`
	TMDBBaseURL      string  `yaml:"tmdb_base_url" toml:"tmdb_base_url"`
	TMDBImageBaseURL string  `yaml:"tmdb_image_base_url" toml:"tmdb_image_base_url"`
	TMDBLanguage     string  `yaml:"tmdb_language" toml:"tmdb_language"`
	TMDBWatchRegion  string  `yaml:"tmdb_watch_region" toml:"tmdb_watch_region"`
	TMDBTimeoutSecs  int     `yaml:"tmdb_timeout_secs" toml:"tmdb_timeout_secs"`
	ReadTimeoutSecs  int     `yaml:"server_read_timeout" toml:"server_read_timeout"`
	WriteTimeoutSecs int     `yaml:"server_write_timeout" toml:"server_write_timeout"`
	IdleTimeoutSecs  int     `yaml:"server_idle_timeout" toml:"server_idle_timeout"`
	LogLevel         string  `yaml:"log_level" toml:"log_level"`
	LogJSON          bool    `yaml:"log_json" toml:"log_json"`
	JPYExchangeRate  float64 `yaml:"jpy_exchange_rate" toml:"jpy_exchange_rate"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		Port:             "8080",
		TMDBBaseURL:      "https://api.themoviedb.org/3",
		TMDBImageBaseURL: "https://image.tmdb.org/t/p/",
		TMDBWatchRegion:  "US",
		TMDBTimeoutSecs:  10,
		ReadTimeoutSecs:  15,
		WriteTimeoutSecs: 30,
		IdleTimeoutSecs:  60,
		LogLevel:         "info",
		JPYExchangeRate:  150,
	}
}

// Load reads configuration from the file named by BOXOFFICE_CONFIG (if any)
// and environment variables, applying defaults and validation.
func Load() (Config, error) {
	return LoadFile(os.Getenv(EnvConfigFile))
}

// LoadFile is Load with an explicit config file path. An empty path skips
// the file layer.
func LoadFile(path string) (Config, error) {
	cfg := Defaults()
	if path = strings.TrimSpace(path); path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required values and bounds.
func (c Config) Validate() error {
	if strings.TrimSpace(c.TMDBAPIKey) == "" {
		return fmt.Errorf("TMDB_API_KEY is required")
	}
	if strings.TrimSpace(c.TMDBBaseURL) == "" {
		return fmt.Errorf("TMDB_BASE_URL is required")
	}
	if c.TMDBTimeoutSecs <= 0 {
		return fmt.Errorf("TMDB_TIMEOUT_SECS must be positive")
	}
	if len(strings.TrimSpace(c.TMDBWatchRegion)) != 2 {
		return fmt.Errorf("TMDB_WATCH_REGION must be a two-letter country code")
	}
	if c.ReadTimeoutSecs <= 0 || c.WriteTimeoutSecs <= 0 || c.IdleTimeoutSecs <= 0 {
		return fmt.Errorf("SERVER_READ_TIMEOUT, SERVER_WRITE_TIMEOUT and SERVER_IDLE_TIMEOUT must be positive")
	}
	if c.JPYExchangeRate <= 0 {
		return fmt.Errorf("JPY_EXCHANGE_RATE must be positive")
	}
	return nil
}

func decodeFile(path string, cfg *Config) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(payload, cfg); err != nil {
			return fmt.Errorf("parse yaml config %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(payload, cfg); err != nil {
			return fmt.Errorf("parse toml config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file extension %q", filepath.Ext(path))
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.TMDBAPIKey = getEnv("TMDB_API_KEY", cfg.TMDBAPIKey)
	cfg.TMDBBaseURL = getEnv("TMDB_BASE_URL", cfg.TMDBBaseURL)
	cfg.TMDBImageBaseURL = getEnv("TMDB_IMAGE_BASE_URL", cfg.TMDBImageBaseURL)
	cfg.TMDBLanguage = getEnv("TMDB_LANGUAGE", cfg.TMDBLanguage)
	cfg.TMDBWatchRegion = strings.ToUpper(getEnv("TMDB_WATCH_REGION", cfg.TMDBWatchRegion))
	cfg.TMDBTimeoutSecs = getEnvInt("TMDB_TIMEOUT_SECS", cfg.TMDBTimeoutSecs)
	cfg.ReadTimeoutSecs = getEnvInt("SERVER_READ_TIMEOUT", cfg.ReadTimeoutSecs)
	cfg.WriteTimeoutSecs = getEnvInt("SERVER_WRITE_TIMEOUT", cfg.WriteTimeoutSecs)
	cfg.IdleTimeoutSecs = getEnvInt("SERVER_IDLE_TIMEOUT", cfg.IdleTimeoutSecs)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogJSON = getEnvBool("LOG_JSON", cfg.LogJSON)
	cfg.JPYExchangeRate = getEnvFloat("JPY_EXCHANGE_RATE", cfg.JPYExchangeRate)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
