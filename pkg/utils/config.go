package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config is the runtime configuration shared by the server and mangactl.
type Config struct {
	HTTPAddr string `toml:"http_addr"`
	FeedAddr string `toml:"feed_addr"` // TCP change feed; empty disables it

	Store    string `toml:"store"` // "file" or "sqlite"
	DataPath string `toml:"data_path"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	LogFile   string `toml:"log_file"`
}

func DefaultConfig() Config {
	return Config{
		HTTPAddr:  ":4000",
		Store:     "file",
		DataPath:  "data/mangas.json",
		LogLevel:  "info",
		LogFormat: "auto",
		LogFile:   "combined.log",
	}
}

// LoadConfig applies, in order: defaults, the TOML file at path (skipped when
// path is empty or the file does not exist), then MANGASHELF_* env vars.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := toml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := []struct {
		key string
		dst *string
	}{
		{"MANGASHELF_HTTP_ADDR", &cfg.HTTPAddr},
		{"MANGASHELF_FEED_ADDR", &cfg.FeedAddr},
		{"MANGASHELF_STORE", &cfg.Store},
		{"MANGASHELF_DATA_PATH", &cfg.DataPath},
		{"MANGASHELF_LOG_LEVEL", &cfg.LogLevel},
		{"MANGASHELF_LOG_FORMAT", &cfg.LogFormat},
		{"MANGASHELF_LOG_FILE", &cfg.LogFile},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.key); ok {
			*o.dst = strings.TrimSpace(v)
		}
	}
}

func (c Config) Validate() error {
	switch strings.ToLower(c.Store) {
	case "file", "sqlite":
	default:
		return fmt.Errorf("config: store must be \"file\" or \"sqlite\", got %q", c.Store)
	}
	if strings.TrimSpace(c.DataPath) == "" {
		return errors.New("config: data_path required")
	}
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return errors.New("config: http_addr required")
	}
	return nil
}
