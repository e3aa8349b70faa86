// Package config loads the timeblocks configuration file. Every field can be
// overridden by a TIMEBLOCKS_* environment variable.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"github.com/sadopc/timeblocks/internal/store"
	"github.com/sadopc/timeblocks/internal/timefmt"
	"github.com/sadopc/timeblocks/internal/tracker"
)

type Config struct {
	// DBPath defaults to the timeblocks directory under the user config dir.
	DBPath   string    `yaml:"db_path" env:"TIMEBLOCKS_DB_PATH"`
	Locale   string    `yaml:"locale" env:"TIMEBLOCKS_LOCALE" env-default:"en"`
	Timezone string    `yaml:"timezone" env:"TIMEBLOCKS_TIMEZONE"`
	Lap      LapConfig `yaml:"lap"`
	Log      LogConfig `yaml:"log"`
}

type LapConfig struct {
	Suffix       string `yaml:"suffix" env:"TIMEBLOCKS_LAP_SUFFIX" env-default:"번째"`
	DefaultLabel string `yaml:"default_label" env:"TIMEBLOCKS_LAP_LABEL" env-default:"판"`
}

type LogConfig struct {
	Path  string `yaml:"path" env:"TIMEBLOCKS_LOG_PATH"`
	Level string `yaml:"level" env:"TIMEBLOCKS_LOG_LEVEL" env-default:"info"`
}

// Default is the configuration written on first run.
func Default() Config {
	return Config{
		Locale: "en",
		Lap: LapConfig{
			Suffix:       tracker.DefaultOrdinalSuffix,
			DefaultLabel: tracker.DefaultLapLabel,
		},
		Log: LogConfig{Level: "info"},
	}
}

func Dir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return filepath.Join(dir, "timeblocks"), nil
}

func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config file at path, creating it with Default when it does
// not exist. An empty path selects DefaultPath. Empty paths in the file are
// filled in from the config directory.
func Load(path string) (Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}
	if err := writeDefault(path); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if cfg.DBPath == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return Config{}, err
		}
		cfg.DBPath = p
	}
	if cfg.Log.Path == "" {
		cfg.Log.Path = filepath.Join(filepath.Dir(cfg.DBPath), "timeblocks.log")
	}
	if _, err := cfg.Location(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func writeDefault(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	header := []byte("# timeblocks configuration. Empty paths use the config directory.\n")
	if err := os.WriteFile(path, append(header, data...), 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}

// Location is the zone that decides calendar days. An empty Timezone means
// the system zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c Config) Language() timefmt.Locale {
	return timefmt.ParseLocale(c.Locale)
}

func (c Config) Namer() tracker.Namer {
	return tracker.NewNamer(c.Lap.Suffix, c.Lap.DefaultLabel)
}
