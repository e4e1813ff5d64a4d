// Package config loads server configuration.
//
// Precedence, lowest first: defaults, YAML file, .env file, process
// environment. Command-line flags are applied by cmd/server on top.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port      int    `yaml:"port"`
	DBPath    string `yaml:"db_path"`
	LogLevel  string `yaml:"log_level"`
	LogPretty bool   `yaml:"log_pretty"`

	// RatesFile is a YAML/JSON rate table; empty uses the built-in table.
	RatesFile string `yaml:"rates_file"`

	Quality   QualityConfig   `yaml:"quality"`
	Batch     BatchConfig     `yaml:"batch"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

type QualityConfig struct {
	GraceDays int `yaml:"grace_days"`
}

type BatchConfig struct {
	Workers int `yaml:"workers"`
}

// SchedulerConfig drives the periodic recompute of the current month.
type SchedulerConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

func Default() Config {
	return Config{
		Port:      8080,
		DBPath:    "shaho.db",
		LogLevel:  "info",
		Quality:   QualityConfig{GraceDays: 31},
		Batch:     BatchConfig{Workers: 8},
		Scheduler: SchedulerConfig{Interval: time.Hour},
	}
}

// Load builds the configuration. A missing file at path or a missing .env
// is not an error; an unreadable or malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("PORT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		cfg.Port = n
	}
	if v, ok := os.LookupEnv("DB_PATH"); ok {
		cfg.DBPath = v
	}
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv("LOG_PRETTY"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LOG_PRETTY: %w", err)
		}
		cfg.LogPretty = b
	}
	if v, ok := os.LookupEnv("RATES_FILE"); ok {
		cfg.RatesFile = v
	}
	if v, ok := os.LookupEnv("QUALITY_GRACE_DAYS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("QUALITY_GRACE_DAYS: %w", err)
		}
		cfg.Quality.GraceDays = n
	}
	if v, ok := os.LookupEnv("BATCH_WORKERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BATCH_WORKERS: %w", err)
		}
		cfg.Batch.Workers = n
	}
	if v, ok := os.LookupEnv("SCHEDULER_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SCHEDULER_ENABLED: %w", err)
		}
		cfg.Scheduler.Enabled = b
	}
	if v, ok := os.LookupEnv("SCHEDULER_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SCHEDULER_INTERVAL: %w", err)
		}
		cfg.Scheduler.Interval = d
	}
	return nil
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.DBPath == "" {
		return errors.New("db_path is required")
	}
	if c.Quality.GraceDays < 0 {
		return fmt.Errorf("quality.grace_days %d is negative", c.Quality.GraceDays)
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("batch.workers %d must be positive", c.Batch.Workers)
	}
	if c.Scheduler.Enabled && c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval %s must be positive", c.Scheduler.Interval)
	}
	return nil
}
