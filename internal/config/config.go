// Package config loads client settings from the environment, with an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config carries every environment-driven setting of the client.
type Config struct {
	APIBaseURL   string `env:"API_BASE_URL,required"`
	DataDir      string `env:"SCHEDSYNC_DATA_DIR"`
	FetchSeconds int64  `env:"FETCH_INTERVAL_SECONDS" envDefault:"600"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	Timezone     string `env:"PRIMARY_TIMEZONE" envDefault:"UTC"`

	CalDAVEndpoint string `env:"CALDAV_ENDPOINT"`
	CalDAVUsername string `env:"CALDAV_USERNAME"`
	CalDAVPassword string `env:"CALDAV_APP_PASSWORD"`
	CalDAVCalendar string `env:"CALDAV_CALENDAR_NAME"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleCalendarID   string `env:"GOOGLE_CALENDAR_ID" envDefault:"primary"`
}

// Load reads a .env file if present, then parses the environment. The data
// directory defaults to ~/.schedsync.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("could not resolve home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".schedsync")
	}
	return cfg, nil
}

// FetchInterval returns the minimum delay between remote delta fetches.
func (c Config) FetchInterval() time.Duration {
	return time.Duration(c.FetchSeconds) * time.Second
}

// Location resolves the configured primary timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w", c.Timezone, err)
	}
	return loc, nil
}
