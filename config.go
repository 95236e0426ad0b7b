package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config carries the runtime tunables for the match server. Values come from
// the environment; zero or out-of-range values fall back to the defaults.
type Config struct {
	Addr           string        `env:"LASERTAG_ADDR" envDefault:":8080"`
	MatchSeconds   int           `env:"LASERTAG_MATCH_SECONDS" envDefault:"180"`
	PersistSeconds int           `env:"LASERTAG_PERSIST_SECONDS" envDefault:"300"`
	PositionTTL    time.Duration `env:"LASERTAG_POSITION_TTL" envDefault:"10s"`
	PowerupChance  float64       `env:"LASERTAG_POWERUP_CHANCE" envDefault:"0.06"`
	Seed           string        `env:"LASERTAG_SEED"`
	Dev            bool          `env:"LASERTAG_DEV"`
}

// LoadConfig reads the environment into a Config with defaults applied.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg.normalized(), nil
}

// normalized returns a config with defaults applied to unusable values.
func (cfg Config) normalized() Config {
	normalized := cfg
	normalized.Addr = strings.TrimSpace(normalized.Addr)
	if normalized.Addr == "" {
		normalized.Addr = ":8080"
	}
	if normalized.MatchSeconds <= 0 {
		normalized.MatchSeconds = defaultMatchSeconds
	}
	if normalized.PersistSeconds <= 0 {
		normalized.PersistSeconds = defaultPersistSeconds
	}
	if normalized.PositionTTL <= 0 {
		normalized.PositionTTL = defaultPositionTTL
	}
	if normalized.PowerupChance < 0 {
		normalized.PowerupChance = 0
	}
	if normalized.PowerupChance > 1 {
		normalized.PowerupChance = 1
	}
	normalized.Seed = strings.TrimSpace(normalized.Seed)
	return normalized
}

// DefaultConfig is the config used when no environment overrides exist.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		MatchSeconds:   defaultMatchSeconds,
		PersistSeconds: defaultPersistSeconds,
		PositionTTL:    defaultPositionTTL,
		PowerupChance:  defaultPowerupChance,
	}
}
