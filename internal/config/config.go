package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/playperu/beasthike/internal/game"
	"github.com/playperu/beasthike/internal/geo"
)

type Config struct {
	HTTPAddr  string     `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	DBPath    string     `env:"DB_PATH" envDefault:"data/beasthike.db"`
	StaticDir string     `env:"STATIC_DIR" envDefault:"static"`

	// GeneratorsPath overrides the embedded generator catalogue.
	GeneratorsPath string `env:"GENERATORS_PATH"`
	// LinesPath is the trail polyline file served at /lines.
	LinesPath string `env:"LINES_PATH"`

	NumBeasts    int           `env:"NUM_BEASTS" envDefault:"2"`
	BeastStart   []float64     `env:"BEAST_START" envSeparator:"," envDefault:"42.935364120997065,-85.58024314902549"`
	HikerStart   []float64     `env:"HIKER_START" envSeparator:"," envDefault:"42.93281267847854,-85.58172657791411"`
	TickInterval time.Duration `env:"TICK_INTERVAL" envDefault:"1s"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.TickInterval <= 0 {
		return nil, fmt.Errorf("TICK_INTERVAL must be positive, got %s", cfg.TickInterval)
	}
	return &cfg, nil
}

// Course returns the configured start points.
func (c *Config) Course() (game.Course, error) {
	beast, err := point("BEAST_START", c.BeastStart)
	if err != nil {
		return game.Course{}, err
	}
	hiker, err := point("HIKER_START", c.HikerStart)
	if err != nil {
		return game.Course{}, err
	}
	return game.Course{BeastStart: beast, HikerStart: hiker}, nil
}

func point(name string, v []float64) (geo.Point, error) {
	if len(v) != 2 {
		return geo.Point{}, fmt.Errorf("%s must be \"lat,long\", got %d values", name, len(v))
	}
	return geo.P(v[0], v[1]), nil
}
