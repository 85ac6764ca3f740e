package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/playperu/beasthike/internal/geo"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v, want INFO", cfg.LogLevel)
	}
	if cfg.NumBeasts != 2 {
		t.Fatalf("NumBeasts = %d, want 2", cfg.NumBeasts)
	}
	if cfg.TickInterval != time.Second {
		t.Fatalf("TickInterval = %v, want 1s", cfg.TickInterval)
	}

	course, err := cfg.Course()
	if err != nil {
		t.Fatalf("Course: %v", err)
	}
	want := geo.P(42.935364120997065, -85.58024314902549)
	if course.BeastStart != want {
		t.Fatalf("BeastStart = %v, want %v", course.BeastStart, want)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("HIKER_START", "1.5,-2.25")
	t.Setenv("TICK_INTERVAL", "250ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v, want DEBUG", cfg.LogLevel)
	}
	if cfg.TickInterval != 250*time.Millisecond {
		t.Fatalf("TickInterval = %v, want 250ms", cfg.TickInterval)
	}
	course, err := cfg.Course()
	if err != nil {
		t.Fatalf("Course: %v", err)
	}
	if course.HikerStart != geo.P(1.5, -2.25) {
		t.Fatalf("HikerStart = %v", course.HikerStart)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"bad duration", "TICK_INTERVAL", "soon"},
		{"zero interval", "TICK_INTERVAL", "0s"},
		{"bad beasts", "NUM_BEASTS", "two"},
		{"bad coordinate", "BEAST_START", "north,west"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load with %s=%q succeeded", tt.key, tt.value)
			}
		})
	}
}

func TestCourseRejectsIncompletePoint(t *testing.T) {
	t.Setenv("BEAST_START", "42.9")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := cfg.Course(); err == nil {
		t.Fatal("Course accepted a single coordinate")
	}
}
