package migrations_test

import (
	"context"
	"testing"

	"github.com/playperu/beasthike/internal/database"
	"github.com/playperu/beasthike/internal/migrations"
)

func TestMigrations(t *testing.T) {
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	applied, err := migrations.Run(context.Background(), db)
	if err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	if len(applied) != 1 || applied[0] != 1 {
		t.Errorf("applied = %v, want [1]", applied)
	}

	var name string
	err = db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?", "game_state",
	).Scan(&name)
	if err != nil {
		t.Errorf("table game_state not found: %v", err)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if _, err := migrations.Run(context.Background(), db); err != nil {
		t.Fatalf("first run: %v", err)
	}
	applied, err := migrations.Run(context.Background(), db)
	if err != nil {
		t.Fatalf("second run (should be no-op): %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("second run applied %v", applied)
	}
}
