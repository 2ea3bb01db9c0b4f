package main

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestLoadMigrations(t *testing.T) {
	migrations, err := loadMigrations(migrationsFS)
	if err != nil {
		t.Fatalf("unexpected error loading embedded migrations: %v", err)
	}
	if len(migrations) < 2 {
		t.Fatalf("expected at least 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "macro_schema" {
		t.Fatalf("unexpected first migration: %d %s", migrations[0].Version, migrations[0].Name)
	}
	if migrations[1].Version != 2 || migrations[1].Name != "seed_regimes" {
		t.Fatalf("unexpected second migration: %d %s", migrations[1].Version, migrations[1].Name)
	}
	if migrations[0].UpSQL == "" || migrations[0].DownSQL == "" {
		t.Fatal("expected non-empty up/down sql for first migration")
	}
	for _, table := range []string{"macro_observation", "market_index", "index_indicator_weight", "volatility_snapshot", "bias_score"} {
		if !strings.Contains(migrations[0].UpSQL, table) {
			t.Fatalf("schema migration missing table %s", table)
		}
	}
	if !strings.Contains(migrations[1].UpSQL, "'neutral'") || !strings.Contains(migrations[1].UpSQL, "'recessionary'") {
		t.Fatal("regime seed must include neutral and recessionary")
	}
}

func TestLoadMigrationsRejectsBadInput(t *testing.T) {
	cases := map[string]fstest.MapFS{
		"bad name": {
			"migrations/1-init.up.sql": {Data: []byte("SELECT 1;")},
		},
		"missing down": {
			"migrations/000001_init.up.sql": {Data: []byte("SELECT 1;")},
		},
		"empty file": {
			"migrations/000001_init.up.sql":   {Data: []byte("  ")},
			"migrations/000001_init.down.sql": {Data: []byte("SELECT 1;")},
		},
		"conflicting names": {
			"migrations/000001_init.up.sql":    {Data: []byte("SELECT 1;")},
			"migrations/000001_other.down.sql": {Data: []byte("SELECT 1;")},
		},
		"no files": {},
	}
	for name, fsys := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := loadMigrations(fsys); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseSteps(t *testing.T) {
	if n, err := parseSteps(cmdDown, nil); err != nil || n != 1 {
		t.Fatalf("expected default 1 step, got %d %v", n, err)
	}
	if n, err := parseSteps(cmdDown, []string{"3"}); err != nil || n != 3 {
		t.Fatalf("expected 3 steps, got %d %v", n, err)
	}
	if _, err := parseSteps(cmdDown, []string{"0"}); err == nil {
		t.Fatal("expected error for zero steps")
	}
	if _, err := parseSteps(cmdUp, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := parseSteps("sideways", nil); err == nil {
		t.Fatal("expected error for unknown command")
	}
}
