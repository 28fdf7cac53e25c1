package config

import "testing"

func TestParseCSV(t *testing.T) {
	got := parseCSV("kafka-1:9092, kafka-2:9092, ,kafka-3:9092,,")
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}
	if got[0] != "kafka-1:9092" || got[2] != "kafka-3:9092" {
		t.Fatalf("unexpected values: %#v", got)
	}
	if parseCSV("") != nil {
		t.Fatalf("expected nil for empty input")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/conduit")

	cfg, problems := Load("api", 8080)
	if len(problems) != 0 {
		t.Fatalf("unexpected problems: %#v", problems)
	}
	if cfg.HTTPPort != 8080 || cfg.DBMaxConns != 10 || cfg.EventLogPath != "events.log" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.EventLogEnabled {
		t.Fatalf("event log should default to disabled")
	}
}

func TestLoadReportsProblems(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("HTTP_PORT", "not-a-port")
	t.Setenv("DB_MIN_CONNS", "20")
	t.Setenv("DB_MAX_CONNS", "5")
	t.Setenv("EVENT_LOG_ENABLED", "maybe")

	cfg, problems := Load("api", 8080)
	if len(problems) < 3 {
		t.Fatalf("expected at least 3 problems, got %#v", problems)
	}
	if cfg.HTTPPort != 8080 {
		t.Fatalf("expected port to fall back to default, got %d", cfg.HTTPPort)
	}
	if cfg.DBMinConns != cfg.DBMaxConns {
		t.Fatalf("expected min conns clamped to max, got %d/%d", cfg.DBMinConns, cfg.DBMaxConns)
	}
	if cfg.EventLogEnabled {
		t.Fatalf("unparseable EVENT_LOG_ENABLED must leave the default")
	}
}

func TestLoadMissingEnv(t *testing.T) {
	t.Setenv("ENV", "")

	cfg, problems := Load("api", 8080)
	if cfg.Env != "dev" {
		t.Fatalf("expected dev fallback, got %q", cfg.Env)
	}
	found := false
	for _, p := range problems {
		if p.Field == "ENV" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected ENV problem, got %#v", problems)
	}
}
