package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Sweep.SweepSchedule != "@midnight" {
		t.Errorf("sweep schedule default = %q", cfg.Sweep.SweepSchedule)
	}
	if cfg.Sweep.RefreshSchedule != "@hourly" {
		t.Errorf("refresh schedule default = %q", cfg.Sweep.RefreshSchedule)
	}
	if cfg.Database.URL == "" {
		t.Error("database URL should be derived from parts")
	}
}

func TestGetDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "90s")
	if got := getDuration("TEST_DURATION", time.Second); got != 90*time.Second {
		t.Errorf("parsed duration = %v", got)
	}

	t.Setenv("TEST_DURATION", "45")
	if got := getDuration("TEST_DURATION", time.Second); got != 45*time.Second {
		t.Errorf("bare seconds = %v", got)
	}

	t.Setenv("TEST_DURATION", "garbage")
	if got := getDuration("TEST_DURATION", 7*time.Second); got != 7*time.Second {
		t.Errorf("fallback = %v", got)
	}
}

func TestGetBool(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")
	if !getBool("TEST_BOOL", false) {
		t.Error("true not parsed")
	}
	t.Setenv("TEST_BOOL", "not-a-bool")
	if !getBool("TEST_BOOL", true) {
		t.Error("fallback not used")
	}
}

func TestAddress(t *testing.T) {
	cfg := &Config{HTTP: HTTPConfig{Host: "127.0.0.1", Port: "9090"}}
	if got := cfg.Address(); got != "127.0.0.1:9090" {
		t.Errorf("address = %q", got)
	}
}
