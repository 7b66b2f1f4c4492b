package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.App.Name != "makerspace-admin" {
		t.Fatalf("app name = %q", cfg.App.Name)
	}
	if cfg.App.Stage != StageDev {
		t.Fatalf("stage = %q, want DEV default", cfg.App.Stage)
	}
	if cfg.App.Addr() != "0.0.0.0:8080" {
		t.Fatalf("addr = %q", cfg.App.Addr())
	}
	if cfg.App.RequestTimeout() != 30*time.Second {
		t.Fatalf("timeout = %v", cfg.App.RequestTimeout())
	}
	if cfg.Session.AutoProvision {
		t.Fatal("auto-provision must default off")
	}
	if cfg.Auth.MinPasswordLength != 6 {
		t.Fatalf("min password length = %d", cfg.Auth.MinPasswordLength)
	}
	if !cfg.Postgres.RunMigrations {
		t.Fatal("migrations must default on")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STAGE", "beta")
	t.Setenv("SCHOOL_ID", "clemson")
	t.Setenv("SESSION_AUTO_PROVISION", "true")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Stage != StageBeta {
		t.Fatalf("stage = %q, want BETA", cfg.App.Stage)
	}
	if got := cfg.App.ResourcePrefix(); got != "beta-clemson" {
		t.Fatalf("resource prefix = %q, want beta-clemson", got)
	}
	if !cfg.Session.AutoProvision {
		t.Fatal("auto-provision override ignored")
	}
	if cfg.App.RequestTimeout() != 5*time.Second {
		t.Fatalf("timeout = %v", cfg.App.RequestTimeout())
	}
}

func TestParseStage(t *testing.T) {
	cases := map[string]Stage{
		"dev":     StageDev,
		"DEV":     StageDev,
		"beta":    StageBeta,
		"prod":    StageProd,
		"unknown": StageDev,
		"":        StageDev,
	}
	for raw, want := range cases {
		if got := ParseStage(raw); got != want {
			t.Errorf("ParseStage(%q) = %q, want %q", raw, got, want)
		}
	}
}
