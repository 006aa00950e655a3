package main

import (
	"flag"
	"testing"
	"time"
)

func TestParseFlagsDefaults(t *testing.T) {
	t.Setenv("ESTOQUE_STUB_ADDR", "")
	t.Setenv("ESTOQUE_STUB_DELAY_MS", "")
	cfg, err := parseFlags(flag.NewFlagSet("stub", flag.ContinueOnError), nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.addr != ":8081" || !cfg.available || cfg.delay != 0 || cfg.rateLimit != 120 {
		t.Fatalf("unexpected defaults %#v", cfg)
	}
}

func TestParseFlagsEnvAndClamp(t *testing.T) {
	t.Setenv("ESTOQUE_STUB_AVAILABLE", "false")
	t.Setenv("ESTOQUE_STUB_DELAY_MS", "250")
	cfg, err := parseFlags(flag.NewFlagSet("stub", flag.ContinueOnError), []string{"-rate-limit", "-5", "-addr", "127.0.0.1:9000"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.available {
		t.Fatalf("expected unavailable from env")
	}
	if cfg.delay != 250*time.Millisecond {
		t.Fatalf("expected 250ms delay, got %s", cfg.delay)
	}
	if cfg.rateLimit != 0 || cfg.addr != "127.0.0.1:9000" {
		t.Fatalf("unexpected config %#v", cfg)
	}
}
