package identify

import (
	"context"
	"errors"
	"testing"

	"estoquechat/internal/prefs"
)

type recordingDeliverer struct {
	commands []string
}

func (r *recordingDeliverer) Deliver(_ context.Context, command string) {
	r.commands = append(r.commands, command)
}

func newMachine(t *testing.T) (*Machine, *prefs.Flags, *recordingDeliverer, *int) {
	t.Helper()
	flags := prefs.NewFlags(prefs.NewMemoryStore())
	deliverer := &recordingDeliverer{}
	focused := 0
	m := New(flags, deliverer, Hooks{Focus: func() { focused++ }}, nil)
	return m, flags, deliverer, &focused
}

func TestConfirmEmptyStaysOpen(t *testing.T) {
	ctx := context.Background()
	m, flags, deliverer, focused := newMachine(t)
	var warned string
	m.hooks.Warn = func(text string) { warned = text }

	m.Open()
	m.SetInput("   ")
	if _, err := m.Confirm(ctx); !errors.Is(err, ErrEmptySellerID) {
		t.Fatalf("expected ErrEmptySellerID, got %v", err)
	}
	if !m.IsOpen() {
		t.Fatalf("expected dialog to stay open")
	}
	if warned == "" {
		t.Fatalf("expected a validation notice")
	}
	if *focused != 2 {
		t.Fatalf("expected focus on open and after failed confirm, got %d", *focused)
	}
	if identified, _ := flags.UserIdentified(ctx); identified {
		t.Fatalf("expected userIdentified untouched")
	}
	if len(deliverer.commands) != 0 {
		t.Fatalf("expected nothing delivered, got %v", deliverer.commands)
	}
}

func TestConfirmDeliversOnce(t *testing.T) {
	ctx := context.Background()
	m, flags, deliverer, _ := newMachine(t)
	var banner []bool
	m.hooks.BannerChanged = func(v bool) { banner = append(banner, v) }

	m.Open()
	m.SetInput(" seller123 ")
	cmd, err := m.Confirm(ctx)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if cmd != "identificar seller123" {
		t.Fatalf("unexpected command %q", cmd)
	}
	if len(deliverer.commands) != 1 || deliverer.commands[0] != cmd {
		t.Fatalf("expected exactly one delivery, got %v", deliverer.commands)
	}
	if m.IsOpen() || m.Input() != "" {
		t.Fatalf("expected dialog closed with cleared field")
	}
	if m.BannerVisible() || len(banner) != 1 || banner[0] {
		t.Fatalf("expected banner hidden once, got %v", banner)
	}
	if identified, _ := flags.UserIdentified(ctx); !identified {
		t.Fatalf("expected userIdentified persisted")
	}
	if _, err := m.Confirm(ctx); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("expected second confirm to be rejected, got %v", err)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	m, _, _, focused := newMachine(t)
	if !m.Open() {
		t.Fatalf("expected first open to transition")
	}
	m.SetInput("partial")
	if m.Open() {
		t.Fatalf("expected second open to be a no-op")
	}
	if m.Input() != "partial" || *focused != 1 {
		t.Fatalf("expected field and focus untouched by repeated open")
	}
}

func TestCancelHasNoSideEffects(t *testing.T) {
	ctx := context.Background()
	m, flags, deliverer, _ := newMachine(t)
	m.Open()
	m.SetInput("seller1")
	m.ClickOutside()
	if m.IsOpen() || len(deliverer.commands) != 0 || !m.BannerVisible() {
		t.Fatalf("expected plain close")
	}
	if identified, _ := flags.UserIdentified(ctx); identified {
		t.Fatalf("expected flag untouched")
	}
	m.SetInput("ignored")
	if m.Input() != "" {
		t.Fatalf("expected input ignored while closed")
	}
}

func TestApplySuppression(t *testing.T) {
	ctx := context.Background()
	m, flags, _, _ := newMachine(t)
	if err := m.ApplySuppression(ctx); err != nil || !m.BannerVisible() {
		t.Fatalf("expected banner visible on fresh store, err=%v", err)
	}
	_ = flags.SetAlertDismissed(ctx, true)
	if err := m.ApplySuppression(ctx); err != nil || m.BannerVisible() {
		t.Fatalf("expected banner hidden after dismissal, err=%v", err)
	}
}

func TestDismissBannerPersists(t *testing.T) {
	ctx := context.Background()
	m, flags, _, _ := newMachine(t)
	if err := m.DismissBanner(ctx); err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	if dismissed, _ := flags.AlertDismissed(ctx); !dismissed || m.BannerVisible() {
		t.Fatalf("expected dismissal persisted and banner hidden")
	}
}

func TestTargetsIdentification(t *testing.T) {
	cases := map[string]bool{
		"/identificar ":        true,
		"identificar":          true,
		"IDENTIFICAR":          true,
		"identificar seller1":  false,
		"/identificar seller1": false,
		"listar":               false,
		"":                     false,
	}
	for input, want := range cases {
		if got := TargetsIdentification(input); got != want {
			t.Fatalf("TargetsIdentification(%q) = %v, want %v", input, got, want)
		}
	}
}
