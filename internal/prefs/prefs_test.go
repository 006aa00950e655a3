package prefs

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "prefs.db")

	store, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	flags := NewFlags(store)
	if identified, err := flags.UserIdentified(ctx); err != nil || identified {
		t.Fatalf("expected fresh store to be unidentified, got %v err=%v", identified, err)
	}
	if err := flags.SetUserIdentified(ctx, true); err != nil {
		t.Fatalf("set identified: %v", err)
	}
	if err := flags.SetUserIdentified(ctx, true); err != nil {
		t.Fatalf("upsert identified: %v", err)
	}
	if _, err := flags.ToggleTheme(ctx); err != nil {
		t.Fatalf("toggle theme: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	raw, ok, err := reopened.Get(ctx, KeyUserIdentified)
	if err != nil || !ok || raw != "true" {
		t.Fatalf("expected persisted \"true\", got %q ok=%v err=%v", raw, ok, err)
	}
	theme, err := NewFlags(reopened).Theme(ctx)
	if err != nil || theme != ThemeLight {
		t.Fatalf("expected light theme after one toggle, got %q err=%v", theme, err)
	}
}

func TestThemeCycle(t *testing.T) {
	if ThemeAuto.Next() != ThemeLight || ThemeLight.Next() != ThemeDark || ThemeDark.Next() != ThemeAuto {
		t.Fatalf("unexpected theme cycle")
	}
	if ParseTheme("DARK") != ThemeDark || ParseTheme("neon") != ThemeAuto {
		t.Fatalf("unexpected theme parsing")
	}
}

func TestMemoryStoreClosed(t *testing.T) {
	store := NewMemoryStore()
	_ = store.Close()
	if err := store.Set(context.Background(), KeyTheme, "dark"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestAlertDismissedIgnoresGarbage(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Set(ctx, KeyAlertHidden, "yes please")
	dismissed, err := NewFlags(store).AlertDismissed(ctx)
	if err != nil || dismissed {
		t.Fatalf("expected non-\"true\" value to read as false, got %v err=%v", dismissed, err)
	}
}
