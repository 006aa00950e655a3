package prefs

import (
	"context"
	"strings"
)

// Theme is the persisted color scheme preference.
type Theme string

const (
	ThemeAuto  Theme = "auto"
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

var themeCycle = []Theme{ThemeAuto, ThemeLight, ThemeDark}

// ParseTheme falls back to ThemeAuto for unknown values.
func ParseTheme(raw string) Theme {
	switch Theme(strings.ToLower(strings.TrimSpace(raw))) {
	case ThemeLight:
		return ThemeLight
	case ThemeDark:
		return ThemeDark
	default:
		return ThemeAuto
	}
}

// Next returns the following theme in the auto → light → dark cycle.
func (t Theme) Next() Theme {
	for i, candidate := range themeCycle {
		if candidate == t {
			return themeCycle[(i+1)%len(themeCycle)]
		}
	}
	return ThemeAuto
}

// Flags gives typed access to the persisted client flags.
type Flags struct {
	store Store
}

func NewFlags(store Store) *Flags {
	return &Flags{store: store}
}

func (f *Flags) UserIdentified(ctx context.Context) (bool, error) {
	return f.boolValue(ctx, KeyUserIdentified)
}

func (f *Flags) SetUserIdentified(ctx context.Context, v bool) error {
	return f.store.Set(ctx, KeyUserIdentified, formatBool(v))
}

func (f *Flags) AlertDismissed(ctx context.Context) (bool, error) {
	return f.boolValue(ctx, KeyAlertHidden)
}

func (f *Flags) SetAlertDismissed(ctx context.Context, v bool) error {
	return f.store.Set(ctx, KeyAlertHidden, formatBool(v))
}

func (f *Flags) Theme(ctx context.Context) (Theme, error) {
	raw, _, err := f.store.Get(ctx, KeyTheme)
	if err != nil {
		return ThemeAuto, err
	}
	return ParseTheme(raw), nil
}

// ToggleTheme advances and persists the theme, returning the new value.
func (f *Flags) ToggleTheme(ctx context.Context) (Theme, error) {
	current, err := f.Theme(ctx)
	if err != nil {
		return current, err
	}
	next := current.Next()
	if err := f.store.Set(ctx, KeyTheme, string(next)); err != nil {
		return current, err
	}
	return next, nil
}

func (f *Flags) boolValue(ctx context.Context, key string) (bool, error) {
	raw, ok, err := f.store.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(raw), "true"), nil
}

func formatBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
