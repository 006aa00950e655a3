package main

import (
	"github.com/charmbracelet/lipgloss"

	"estoquechat/internal/prefs"
)

type uiTheme struct {
	name string

	root          lipgloss.Style
	header        lipgloss.Style
	title         lipgloss.Style
	panel         lipgloss.Style
	panelTitle    lipgloss.Style
	footer        lipgloss.Style
	status        lipgloss.Style
	errorStatus   lipgloss.Style
	warnStatus    lipgloss.Style
	successStatus lipgloss.Style
	inputPanel    lipgloss.Style
	helpText      lipgloss.Style
	userLabel     lipgloss.Style
	botLabel      lipgloss.Style
	online        lipgloss.Style
	offline       lipgloss.Style
	banner        lipgloss.Style
	welcome       lipgloss.Style
	commandName   lipgloss.Style
	modalFrame    lipgloss.Style
	accent        lipgloss.Style
	pick          lipgloss.Style
	charWarn      lipgloss.Style
	charDanger    lipgloss.Style

	canvas lipgloss.Color
}

type palette struct {
	bg, panelBg, text, muted  lipgloss.Color
	primary, accent, success  lipgloss.Color
	warning, danger, selected lipgloss.Color
}

var (
	darkPalette = palette{
		bg:       lipgloss.Color("#0f172a"),
		panelBg:  lipgloss.Color("#1e293b"),
		text:     lipgloss.Color("#e2e8f0"),
		muted:    lipgloss.Color("#94a3b8"),
		primary:  lipgloss.Color("#60a5fa"),
		accent:   lipgloss.Color("#a78bfa"),
		success:  lipgloss.Color("#34d399"),
		warning:  lipgloss.Color("#fbbf24"),
		danger:   lipgloss.Color("#f87171"),
		selected: lipgloss.Color("#0b1220"),
	}
	lightPalette = palette{
		bg:       lipgloss.Color("#f8fafc"),
		panelBg:  lipgloss.Color("#ffffff"),
		text:     lipgloss.Color("#1e293b"),
		muted:    lipgloss.Color("#64748b"),
		primary:  lipgloss.Color("#2563eb"),
		accent:   lipgloss.Color("#7c3aed"),
		success:  lipgloss.Color("#059669"),
		warning:  lipgloss.Color("#b45309"),
		danger:   lipgloss.Color("#dc2626"),
		selected: lipgloss.Color("#ffffff"),
	}
)

// resolveDark maps the stored preference to a concrete palette. Auto asks
// the terminal.
func resolveDark(pref prefs.Theme) bool {
	switch pref {
	case prefs.ThemeLight:
		return false
	case prefs.ThemeDark:
		return true
	default:
		return lipgloss.HasDarkBackground()
	}
}

func newTheme(dark bool) uiTheme {
	p := lightPalette
	name := "light"
	if dark {
		p = darkPalette
		name = "dark"
	}

	return uiTheme{
		name: name,
		root: lipgloss.NewStyle().
			Background(p.bg).
			Foreground(p.text).
			Padding(0, 1),
		header: lipgloss.NewStyle().
			Background(p.panelBg).
			Foreground(p.text).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.primary).
			Padding(0, 1),
		title: lipgloss.NewStyle().Foreground(p.primary).Bold(true),
		panel: lipgloss.NewStyle().
			Background(p.panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.primary).
			Padding(0, 1),
		panelTitle: lipgloss.NewStyle().Foreground(p.accent).Bold(true),
		footer: lipgloss.NewStyle().
			Background(p.panelBg).
			Foreground(p.muted).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.accent).
			Padding(0, 1),
		status:        lipgloss.NewStyle().Foreground(p.primary).Bold(true),
		errorStatus:   lipgloss.NewStyle().Foreground(p.danger).Bold(true),
		warnStatus:    lipgloss.NewStyle().Foreground(p.warning).Bold(true),
		successStatus: lipgloss.NewStyle().Foreground(p.success).Bold(true),
		inputPanel: lipgloss.NewStyle().
			Background(p.panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.success).
			Padding(0, 1),
		helpText:  lipgloss.NewStyle().Foreground(p.muted),
		userLabel: lipgloss.NewStyle().Foreground(p.success).Bold(true),
		botLabel:  lipgloss.NewStyle().Foreground(p.primary).Bold(true),
		online:    lipgloss.NewStyle().Foreground(p.success).Bold(true),
		offline:   lipgloss.NewStyle().Foreground(p.danger).Bold(true),
		banner: lipgloss.NewStyle().
			Foreground(p.warning).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(p.warning).
			Padding(0, 1),
		welcome: lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(p.success).
			Padding(0, 1),
		commandName: lipgloss.NewStyle().Foreground(p.accent).Bold(true),
		modalFrame: lipgloss.NewStyle().
			Background(p.panelBg).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(p.primary).
			Padding(1, 2),
		accent: lipgloss.NewStyle().Foreground(p.success).Bold(true),
		pick: lipgloss.NewStyle().
			Foreground(p.selected).
			Background(p.primary).
			Bold(true).
			Padding(0, 1),
		charWarn:   lipgloss.NewStyle().Foreground(p.warning),
		charDanger: lipgloss.NewStyle().Foreground(p.danger).Bold(true),
		canvas:     p.bg,
	}
}
