// Package render turns backend reply text into display fragments.
//
// Render is pure: the same text always yields the same fragment, and it
// never fails. Malformed "access granted" bodies degrade to empty command
// lists.
package render

import (
	"html"
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"
)

// AccessGrantedPrefix marks a structured welcome reply.
const AccessGrantedPrefix = "ACESSO_AUTORIZADO:"

const defaultUserLabel = "User"

// Kind tells plain replies apart from welcome panels.
type Kind int

const (
	KindPlain Kind = iota
	KindAccessGranted
)

// Command is one selectable entry of a welcome panel.
type Command struct {
	Name        string
	Description string
}

// Fragment is a displayable transcript entry.
type Fragment struct {
	Kind Kind
	// Lines holds sanitized plain content, one entry per line break.
	Lines []string

	User   string
	Stock  []Command
	System []Command
}

// Render formats text for display.
func Render(text string) Fragment {
	if strings.HasPrefix(text, AccessGrantedPrefix) {
		return parseAccessGranted(text)
	}
	return Plain(text)
}

// Plain formats text without looking for the welcome sentinel. User input
// goes through here.
func Plain(text string) Fragment {
	return Fragment{Kind: KindPlain, Lines: strings.Split(sanitize(text), "\n")}
}

type section int

const (
	sectionNone section = iota
	sectionStock
	sectionSystem
)

func parseAccessGranted(text string) Fragment {
	lines := strings.Split(sanitize(text), "\n")
	user := strings.TrimSpace(strings.TrimPrefix(lines[0], AccessGrantedPrefix))
	if user == "" {
		user = defaultUserLabel
	}

	out := Fragment{Kind: KindAccessGranted, User: user, Stock: []Command{}, System: []Command{}}
	current := sectionNone
	for _, raw := range lines[1:] {
		line := strings.TrimSpace(raw)
		switch {
		case isStockMarker(line):
			current = sectionStock
		case isSystemMarker(line):
			current = sectionSystem
		case strings.HasPrefix(line, "•") && current != sectionNone:
			cmd, ok := parseCommand(strings.TrimPrefix(line, "•"))
			if !ok {
				continue
			}
			if current == sectionStock {
				out.Stock = append(out.Stock, cmd)
			} else {
				out.System = append(out.System, cmd)
			}
		}
	}
	return out
}

func isStockMarker(line string) bool {
	return strings.Contains(line, "📦") || strings.Contains(strings.ToUpper(line), "GESTÃO DE ESTOQUE")
}

func isSystemMarker(line string) bool {
	return strings.Contains(line, "⚙") || strings.Contains(strings.ToUpper(line), "SISTEMA & RELAT")
}

func parseCommand(body string) (Command, bool) {
	name, desc, _ := strings.Cut(strings.TrimSpace(body), " - ")
	name = strings.TrimSpace(name)
	if name == "" {
		return Command{}, false
	}
	return Command{Name: name, Description: strings.TrimSpace(desc)}, true
}

// sanitize drops terminal escape sequences and control characters other
// than newline and tab, and normalizes line endings.
func sanitize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = ansi.Strip(text)
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
}

// Commands lists every selectable command, stock section first.
func (f Fragment) Commands() []Command {
	out := make([]Command, 0, len(f.Stock)+len(f.System))
	out = append(out, f.Stock...)
	return append(out, f.System...)
}

// PlainText is the textual content used for export and logs.
func (f Fragment) PlainText() string {
	if f.Kind == KindPlain {
		return strings.Join(f.Lines, "\n")
	}
	var b strings.Builder
	b.WriteString("ACCESS GRANTED - Welcome, " + f.User + "!")
	writeSection := func(title string, cmds []Command) {
		b.WriteString("\n" + title + ":")
		for _, cmd := range cmds {
			b.WriteString("\n  " + cmd.Name)
			if cmd.Description != "" {
				b.WriteString(" - " + cmd.Description)
			}
		}
	}
	writeSection("Stock management", f.Stock)
	writeSection("System & reports", f.System)
	return b.String()
}

// HTML returns escaped markup with <br> line breaks. Nothing from the
// source text is interpreted as markup.
func (f Fragment) HTML() string {
	if f.Kind == KindPlain {
		escaped := make([]string, len(f.Lines))
		for i, line := range f.Lines {
			escaped[i] = html.EscapeString(line)
		}
		return strings.Join(escaped, "<br>")
	}

	var b strings.Builder
	b.WriteString(`<div class="access-granted-message">`)
	b.WriteString(`<div class="access-title">ACCESS GRANTED</div>`)
	b.WriteString(`<div class="access-subtitle">Welcome, <strong>` + html.EscapeString(f.User) + `</strong>!</div>`)
	writeSection := func(title string, cmds []Command) {
		b.WriteString(`<div class="command-section"><div class="section-title">` + title + `</div>`)
		for _, cmd := range cmds {
			b.WriteString(`<div class="command-item" data-command="` + html.EscapeString(cmd.Name) + `">`)
			b.WriteString(`<div class="command-name">` + html.EscapeString(cmd.Name) + `</div>`)
			b.WriteString(`<div class="command-desc">` + html.EscapeString(cmd.Description) + `</div></div>`)
		}
		b.WriteString(`</div>`)
	}
	writeSection("Stock management", f.Stock)
	writeSection("System &amp; reports", f.System)
	b.WriteString(`</div>`)
	return b.String()
}
