package render

import (
	"strings"
	"testing"
)

func TestRenderPlainEscapesAndBreaksLines(t *testing.T) {
	frag := Render("plain\ntext <script>alert(1)</script>")
	if frag.Kind != KindPlain {
		t.Fatalf("expected plain fragment")
	}
	if len(frag.Lines) != 2 || frag.Lines[0] != "plain" {
		t.Fatalf("expected newline to split lines, got %#v", frag.Lines)
	}
	out := frag.HTML()
	if strings.Contains(out, "<script>") {
		t.Fatalf("expected script tag to be escaped, got %q", out)
	}
	if !strings.Contains(out, "plain<br>text &lt;script&gt;") {
		t.Fatalf("expected escaped markup with line break, got %q", out)
	}
}

func TestRenderPlainStripsTerminalEscapes(t *testing.T) {
	frag := Render("ok\x1b[2J\x1b[31mred\x1b[0m\x07done")
	if got := frag.PlainText(); got != "okreddone" {
		t.Fatalf("expected escapes stripped, got %q", got)
	}
}

func TestRenderAccessGranted(t *testing.T) {
	frag := Render("ACESSO_AUTORIZADO:alice\n📦 GESTÃO DE ESTOQUE\n• cmd1 - desc1\n• cmd2\n⚙️ SISTEMA & RELATÓRIOS\n• historico - Histórico - completo")
	if frag.Kind != KindAccessGranted {
		t.Fatalf("expected access granted fragment")
	}
	if frag.User != "alice" {
		t.Fatalf("expected user alice, got %q", frag.User)
	}
	if len(frag.Stock) != 2 {
		t.Fatalf("expected two stock commands, got %#v", frag.Stock)
	}
	if frag.Stock[0] != (Command{Name: "cmd1", Description: "desc1"}) {
		t.Fatalf("unexpected first command %#v", frag.Stock[0])
	}
	if frag.Stock[1].Description != "" {
		t.Fatalf("expected missing description to default empty, got %q", frag.Stock[1].Description)
	}
	if len(frag.System) != 1 || frag.System[0].Description != "Histórico - completo" {
		t.Fatalf("expected split on first separator only, got %#v", frag.System)
	}
	if cmds := frag.Commands(); len(cmds) != 3 || cmds[2].Name != "historico" {
		t.Fatalf("unexpected command order %#v", cmds)
	}
}

func TestRenderAccessGrantedSpecExample(t *testing.T) {
	frag := Render("ACESSO_AUTORIZADO:alice\n📦 ...\n• cmd1 - desc1")
	if frag.User != "alice" || len(frag.Stock) != 1 || frag.Stock[0].Name != "cmd1" || frag.Stock[0].Description != "desc1" {
		t.Fatalf("unexpected fragment %#v", frag)
	}
}

func TestRenderAccessGrantedDegrades(t *testing.T) {
	frag := Render("ACESSO_AUTORIZADO:\n• orphan - no section\nrandom text")
	if frag.User != defaultUserLabel {
		t.Fatalf("expected default user label, got %q", frag.User)
	}
	if len(frag.Stock) != 0 || len(frag.System) != 0 {
		t.Fatalf("expected empty sections, got %#v", frag)
	}
	if frag.Stock == nil || frag.System == nil {
		t.Fatalf("expected empty, non-nil command lists")
	}
}

func TestAccessGrantedHTMLEscapesUser(t *testing.T) {
	frag := Render("ACESSO_AUTORIZADO:<b>x</b>\n📦\n• <i>a</i> - d")
	out := frag.HTML()
	if strings.Contains(out, "<b>") || strings.Contains(out, "<i>") {
		t.Fatalf("expected user and commands escaped, got %q", out)
	}
}

func TestPlainIgnoresSentinel(t *testing.T) {
	frag := Plain("ACESSO_AUTORIZADO:mallory")
	if frag.Kind != KindPlain || frag.PlainText() != "ACESSO_AUTORIZADO:mallory" {
		t.Fatalf("expected plain fragment, got %#v", frag)
	}
}
