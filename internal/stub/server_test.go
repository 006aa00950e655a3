package stub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"estoquechat/internal/render"
	"estoquechat/internal/session"
	"estoquechat/internal/transport"
)

func newClient(t *testing.T, srv *Server) *transport.Client {
	t.Helper()
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return transport.New(transport.Config{BaseURL: ts.URL + "/api", Timeout: time.Second}, nil)
}

func TestIdentifyReturnsWelcomePanel(t *testing.T) {
	client := newClient(t, NewServer(Config{Available: true}, nil))
	ctx := context.Background()
	sess := session.New()

	reply, err := client.SendChat(ctx, "listar", sess)
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if !strings.Contains(reply.Text, "IDENTIFICAÇÃO NECESSÁRIA") {
		t.Fatalf("expected identification prompt, got %q", reply.Text)
	}

	reply, err = client.SendChat(ctx, "identificar seller1", sess)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	frag := render.Render(reply.Text)
	if frag.Kind != render.KindAccessGranted || frag.User != "seller1" {
		t.Fatalf("expected welcome panel for seller1, got %#v", frag)
	}
	if len(frag.Stock) != len(stockCommands) || len(frag.System) != len(systemCommands) {
		t.Fatalf("expected all commands parsed, got %#v", frag)
	}
	if frag.Stock[5].Name != "estoque-baixo" {
		t.Fatalf("unexpected stock command %#v", frag.Stock[5])
	}

	reply, _ = client.SendChat(ctx, "listar", sess)
	if !strings.Contains(reply.Text, "PRODUTOS EM ESTOQUE") {
		t.Fatalf("expected product list after identification, got %q", reply.Text)
	}
}

func TestProcessCommands(t *testing.T) {
	s := NewServer(Config{}, nil)
	if got := s.Process("a", "identificar"); got != missingParameter {
		t.Fatalf("expected missing parameter reply, got %q", got)
	}
	if got := s.Process("a", "identificar nobody"); !strings.Contains(got, "nobody") {
		t.Fatalf("expected unknown seller reply, got %q", got)
	}
	s.Process("a", "identificar demo")
	if got := s.Process("a", "estoque-baixo"); got != lowStock {
		t.Fatalf("expected low stock reply, got %q", got)
	}
	if got := s.Process("a", "vender tudo"); !strings.Contains(got, "vender tudo") || !strings.Contains(got, "Usuário Demo") {
		t.Fatalf("expected echo with seller name, got %q", got)
	}
	if got := s.Process("a", "LOGOUT"); !strings.Contains(got, "Usuário Demo") {
		t.Fatalf("expected logout reply, got %q", got)
	}
	if got := s.Process("a", "listar"); got != identificationRequired() {
		t.Fatalf("expected login required after logout, got %q", got)
	}
}

func TestStatusReportsAvailability(t *testing.T) {
	srv := NewServer(Config{Available: true}, nil)
	client := newClient(t, srv)
	ctx := context.Background()

	status, err := client.CheckStatus(ctx)
	if err != nil || !status.Available {
		t.Fatalf("expected available, got %v err=%v", status, err)
	}
	srv.SetAvailable(false)
	status, err = client.CheckStatus(ctx)
	if err != nil || status.Available {
		t.Fatalf("expected unavailable, got %v err=%v", status, err)
	}
}

func TestUsersShortensSessionIDs(t *testing.T) {
	srv := NewServer(Config{}, nil)
	srv.Process("tui_abcdefghijk", "identificar seller2")

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/usuarios", nil))
	var body struct {
		Total    int          `json:"total"`
		Usuarios []activeUser `json:"usuarios"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 1 || body.Usuarios[0].SessionID != "tui_abcd..." || body.Usuarios[0].Name != "Maria Santos" {
		t.Fatalf("unexpected users %#v", body)
	}
}

func TestChatRejectsBadInput(t *testing.T) {
	client := newClient(t, NewServer(Config{}, nil))
	_, err := client.SendChat(context.Background(), "   ", session.New())
	if !errors.Is(err, transport.ErrServer) || transport.StatusCode(err) != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %v", err)
	}

	rec := httptest.NewRecorder()
	NewServer(Config{}, nil).Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	h := NewServer(Config{RateLimit: 2}, nil).Router()
	codes := make([]int, 3)
	for i := range codes {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
		codes[i] = rec.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status codes %v", codes)
	}
}
