package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"estoquechat/internal/session"
)

func newTestClient(url string, timeout time.Duration) *Client {
	return New(Config{BaseURL: url, Timeout: timeout, Source: "test"}, nil)
}

func TestSendChatSuccess(t *testing.T) {
	received := make(chan ChatRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		received <- req
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"resposta":"olá","sucesso":true}`))
	}))
	defer srv.Close()

	sess := session.New()
	reply, err := newTestClient(srv.URL, time.Second).SendChat(context.Background(), "listar", sess)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if reply.Text != "olá" {
		t.Fatalf("unexpected reply %q", reply.Text)
	}
	got := <-received
	if got.Message != "listar" || got.SessionID != sess.ID || got.Source != "test" {
		t.Fatalf("unexpected request payload %+v", got)
	}
	if _, err := time.Parse(time.RFC3339, got.Timestamp); err != nil {
		t.Fatalf("timestamp %q is not ISO8601: %v", got.Timestamp, err)
	}
}

func TestSendChatServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, time.Second).SendChat(context.Background(), "x", session.New())
	if !errors.Is(err, ErrServer) {
		t.Fatalf("expected server error, got %v", err)
	}
	if StatusCode(err) != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", StatusCode(err))
	}
	var terr *Error
	if !errors.As(err, &terr) || terr.Body != "boom" {
		t.Fatalf("expected body to be carried, got %+v", terr)
	}
}

func TestSendChatTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		_, _ = w.Write([]byte(`{"resposta":"late"}`))
	}))
	defer srv.Close()

	started := time.Now()
	_, err := newTestClient(srv.URL, 50*time.Millisecond).SendChat(context.Background(), "x", session.New())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if elapsed := time.Since(started); elapsed > time.Second {
		t.Fatalf("expected timeout to bound the call, took %s", elapsed)
	}
}

func TestSendChatConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url, time.Second).SendChat(context.Background(), "x", session.New())
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("expected connection error, got %v", err)
	}
}

func TestSendChatRejectsMalformedReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"answer":"wrong field"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, time.Second).SendChat(context.Background(), "x", session.New())
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestCheckStatus(t *testing.T) {
	var available atomic.Bool
	available.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":             "online",
			"chatbot_disponivel": available.Load(),
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, time.Second)
	status, err := client.CheckStatus(context.Background())
	if err != nil || !status.Available {
		t.Fatalf("expected available, got %+v err=%v", status, err)
	}

	available.Store(false)
	status, err = client.CheckStatus(context.Background())
	if err != nil || status.Available {
		t.Fatalf("expected unavailable, got %+v err=%v", status, err)
	}
}

func TestCheckStatusNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL, time.Second).CheckStatus(context.Background()); !errors.Is(err, ErrServer) {
		t.Fatalf("expected server error, got %v", err)
	}
}
