// Package transport talks to the PC-Estoque chat backend.
//
// The client performs exactly one HTTP exchange per call, bounded by a
// deadline. It never retries; retry and fallback policy belongs to the
// conversation controller.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"estoquechat/internal/session"
	"estoquechat/pkg/logger"
	"estoquechat/pkg/metrics"
)

const (
	DefaultTimeout = 5 * time.Second
	DefaultSource  = "terminal_interface"

	maxErrorBody = 64 << 10
	maxReplyBody = 1 << 20
)

// ChatRequest is the /chat request body.
type ChatRequest struct {
	Message   string `json:"mensagem"`
	SessionID string `json:"session_id"`
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
}

// ChatReply is the useful part of a successful /chat response.
type ChatReply struct {
	Text string
}

// Status is the useful part of a /status response.
type Status struct {
	Available bool
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Source     string
	HTTPClient *http.Client
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	source  string
	timeout time.Duration
	http    *http.Client
	log     *logger.Logger
}

// New builds a Client. A nil logger discards output.
func New(cfg Config, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	source := strings.TrimSpace(cfg.Source)
	if source == "" {
		source = DefaultSource
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		source:  source,
		timeout: timeout,
		http:    httpClient,
		log:     log,
	}
}

// Timeout reports the per-call deadline.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// SendChat posts one user message. The call resolves within the client
// timeout or fails with a KindTimeout error; no partial response is kept.
func (c *Client) SendChat(ctx context.Context, message string, sess session.Session) (ChatReply, error) {
	const endpoint = "/chat"
	started := time.Now()

	body, err := json.Marshal(ChatRequest{
		Message:   message,
		SessionID: sess.ID,
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Source:    c.source,
	})
	if err != nil {
		return ChatReply{}, fmt.Errorf("encode chat request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := c.do(ctx, http.MethodPost, endpoint, body, maxReplyBody)
	if err != nil {
		metrics.RecordChat(string(kindOf(err)), time.Since(started).Seconds())
		c.log.Warn("chat request failed", zap.String("session_id", sess.ID), zap.Error(err))
		return ChatReply{}, err
	}

	if err := validate(chatReplySchema, payload); err != nil {
		terr := &Error{Kind: KindDecode, Endpoint: endpoint, Err: err}
		metrics.RecordChat(string(KindDecode), time.Since(started).Seconds())
		return ChatReply{}, terr
	}
	var parsed struct {
		Resposta string `json:"resposta"`
	}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		metrics.RecordChat(string(KindDecode), time.Since(started).Seconds())
		return ChatReply{}, &Error{Kind: KindDecode, Endpoint: endpoint, Err: err}
	}

	metrics.RecordChat("ok", time.Since(started).Seconds())
	return ChatReply{Text: parsed.Resposta}, nil
}

// CheckStatus probes backend availability. Callers treat any error as
// "unavailable".
func (c *Client) CheckStatus(ctx context.Context) (Status, error) {
	const endpoint = "/status"

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := c.do(ctx, http.MethodGet, endpoint, nil, maxReplyBody)
	if err != nil {
		return Status{}, err
	}
	if err := validate(statusSchema, payload); err != nil {
		return Status{}, &Error{Kind: KindDecode, Endpoint: endpoint, Err: err}
	}
	var parsed struct {
		Available bool `json:"chatbot_disponivel"`
	}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return Status{}, &Error{Kind: KindDecode, Endpoint: endpoint, Err: err}
	}
	return Status{Available: parsed.Available}, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, limit int64) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, &Error{Kind: KindConnection, Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify(ctx, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &Error{
			Kind:     KindServer,
			Endpoint: endpoint,
			Status:   resp.StatusCode,
			Body:     strings.TrimSpace(string(raw)),
		}
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, classify(ctx, endpoint, err)
	}
	return payload, nil
}

func classify(ctx context.Context, endpoint string, err error) *Error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Endpoint: endpoint, Err: err}
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return &Error{Kind: KindCanceled, Endpoint: endpoint, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Endpoint: endpoint, Err: err}
	}
	return &Error{Kind: KindConnection, Endpoint: endpoint, Err: err}
}

func kindOf(err error) Kind {
	var terr *Error
	if errors.As(err, &terr) {
		return terr.Kind
	}
	return KindConnection
}
