// Package netwatch reports when the route to the backend host goes away
// and comes back, the terminal stand-in for browser online/offline events.
package netwatch

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"go.uber.org/zap"

	"estoquechat/pkg/logger"
)

const (
	DefaultInterval    = 5 * time.Second
	DefaultDialTimeout = 2 * time.Second
)

// DialFunc matches net.Dialer.DialContext.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Watcher polls a TCP address. Callbacks fire on edges only; the first
// check sets the baseline silently.
type Watcher struct {
	Address     string
	Interval    time.Duration
	DialTimeout time.Duration
	Dial        DialFunc

	OnLost     func()
	OnRestored func(ctx context.Context)

	log *logger.Logger
}

// New derives the host:port to watch from a backend base URL.
func New(baseURL string, log *logger.Logger) (*Watcher, error) {
	addr, err := hostPort(baseURL)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	var d net.Dialer
	return &Watcher{
		Address:     addr,
		Interval:    DefaultInterval,
		DialTimeout: DefaultDialTimeout,
		Dial:        d.DialContext,
		log:         log,
	}, nil
}

func hostPort(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid backend url %q: %w", baseURL, err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("backend url %q has no host", baseURL)
	}
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	reachable := w.check(ctx)
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		now := w.check(ctx)
		if ctx.Err() != nil {
			return
		}
		switch {
		case reachable && !now:
			w.log.Warn("backend host unreachable", zap.String("addr", w.Address))
			if w.OnLost != nil {
				w.OnLost()
			}
		case !reachable && now:
			w.log.Info("backend host reachable again", zap.String("addr", w.Address))
			if w.OnRestored != nil {
				w.OnRestored(ctx)
			}
		}
		reachable = now
	}
}

func (w *Watcher) check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, w.DialTimeout)
	defer cancel()
	conn, err := w.Dial(ctx, "tcp", w.Address)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
