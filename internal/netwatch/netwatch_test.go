package netwatch

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"
)

func TestHostPort(t *testing.T) {
	cases := map[string]string{
		"http://127.0.0.1:8081/api": "127.0.0.1:8081",
		"http://backend/api":        "backend:80",
		"https://backend":           "backend:443",
	}
	for in, want := range cases {
		got, err := hostPort(in)
		if err != nil || got != want {
			t.Fatalf("hostPort(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := hostPort("/relative"); err == nil {
		t.Fatalf("expected error for url without host")
	}
}

func TestRunReportsEdges(t *testing.T) {
	var up atomic.Bool
	var dials atomic.Int32
	up.Store(true)

	w, err := New("http://backend.test:8081/api", nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	w.Interval = 5 * time.Millisecond
	w.Dial = func(ctx context.Context, network, address string) (net.Conn, error) {
		dials.Add(1)
		if !up.Load() {
			return nil, errors.New("unreachable")
		}
		client, server := net.Pipe()
		server.Close()
		return client, nil
	}
	lost := make(chan struct{}, 4)
	restored := make(chan struct{}, 4)
	w.OnLost = func() { lost <- struct{}{} }
	w.OnRestored = func(context.Context) { restored <- struct{}{} }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()

	for dials.Load() < 2 {
		time.Sleep(time.Millisecond)
	}
	up.Store(false)
	select {
	case <-lost:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected lost callback")
	}
	up.Store(true)
	select {
	case <-restored:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected restored callback")
	}
	cancel()
	<-done

	if len(lost) != 0 || len(restored) != 0 {
		t.Fatalf("expected one callback per edge")
	}
}
