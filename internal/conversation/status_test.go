package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"estoquechat/internal/session"
	"estoquechat/internal/transport"
)

func TestProbeStatusTransitions(t *testing.T) {
	var mu sync.Mutex
	results := []struct {
		status transport.Status
		err    error
	}{
		{err: &transport.Error{Kind: transport.KindConnection}},
		{status: transport.Status{Available: true}},
		{status: transport.Status{Available: false}},
		{status: transport.Status{Available: true}},
	}
	tr := &fakeTransport{status: func() (transport.Status, error) {
		mu.Lock()
		defer mu.Unlock()
		next := results[0]
		results = results[1:]
		return next.status, next.err
	}}
	view := &recordingView{}
	c := newController(t, tr, view)
	ctx := context.Background()

	if c.Online() != StateUnknown {
		t.Fatalf("expected unknown before first probe")
	}
	want := []OnlineState{StateOffline, StateOnline, StateOffline, StateOnline}
	for i, w := range want {
		if got := c.ProbeStatus(ctx); got != w {
			t.Fatalf("probe %d: got %v want %v", i, got, w)
		}
	}
	if len(view.online) != 4 || view.online[0] || !view.online[1] || view.online[2] || !view.online[3] {
		t.Fatalf("unexpected indicator updates %v", view.online)
	}
}

func TestProbeCanceledKeepsState(t *testing.T) {
	c := newController(t, &fakeTransport{status: func() (transport.Status, error) {
		return transport.Status{}, errors.New("canceled")
	}}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := c.ProbeStatus(ctx); got != StateUnknown {
		t.Fatalf("expected state untouched by a canceled probe, got %v", got)
	}
}

func TestStartPollsUntilClose(t *testing.T) {
	tr := &fakeTransport{}
	c := New(tr, nil, session.New(), nil, Options{PollInterval: 10 * time.Millisecond})
	c.Start(context.Background())
	c.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for tr.probeCount() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected repeated probes, got %d", tr.probeCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
	if c.Online() != StateOnline {
		t.Fatalf("expected online after probes")
	}

	c.Close()
	after := tr.probeCount()
	time.Sleep(50 * time.Millisecond)
	if tr.probeCount() != after {
		t.Fatalf("expected polling stopped after Close")
	}
}

func TestNetworkSignals(t *testing.T) {
	tr := &fakeTransport{}
	view := &recordingView{}
	c := newController(t, tr, view)

	c.NetworkLost()
	if n, _ := view.lastNotice(); n.Level != LevelWarning {
		t.Fatalf("expected warning on network loss, got %#v", n)
	}
	c.NetworkRestored(context.Background())
	if n, _ := view.lastNotice(); n.Level != LevelSuccess {
		t.Fatalf("expected success on restore, got %#v", n)
	}
	if tr.probeCount() != 1 || c.Online() != StateOnline {
		t.Fatalf("expected restore to re-probe immediately")
	}
}
