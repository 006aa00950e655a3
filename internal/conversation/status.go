package conversation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"estoquechat/pkg/metrics"
)

// Start probes the backend once and then on every poll interval until ctx
// is done or Close is called. Calling Start twice is a no-op.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.pollCancel != nil || c.closed {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.pollCancel = cancel
	c.pollDone = done
	interval := c.opts.PollInterval
	c.mu.Unlock()

	go func() {
		defer close(done)
		c.ProbeStatus(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.ProbeStatus(ctx)
			}
		}
	}()
}

// ProbeStatus asks the backend whether the chatbot is available and
// updates the indicator. Any failure reads as offline. A probe cut short by
// ctx leaves the state alone.
func (c *Controller) ProbeStatus(ctx context.Context) OnlineState {
	status, err := c.transport.CheckStatus(ctx)
	if ctx.Err() != nil {
		return c.Online()
	}

	online := err == nil && status.Available
	metrics.RecordProbe(online, err != nil)
	next := StateOffline
	if online {
		next = StateOnline
	}

	c.mu.Lock()
	prev := c.online
	c.online = next
	c.mu.Unlock()

	if err != nil {
		c.log.Debug("status probe failed", zap.Error(err))
	}
	if prev != next {
		c.log.Info("backend status changed", zap.Stringer("from", prev), zap.Stringer("to", next))
	}
	c.view.SetOnline(online)
	return next
}

// NetworkRestored tells the user the network is back and re-probes.
func (c *Controller) NetworkRestored(ctx context.Context) {
	c.view.Notify(Notice{Level: LevelSuccess, Text: "Connection restored."})
	c.ProbeStatus(ctx)
}

// NetworkLost warns the user. The next probe settles the indicator.
func (c *Controller) NetworkLost() {
	c.view.Notify(Notice{Level: LevelWarning, Text: "Connection lost. Check your network."})
}
