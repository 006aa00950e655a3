package conversation

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"estoquechat/pkg/metrics"
)

const (
	StrategyDirect    = "direct"
	StrategyConfirm   = "ui-confirm"
	StrategyTransport = "transport"
)

// DeliveryStrategy is one rung of the delivery ladder.
type DeliveryStrategy struct {
	Name  string
	Delay time.Duration
	// Attempt tries to send command. Success is judged by the draft no
	// longer holding command, not by the returned error.
	Attempt func(ctx context.Context, command string) error
}

// DeliveryResult reports how a command was handed to the chat.
type DeliveryResult struct {
	Command   string
	Delivered bool
	Strategy  string
	Attempts  int
}

// DeliveryStrategies returns the default ladder: submit the draft, then
// ask the view to press send, then send straight through the transport.
// The ui-confirm rung is left out when the view cannot confirm.
func (c *Controller) DeliveryStrategies() []DeliveryStrategy {
	delay := func(i int) time.Duration {
		if i < len(c.opts.DeliveryDelays) {
			return c.opts.DeliveryDelays[i]
		}
		return 0
	}

	out := []DeliveryStrategy{{
		Name:  StrategyDirect,
		Delay: delay(0),
		Attempt: func(ctx context.Context, _ string) error {
			return c.SubmitDraft(ctx)
		},
	}}
	if confirmer, ok := c.view.(Confirmer); ok {
		out = append(out, DeliveryStrategy{
			Name:  StrategyConfirm,
			Delay: delay(1),
			Attempt: func(context.Context, string) error {
				confirmer.ConfirmInput()
				return nil
			},
		})
	}
	return append(out, DeliveryStrategy{
		Name:    StrategyTransport,
		Delay:   delay(2),
		Attempt: c.sendThroughTransport,
	})
}

// Deliver places command in the draft and walks the default ladder until
// the draft is consumed. Fire-and-forget callers run it in a goroutine.
func (c *Controller) Deliver(ctx context.Context, command string) DeliveryResult {
	return c.DeliverWith(ctx, command, c.DeliveryStrategies())
}

// DeliverWith walks strategies in order. Before and after each attempt it
// checks whether the draft still holds command; once it does not, the
// command counts as delivered and no later strategy runs.
func (c *Controller) DeliverWith(ctx context.Context, command string, strategies []DeliveryStrategy) DeliveryResult {
	command = strings.TrimSpace(command)
	result := DeliveryResult{Command: command}
	c.SetDraft(command)
	c.view.SetDraft(command)

	log := c.log.With(zap.String("command", command))
	for _, s := range strategies {
		if !sleepCtx(ctx, s.Delay) {
			break
		}
		if c.consumed(command) {
			result.Delivered = true
			break
		}

		result.Attempts++
		result.Strategy = s.Name
		err := s.Attempt(ctx, command)
		if c.consumed(command) {
			metrics.RecordDelivery(s.Name, "delivered")
			log.Info("command delivered", zap.String("strategy", s.Name), zap.Int("attempt", result.Attempts))
			result.Delivered = true
			return result
		}
		metrics.RecordDelivery(s.Name, "pending")
		log.Debug("delivery attempt left draft untouched", zap.String("strategy", s.Name), zap.Error(err))
	}

	if !result.Delivered {
		log.Warn("command not delivered", zap.Int("attempts", result.Attempts))
	}
	return result
}

func (c *Controller) consumed(command string) bool {
	return strings.TrimSpace(c.Draft()) != command
}

// sendThroughTransport waits for any in-flight request to finish, then
// takes the busy gate itself and sends command if the draft still holds
// it. Replies therefore never interleave with a user send.
func (c *Controller) sendThroughTransport(ctx context.Context, command string) error {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return ErrClosed
		}
		if strings.TrimSpace(c.draft) != command {
			c.mu.Unlock()
			return nil
		}
		if !c.busy {
			break
		}
		idle := c.idle
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-idle:
		}
	}
	p := c.takeLocked(command)
	c.mu.Unlock()

	c.accepted(p)
	return c.Complete(ctx, p)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
