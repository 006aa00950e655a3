// Package conversation owns the chat session: the transcript, the draft,
// the busy gate, backend status polling and command delivery.
//
// A Controller serializes user-initiated sends. While a request is in
// flight every further Submit is rejected with ErrBusy and leaves no trace.
// Each accepted Submit appends exactly one user message and then exactly
// one bot message, either the reply or a classified error.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"estoquechat/internal/identify"
	"estoquechat/internal/session"
	"estoquechat/internal/transport"
	"estoquechat/pkg/logger"
	"estoquechat/pkg/metrics"
)

const (
	DefaultMaxMessageLength = 500
	DefaultPollInterval     = 30 * time.Second

	CharCountWarn   = 300
	CharCountDanger = 400

	auditPreview = 50
	errorPrefix  = "❌ "
)

// Classified error texts shown to the user.
const (
	MsgTimeout    = "Time limit exceeded. Try a simpler message."
	MsgConnection = "Connection error. Check your network."
	MsgServer     = "Internal server error. Try again shortly."
	MsgBadRequest = "Invalid message format. Try rephrasing."
	MsgUnexpected = "Unexpected error. Try again."
)

var (
	ErrBusy           = errors.New("conversation: request already in flight")
	ErrEmptyMessage   = errors.New("conversation: message is empty")
	ErrMessageTooLong = errors.New("conversation: message too long")
	ErrClosed         = errors.New("conversation: controller closed")
)

// Transport is the backend the controller talks to.
type Transport interface {
	SendChat(ctx context.Context, message string, sess session.Session) (transport.ChatReply, error)
	CheckStatus(ctx context.Context) (transport.Status, error)
}

// OnlineState is the last known backend availability.
type OnlineState int

const (
	StateUnknown OnlineState = iota
	StateOnline
	StateOffline
)

func (s OnlineState) String() string {
	switch s {
	case StateOnline:
		return "online"
	case StateOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// CharLevel grades the draft length for the counter.
type CharLevel int

const (
	CharNormal CharLevel = iota
	CharWarn
	CharDanger
)

// Options tunes a Controller. Zero values take defaults.
type Options struct {
	MaxMessageLength int
	PollInterval     time.Duration
	// DeliveryDelays holds the wait before each delivery strategy. Nil means
	// 100ms, 200ms and 300ms.
	DeliveryDelays []time.Duration
	Now            func() time.Time
}

func (o Options) withDefaults() Options {
	if o.MaxMessageLength <= 0 {
		o.MaxMessageLength = DefaultMaxMessageLength
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.DeliveryDelays == nil {
		o.DeliveryDelays = []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// PendingRequest is an accepted message awaiting its reply.
type PendingRequest struct {
	Message string
	Started time.Time

	mu       sync.Mutex
	cancel   context.CancelFunc
	canceled bool
}

// Cancel aborts the in-flight call. Canceling before the call starts makes
// it fail as soon as it does.
func (p *PendingRequest) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.canceled = true
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *PendingRequest) setCancel(cancel context.CancelFunc) {
	p.mu.Lock()
	p.cancel = cancel
	canceled := p.canceled
	p.mu.Unlock()
	if canceled {
		cancel()
	}
}

// Controller is safe for concurrent use.
type Controller struct {
	transport  Transport
	view       View
	log        *logger.Logger
	session    session.Session
	opts       Options
	transcript *Transcript

	mu      sync.Mutex
	busy    bool
	draft   string
	online  OnlineState
	pending *PendingRequest
	closed  bool
	// idle is closed when the in-flight request finishes.
	idle chan struct{}

	pollCancel context.CancelFunc
	pollDone   chan struct{}
}

// New builds a Controller. A nil view or logger is replaced with a no-op.
func New(t Transport, view View, sess session.Session, log *logger.Logger, opts Options) *Controller {
	if view == nil {
		view = NopView{}
	}
	if log == nil {
		log = logger.Nop()
	}
	opts = opts.withDefaults()
	return &Controller{
		transport:  t,
		view:       view,
		log:        log.WithSession(sess.ID),
		session:    sess,
		opts:       opts,
		transcript: NewTranscript(opts.Now),
	}
}

func (c *Controller) Session() session.Session { return c.session }

func (c *Controller) Transcript() *Transcript { return c.transcript }

func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

func (c *Controller) Online() OnlineState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

func (c *Controller) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// SetDraft records what the user typed. It does not notify the view.
func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	c.draft = text
	c.mu.Unlock()
}

// CharCount returns the draft length in runes and its display level.
func (c *Controller) CharCount() (int, CharLevel) {
	n := utf8.RuneCountInString(c.Draft())
	switch {
	case n > CharCountDanger:
		return n, CharDanger
	case n > CharCountWarn:
		return n, CharWarn
	default:
		return n, CharNormal
	}
}

// Submit validates text and, when accepted, sends it and waits for the
// reply. ErrBusy means nothing happened at all.
func (c *Controller) Submit(ctx context.Context, text string) error {
	p, err := c.Begin(text)
	if err != nil {
		return err
	}
	return c.Complete(ctx, p)
}

// SubmitDraft submits the current draft.
func (c *Controller) SubmitDraft(ctx context.Context) error {
	return c.Submit(ctx, c.Draft())
}

// Begin is the synchronous half of Submit: it validates, takes the busy
// gate, clears the draft and appends the user message. The caller must
// follow up with Complete.
func (c *Controller) Begin(text string) (*PendingRequest, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.busy {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	message := strings.TrimSpace(text)
	if message == "" {
		c.mu.Unlock()
		c.view.Notify(Notice{Level: LevelWarning, Text: "Type a message first."})
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(message) > c.opts.MaxMessageLength {
		c.mu.Unlock()
		c.view.Notify(Notice{Level: LevelError, Text: fmt.Sprintf("Message too long. Maximum %d characters.", c.opts.MaxMessageLength)})
		return nil, ErrMessageTooLong
	}

	p := c.takeLocked(message)
	c.mu.Unlock()

	c.accepted(p)
	return p, nil
}

// takeLocked claims the busy gate for message. c.mu must be held.
func (c *Controller) takeLocked(message string) *PendingRequest {
	p := &PendingRequest{Message: message, Started: c.opts.Now()}
	c.busy = true
	c.draft = ""
	c.pending = p
	c.idle = make(chan struct{})
	return p
}

func (c *Controller) accepted(p *PendingRequest) {
	c.appendMessage(SenderUser, p.Message)
	c.view.SetDraft("")
	c.view.SetBusy(true)
}

// Complete performs the network half of Submit. Whatever happens, it
// releases the busy gate and returns focus to the input.
func (c *Controller) Complete(ctx context.Context, p *PendingRequest) error {
	ctx, cancel := context.WithCancel(ctx)
	p.setCancel(cancel)
	defer cancel()
	defer c.finish(p)

	reply, err := c.transport.SendChat(ctx, p.Message, c.session)
	if err != nil {
		c.fail(err)
		return err
	}
	c.appendMessage(SenderBot, reply.Text)
	c.audit(p.Message, reply.Text)
	return nil
}

func (c *Controller) finish(p *PendingRequest) {
	c.mu.Lock()
	if c.pending == p {
		c.pending = nil
	}
	c.busy = false
	if c.idle != nil {
		close(c.idle)
		c.idle = nil
	}
	c.mu.Unlock()
	c.view.SetBusy(false)
	c.view.FocusInput()
}

func (c *Controller) fail(err error) {
	text := ClassifyError(err)
	c.log.Warn("chat exchange failed", zap.String("shown", text), zap.Error(err))
	c.appendMessage(SenderBot, errorPrefix+text)
	c.view.Notify(Notice{Level: LevelError, Text: text})
}

func (c *Controller) appendMessage(sender Sender, text string) Message {
	msg := c.transcript.Append(sender, text)
	metrics.RecordMessage(string(sender))
	c.view.TranscriptChanged()
	return msg
}

func (c *Controller) audit(user, bot string) {
	c.log.Info("chat interaction",
		zap.String("user", preview(user)),
		zap.String("bot", preview(bot)),
		zap.Int("transcript_len", c.transcript.Len()),
	)
}

func preview(s string) string {
	if utf8.RuneCountInString(s) <= auditPreview {
		return s
	}
	return string([]rune(s)[:auditPreview]) + "..."
}

// ClassifyError maps a transport failure to the text shown to the user.
func ClassifyError(err error) string {
	switch {
	case errors.Is(err, transport.ErrTimeout):
		return MsgTimeout
	case errors.Is(err, transport.ErrConnection):
		return MsgConnection
	case errors.Is(err, transport.ErrServer):
		status := transport.StatusCode(err)
		if status >= 500 {
			return MsgServer
		}
		if status >= 400 {
			return MsgBadRequest
		}
	}
	return MsgUnexpected
}

// InsertCommand puts a quick command in the draft and focuses the input.
// A bare identification command is not inserted; the caller should open
// the identification dialog instead, which the true result signals.
func (c *Controller) InsertCommand(command string) (openIdentification bool) {
	if identify.TargetsIdentification(command) {
		return true
	}
	command = strings.TrimSpace(command)
	c.SetDraft(command)
	c.view.SetDraft(command)
	c.view.FocusInput()
	return false
}

// ClearHistory empties the transcript. Callers confirm with the user first.
func (c *Controller) ClearHistory() {
	c.transcript.Clear()
	c.log.Info("transcript cleared")
	c.view.TranscriptChanged()
	c.view.Notify(Notice{Level: LevelSuccess, Text: "History cleared."})
}

// Export writes the transcript to w.
func (c *Controller) Export(w io.Writer) error {
	if err := c.transcript.Export(w); err != nil {
		c.view.Notify(Notice{Level: LevelError, Text: "Export failed."})
		return err
	}
	c.view.Notify(Notice{Level: LevelSuccess, Text: "Conversation exported."})
	return nil
}

// Close stops polling and aborts the in-flight request. Later Submits fail
// with ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	cancel, done, pending := c.pollCancel, c.pollDone, c.pending
	c.pollCancel = nil
	c.mu.Unlock()

	if pending != nil {
		pending.Cancel()
	}
	if cancel != nil {
		cancel()
		<-done
	}
}
