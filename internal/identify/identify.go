// Package identify drives the seller identification dialog.
//
// The dialog is a two-state machine. Confirming a non-empty seller id marks
// the user as identified, hides the reminder banner and hands
// "identificar <id>" to a Deliverer. Empty input keeps the dialog open.
package identify

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"estoquechat/internal/prefs"
	"estoquechat/pkg/logger"
)

// Verb is the backend command that binds a seller id to the session.
const Verb = "identificar"

var (
	ErrEmptySellerID = errors.New("identify: seller id is empty")
	ErrNotOpen       = errors.New("identify: dialog is not open")
)

// State of the dialog.
type State int

const (
	StateClosed State = iota
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// Command builds the identification command for sellerID.
func Command(sellerID string) string {
	return Verb + " " + strings.TrimSpace(sellerID)
}

// TargetsIdentification reports whether a quick command asks for the
// identification dialog rather than being inserted as a draft. A command
// that already carries an id is sent as typed.
func TargetsIdentification(command string) bool {
	fields := strings.Fields(strings.ToLower(command))
	if len(fields) != 1 {
		return false
	}
	return strings.TrimPrefix(fields[0], "/") == Verb
}

// Deliverer hands a command to the chat. It must not block the caller on
// network I/O for longer than it takes to schedule the send.
type Deliverer interface {
	Deliver(ctx context.Context, command string)
}

// DeliverFunc adapts a function to Deliverer.
type DeliverFunc func(ctx context.Context, command string)

func (f DeliverFunc) Deliver(ctx context.Context, command string) { f(ctx, command) }

// Hooks receive UI side effects. Nil hooks are skipped.
type Hooks struct {
	// Focus moves keyboard focus to the seller id field.
	Focus func()
	// Warn shows a transient validation notice.
	Warn func(text string)
	// BannerChanged fires when the reminder banner is shown or hidden.
	BannerChanged func(visible bool)
}

// Machine is safe for concurrent use.
type Machine struct {
	flags   *prefs.Flags
	deliver Deliverer
	hooks   Hooks
	log     *logger.Logger

	mu            sync.Mutex
	state         State
	input         string
	bannerVisible bool
}

// New returns a closed dialog with the banner visible. Call ApplySuppression
// once at startup to honor persisted flags.
func New(flags *prefs.Flags, deliver Deliverer, hooks Hooks, log *logger.Logger) *Machine {
	if log == nil {
		log = logger.Nop()
	}
	return &Machine{
		flags:         flags,
		deliver:       deliver,
		hooks:         hooks,
		log:           log,
		bannerVisible: true,
	}
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) IsOpen() bool {
	return m.State() == StateOpen
}

func (m *Machine) Input() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.input
}

func (m *Machine) BannerVisible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bannerVisible
}

// ApplySuppression hides the banner when the user already identified or
// dismissed it in an earlier run.
func (m *Machine) ApplySuppression(ctx context.Context) error {
	identified, err := m.flags.UserIdentified(ctx)
	if err != nil {
		return err
	}
	dismissed, err := m.flags.AlertDismissed(ctx)
	if err != nil {
		return err
	}
	if identified || dismissed {
		m.setBanner(false)
	}
	return nil
}

// Open shows the dialog with an empty field. It returns false when the
// dialog was already open.
func (m *Machine) Open() bool {
	m.mu.Lock()
	if m.state == StateOpen {
		m.mu.Unlock()
		return false
	}
	m.state = StateOpen
	m.input = ""
	m.mu.Unlock()

	m.focus()
	return true
}

// SetInput records the seller id field. Ignored while closed.
func (m *Machine) SetInput(value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateOpen {
		m.input = value
	}
}

// Confirm validates the field and, on success, closes the dialog and
// delivers the identification command, which is returned.
func (m *Machine) Confirm(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.state != StateOpen {
		m.mu.Unlock()
		return "", ErrNotOpen
	}
	sellerID := strings.TrimSpace(m.input)
	if sellerID == "" {
		m.mu.Unlock()
		if m.hooks.Warn != nil {
			m.hooks.Warn("Please enter your seller id.")
		}
		m.focus()
		return "", ErrEmptySellerID
	}
	m.state = StateClosed
	m.input = ""
	m.mu.Unlock()

	if err := m.flags.SetUserIdentified(ctx, true); err != nil {
		m.log.Warn("failed to persist identification flag", zap.Error(err))
	}
	m.setBanner(false)

	command := Command(sellerID)
	m.log.Info("seller identification confirmed", zap.String("seller_id", sellerID))
	m.deliver.Deliver(ctx, command)
	return command, nil
}

// Cancel closes the dialog without side effects.
func (m *Machine) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateClosed
	m.input = ""
}

// ClickOutside behaves like Cancel.
func (m *Machine) ClickOutside() {
	m.Cancel()
}

// DismissBanner hides the banner and remembers the choice.
func (m *Machine) DismissBanner(ctx context.Context) error {
	m.setBanner(false)
	return m.flags.SetAlertDismissed(ctx, true)
}

func (m *Machine) setBanner(visible bool) {
	m.mu.Lock()
	changed := m.bannerVisible != visible
	m.bannerVisible = visible
	m.mu.Unlock()
	if changed && m.hooks.BannerChanged != nil {
		m.hooks.BannerChanged(visible)
	}
}

func (m *Machine) focus() {
	if m.hooks.Focus != nil {
		m.hooks.Focus()
	}
}
