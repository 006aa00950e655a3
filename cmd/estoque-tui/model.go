package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"estoquechat/internal/conversation"
	"estoquechat/internal/identify"
	"estoquechat/internal/prefs"
	"estoquechat/internal/render"
	"estoquechat/internal/session"
	"estoquechat/pkg/logger"
)

const (
	toastDuration = 3 * time.Second
	maxToasts     = 3
	inboundBuffer = 256
	confirmWait   = 2 * time.Second
)

var quickCommands = []string{"/identificar ", "listar", "estoque-baixo", "historico", "logout"}

// uiBridge is the conversation.View of the terminal program. Every call
// becomes a tea.Msg read back by waitBridgeMsg.
type uiBridge struct {
	out  chan tea.Msg
	done <-chan struct{}
}

func newUIBridge(done <-chan struct{}) *uiBridge {
	return &uiBridge{out: make(chan tea.Msg, inboundBuffer), done: done}
}

func (b *uiBridge) push(msg tea.Msg) {
	select {
	case b.out <- msg:
	case <-b.done:
	}
}

func (b *uiBridge) SetBusy(busy bool) { b.push(busyMsg{busy: busy}) }
func (b *uiBridge) FocusInput() { b.push(focusMsg{}) }
func (b *uiBridge) SetDraft(text string) { b.push(draftMsg{text: text}) }
func (b *uiBridge) SetOnline(online bool) { b.push(onlineMsg{online: online}) }
func (b *uiBridge) Notify(n conversation.Notice) { b.push(noticeMsg{notice: n}) }
func (b *uiBridge) TranscriptChanged() { b.push(transcriptMsg{}) }
// ConfirmInput waits until Update has acted on the draft, so the delivery
// ladder can tell whether the confirm consumed it.
func (b *uiBridge) ConfirmInput() {
	handled := make(chan struct{})
	b.push(confirmInputMsg{handled: handled})
	select {
	case <-handled:
	case <-b.done:
	case <-time.After(confirmWait):
	}
}

type busyMsg struct{ busy bool }

type focusMsg struct{}

type draftMsg struct{ text string }

type onlineMsg struct{ online bool }

type noticeMsg struct{ notice conversation.Notice }

type transcriptMsg struct{}

type confirmInputMsg struct{ handled chan struct{} }

type startedMsg struct{ err error }

type completeMsg struct{ err error }

type deliveredMsg struct {
	result conversation.DeliveryResult
}

type toastExpiredMsg struct{ id int }

type exportDoneMsg struct {
	path string
	err  error
}

type toast struct {
	id     int
	notice conversation.Notice
}

type model struct {
	cfg    appConfig
	ctx    context.Context
	ctrl   *conversation.Controller
	ident  *identify.Machine
	flags  *prefs.Flags
	log    *logger.Logger
	bridge *uiBridge

	themePref prefs.Theme
	theme     uiTheme

	busy          bool
	online        conversation.OnlineState
	statusLine    string
	toasts        []toast
	nextToastID   int
	quitConfirm   bool
	clearConfirm  bool
	showHelp      bool
	panelCommands []render.Command

	width  int
	height int

	input       textinput.Model
	sellerInput textinput.Model
	timeline    viewport.Model
	spinner     spinner.Model
}

// newModel wires the controller, the identification dialog and the view
// bridge. ctx bounds every background goroutine the model starts.
func newModel(ctx context.Context, cfg appConfig, tr conversation.Transport, flags *prefs.Flags, log *logger.Logger, opts conversation.Options) model {
	if log == nil {
		log = logger.Nop()
	}
	bridge := newUIBridge(ctx.Done())
	ctrl := conversation.New(tr, bridge, session.NewWithPrefix(cfg.sessionPrefix), log, opts)
	ident := identify.New(flags,
		identify.DeliverFunc(func(ctx context.Context, command string) {
			go func() {
				bridge.push(deliveredMsg{result: ctrl.Deliver(ctx, command)})
			}()
		}),
		identify.Hooks{
			Warn: func(text string) {
				bridge.Notify(conversation.Notice{Level: conversation.LevelWarning, Text: text})
			},
		},
		log,
	)

	themePref, err := flags.Theme(ctx)
	if err != nil {
		log.Warn("failed to read theme preference", zap.Error(err))
	}

	input := textinput.New()
	input.Prompt = "❯ "
	input.CharLimit = 4000
	input.Placeholder = "Type a command (listar, consultar...) or /help"
	input.Focus()

	sellerInput := textinput.New()
	sellerInput.Prompt = "Seller id: "
	sellerInput.CharLimit = 64
	sellerInput.Placeholder = "seller1"

	sp := spinner.New()
	sp.Spinner = spinner.Points

	timeline := viewport.New(0, 0)
	timeline.MouseWheelEnabled = true
	timeline.MouseWheelDelta = 4

	theme := newTheme(resolveDark(themePref))
	sp.Style = theme.accent

	return model{
		cfg:         cfg,
		ctx:         ctx,
		ctrl:        ctrl,
		ident:       ident,
		flags:       flags,
		log:         log,
		bridge:      bridge,
		themePref:   themePref,
		theme:       theme,
		statusLine:  "connecting to " + cfg.apiBase + "...",
		input:       input,
		sellerInput: sellerInput,
		timeline:    timeline,
		spinner:     sp,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.startCmd(),
		waitBridgeMsg(m.bridge.out),
	)
}

func (m model) startCmd() tea.Cmd {
	ctx, ctrl, ident := m.ctx, m.ctrl, m.ident
	return func() tea.Msg {
		err := ident.ApplySuppression(ctx)
		ctrl.Start(ctx)
		return startedMsg{err: err}
	}
}

func waitBridgeMsg(ch <-chan tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case startedMsg:
		if msg.err != nil {
			m.logError(msg.err)
		} else {
			m.statusLine = "ready · session " + m.ctrl.Session().ID
		}
	case busyMsg:
		m.busy = msg.busy
		if msg.busy {
			m.input.Blur()
			m.statusLine = "waiting for reply..."
		}
		cmds = append(cmds, waitBridgeMsg(m.bridge.out))
	case focusMsg:
		if !m.ident.IsOpen() {
			cmds = append(cmds, m.input.Focus())
		}
		cmds = append(cmds, waitBridgeMsg(m.bridge.out))
	case draftMsg:
		m.input.SetValue(msg.text)
		m.input.CursorEnd()
		cmds = append(cmds, waitBridgeMsg(m.bridge.out))
	case onlineMsg:
		if msg.online {
			m.online = conversation.StateOnline
		} else {
			m.online = conversation.StateOffline
		}
		cmds = append(cmds, waitBridgeMsg(m.bridge.out))
	case noticeMsg:
		cmds = append(cmds, m.pushToast(msg.notice), waitBridgeMsg(m.bridge.out))
	case transcriptMsg:
		m.renderPanes()
		cmds = append(cmds, waitBridgeMsg(m.bridge.out))
	case confirmInputMsg:
		if cmd := m.submit(m.ctrl.Draft()); cmd != nil {
			cmds = append(cmds, cmd)
		}
		if msg.handled != nil {
			close(msg.handled)
		}
		cmds = append(cmds, waitBridgeMsg(m.bridge.out))
	case deliveredMsg:
		if msg.result.Delivered {
			m.statusLine = "sent " + msg.result.Command + " via " + nullCoalesce(msg.result.Strategy, "user")
		} else {
			m.statusLine = "could not send " + msg.result.Command + "; press Enter to retry"
		}
		m.appendLog(m.statusLine)
		cmds = append(cmds, waitBridgeMsg(m.bridge.out))
	case completeMsg:
		if msg.err == nil {
			m.statusLine = "reply received"
		} else {
			m.statusLine = "request failed: " + conversation.ClassifyError(msg.err)
		}
	case toastExpiredMsg:
		m.dropToast(msg.id)
	case exportDoneMsg:
		if msg.err != nil {
			m.logError(msg.err)
		} else {
			m.statusLine = "exported to " + msg.path
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.renderPanes()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	case tea.MouseMsg:
		if m.ident.IsOpen() && !m.quitConfirm && !m.clearConfirm {
			if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && !m.insideModal(msg.X, msg.Y, m.identifyPanel()) {
				m.ident.ClickOutside()
				cmd := m.closeIdentify()
				return m, cmd
			}
			break
		}
		if m.quitConfirm || m.clearConfirm {
			break
		}
		var cmd tea.Cmd
		m.timeline, cmd = m.timeline.Update(msg)
		cmds = append(cmds, cmd)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, tea.Batch(cmds...)
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	if m.quitConfirm {
		switch key {
		case "y", "Y", "enter":
			return m, tea.Quit
		case "n", "N", "esc":
			m.quitConfirm = false
			m.statusLine = "quit canceled"
		}
		return m, nil
	}

	if m.clearConfirm {
		switch key {
		case "y", "Y", "enter":
			m.clearConfirm = false
			m.ctrl.ClearHistory()
			m.panelCommands = nil
			m.renderPanes()
		case "n", "N", "esc":
			m.clearConfirm = false
			m.statusLine = "clear canceled"
		}
		return m, nil
	}

	if m.ident.IsOpen() {
		return m.handleIdentifyKey(msg)
	}

	switch key {
	case "esc":
		if m.showHelp {
			m.showHelp = false
			m.renderPanes()
			return m, nil
		}
		m.beginQuitConfirm()
		return m, nil
	case "ctrl+o":
		return m, m.openIdentify()
	case "ctrl+l":
		m.clearConfirm = true
		return m, nil
	case "ctrl+t":
		cmd := m.toggleTheme()
		return m, cmd
	case "ctrl+e":
		return m, m.exportCmd(m.cfg.exportDir)
	case "alt+1", "alt+2", "alt+3", "alt+4", "alt+5":
		idx, _ := strconv.Atoi(strings.TrimPrefix(key, "alt+"))
		return m, m.insertCommand(quickCommands[idx-1])
	case "pgup", "ctrl+b":
		m.timeline.LineUp(8)
		return m, nil
	case "pgdown", "ctrl+f":
		m.timeline.LineDown(8)
		return m, nil
	case "home":
		m.timeline.GotoTop()
		return m, nil
	case "end":
		m.timeline.GotoBottom()
		return m, nil
	case "enter":
		raw := m.input.Value()
		if strings.HasPrefix(strings.TrimSpace(raw), "/") {
			m.input.SetValue("")
			m.ctrl.SetDraft("")
			return m, m.handleSlash(raw)
		}
		return m, m.submit(raw)
	}

	if m.busy {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.ctrl.SetDraft(m.input.Value())
	return m, cmd
}

func (m model) handleIdentifyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.ident.Cancel()
		cmd := m.closeIdentify()
		return m, cmd
	case "enter":
		m.ident.SetInput(m.sellerInput.Value())
		command, err := m.ident.Confirm(m.ctx)
		if errors.Is(err, identify.ErrEmptySellerID) {
			return m, m.sellerInput.Focus()
		}
		if err != nil {
			m.logError(err)
			return m, nil
		}
		m.sellerInput.Blur()
		m.sellerInput.Reset()
		m.statusLine = "identifying: " + command
		m.renderPanes()
		return m, m.input.Focus()
	}
	var cmd tea.Cmd
	m.sellerInput, cmd = m.sellerInput.Update(msg)
	m.ident.SetInput(m.sellerInput.Value())
	return m, cmd
}

// submit runs the synchronous half of a send and returns the network half
// as a command. Rejections surface through notices.
func (m *model) submit(text string) tea.Cmd {
	p, err := m.ctrl.Begin(text)
	if err != nil {
		if errors.Is(err, conversation.ErrBusy) {
			m.statusLine = "still waiting for the previous reply"
		}
		return nil
	}
	m.busy = true
	m.input.SetValue("")
	m.input.Blur()
	m.renderPanes()

	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return completeMsg{err: ctrl.Complete(ctx, p)}
	}
}

func (m *model) openIdentify() tea.Cmd {
	if !m.ident.Open() {
		return nil
	}
	m.input.Blur()
	m.sellerInput.Reset()
	m.statusLine = "enter your seller id"
	return m.sellerInput.Focus()
}

// closeIdentify resets the dialog widgets after the machine has closed.
func (m *model) closeIdentify() tea.Cmd {
	m.sellerInput.Blur()
	m.sellerInput.Reset()
	m.statusLine = "identification canceled"
	return m.input.Focus()
}

func (m *model) insertCommand(command string) tea.Cmd {
	if m.ctrl.InsertCommand(command) {
		return m.openIdentify()
	}
	// The bridge echoes the draft back; set it now so the next key lands
	// after the command.
	m.input.SetValue(strings.TrimSpace(command))
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *model) toggleTheme() tea.Cmd {
	next, err := m.flags.ToggleTheme(m.ctx)
	if err != nil {
		m.logError(err)
		return nil
	}
	m.themePref = next
	m.theme = newTheme(resolveDark(next))
	m.spinner.Style = m.theme.accent
	m.statusLine = "theme: " + string(next)
	m.renderPanes()
	return m.pushToast(conversation.Notice{Level: conversation.LevelSuccess, Text: "Theme changed to " + string(next) + "."})
}

func (m *model) exportCmd(dir string) tea.Cmd {
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	ctrl := m.ctrl
	return func() tea.Msg {
		path := filepath.Join(dir, conversation.ExportFileName(time.Now()))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return exportDoneMsg{err: fmt.Errorf("failed to create export dir: %w", err)}
		}
		f, err := os.Create(path)
		if err != nil {
			return exportDoneMsg{err: fmt.Errorf("failed to create export file: %w", err)}
		}
		if err := ctrl.Export(f); err != nil {
			f.Close()
			return exportDoneMsg{err: err}
		}
		if err := f.Close(); err != nil {
			return exportDoneMsg{err: err}
		}
		return exportDoneMsg{path: path}
	}
}

func (m *model) handleSlash(raw string) tea.Cmd {
	parts := strings.Fields(strings.TrimSpace(raw))
	if len(parts) == 0 {
		return nil
	}
	cmd := strings.ToLower(parts[0])
	tail := parts[1:]
	switch cmd {
	case "/help":
		m.showHelp = !m.showHelp
		m.renderPanes()
		return nil
	case "/quit", "/exit":
		m.beginQuitConfirm()
		return nil
	case "/identificar", "/identify":
		if len(tail) > 0 {
			return m.insertCommand(identify.Command(tail[0]))
		}
		return m.openIdentify()
	case "/dismiss":
		if err := m.ident.DismissBanner(m.ctx); err != nil {
			m.logError(err)
			return nil
		}
		m.statusLine = "reminder hidden"
		m.renderPanes()
		return nil
	case "/clear":
		m.clearConfirm = true
		return nil
	case "/export":
		dir := m.cfg.exportDir
		if len(tail) > 0 {
			dir = tail[0]
		}
		return m.exportCmd(dir)
	case "/theme":
		return m.toggleTheme()
	case "/status":
		ctx, ctrl := m.ctx, m.ctrl
		m.statusLine = "checking backend..."
		return func() tea.Msg {
			ctrl.ProbeStatus(ctx)
			return nil
		}
	case "/cmd", "/quick":
		options := m.panelCommandNames()
		usage := "usage: /cmd <n> (commands from the latest welcome panel)"
		if cmd == "/quick" {
			options = quickCommands
			usage = "usage: /quick <n> (1-" + strconv.Itoa(len(quickCommands)) + ")"
		}
		if len(tail) == 0 {
			m.statusLine = usage
			return nil
		}
		n, err := strconv.Atoi(tail[0])
		if err != nil || n < 1 || n > len(options) {
			m.statusLine = usage
			return nil
		}
		return m.insertCommand(options[n-1])
	default:
		m.statusLine = "unknown command: " + cmd
		return nil
	}
}

func (m *model) panelCommandNames() []string {
	out := make([]string, len(m.panelCommands))
	for i, c := range m.panelCommands {
		out[i] = c.Name
	}
	return out
}

func (m *model) pushToast(n conversation.Notice) tea.Cmd {
	m.nextToastID++
	id := m.nextToastID
	m.toasts = append(m.toasts, toast{id: id, notice: n})
	if len(m.toasts) > maxToasts {
		m.toasts = m.toasts[len(m.toasts)-maxToasts:]
	}
	m.appendLog(string(n.Level) + ": " + n.Text)
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

func (m *model) dropToast(id int) {
	kept := m.toasts[:0]
	for _, t := range m.toasts {
		if t.id != id {
			kept = append(kept, t)
		}
	}
	m.toasts = kept
}

func (m *model) beginQuitConfirm() {
	m.quitConfirm = true
	m.statusLine = "quit?"
}

func (m *model) appendLog(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	m.log.Debug("ui", zap.String("event", compactSingleLine(trimmed, 220)))
}

func (m *model) logError(err error) {
	if err == nil {
		return
	}
	m.log.Warn("ui error", zap.Error(err))
	m.statusLine = "error: " + compactSingleLine(err.Error(), 160)
}

func (m *model) resize() {
	width := maxInt(40, m.width-6)
	m.timeline.Width = width
	m.timeline.Height = maxInt(5, m.height-m.chromeHeight())
	m.input.Width = maxInt(10, width-16)
	m.sellerInput.Width = 32
}

// chromeHeight is the number of rows used by everything but the timeline.
func (m *model) chromeHeight() int {
	rows := 3 + 3 + 4 + 2 + 2
	if m.ident.BannerVisible() {
		rows += 3
	}
	if len(m.toasts) > 0 {
		rows += len(m.toasts)
	}
	return rows
}
