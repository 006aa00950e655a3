package conversation

// Level is the severity of a Notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a transient message for the user. The view decides how long it
// stays on screen.
type Notice struct {
	Level Level
	Text  string
}

// View is the UI surface the controller drives. Implementations must be
// safe to call from any goroutine. The controller never holds its lock
// while calling a View.
type View interface {
	SetBusy(busy bool)
	FocusInput()
	SetDraft(text string)
	SetOnline(online bool)
	Notify(n Notice)
	TranscriptChanged()
}

// Confirmer is implemented by views that can simulate the user's
// "send" action on the current draft.
type Confirmer interface {
	ConfirmInput()
}

// NopView ignores every call.
type NopView struct{}

func (NopView) SetBusy(bool)       {}
func (NopView) FocusInput()        {}
func (NopView) SetDraft(string)    {}
func (NopView) SetOnline(bool)     {}
func (NopView) Notify(Notice)      {}
func (NopView) TranscriptChanged() {}
