package conversation

import (
	"bufio"
	"io"
	"strings"
	"sync"
	"time"

	"estoquechat/internal/render"
)

// Sender identifies who wrote a transcript entry.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

func (s Sender) label() string {
	if s == SenderUser {
		return "User"
	}
	return "Bot"
}

// Message is one transcript entry. Ordinals grow monotonically for the life
// of the transcript, including across Clear.
type Message struct {
	Ordinal    int
	Sender     Sender
	Text       string
	Fragment   render.Fragment
	RenderedAt time.Time
}

// Transcript is the ordered, append-only message list.
type Transcript struct {
	now func() time.Time

	mu       sync.RWMutex
	next     int
	messages []Message
}

func NewTranscript(now func() time.Time) *Transcript {
	if now == nil {
		now = time.Now
	}
	return &Transcript{now: now, next: 1}
}

// Append adds a message. Bot text is parsed for welcome panels; user text
// is always plain.
func (t *Transcript) Append(sender Sender, text string) Message {
	frag := render.Plain(text)
	if sender == SenderBot {
		frag = render.Render(text)
	}

	t.mu.Lock()
	msg := Message{
		Ordinal:    t.next,
		Sender:     sender,
		Text:       text,
		Fragment:   frag,
		RenderedAt: t.now(),
	}
	t.next++
	t.messages = append(t.messages, msg)
	t.mu.Unlock()
	return msg
}

// Messages returns a snapshot in display order.
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Clear empties the list. Ordinals are not reused.
func (t *Transcript) Clear() {
	t.mu.Lock()
	t.messages = nil
	t.mu.Unlock()
}

// Export writes one "[HH:MM:SS] User|Bot: text" line per message.
func (t *Transcript) Export(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, msg := range t.Messages() {
		text := strings.Join(strings.Fields(strings.ReplaceAll(msg.Fragment.PlainText(), "\n", " ")), " ")
		if _, err := bw.WriteString("[" + msg.RenderedAt.Format("15:04:05") + "] " + msg.Sender.label() + ": " + text + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ExportFileName is the suggested download name for an export made at now.
func ExportFileName(now time.Time) string {
	return "pc-estoque-chat-" + now.Format("2006-01-02") + ".txt"
}
