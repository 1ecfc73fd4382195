// Package notify shows user notices on the terminal.
package notify

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"autonotes/internal/ports"
)

// Console prints notices, one per line, prefixed with the local time
type Console struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

var _ ports.Notifier = (*Console)(nil)

// NewConsole writes to out, or stderr when out is nil
func NewConsole(out io.Writer) *Console {
	if out == nil || out == os.Stderr {
		out = color.Error
	}
	return &Console{out: out, now: time.Now}
}

// Notify prints message. The display duration has no meaning on a terminal.
func (c *Console) Notify(message string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stamp := color.New(color.Faint)
	body := color.New(color.FgGreen)
	if strings.HasPrefix(message, "Failed") {
		body = color.New(color.FgRed, color.Bold)
	}

	_, _ = stamp.Fprintf(c.out, "%s ", c.now().Format("15:04:05"))
	_, _ = body.Fprintln(c.out, message)
}

// Recorder keeps notices in memory for status output
type Recorder struct {
	mu       sync.Mutex
	limit    int
	messages []string
	next     ports.Notifier
}

// NewRecorder keeps the last limit notices and forwards each to next
func NewRecorder(limit int, next ports.Notifier) *Recorder {
	return &Recorder{limit: limit, next: next}
}

// Notify records message and forwards it
func (r *Recorder) Notify(message string, d time.Duration) {
	r.mu.Lock()
	r.messages = append(r.messages, message)
	if r.limit > 0 && len(r.messages) > r.limit {
		r.messages = r.messages[len(r.messages)-r.limit:]
	}
	r.mu.Unlock()

	if r.next != nil {
		r.next.Notify(message, d)
	}
}

// Messages returns the recorded notices, oldest first
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.messages))
	copy(out, r.messages)
	return out
}
