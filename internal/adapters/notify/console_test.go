package notify

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
)

func TestConsole_Notify(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.now = func() time.Time { return time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC) }

	c.Notify("Today's daily note has been created.", 5*time.Second)
	c.Notify("Failed to create weekly note: disk full", 5*time.Second)

	want := "09:30:00 Today's daily note has been created.\n" +
		"09:30:00 Failed to create weekly note: disk full\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestRecorder_KeepsLastMessages(t *testing.T) {
	var forwarded []string
	next := notifierFunc(func(m string) { forwarded = append(forwarded, m) })
	r := NewRecorder(2, next)

	r.Notify("one", 0)
	r.Notify("two", 0)
	r.Notify("three", 0)

	got := r.Messages()
	if len(got) != 2 || got[0] != "two" || got[1] != "three" {
		t.Errorf("Messages() = %v", got)
	}
	if len(forwarded) != 3 {
		t.Errorf("forwarded %d notices, want 3", len(forwarded))
	}
}

type notifierFunc func(string)

func (f notifierFunc) Notify(m string, _ time.Duration) { f(m) }
