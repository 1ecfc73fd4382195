// Package editor launches the user's terminal editor on a note.
package editor

import (
	"errors"
	"os"
	"os/exec"
	"strings"
)

// ErrNoEditor is returned when neither $VISUAL, $EDITOR nor a known editor
// binary is available
var ErrNoEditor = errors.New("no editor found: set $EDITOR")

// fallbacks are tried in order when no variable is set
var fallbacks = []string{"nvim", "vim", "vi", "nano"}

// Opener implements ports.EditorOpener
type Opener struct {
	getenv   func(string) string
	lookPath func(string) (string, error)
}

// NewOpener creates an opener reading the process environment
func NewOpener() *Opener {
	return &Opener{getenv: os.Getenv, lookPath: exec.LookPath}
}

// Command returns the editor process for path. Editor variables may carry
// arguments, as in EDITOR="code --wait".
func (o *Opener) Command(path string) (*exec.Cmd, error) {
	argv, err := o.editor()
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(argv[0], append(argv[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd, nil
}

func (o *Opener) editor() ([]string, error) {
	for _, name := range []string{"VISUAL", "EDITOR"} {
		if fields := strings.Fields(o.getenv(name)); len(fields) > 0 {
			return fields, nil
		}
	}
	for _, name := range fallbacks {
		if p, err := o.lookPath(name); err == nil {
			return []string{p}, nil
		}
	}
	return nil, ErrNoEditor
}
