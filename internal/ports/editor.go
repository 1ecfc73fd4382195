package ports

import "os/exec"

// EditorOpener opens a note in the user's terminal editor
type EditorOpener interface {
	// Command returns the editor process for path, ready to hand to a
	// terminal program that suspends itself while it runs
	Command(path string) (*exec.Cmd, error)
}
