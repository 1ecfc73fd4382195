package domain

import (
	"path"
	"strings"
	"time"
)

// Artifact is a periodic note known to the document store
type Artifact struct {
	Periodicity Periodicity
	PeriodStart time.Time
	Path        string // vault-relative, forward slashes, with extension
}

// Name returns the note name without folder and extension
func (a *Artifact) Name() string {
	base := path.Base(a.Path)
	return strings.TrimSuffix(base, path.Ext(base))
}
