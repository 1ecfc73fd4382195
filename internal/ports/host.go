package ports

// VisibilitySource reports when the host becomes visible again, which is the
// signal used to detect a resume from sleep
type VisibilitySource interface {
	// OnVisible registers fn and returns a function removing it
	OnVisible(fn func()) (remove func())
}
