package ports

import "time"

// Notifier shows short user-visible notices
type Notifier interface {
	Notify(message string, d time.Duration)
}
