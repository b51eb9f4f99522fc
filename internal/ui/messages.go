// Package ui provides the Bubble Tea TUI for Talkatoo.
package ui

import (
	"github.com/abelbrown/talkatoo/internal/moon"
)

// MentionDetected is sent by the feed when the recognizer read a moon name.
// Moons are the candidates, best guess first. An empty list is a producer
// error and is reported instead of recorded.
type MentionDetected struct {
	Moons  []moon.Moon
	Source string
}

// MoonsCollected is sent by the feed when the recognizer saw moons being
// collected without a Talkatoo prompt.
type MoonsCollected struct {
	Moons  []moon.Moon
	Source string
}

// KingdomDetected is sent when the recognizer noticed a kingdom change.
type KingdomDetected struct {
	Kingdom moon.Kingdom
}

// FeedError reports a line the feed could not use.
type FeedError struct {
	Source string
	Err    error
}

// ProgressLoaded is sent once the current run has been read from the store.
type ProgressLoaded struct {
	RunID string
	Moons []moon.Moon
	Err   error
}

// RunStarted is sent after a reset created a fresh run in the store.
type RunStarted struct {
	RunID string
	Err   error
}

// Persisted is the result of writing one collection change to the store.
type Persisted struct {
	Key moon.Key
	Err error
}

// Notified is the result of a push notification.
type Notified struct {
	Err error
}

// ConfigSaved is the result of writing edited settings to disk.
type ConfigSaved struct {
	Err error
}

// toastExpired clears the toast banner if it is still the one identified by id.
type toastExpired struct {
	id int
}
