// Package otel provides structured observability for Talkatoo.
//
// Events are typed structs serialized as JSONL lines. The Logger writes
// them from a single goroutine so emitting never blocks the UI.
// An attached Ring keeps recent events in memory for the debug overlay.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an observability event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Tracker events
	KindMentionRecord  EventKind = "mention.record"
	KindMentionConfirm EventKind = "mention.confirm"
	KindMentionUndo    EventKind = "mention.unconfirm"
	KindMentionDelete  EventKind = "mention.delete"
	KindMentionPrune   EventKind = "mention.prune"
	KindMentionReject  EventKind = "mention.reject"
	KindMoonCollect    EventKind = "moon.collect"
	KindMoonUncollect  EventKind = "moon.uncollect"
	KindRunReset       EventKind = "run.reset"
	KindRunLoad        EventKind = "run.load"
	KindKingdomChange  EventKind = "kingdom.change"

	// Producer events
	KindFeedStart EventKind = "feed.start"
	KindFeedEvent EventKind = "feed.event"
	KindFeedError EventKind = "feed.error"

	// Collaborators
	KindStoreError  EventKind = "store.error"
	KindNotifyError EventKind = "notify.error"

	// UI events
	KindKeyPress EventKind = "ui.key"

	// System events
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"

	// Trace events
	KindMsgReceived EventKind = "trace.msg_received"
)

// Event is the universal observability record. Every field except Kind and
// Time is optional. Serialized as a single JSONL line.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"`       // component: "tracker", "feed", "ui", "main"
	SessionID string         `json:"session_id,omitempty"` // random hex, same for entire app run
	Seq       *int           `json:"seq,omitempty"`        // mention sequence number; 0 is valid
	Kingdom   string         `json:"kingdom,omitempty"`
	MoonID    int            `json:"moon_id,omitempty"`
	Dur       time.Duration  `json:"-"`                // not serialized directly
	DurMs     float64        `json:"dur_ms,omitempty"` // computed from Dur at marshal time
	Count     int            `json:"count,omitempty"`
	Source    string         `json:"source,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`   // free text
	Extra     map[string]any `json:"extra,omitempty"` // escape hatch for unusual fields
}

// SeqPtr wraps a sequence number for Event.Seq. Negative numbers mean
// "no mention" and yield nil.
func SeqPtr(seq int) *int {
	if seq < 0 {
		return nil
	}
	return &seq
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	a := struct {
		Alias
	}{Alias: Alias(e)}
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
