package otel

import (
	"fmt"
	"strings"
)

// Rank orders levels by severity. Unknown levels rank with debug.
func (l Level) Rank() int {
	switch l {
	case LevelInfo:
		return 1
	case LevelWarn:
		return 2
	case LevelError:
		return 3
	default:
		return 0
	}
}

// ParseLevel checks a level given on the command line. Empty is allowed
// and means no minimum.
func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToLower(s)); l {
	case "", LevelDebug, LevelInfo, LevelWarn, LevelError:
		return l, nil
	default:
		return "", fmt.Errorf("unknown level %q (want debug, info, warn or error)", s)
	}
}

// Filter selects events. Zero fields match everything.
type Filter struct {
	Kind     string // kind prefix, e.g. "mention" or "moon.collect"
	MinLevel Level
	Comp     string
	Kingdom  string // case-insensitive
	Session  string // session id prefix
	Seq      *int   // events about this mention only
}

// Match reports whether e passes every set field of f.
func (f Filter) Match(e Event) bool {
	switch {
	case f.Kind != "" && !strings.HasPrefix(string(e.Kind), f.Kind):
		return false
	case f.MinLevel != "" && e.Level.Rank() < f.MinLevel.Rank():
		return false
	case f.Comp != "" && e.Comp != f.Comp:
		return false
	case f.Kingdom != "" && !strings.EqualFold(e.Kingdom, f.Kingdom):
		return false
	case f.Session != "" && !strings.HasPrefix(e.SessionID, f.Session):
		return false
	case f.Seq != nil && (e.Seq == nil || *e.Seq != *f.Seq):
		return false
	}
	return true
}
