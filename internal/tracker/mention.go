package tracker

import "github.com/abelbrown/talkatoo/internal/moon"

// State tags how far a mention has been resolved.
type State int

const (
	// StateAmbiguous: the mention still offers more than one option.
	StateAmbiguous State = iota
	// StateIdentified: exactly one option remains but nobody confirmed it yet.
	StateIdentified
	// StateConfirmed: the single option was confirmed and collected.
	StateConfirmed
)

func (s State) String() string {
	switch s {
	case StateAmbiguous:
		return "ambiguous"
	case StateIdentified:
		return "identified"
	case StateConfirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

// Mention is one detection event: the producer's ordered guesses, stamped
// with a sequence number that stays valid while the mention list shifts.
type Mention struct {
	Seq       int
	options   []moon.Moon
	confirmed bool
}

// Options returns a copy of the remaining options in producer order.
func (m Mention) Options() []moon.Moon {
	out := make([]moon.Moon, len(m.options))
	copy(out, m.options)
	return out
}

// Len is the number of remaining options.
func (m Mention) Len() int {
	return len(m.options)
}

// State derives the tag from the option count and the confirmed flag.
func (m Mention) State() State {
	switch {
	case m.confirmed:
		return StateConfirmed
	case len(m.options) == 1:
		return StateIdentified
	default:
		return StateAmbiguous
	}
}

// Resolved returns the single remaining option, if there is exactly one.
func (m Mention) Resolved() (moon.Moon, bool) {
	if len(m.options) != 1 {
		return moon.Moon{}, false
	}
	return m.options[0], true
}

// Offers reports whether target is still one of the options.
func (m Mention) Offers(target moon.Moon) bool {
	return moon.Contains(m.options, target)
}

// Kingdom is the kingdom of the top-ranked option.
func (m Mention) Kingdom() moon.Kingdom {
	if len(m.options) == 0 {
		return -1
	}
	return m.options[0].Kingdom
}

func (m Mention) clone() Mention {
	m.options = m.Options()
	return m
}
