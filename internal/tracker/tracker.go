// Package tracker is the collection state machine: it records ambiguous
// mentions from the recognizer, resolves them into collected moons, and
// prunes options that other resolutions have made impossible.
//
// A Tracker is not safe for concurrent use. It is owned by the UI event loop
// and every mutation runs to completion before the next event is handled.
package tracker

import (
	"errors"
	"slices"

	"github.com/abelbrown/talkatoo/internal/moon"
)

// ErrNoCandidates is returned by RecordMention for an empty candidate list.
// It signals a producer bug, unlike stale sequence numbers which are expected.
var ErrNoCandidates = errors.New("mention has no candidate moons")

// firstSeq is the sequence number of the first mention of a run.
const firstSeq = 0

// Tracker owns the run state: the mention log, the collected moons, the
// sequence counter and the kingdom the player is presumed to be in.
type Tracker struct {
	mentions  []Mention
	collected []moon.Moon
	nextSeq   int
	kingdom   moon.Kingdom

	subscribers []func(Change)
}

// New creates an empty run with the given active kingdom.
func New(active moon.Kingdom) *Tracker {
	return &Tracker{nextSeq: firstSeq, kingdom: active}
}

// Subscribe registers fn to be called synchronously after every change.
// Subscribers must not call back into the Tracker.
func (t *Tracker) Subscribe(fn func(Change)) {
	if fn != nil {
		t.subscribers = append(t.subscribers, fn)
	}
}

func (t *Tracker) emit(c Change) {
	for _, fn := range t.subscribers {
		fn(c)
	}
}

// RecordMention appends a new mention and returns its sequence number.
//
// Duplicate candidates are collapsed. An ambiguous list loses the options
// that are already collected; if that would leave nothing, the producer's
// top-ranked option is kept alone. When a single option remains, that moon
// is removed from every other still-ambiguous mention first.
func (t *Tracker) RecordMention(candidates []moon.Moon) (int, error) {
	if len(candidates) == 0 {
		return -1, ErrNoCandidates
	}

	options := make([]moon.Moon, 0, len(candidates))
	for _, c := range candidates {
		if !moon.Contains(options, c) {
			options = append(options, c)
		}
	}
	if len(options) > 1 {
		open := make([]moon.Moon, 0, len(options))
		for _, o := range options {
			if !t.IsCollected(o) {
				open = append(open, o)
			}
		}
		if len(open) == 0 {
			open = options[:1]
		}
		options = open
	}

	seq := t.nextSeq
	t.nextSeq++

	if len(options) == 1 {
		t.prune(options[0], seq, true)
	}

	t.mentions = append(t.mentions, Mention{Seq: seq, options: options})
	t.emit(Change{Kind: ChangeMentionRecorded, Seq: seq, Moon: options[0], Kingdom: options[0].Kingdom})
	return seq, nil
}

// ConfirmOption picks option optionIndex of mention seq as the moon that was
// actually collected. Unknown sequences, out-of-range indexes and mentions
// that are already confirmed are ignored; it reports whether anything changed.
func (t *Tracker) ConfirmOption(seq, optionIndex int) bool {
	i := t.indexOf(seq)
	if i < 0 {
		return false
	}
	m := &t.mentions[i]
	if m.confirmed || optionIndex < 0 || optionIndex >= len(m.options) {
		return false
	}

	chosen := m.options[optionIndex]
	m.options = []moon.Moon{chosen}
	m.confirmed = true

	added := t.collect(chosen)
	t.emit(Change{Kind: ChangeMentionConfirmed, Seq: seq, Moon: chosen, Kingdom: chosen.Kingdom})
	if added {
		t.emit(Change{Kind: ChangeMoonCollected, Seq: seq, Moon: chosen, Kingdom: chosen.Kingdom})
	}

	t.prune(chosen, seq, false)
	return true
}

// Unconfirm takes back a confirmation: the mention stays in the log as
// Identified by the moon it was confirmed as, and that moon is uncollected.
// Options pruned elsewhere by the confirmation are not restored. It reports
// false for unknown or unconfirmed mentions.
func (t *Tracker) Unconfirm(seq int) bool {
	i := t.indexOf(seq)
	if i < 0 || !t.mentions[i].confirmed {
		return false
	}
	m := &t.mentions[i]
	m.confirmed = false
	chosen := m.options[0]

	t.emit(Change{Kind: ChangeMentionUnconfirmed, Seq: seq, Moon: chosen, Kingdom: chosen.Kingdom})
	t.uncollect(chosen, seq)
	return true
}

// DeleteMention removes mention seq whatever its state. With alsoUncollect,
// the moon the mention resolved to is removed from the collection too.
func (t *Tracker) DeleteMention(seq int, alsoUncollect bool) bool {
	i := t.indexOf(seq)
	if i < 0 {
		return false
	}
	m := t.mentions[i]
	t.mentions = slices.Delete(t.mentions, i, i+1)
	t.emit(Change{Kind: ChangeMentionDeleted, Seq: seq, Kingdom: m.Kingdom()})

	if alsoUncollect {
		if resolved, ok := m.Resolved(); ok {
			t.Uncollect(resolved)
		}
	}
	return true
}

// AddCollected is the import path: it adds m to the collection without
// looking at mentions. Already collected moons are ignored.
func (t *Tracker) AddCollected(m moon.Moon) bool {
	if !t.collect(m) {
		return false
	}
	t.emit(Change{Kind: ChangeMoonCollected, Seq: -1, Moon: m, Kingdom: m.Kingdom})
	return true
}

// AddCollectedAll imports moons in order and returns how many were new.
func (t *Tracker) AddCollectedAll(moons []moon.Moon) int {
	n := 0
	for _, m := range moons {
		if t.AddCollected(m) {
			n++
		}
	}
	return n
}

// MarkCollected records a moon the recognizer saw being collected. Unlike
// AddCollected it also removes m from every still-ambiguous mention, since
// a collected moon cannot be an open guess.
func (t *Tracker) MarkCollected(m moon.Moon) bool {
	if !t.AddCollected(m) {
		return false
	}
	t.prune(m, -1, true)
	return true
}

// Uncollect removes m from the collection. Mentions are left alone.
func (t *Tracker) Uncollect(m moon.Moon) bool {
	return t.uncollect(m, -1)
}

func (t *Tracker) uncollect(m moon.Moon, seq int) bool {
	i := moon.Index(t.collected, m)
	if i < 0 {
		return false
	}
	removed := t.collected[i]
	t.collected = slices.Delete(t.collected, i, i+1)
	t.emit(Change{Kind: ChangeMoonUncollected, Seq: seq, Moon: removed, Kingdom: removed.Kingdom})
	return true
}

// ResetRun clears mentions and collection and restarts sequence numbering.
// Subscribers receive a single ChangeRunReset.
func (t *Tracker) ResetRun() {
	t.mentions = nil
	t.collected = nil
	t.nextSeq = firstSeq
	t.emit(Change{Kind: ChangeRunReset, Seq: -1, Kingdom: t.kingdom})
}

// SetActiveKingdom changes the kingdom used to decide what is actionable.
func (t *Tracker) SetActiveKingdom(k moon.Kingdom) {
	if k == t.kingdom {
		return
	}
	t.kingdom = k
	t.emit(Change{Kind: ChangeKingdom, Seq: -1, Kingdom: k})
}

// ActiveKingdom returns the kingdom the player is presumed to be in.
func (t *Tracker) ActiveKingdom() moon.Kingdom {
	return t.kingdom
}

// IsCollected reports whether m is in the collection.
func (t *Tracker) IsCollected(m moon.Moon) bool {
	return moon.Contains(t.collected, m)
}

// IsPending reports whether m belongs to the active kingdom, is still an
// option of some unconfirmed mention, and has not been collected.
func (t *Tracker) IsPending(m moon.Moon) bool {
	if m.Kingdom != t.kingdom || t.IsCollected(m) {
		return false
	}
	for _, mention := range t.mentions {
		if !mention.confirmed && mention.Offers(m) {
			return true
		}
	}
	return false
}

// Mention returns a copy of mention seq.
func (t *Tracker) Mention(seq int) (Mention, bool) {
	i := t.indexOf(seq)
	if i < 0 {
		return Mention{}, false
	}
	return t.mentions[i].clone(), true
}

// Mentions returns a copy of the whole mention log in detection order.
func (t *Tracker) Mentions() []Mention {
	out := make([]Mention, len(t.mentions))
	for i, m := range t.mentions {
		out[i] = m.clone()
	}
	return out
}

// Pending returns the mentions that have not been confirmed yet.
func (t *Tracker) Pending() []Mention {
	var out []Mention
	for _, m := range t.mentions {
		if !m.confirmed {
			out = append(out, m.clone())
		}
	}
	return out
}

// Actionable returns the pending mentions the player should be prompted
// about: their top option is in the active kingdom and at least one option
// is still uncollected.
func (t *Tracker) Actionable() []Mention {
	var out []Mention
	for _, m := range t.mentions {
		if m.confirmed || m.Kingdom() != t.kingdom {
			continue
		}
		for _, o := range m.options {
			if !t.IsCollected(o) {
				out = append(out, m.clone())
				break
			}
		}
	}
	return out
}

// Collected returns the collected moons in collection order.
func (t *Tracker) Collected() []moon.Moon {
	out := make([]moon.Moon, len(t.collected))
	copy(out, t.collected)
	return out
}

// CollectedIn counts collected moons in kingdom k.
func (t *Tracker) CollectedIn(k moon.Kingdom) int {
	n := 0
	for _, m := range t.collected {
		if m.Kingdom == k {
			n++
		}
	}
	return n
}

// NextSeq is the sequence number the next mention will receive.
func (t *Tracker) NextSeq() int {
	return t.nextSeq
}

func (t *Tracker) indexOf(seq int) int {
	for i := range t.mentions {
		if t.mentions[i].Seq == seq {
			return i
		}
	}
	return -1
}

func (t *Tracker) collect(m moon.Moon) bool {
	if t.IsCollected(m) {
		return false
	}
	t.collected = append(t.collected, m)
	return true
}

// prune removes target from every unconfirmed mention other than keep.
// With ambiguousOnly, single-option mentions are left alone. Mentions left
// with no options are dropped.
func (t *Tracker) prune(target moon.Moon, keep int, ambiguousOnly bool) {
	var changes []Change
	kept := make([]Mention, 0, len(t.mentions))
	for _, m := range t.mentions {
		if m.Seq == keep || m.confirmed || !m.Offers(target) || (ambiguousOnly && len(m.options) < 2) {
			kept = append(kept, m)
			continue
		}
		m.options = moon.Without(m.options, target)
		dropped := len(m.options) == 0
		if !dropped {
			kept = append(kept, m)
		}
		changes = append(changes, Change{
			Kind:    ChangeMentionPruned,
			Seq:     m.Seq,
			Moon:    target,
			Kingdom: target.Kingdom,
			Dropped: dropped,
		})
	}
	t.mentions = kept

	for _, c := range changes {
		t.emit(c)
	}
}
