package tracker

import "github.com/abelbrown/talkatoo/internal/moon"

// ChangeKind identifies what a Change describes.
type ChangeKind int

const (
	ChangeMentionRecorded ChangeKind = iota
	ChangeMentionConfirmed
	ChangeMentionDeleted
	ChangeMentionPruned // an option was removed from a mention because it was resolved elsewhere
	ChangeMoonCollected
	ChangeMoonUncollected
	ChangeRunReset
	ChangeKingdom
	ChangeMentionUnconfirmed
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeMentionRecorded:
		return "mention.record"
	case ChangeMentionConfirmed:
		return "mention.confirm"
	case ChangeMentionDeleted:
		return "mention.delete"
	case ChangeMentionPruned:
		return "mention.prune"
	case ChangeMoonCollected:
		return "moon.collect"
	case ChangeMoonUncollected:
		return "moon.uncollect"
	case ChangeRunReset:
		return "run.reset"
	case ChangeKingdom:
		return "kingdom.change"
	case ChangeMentionUnconfirmed:
		return "mention.unconfirm"
	default:
		return "unknown"
	}
}

// Change is delivered synchronously to subscribers after each mutation.
// Seq is -1 when the change is not about a mention. Dropped is set on
// ChangeMentionPruned when the mention ran out of options and was removed.
type Change struct {
	Kind    ChangeKind
	Seq     int
	Moon    moon.Moon
	Kingdom moon.Kingdom
	Dropped bool
}
