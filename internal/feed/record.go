package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/abelbrown/talkatoo/internal/moon"
)

// RecordType is the "type" field of a producer line.
type RecordType string

const (
	TypeMention   RecordType = "mention"
	TypeCollected RecordType = "collected"
	TypeKingdom   RecordType = "kingdom"
)

// ErrUnknownType is returned for lines whose type is not recognised.
var ErrUnknownType = errors.New("unknown record type")

// Record is one decoded producer line.
type Record struct {
	Type    RecordType
	Moons   []moon.Key   // mention and collected records
	Kingdom moon.Kingdom // kingdom records
}

type rawRecord struct {
	Type    RecordType `json:"type"`
	Moons   []moon.Key `json:"moons"`
	Kingdom string     `json:"kingdom"`
}

// ParseLine decodes one JSONL line written by the recognizer.
func ParseLine(line []byte) (Record, error) {
	var raw rawRecord
	if err := json.Unmarshal(line, &raw); err != nil {
		return Record{}, fmt.Errorf("decode line: %w", err)
	}

	switch raw.Type {
	case TypeMention, TypeCollected:
		return Record{Type: raw.Type, Moons: raw.Moons}, nil
	case TypeKingdom:
		k, err := moon.ParseKingdom(raw.Kingdom)
		if err != nil {
			return Record{}, fmt.Errorf("kingdom record: %w", err)
		}
		return Record{Type: raw.Type, Kingdom: k}, nil
	default:
		return Record{}, fmt.Errorf("%w: %q", ErrUnknownType, raw.Type)
	}
}

// signature identifies a record for consecutive-duplicate suppression.
func (r Record) signature() string {
	var b strings.Builder
	b.WriteString(string(r.Type))
	if r.Type == TypeKingdom {
		b.WriteString(":" + r.Kingdom.String())
		return b.String()
	}
	for _, k := range r.Moons {
		b.WriteString(":" + k.String())
	}
	return b.String()
}
