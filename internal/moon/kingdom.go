package moon

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// ErrUnknownKingdom is returned when a kingdom name cannot be parsed.
var ErrUnknownKingdom = errors.New("unknown kingdom")

// Kingdom is one of the fixed world regions, in game order.
type Kingdom int

const (
	Cap Kingdom = iota
	Cascade
	Sand
	Wooded
	Lake
	Cloud
	Lost
	Metro
	Snow
	Seaside
	Luncheon
	Ruined
	Bowsers
	MoonKingdom
	Mushroom
	Dark
	Darker
)

// KingdomInfo holds the static facts about a kingdom.
type KingdomInfo struct {
	Name          string
	IsPostGame    bool
	HasTalkatoo   bool
	RequiredMoons int // moons needed before the odyssey can leave
}

var kingdoms = [...]KingdomInfo{
	Cap:         {Name: "Cap", IsPostGame: true, HasTalkatoo: true},
	Cascade:     {Name: "Cascade", HasTalkatoo: true, RequiredMoons: 5},
	Sand:        {Name: "Sand", HasTalkatoo: true, RequiredMoons: 16},
	Wooded:      {Name: "Wooded", HasTalkatoo: true, RequiredMoons: 16},
	Lake:        {Name: "Lake", HasTalkatoo: true, RequiredMoons: 8},
	Cloud:       {Name: "Cloud", IsPostGame: true},
	Lost:        {Name: "Lost", HasTalkatoo: true, RequiredMoons: 10},
	Metro:       {Name: "Metro", HasTalkatoo: true, RequiredMoons: 20},
	Snow:        {Name: "Snow", HasTalkatoo: true, RequiredMoons: 10},
	Seaside:     {Name: "Seaside", HasTalkatoo: true, RequiredMoons: 10},
	Luncheon:    {Name: "Luncheon", HasTalkatoo: true, RequiredMoons: 18},
	Ruined:      {Name: "Ruined", RequiredMoons: 3},
	Bowsers:     {Name: "Bowsers", HasTalkatoo: true, RequiredMoons: 8},
	MoonKingdom: {Name: "Moon", IsPostGame: true, HasTalkatoo: true},
	Mushroom:    {Name: "Mushroom", IsPostGame: true, HasTalkatoo: true},
	Dark:        {Name: "Dark", IsPostGame: true},
	Darker:      {Name: "Darker", IsPostGame: true},
}

// aliases maps folded spellings used by the moon list and the recognizer
// onto kingdoms. Canonical names are added in init.
var aliases = map[string]Kingdom{
	"darkside":        Dark,
	"darkerside":      Darker,
	"bowser":          Bowsers,
	"mushroomkingdom": Mushroom,
}

func init() {
	for k := range kingdoms {
		aliases[foldName(kingdoms[k].Name)] = Kingdom(k)
	}
}

// foldName lowercases (Unicode case folding) and strips everything that is
// not a letter, so "Bowser's", "bowsers" and "BOWSERS" collapse together.
func foldName(s string) string {
	s = cases.Fold().String(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return r
		}
		return -1
	}, s)
}

// Kingdoms returns every kingdom in game order.
func Kingdoms() []Kingdom {
	out := make([]Kingdom, len(kingdoms))
	for i := range kingdoms {
		out[i] = Kingdom(i)
	}
	return out
}

// ParseKingdom resolves a kingdom name, tolerating case, spacing,
// apostrophes and the "Side" suffix of the post-game kingdoms.
func ParseKingdom(name string) (Kingdom, error) {
	if k, ok := aliases[foldName(name)]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKingdom, name)
}

// Valid reports whether k is one of the fixed kingdoms.
func (k Kingdom) Valid() bool {
	return k >= 0 && int(k) < len(kingdoms)
}

// Info returns the static facts for k. Invalid kingdoms yield a zero value.
func (k Kingdom) Info() KingdomInfo {
	if !k.Valid() {
		return KingdomInfo{}
	}
	return kingdoms[k]
}

func (k Kingdom) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kingdom(%d)", int(k))
	}
	return kingdoms[k].Name
}

// MarshalText encodes the kingdom by name.
func (k Kingdom) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKingdom, int(k))
	}
	return []byte(kingdoms[k].Name), nil
}

// UnmarshalText accepts any spelling ParseKingdom accepts.
func (k *Kingdom) UnmarshalText(text []byte) error {
	parsed, err := ParseKingdom(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
