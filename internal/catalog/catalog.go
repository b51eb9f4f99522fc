// Package catalog loads the moon list and answers lookups against it.
//
// The list is a JSON array with one object per moon: "id", "kingdom" and one
// name per language key. A Catalog is read-only after Load and safe to share.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/abelbrown/talkatoo/internal/moon"
)

// ErrUnknownMoon is returned when a key has no entry in the catalog.
var ErrUnknownMoon = errors.New("unknown moon")

// AnyKingdom disables the kingdom filter in Search.
const AnyKingdom moon.Kingdom = -1

// Catalog is an indexed moon list.
type Catalog struct {
	moons     []moon.Moon
	byKey     map[moon.Key]int
	byKingdom map[moon.Kingdom][]int
	folded    [][]string // folded names per moon, for Search
}

// Load reads and indexes the moon list at path.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open moon list: %w", err)
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a moon list. Duplicate (id, kingdom) pairs are an error.
func Parse(r io.Reader) (*Catalog, error) {
	var moons []moon.Moon
	if err := json.NewDecoder(r).Decode(&moons); err != nil {
		return nil, fmt.Errorf("decode moon list: %w", err)
	}
	return New(moons)
}

// New indexes moons in the given order.
func New(moons []moon.Moon) (*Catalog, error) {
	c := &Catalog{
		moons:     make([]moon.Moon, 0, len(moons)),
		byKey:     make(map[moon.Key]int, len(moons)),
		byKingdom: make(map[moon.Kingdom][]int),
		folded:    make([][]string, 0, len(moons)),
	}
	for _, m := range moons {
		if _, dup := c.byKey[m.Key()]; dup {
			return nil, fmt.Errorf("duplicate moon %s", m.Key())
		}
		i := len(c.moons)
		c.moons = append(c.moons, m)
		c.byKey[m.Key()] = i
		c.byKingdom[m.Kingdom] = append(c.byKingdom[m.Kingdom], i)

		names := make([]string, 0, len(m.Names))
		for _, name := range m.Names {
			if f := fold(name); f != "" {
				names = append(names, f)
			}
		}
		c.folded = append(c.folded, names)
	}
	return c, nil
}

// Len is the number of moons in the catalog.
func (c *Catalog) Len() int {
	return len(c.moons)
}

// Lookup returns the full moon for an id within a kingdom.
func (c *Catalog) Lookup(id int, k moon.Kingdom) (moon.Moon, error) {
	i, ok := c.byKey[moon.Key{ID: id, Kingdom: k}]
	if !ok {
		return moon.Moon{}, fmt.Errorf("%w: %s#%d", ErrUnknownMoon, k, id)
	}
	return c.moons[i], nil
}

// Resolve looks up keys in order. Unknown keys are skipped and returned
// separately so callers can report them.
func (c *Catalog) Resolve(keys []moon.Key) (found []moon.Moon, missing []moon.Key) {
	for _, k := range keys {
		m, err := c.Lookup(k.ID, k.Kingdom)
		if err != nil {
			missing = append(missing, k)
			continue
		}
		found = append(found, m)
	}
	return found, missing
}

// ByKingdom returns the moons of k ordered by id.
func (c *Catalog) ByKingdom(k moon.Kingdom) []moon.Moon {
	idx := c.byKingdom[k]
	out := make([]moon.Moon, len(idx))
	for j, i := range idx {
		out[j] = c.moons[i]
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

// Search finds moons whose name in any language contains query, ignoring
// case, width and diacritics. A purely numeric query matches ids instead.
// Results keep catalog order; limit <= 0 means no limit.
func (c *Catalog) Search(query string, k moon.Kingdom, limit int) []moon.Moon {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	q := fold(query)
	id, numErr := strconv.Atoi(q)

	var out []moon.Moon
	for i, m := range c.moons {
		if k != AnyKingdom && m.Kingdom != k {
			continue
		}
		if numErr == nil {
			if m.ID != id {
				continue
			}
		} else if !matches(c.folded[i], q) {
			continue
		}
		out = append(out, m)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func matches(names []string, q string) bool {
	for _, n := range names {
		if strings.Contains(n, q) {
			return true
		}
	}
	return false
}

// fold normalizes a name for matching: compatibility decomposition (so
// full-width digits and letters become ASCII), combining marks removed,
// Unicode case folding, whitespace dropped.
func fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC, cases.Fold())
	out, _, err := transform.String(t, s)
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(out), "")
}
