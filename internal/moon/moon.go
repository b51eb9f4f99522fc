// Package moon defines the collectible item tracked by Talkatoo: a moon,
// identified by its number within a kingdom.
package moon

import (
	"encoding/json"
	"fmt"
)

// Key is the identity of a moon. Two moons are the same moon iff their keys
// are equal; names are presentation only.
type Key struct {
	ID      int     `json:"id"`
	Kingdom Kingdom `json:"kingdom"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s#%d", k.Kingdom, k.ID)
}

// Moon is an immutable value object. Names holds one entry per supported
// language key.
type Moon struct {
	ID      int
	Kingdom Kingdom
	Names   map[Language]string
}

// Key returns the identity of m.
func (m Moon) Key() Key {
	return Key{ID: m.ID, Kingdom: m.Kingdom}
}

// Equal compares identity only.
func (m Moon) Equal(other Moon) bool {
	return m.ID == other.ID && m.Kingdom == other.Kingdom
}

// Name returns the localized name, falling back to English and then "?".
func (m Moon) Name(lang Language) string {
	if name := m.Names[lang]; name != "" {
		return name
	}
	if name := m.Names[English]; name != "" {
		return name
	}
	return "?"
}

// RenderLabel formats a moon as "id - outputName - inputName" with a
// fixed-width id column.
func RenderLabel(m Moon, input, output Language) string {
	return fmt.Sprintf("%3d - %s - %s", m.ID, m.Name(output), m.Name(input))
}

// Index returns the position of the first moon equal to target, or -1.
func Index(moons []Moon, target Moon) int {
	for i, m := range moons {
		if m.Equal(target) {
			return i
		}
	}
	return -1
}

// Contains reports whether moons holds a moon equal to target.
func Contains(moons []Moon, target Moon) bool {
	return Index(moons, target) >= 0
}

// Without returns moons minus every entry equal to target. The input slice
// is not modified.
func Without(moons []Moon, target Moon) []Moon {
	out := make([]Moon, 0, len(moons))
	for _, m := range moons {
		if !m.Equal(target) {
			out = append(out, m)
		}
	}
	return out
}

// UnmarshalJSON reads a moon-list entry: "id" and "kingdom" plus one string
// field per language. Unknown non-language fields are ignored.
func (m *Moon) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var key Key
	if err := json.Unmarshal(data, &key); err != nil {
		return fmt.Errorf("decode moon key: %w", err)
	}
	if _, ok := raw["kingdom"]; !ok {
		return fmt.Errorf("decode moon key: missing kingdom")
	}

	names := make(map[Language]string)
	for _, lang := range Languages() {
		field, ok := raw[string(lang)]
		if !ok {
			continue
		}
		var name string
		if err := json.Unmarshal(field, &name); err != nil {
			return fmt.Errorf("decode %s name of %s: %w", lang, key, err)
		}
		names[lang] = name
	}

	*m = Moon{ID: key.ID, Kingdom: key.Kingdom, Names: names}
	return nil
}

// MarshalJSON writes the same flat shape UnmarshalJSON reads.
func (m Moon) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Names)+2)
	out["id"] = m.ID
	out["kingdom"] = m.Kingdom
	for lang, name := range m.Names {
		out[string(lang)] = name
	}
	return json.Marshal(out)
}
