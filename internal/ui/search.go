package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/talkatoo/internal/catalog"
	"github.com/abelbrown/talkatoo/internal/moon"
)

const (
	searchLimit   = 50 // results kept per query
	searchVisible = 8  // results shown at once
)

// searchBox lets the player enter a mention by hand: type part of a name or
// a moon number, tab to pick one or more candidates, enter to record them.
// With nothing picked, enter records the highlighted result alone.
type searchBox struct {
	input   textinput.Model
	results []moon.Moon
	picked  []moon.Moon
	cursor  int
	active  bool
}

func newSearchBox() searchBox {
	ti := textinput.New()
	ti.Placeholder = "moon name or number"
	ti.Prompt = ""
	ti.CharLimit = 64
	return searchBox{input: ti}
}

func (s *searchBox) open(cat *catalog.Catalog, k moon.Kingdom) tea.Cmd {
	s.active = true
	s.picked = nil
	s.cursor = 0
	s.input.SetValue("")
	s.input.Focus()
	s.refresh(cat, k)
	return textinput.Blink
}

func (s *searchBox) close() {
	s.active = false
	s.input.Blur()
}

func (s *searchBox) setWidth(w int) {
	s.input.Width = max(w-24, 10)
}

// refresh reruns the query. An empty query lists the whole kingdom.
func (s *searchBox) refresh(cat *catalog.Catalog, k moon.Kingdom) {
	s.cursor = 0
	if cat == nil {
		s.results = nil
		return
	}
	query := strings.TrimSpace(s.input.Value())
	if query == "" {
		s.results = cat.ByKingdom(k)
		if len(s.results) > searchLimit {
			s.results = s.results[:searchLimit]
		}
		return
	}
	s.results = cat.Search(query, k, searchLimit)
}

func (s searchBox) update(msg tea.Msg, cat *catalog.Catalog, k moon.Kingdom) (searchBox, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, searchKeys.Up):
			if s.cursor > 0 {
				s.cursor--
			}
			return s, nil
		case key.Matches(msg, searchKeys.Down):
			if s.cursor < len(s.results)-1 {
				s.cursor++
			}
			return s, nil
		case key.Matches(msg, searchKeys.Pick):
			if s.cursor < len(s.results) {
				s.togglePick(s.results[s.cursor])
			}
			return s, nil
		}
	}

	old := s.input.Value()
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	if s.input.Value() != old {
		s.refresh(cat, k)
	}
	return s, cmd
}

func (s *searchBox) togglePick(m moon.Moon) {
	if moon.Contains(s.picked, m) {
		s.picked = moon.Without(s.picked, m)
		return
	}
	s.picked = append(s.picked, m)
}

// candidates is the mention the box would record, best guess first.
func (s searchBox) candidates() []moon.Moon {
	if len(s.picked) > 0 {
		out := make([]moon.Moon, len(s.picked))
		copy(out, s.picked)
		return out
	}
	if s.cursor < len(s.results) {
		return []moon.Moon{s.results[s.cursor]}
	}
	return nil
}

func (s searchBox) view(width int, in, out moon.Language) string {
	var b strings.Builder

	count := SearchBarCount.Render(fmt.Sprintf(" %d found, %d picked", len(s.results), len(s.picked)))
	bar := SearchBarPrompt.Render("+ ") + s.input.View() + count
	b.WriteString(SearchBar.Width(width).MaxHeight(1).Render(bar))
	b.WriteString("\n")

	start := 0
	if s.cursor >= searchVisible {
		start = s.cursor - searchVisible + 1
	}
	end := min(start+searchVisible, len(s.results))
	for i := start; i < end; i++ {
		m := s.results[i]
		label := truncateRunes(moon.RenderLabel(m, in, out), max(width-6, 10))
		mark := "  "
		if moon.Contains(s.picked, m) {
			mark = SearchPicked.Render("+ ")
		}
		line := mark + label
		if i == s.cursor {
			line = mark + SelectedItem.Render(label)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(s.results) == 0 {
		b.WriteString(StatusBarText.Render("  no moons match"))
		b.WriteString("\n")
	}
	b.WriteString(StatusBarText.Render("tab pick  enter record  esc cancel"))
	return lipgloss.NewStyle().MaxWidth(width).Render(b.String())
}
