// Package configview is the settings screen: label languages, the kingdoms
// the player cycles through, and list display options.
package configview

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/talkatoo/internal/config"
	"github.com/abelbrown/talkatoo/internal/moon"
)

// Section of the config
type section int

const (
	sectionLanguages section = iota
	sectionKingdoms
	sectionDisplay
	numSections
)

var sectionNames = [numSections]string{"Languages", "Kingdoms", "Display"}

var (
	accent = lipgloss.Color("#58a6ff")
	green  = lipgloss.Color("#3fb950")
	red    = lipgloss.Color("#f85149")
	text   = lipgloss.Color("#c9d1d9")
	muted  = lipgloss.Color("#8b949e")
	border = lipgloss.Color("#30363d")

	titleStyle     = lipgloss.NewStyle().Bold(true)
	helpStyle      = lipgloss.NewStyle().Foreground(muted)
	selectedStyle  = lipgloss.NewStyle().Foreground(text).Bold(true)
	checkedStyle   = lipgloss.NewStyle().Foreground(green)
	errStyle       = lipgloss.NewStyle().Foreground(red)
	tabStyle       = lipgloss.NewStyle().Padding(0, 2).Foreground(muted)
	activeTabStyle = tabStyle.Foreground(accent).Bold(true).Underline(true)
)

// Model is the config view. It edits a copy of the config; the copy is
// handed back through Saved only when the player saves.
type Model struct {
	config   config.Config
	width    int
	height   int
	section  section
	cursor   int
	quitting bool
	saved    bool
	err      error
}

// New creates a config view editing a copy of cfg.
func New(cfg *config.Config) Model {
	c := *cfg
	c.ActiveKingdoms = slices.Clone(cfg.ActiveKingdoms)
	return Model{config: c}
}

// SetSize updates dimensions
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.err = nil
		switch msg.String() {
		case "q", "esc":
			m.quitting = true

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < m.maxCursor() {
				m.cursor++
			}

		case "tab":
			m.section = (m.section + 1) % numSections
			m.cursor = 0

		case "shift+tab":
			m.section = (m.section + numSections - 1) % numSections
			m.cursor = 0

		case "enter", " ", "right", "l":
			m.change(1)

		case "left", "h":
			m.change(-1)

		case "s", "ctrl+s":
			if err := m.config.Validate(); err != nil {
				m.err = err
				return m, nil
			}
			m.saved = true
			m.quitting = true
		}

	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
	}

	return m, nil
}

// change steps the value under the cursor. Toggles ignore the direction.
func (m *Model) change(step int) {
	switch m.section {
	case sectionLanguages:
		if m.cursor == 0 {
			m.config.InputLanguage = cycleLanguage(m.config.InputLanguage, step)
		} else {
			m.config.OutputLanguage = cycleLanguage(m.config.OutputLanguage, step)
		}

	case sectionKingdoms:
		k := moon.Kingdoms()[m.cursor]
		if slices.Contains(m.config.ActiveKingdoms, k) {
			m.config.ActiveKingdoms = slices.DeleteFunc(m.config.ActiveKingdoms, func(x moon.Kingdom) bool { return x == k })
		} else {
			m.config.ActiveKingdoms = append(m.config.ActiveKingdoms, k)
		}

	case sectionDisplay:
		if m.cursor == 0 {
			m.config.CompactMode = !m.config.CompactMode
		} else {
			m.config.ShowPostGame = !m.config.ShowPostGame
		}
	}
}

func cycleLanguage(l moon.Language, step int) moon.Language {
	langs := moon.Languages()
	i := slices.Index(langs, l)
	if i < 0 {
		return langs[0]
	}
	return langs[(i+step+len(langs))%len(langs)]
}

func (m Model) maxCursor() int {
	switch m.section {
	case sectionLanguages:
		return 1
	case sectionKingdoms:
		return len(moon.Kingdoms()) - 1
	case sectionDisplay:
		return 1
	}
	return 0
}

// View renders the config UI
func (m Model) View() string {
	var content string
	switch m.section {
	case sectionLanguages:
		content = m.renderLanguages()
	case sectionKingdoms:
		content = m.renderKingdoms()
	case sectionDisplay:
		content = m.renderDisplay()
	}

	status := ""
	if m.err != nil {
		status = errStyle.Render("  " + m.err.Error())
	}

	help := helpStyle.Render("  [↑↓] navigate · [enter/←→] change · [tab] section · [s] save · [esc] cancel")

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(1, 2).
		Width(max(m.width-4, 20)).
		MaxHeight(max(m.height, 8))

	inner := lipgloss.JoinVertical(lipgloss.Left,
		m.renderTabs(),
		"",
		content,
		"",
		status,
		help,
	)

	return box.Render(inner)
}

func (m Model) renderTabs() string {
	var rendered []string
	for i, name := range sectionNames {
		if section(i) == m.section {
			rendered = append(rendered, activeTabStyle.Render(name))
		} else {
			rendered = append(rendered, tabStyle.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderLanguages() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Label languages"))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("Mentions show the recognizer's name and yours side by side"))
	b.WriteString("\n\n")

	rows := []struct {
		name string
		lang moon.Language
	}{
		{"Recognizer reads", m.config.InputLanguage},
		{"Show names in", m.config.OutputLanguage},
	}
	for i, r := range rows {
		b.WriteString(m.line(i, fmt.Sprintf("%-17s ‹ %s ›", r.name, r.lang.Label())))
	}
	return b.String()
}

func (m Model) renderKingdoms() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Active kingdoms"))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("[ and ] cycle through these, in the order they were added"))
	b.WriteString("\n\n")

	// Long lists scroll with the cursor
	all := moon.Kingdoms()
	visible := max(m.height-16, 4)
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := min(start+visible, len(all))

	for i := start; i < end; i++ {
		k := all[i]
		checkbox := helpStyle.Render("[ ]")
		if pos := slices.Index(m.config.ActiveKingdoms, k); pos >= 0 {
			checkbox = checkedStyle.Render(fmt.Sprintf("[%d]", pos+1))
		}
		name := k.String()
		if k.Info().IsPostGame {
			name += helpStyle.Render(" (post-game)")
		}
		b.WriteString(m.line(i, checkbox+" "+name))
	}
	return b.String()
}

func (m Model) renderDisplay() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Display"))
	b.WriteString("\n\n")

	items := []struct {
		name string
		on   bool
	}{
		{"Compact list", m.config.CompactMode},
		{"Show post-game kingdoms", m.config.ShowPostGame},
	}
	for i, item := range items {
		checkbox := helpStyle.Render("[ ]")
		if item.on {
			checkbox = checkedStyle.Render("[✓]")
		}
		b.WriteString(m.line(i, checkbox+" "+item.name))
	}
	return b.String()
}

func (m Model) line(i int, s string) string {
	if i == m.cursor {
		return "▶ " + selectedStyle.Render(s) + "\n"
	}
	return "  " + s + "\n"
}

// IsQuitting returns true if user wants to close
func (m Model) IsQuitting() bool {
	return m.quitting
}

// Saved returns the edited config if the view was closed with save.
func (m Model) Saved() (*config.Config, bool) {
	if !m.saved {
		return nil, false
	}
	c := m.config
	c.ActiveKingdoms = slices.Clone(m.config.ActiveKingdoms)
	return &c, true
}
