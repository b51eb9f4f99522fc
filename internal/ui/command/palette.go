// Package command implements the ":" command palette.
package command

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Command represents an available command
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Key         string // shortcut key if any
	Arg         string // argument placeholder; empty when the command takes none
}

// Selection is what the palette hands back on enter.
type Selection struct {
	Name string
	Arg  string
}

// DefaultCommands returns the built-in commands
func DefaultCommands() []Command {
	return []Command{
		{Name: "add", Aliases: []string{"search", "mention"}, Description: "Add a mention from the moon list", Key: "/"},
		{Name: "kingdom", Aliases: []string{"goto"}, Description: "Switch active kingdom", Arg: "<name>"},
		{Name: "next", Description: "Next kingdom", Key: "]"},
		{Name: "prev", Aliases: []string{"previous"}, Description: "Previous kingdom", Key: "["},
		{Name: "compact", Aliases: []string{"density", "expand"}, Description: "Toggle compact/expanded list", Key: "c"},
		{Name: "all", Aliases: []string{"actionable", "log"}, Description: "Toggle full log / actionable only", Key: "a"},
		{Name: "undo", Aliases: []string{"unconfirm"}, Description: "Undo the selected confirmation", Key: "u"},
		{Name: "reset", Aliases: []string{"new", "restart"}, Description: "Start a new run", Key: "R"},
		{Name: "settings", Aliases: []string{"config", "prefs", "language"}, Description: "Languages, kingdoms and display", Key: ","},
		{Name: "debug", Aliases: []string{"events"}, Description: "Toggle debug overlay", Key: "D"},
		{Name: "help", Description: "Show help", Key: "?"},
		{Name: "quit", Aliases: []string{"exit", "q"}, Description: "Exit Talkatoo", Key: "q"},
	}
}

var (
	accent  = lipgloss.Color("#58a6ff")
	text    = lipgloss.Color("#c9d1d9")
	subtle  = lipgloss.Color("#8b949e")
	faint   = lipgloss.Color("#484f58")
	surface = lipgloss.Color("#21262d")
	border  = lipgloss.Color("#30363d")

	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1)
	itemStyle     = lipgloss.NewStyle().Foreground(text).Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Foreground(accent).Background(surface).Bold(true).Padding(0, 1)
	descStyle     = lipgloss.NewStyle().Foreground(subtle)
	keyStyle      = lipgloss.NewStyle().Foreground(faint).Background(surface).Padding(0, 1)
	hintStyle     = lipgloss.NewStyle().Foreground(faint)
)

// maxVisible is how many commands are listed at once.
const maxVisible = 8

// Palette is a command palette with fuzzy matching
type Palette struct {
	input    textinput.Model
	commands []Command
	filtered []Command
	cursor   int
	width    int
	active   bool
}

// New creates a new command palette
func New() Palette {
	ti := textinput.New()
	ti.Placeholder = "Type a command..."
	ti.Prompt = ": "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(accent).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(text)
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(accent)
	ti.CharLimit = 48

	return Palette{
		input:    ti,
		commands: DefaultCommands(),
		filtered: DefaultCommands(),
		width:    60,
	}
}

// Activate shows the palette
func (p *Palette) Activate() tea.Cmd {
	p.active = true
	p.input.SetValue("")
	p.input.Focus()
	p.filtered = p.commands
	p.cursor = 0
	return textinput.Blink
}

// Deactivate hides the palette
func (p *Palette) Deactivate() {
	p.active = false
	p.input.Blur()
}

// IsActive returns whether palette is showing
func (p Palette) IsActive() bool {
	return p.active
}

// SetWidth sets the palette width
func (p *Palette) SetWidth(w int) {
	p.width = w
	p.input.Width = max(w-10, 10)
}

// Filtered returns the commands matching the current input.
func (p Palette) Filtered() []Command {
	return p.filtered
}

// Selected returns the command under the cursor together with whatever was
// typed after the first space.
func (p Palette) Selected() (Selection, bool) {
	if p.cursor < 0 || p.cursor >= len(p.filtered) {
		return Selection{}, false
	}
	_, arg, _ := strings.Cut(strings.TrimSpace(p.input.Value()), " ")
	return Selection{Name: p.filtered[p.cursor].Name, Arg: strings.TrimSpace(arg)}, true
}

// Update handles input. The returned Selection is non-nil when the user
// picked a command.
func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd, *Selection) {
	if !p.active {
		return p, nil, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			p.Deactivate()
			return p, nil, nil

		case "enter":
			sel, ok := p.Selected()
			p.Deactivate()
			if !ok {
				return p, nil, nil
			}
			return p, nil, &sel

		case "up", "ctrl+p":
			if p.cursor > 0 {
				p.cursor--
			}
			return p, nil, nil

		case "down", "ctrl+n":
			if p.cursor < len(p.filtered)-1 {
				p.cursor++
			}
			return p, nil, nil

		case "tab":
			if len(p.filtered) > 0 {
				c := p.filtered[p.cursor]
				value := c.Name
				if c.Arg != "" {
					value += " "
				}
				p.input.SetValue(value)
				p.input.CursorEnd()
				p.filter()
			}
			return p, nil, nil
		}
	}

	oldValue := p.input.Value()

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)

	if p.input.Value() != oldValue {
		p.filter()
	}

	return p, cmd, nil
}

// filter ranks commands against the first word of the input: exact and
// prefix matches of the name first, then aliases, then subsequences.
func (p *Palette) filter() {
	word, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(p.input.Value())), " ")
	if word == "" {
		p.filtered = p.commands
		p.cursor = 0
		return
	}

	type ranked struct {
		cmd   Command
		score int
	}
	var matches []ranked
	for _, c := range p.commands {
		best := matchScore(c.Name, word)
		for _, alias := range c.Aliases {
			if s := matchScore(alias, word) + 1; s > 1 && (best == 0 || s < best) {
				best = s
			}
		}
		if best > 0 {
			matches = append(matches, ranked{c, best})
		}
	}
	slices.SortStableFunc(matches, func(a, b ranked) int { return a.score - b.score })

	p.filtered = make([]Command, len(matches))
	for i, m := range matches {
		p.filtered[i] = m.cmd
	}
	if p.cursor >= len(p.filtered) {
		p.cursor = max(0, len(p.filtered)-1)
	}
}

// matchScore returns 0 for no match; lower is better.
func matchScore(s, query string) int {
	s = strings.ToLower(s)
	switch {
	case s == query:
		return 1
	case strings.HasPrefix(s, query):
		return 2
	case strings.Contains(s, query):
		return 4
	case isSubsequence(query, s):
		return 6
	default:
		return 0
	}
}

func isSubsequence(query, s string) bool {
	i := 0
	for _, r := range s {
		if i < len(query) && rune(query[i]) == r {
			i++
		}
	}
	return i == len(query)
}

// View renders the palette
func (p Palette) View() string {
	if !p.active {
		return ""
	}

	var b strings.Builder
	b.WriteString(p.input.View())
	b.WriteString("\n")

	b.WriteString(hintStyle.Render(strings.Repeat("─", max(p.width-8, 0))))
	b.WriteString("\n")

	visible := min(maxVisible, len(p.filtered))
	start := 0
	if p.cursor >= visible {
		start = p.cursor - visible + 1
	}
	end := min(start+visible, len(p.filtered))

	if start > 0 {
		b.WriteString(descStyle.Render("  ↑ more above"))
		b.WriteString("\n")
	}

	for i := start; i < end; i++ {
		c := p.filtered[i]
		name := c.Name
		if c.Arg != "" {
			name += " " + c.Arg
		}

		var line string
		if i == p.cursor {
			line = selectedStyle.Render("› "+name) + descStyle.Render(" "+c.Description)
		} else {
			line = itemStyle.Render("  "+name) + descStyle.Render(" "+c.Description)
		}

		if c.Key != "" {
			hint := keyStyle.Render(c.Key)
			if padding := p.width - 10 - lipgloss.Width(line) - lipgloss.Width(hint); padding > 0 {
				line += strings.Repeat(" ", padding) + hint
			}
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	if end < len(p.filtered) {
		b.WriteString(descStyle.Render("  ↓ more below"))
		b.WriteString("\n")
	}
	if len(p.filtered) == 0 {
		b.WriteString(descStyle.Render("  No matching commands"))
		b.WriteString("\n")
	}

	b.WriteString(hintStyle.Render("↑↓ navigate  enter run  tab complete  esc cancel"))

	return containerStyle.Width(max(p.width-4, 20)).Render(b.String())
}
