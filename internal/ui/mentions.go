package ui

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/talkatoo/internal/moon"
	"github.com/abelbrown/talkatoo/internal/tracker"
)

// listOptions controls how the mention list is laid out.
type listOptions struct {
	Width   int
	Height  int
	Compact bool
	Input   moon.Language
	Output  moon.Language

	// Collected reports whether an option is already in the collection.
	// May be nil.
	Collected func(moon.Moon) bool
}

// RenderMentions renders the mention list with the cursor kept visible.
// Compact mode uses one line per mention; otherwise every option gets its
// own line.
func RenderMentions(mentions []tracker.Mention, cursor int, opts listOptions) string {
	if len(mentions) == 0 {
		return HelpStyle.Render("No mentions yet. Talk to Talkatoo, or press / to add one.")
	}

	height := max(opts.Height, 1)
	offset := calcScrollOffset(mentions, cursor, height, opts.Compact)

	var b strings.Builder
	rendered := 0
	for i := offset; i < len(mentions) && rendered < height; i++ {
		for _, line := range mentionLines(mentions[i], i == cursor, opts) {
			if rendered >= height {
				break
			}
			b.WriteString(line)
			b.WriteString("\n")
			rendered++
		}
	}
	return b.String()
}

// mentionHeight is the number of lines a mention occupies.
func mentionHeight(m tracker.Mention, compact bool) int {
	if compact || m.Len() <= 1 {
		return 1
	}
	return m.Len()
}

// calcScrollOffset finds the smallest mention index such that every line
// from that mention through the cursor fits within availableHeight. A
// cursor mention taller than the viewport is shown from its first line.
func calcScrollOffset(mentions []tracker.Mention, cursor, availableHeight int, compact bool) int {
	if len(mentions) == 0 || cursor < 0 {
		return 0
	}
	if cursor >= len(mentions) {
		cursor = len(mentions) - 1
	}

	lines := 0
	for i := cursor; i >= 0; i-- {
		lines += mentionHeight(mentions[i], compact)
		if lines > availableHeight {
			if i == cursor {
				return cursor
			}
			return i + 1
		}
	}
	return 0
}

// mentionLines renders one mention.
func mentionLines(m tracker.Mention, selected bool, opts listOptions) []string {
	badge := SeqBadge.Render("#" + strconv.Itoa(m.Seq))
	prefix := badge + stateMarker(m.State()) + " "
	indent := strings.Repeat(" ", lipgloss.Width(prefix))

	style := NormalItem
	switch {
	case selected:
		style = SelectedItem
	case m.State() == tracker.StateConfirmed:
		style = ConfirmedItem
	}

	textWidth := opts.Width - lipgloss.Width(prefix) - 2
	if textWidth < 20 {
		textWidth = 20
	}

	options := m.Options()
	labels := make([]string, len(options))
	for i, o := range options {
		label := moon.RenderLabel(o, opts.Input, opts.Output)
		if len(options) > 1 {
			label = fmt.Sprintf("%d) %s", i+1, label)
		}
		labels[i] = label
	}

	render := func(text string, o moon.Moon) string {
		text = truncateRunes(text, textWidth)
		if !selected && opts.Collected != nil && opts.Collected(o) && m.State() != tracker.StateConfirmed {
			return CollectedOption.Padding(0, 1).Render(text)
		}
		return style.Render(text)
	}

	if opts.Compact || len(options) <= 1 {
		text := strings.Join(labels, "  ")
		if selected || len(options) != 1 {
			return []string{prefix + style.Render(truncateRunes(text, textWidth))}
		}
		return []string{prefix + render(text, options[0])}
	}

	lines := make([]string, len(options))
	for i, o := range options {
		lead := indent
		if i == 0 {
			lead = prefix
		}
		lines[i] = lead + render(labels[i], o)
	}
	return lines
}

// stateMarker is the one-character state column.
func stateMarker(s tracker.State) string {
	switch s {
	case tracker.StateIdentified:
		return IdentifiedBadge.Render("=")
	case tracker.StateConfirmed:
		return StatusBarText.Render("✓")
	default:
		return StatusBarKey.Render("?")
	}
}

// kingdomProgress formats "Cascade 3/5", or "Cap 2" for kingdoms without a
// requirement.
func kingdomProgress(k moon.Kingdom, collected int) string {
	if req := k.Info().RequiredMoons; req > 0 {
		return fmt.Sprintf("%s %d/%d", k, collected, req)
	}
	return fmt.Sprintf("%s %d", k, collected)
}

// RenderHeader renders the kingdom strip. The active kingdom is always
// shown; tabs before it are dropped when the strip does not fit.
func RenderHeader(kingdoms []moon.Kingdom, active moon.Kingdom, count func(moon.Kingdom) int, width int) string {
	found := false
	for _, k := range kingdoms {
		if k == active {
			found = true
			break
		}
	}
	if !found {
		kingdoms = append(append([]moon.Kingdom(nil), kingdoms...), active)
	}

	tabs := make([]string, len(kingdoms))
	activeIdx := 0
	for i, k := range kingdoms {
		n := count(k)
		label := kingdomProgress(k, n)
		switch {
		case k == active:
			tabs[i] = HeaderActiveKingdom.Render(label)
			activeIdx = i
		case k.Info().RequiredMoons > 0 && n >= k.Info().RequiredMoons:
			tabs[i] = HeaderDone.Render(label)
		default:
			tabs[i] = HeaderKingdom.Render(label)
		}
	}

	start := 0
	for start < activeIdx && lipgloss.Width(strings.Join(tabs[start:], "")) > width {
		start++
	}
	return HeaderBar.Width(width).MaxHeight(1).Render(strings.Join(tabs[start:], ""))
}

// RenderCollectedBar lists the ids collected in the active kingdom, in
// collection order.
func RenderCollectedBar(moons []moon.Moon, active moon.Kingdom, width int) string {
	var ids []string
	for _, m := range moons {
		if m.Kingdom == active {
			ids = append(ids, strconv.Itoa(m.ID))
		}
	}
	text := "Collected: none"
	if len(ids) > 0 {
		text = "Collected: " + strings.Join(ids, " ")
	}
	return CollectedBar.Render(truncateRunes(text, max(width-2, 10)))
}

// RenderStatusBar renders the bottom status bar: position info on the left,
// key hints on the right.
func RenderStatusBar(left, hints string, width int) string {
	padding := width - lipgloss.Width(left) - lipgloss.Width(hints) - 2
	if padding < 1 {
		padding = 1
	}
	return StatusBar.Width(width).MaxHeight(1).Render(left + strings.Repeat(" ", padding) + hints)
}

// truncateRunes cuts s to at most n runes, marking the cut with an ellipsis.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}
