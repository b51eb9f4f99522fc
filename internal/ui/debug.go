package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/talkatoo/internal/otel"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
// Must be updated if DebugPanel style changes.
const debugPanelChrome = 4

// debugOverlay renders the debug panel: session counters, the history of
// the focused mention (nil for none) and the most recent events. Returns
// empty string if ring is nil.
func debugOverlay(ring *otel.Ring, focus *int, width, height int) string {
	if ring == nil {
		return ""
	}

	totals := ring.Totals()

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Tracker"))
	lines = append(lines, fmt.Sprintf("  Mentions:   %d recorded, %d confirmed, %d undone, %d deleted, %d rejected",
		totals[otel.KindMentionRecord], totals[otel.KindMentionConfirm], totals[otel.KindMentionUndo],
		totals[otel.KindMentionDelete], totals[otel.KindMentionReject]))
	lines = append(lines, fmt.Sprintf("  Pruned:     %d", totals[otel.KindMentionPrune]))
	lines = append(lines, fmt.Sprintf("  Moons:      %d collected, %d uncollected",
		totals[otel.KindMoonCollect], totals[otel.KindMoonUncollect]))
	lines = append(lines, fmt.Sprintf("  Feed:       %d events, %d errors",
		totals[otel.KindFeedEvent], totals[otel.KindFeedError]))
	lines = append(lines, fmt.Sprintf("  Store:      %d errors", totals[otel.KindStoreError]))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", ring.Len(), ring.Cap()))
	lines = append(lines, "")

	if focus != nil {
		lines = append(lines, DebugHeaderStyle.Render(fmt.Sprintf("Mention #%d", *focus)))
		history := ring.Recent(6, otel.Filter{Seq: focus})
		if len(history) == 0 {
			lines = append(lines, "  (rotated out)")
		}
		for _, e := range history {
			lines = append(lines, debugEventLine(e))
		}
		lines = append(lines, "")
	}

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range ring.Recent(20, otel.Filter{}) {
		lines = append(lines, debugEventLine(e))
	}

	// Truncate to fit terminal height (subtract chrome added by DebugPanel border/padding)
	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := min(76, width-4)
	if panelWidth < 20 {
		panelWidth = 20
	}

	return DebugPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

func debugEventLine(e otel.Event) string {
	line := fmt.Sprintf("  %6s  %-17s", formatAge(time.Since(e.Time)), string(e.Kind))
	if e.Seq != nil {
		line += fmt.Sprintf("  #%d", *e.Seq)
	}
	if e.MoonID != 0 {
		line += fmt.Sprintf("  %s %d", e.Kingdom, e.MoonID)
	} else if e.Kingdom != "" {
		line += "  " + e.Kingdom
	}
	if e.Msg != "" {
		line += "  " + truncateRunes(e.Msg, 40)
	}
	if e.Err != "" {
		line += "  ERR:" + truncateRunes(e.Err, 30)
	}
	return line
}

// formatAge formats a duration as a compact human string.
// Handles negative durations from clock skew by clamping to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// debugStatusBar renders the status bar for the debug overlay.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("D") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}
