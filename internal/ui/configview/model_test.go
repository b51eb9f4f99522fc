package configview

import (
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/talkatoo/internal/config"
	"github.com/abelbrown/talkatoo/internal/moon"
)

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "shift+tab":
			msg = tea.KeyMsg{Type: tea.KeyShiftTab}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m, _ = m.Update(msg)
	}
	return m
}

func testConfig() *config.Config {
	return &config.Config{
		InputLanguage:  moon.English,
		OutputLanguage: moon.Japanese,
		ActiveKingdoms: []moon.Kingdom{moon.Cascade, moon.Sand},
	}
}

func TestCycleLanguage(t *testing.T) {
	langs := moon.Languages()
	last := langs[len(langs)-1]
	if got := cycleLanguage(last, 1); got != langs[0] {
		t.Errorf("forward from last should wrap to %s, got %s", langs[0], got)
	}
	if got := cycleLanguage(langs[0], -1); got != last {
		t.Errorf("back from first should wrap to %s, got %s", last, got)
	}
	if got := cycleLanguage("klingon", 1); got != langs[0] {
		t.Errorf("unknown language should reset to %s, got %s", langs[0], got)
	}
}

func TestEditLanguagesAndSave(t *testing.T) {
	cfg := testConfig()
	m := New(cfg)
	m.SetSize(100, 40)

	m = press(m, "j", "enter", "left", "left", "s")

	if !m.IsQuitting() {
		t.Fatal("save should close the view")
	}
	saved, ok := m.Saved()
	if !ok {
		t.Fatal("expected a saved config")
	}
	want := cycleLanguage(moon.Japanese, -1)
	if saved.OutputLanguage != want {
		t.Errorf("output language = %s, want %s", saved.OutputLanguage, want)
	}
	if saved.InputLanguage != moon.English {
		t.Errorf("input language changed to %s", saved.InputLanguage)
	}
	if cfg.OutputLanguage != moon.Japanese {
		t.Error("the original config must not be modified")
	}
}

func TestToggleKingdoms(t *testing.T) {
	cfg := testConfig()
	m := New(cfg)
	m.SetSize(100, 40)

	// Kingdoms section: Cap is first, Cascade second
	m = press(m, "tab", "enter", "j", "enter", "s")

	saved, ok := m.Saved()
	if !ok {
		t.Fatal("expected a saved config")
	}
	want := []moon.Kingdom{moon.Sand, moon.Cap}
	if !slices.Equal(saved.ActiveKingdoms, want) {
		t.Errorf("active kingdoms = %v, want %v", saved.ActiveKingdoms, want)
	}
	if !slices.Equal(cfg.ActiveKingdoms, []moon.Kingdom{moon.Cascade, moon.Sand}) {
		t.Errorf("original kingdoms modified: %v", cfg.ActiveKingdoms)
	}
}

func TestDisplayToggles(t *testing.T) {
	m := New(testConfig())
	m = press(m, "shift+tab", "enter", "j", " ", "s")

	saved, ok := m.Saved()
	if !ok {
		t.Fatal("expected a saved config")
	}
	if !saved.CompactMode || !saved.ShowPostGame {
		t.Errorf("expected both toggles on, got compact=%v postgame=%v", saved.CompactMode, saved.ShowPostGame)
	}
}

func TestCancelDiscards(t *testing.T) {
	m := New(testConfig())
	m = press(m, "tab", "tab", "enter", "esc")

	if !m.IsQuitting() {
		t.Fatal("esc should close the view")
	}
	if _, ok := m.Saved(); ok {
		t.Error("cancel must not hand back a config")
	}
}

func TestSaveRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.InputLanguage = "klingon"
	m := New(cfg)
	m.SetSize(100, 40)

	m = press(m, "s")
	if m.IsQuitting() {
		t.Fatal("an invalid config must not be saved")
	}
	if !strings.Contains(m.View(), "unknown language") {
		t.Error("view should show the validation error")
	}

	// Cycling fixes the language
	m = press(m, "enter", "s")
	if _, ok := m.Saved(); !ok {
		t.Error("config should save once valid")
	}
}

func TestCursorBounds(t *testing.T) {
	m := New(testConfig())
	m = press(m, "k", "j", "j", "j")
	if m.cursor != 1 {
		t.Errorf("languages has two rows, cursor = %d", m.cursor)
	}

	m = press(m, "tab")
	if m.cursor != 0 {
		t.Error("switching section should reset the cursor")
	}
	for range 30 {
		m = press(m, "j")
	}
	if m.cursor != len(moon.Kingdoms())-1 {
		t.Errorf("cursor = %d, want last kingdom", m.cursor)
	}
}

func TestViewShowsSections(t *testing.T) {
	m := New(testConfig())
	m.SetSize(120, 40)

	v := m.View()
	for _, want := range []string{"Languages", "Kingdoms", "Display", "English", "Japanese"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m = press(m, "tab")
	v = m.View()
	if !strings.Contains(v, "[1] Cascade") || !strings.Contains(v, "[2] Sand") {
		t.Errorf("kingdom view should number active kingdoms in order:\n%s", v)
	}
}
