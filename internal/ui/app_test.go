package ui

import (
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/talkatoo/internal/catalog"
	"github.com/abelbrown/talkatoo/internal/config"
	"github.com/abelbrown/talkatoo/internal/moon"
	"github.com/abelbrown/talkatoo/internal/otel"
	"github.com/abelbrown/talkatoo/internal/tracker"
)

var (
	tower  = moon.Moon{ID: 1, Kingdom: moon.Sand, Names: map[moon.Language]string{moon.English: "Atop the Highest Tower"}}
	shards = moon.Moon{ID: 2, Kingdom: moon.Sand, Names: map[moon.Language]string{moon.English: "Moon Shards in the Sand"}}
	oasis  = moon.Moon{ID: 3, Kingdom: moon.Sand, Names: map[moon.Language]string{moon.English: "Underground Oasis"}}
	fish   = moon.Moon{ID: 5, Kingdom: moon.Lake, Names: map[moon.Language]string{moon.English: "Lake Fishing"}}
)

// mockCmd records the side effects the App asks for.
type mockCmd struct {
	loads    int
	runs     int
	persists []persistCall
	notes    []noteCall
	saves    []*config.Config
}

type persistCall struct {
	runID  string
	change tracker.Change
}

type noteCall struct {
	message string
	err     error
}

func (m *mockCmd) loadProgress() tea.Cmd {
	m.loads++
	return func() tea.Msg { return ProgressLoaded{RunID: "run-1"} }
}

func (m *mockCmd) startRun() tea.Cmd {
	m.runs++
	return func() tea.Msg { return RunStarted{RunID: "run-2"} }
}

func (m *mockCmd) persist(runID string, c tracker.Change) tea.Cmd {
	m.persists = append(m.persists, persistCall{runID, c})
	return func() tea.Msg { return Persisted{Key: c.Moon.Key()} }
}

func (m *mockCmd) notify(message string, err error) tea.Cmd {
	m.notes = append(m.notes, noteCall{message, err})
	return func() tea.Msg { return Notified{} }
}

func (m *mockCmd) saveConfig(c *config.Config) tea.Cmd {
	m.saves = append(m.saves, c)
	return func() tea.Msg { return ConfigSaved{} }
}

func newTestApp(t *testing.T, mock *mockCmd, start moon.Kingdom) App {
	t.Helper()
	cat, err := catalog.New([]moon.Moon{tower, shards, oasis, fish})
	if err != nil {
		t.Fatal(err)
	}
	app := NewApp(AppConfig{
		Tracker:      tracker.New(start),
		Catalog:      cat,
		Config:       config.DefaultConfig(),
		LoadProgress: mock.loadProgress,
		StartRun:     mock.startRun,
		Persist:      mock.persist,
		Notify:       mock.notify,
		SaveConfig:   mock.saveConfig,
	})
	model, _ := app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return model.(App)
}

func send(a App, msg tea.Msg) App {
	model, _ := a.Update(msg)
	return model.(App)
}

// ack answers the write that is currently out.
func ack(a App) App {
	return send(a, Persisted{})
}

func press(a App, keys string) App {
	for _, r := range keys {
		a = send(a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return a
}

func TestAppInit(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(t, mock, moon.Sand)

	if cmd := app.Init(); cmd == nil {
		t.Fatal("Init should return a command")
	}
	if mock.loads != 1 {
		t.Error("Init should call LoadProgress")
	}
	if !app.loading {
		t.Error("app should be loading until progress arrives")
	}
}

func TestAppInitNilLoadProgress(t *testing.T) {
	app := NewApp(AppConfig{})
	if cmd := app.Init(); cmd != nil {
		t.Error("Init should return nil when LoadProgress is nil")
	}
	if app.Tracker() == nil {
		t.Fatal("NewApp should create a tracker")
	}
	if app.Tracker().ActiveKingdom() != moon.Cascade {
		t.Errorf("default kingdom = %v, want Cascade", app.Tracker().ActiveKingdom())
	}
}

func TestProgressLoadedReplaysWithoutPersisting(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(t, mock, moon.Sand)

	app = send(app, ProgressLoaded{RunID: "run-1", Moons: []moon.Moon{tower, fish}})

	if app.RunID() != "run-1" {
		t.Errorf("RunID = %q", app.RunID())
	}
	if !app.Tracker().IsCollected(tower) || !app.Tracker().IsCollected(fish) {
		t.Error("loaded moons should be collected")
	}
	if len(mock.persists) != 0 {
		t.Errorf("replayed moons should not be written back, got %d writes", len(mock.persists))
	}
	if app.loading {
		t.Error("loading should end")
	}
}

func TestProgressLoadError(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(t, mock, moon.Sand)

	app = send(app, ProgressLoaded{Err: errors.New("disk gone")})

	if app.err == nil || !strings.Contains(app.err.Error(), "disk gone") {
		t.Errorf("expected load error, got %v", app.err)
	}
	if app.RunID() != "" {
		t.Error("no run id after a failed load")
	}
}

func TestConfirmOptionPersistsAndNotifies(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(t, mock, moon.Sand)
	app = send(app, ProgressLoaded{RunID: "run-1"})

	app = send(app, MentionDetected{Moons: []moon.Moon{tower, shards}, Source: "ocr"})
	if got := len(app.Tracker().Actionable()); got != 1 {
		t.Fatalf("expected 1 actionable mention, got %d", got)
	}

	app = press(app, "2")

	if !app.Tracker().IsCollected(shards) || app.Tracker().IsCollected(tower) {
		t.Fatal("option 2 should be collected, option 1 not")
	}
	if len(mock.persists) != 1 {
		t.Fatalf("expected 1 write, got %d", len(mock.persists))
	}
	p := mock.persists[0]
	if p.runID != "run-1" || p.change.Kind != tracker.ChangeMoonCollected || !p.change.Moon.Equal(shards) {
		t.Errorf("unexpected write %+v", p)
	}
	if len(mock.notes) != 1 || mock.notes[0].err != nil || !strings.Contains(mock.notes[0].message, "Moon Shards") {
		t.Errorf("expected success notification, got %+v", mock.notes)
	}
	if app.toast == nil || app.toast.isErr {
		t.Error("expected success toast")
	}
	if len(app.Tracker().Actionable()) != 0 {
		t.Error("confirmed mention should leave the actionable list")
	}
}

func TestConfirmOutOfRangeIsIgnored(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(t, mock, moon.Sand)
	app = send(app, MentionDetected{Moons: []moon.Moon{tower, shards}})

	app = press(app, "7")

	if len(app.Tracker().Collected()) != 0 {
		t.Error("option 7 does not exist")
	}
}

func TestChangesBeforeRunIDAreDeferred(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(t, mock, moon.Sand)

	app = send(app, MentionDetected{Moons: []moon.Moon{tower}})
	app = send(app, tea.KeyMsg{Type: tea.KeyEnter})

	if !app.Tracker().IsCollected(tower) {
		t.Fatal("enter should confirm the only option")
	}
	if len(mock.persists) != 0 {
		t.Fatalf("nothing should be written before the run is known, got %d", len(mock.persists))
	}

	app = send(app, ProgressLoaded{RunID: "run-1"})

	if len(mock.persists) != 1 || mock.persists[0].runID != "run-1" {
		t.Errorf("deferred collect should be written to run-1, got %+v", mock.persists)
	}
}

func TestEmptyMentionIsRejected(t *testing.T) {
	ring := otel.NewRing(16)
	events := otel.NewLogger(io.Discard)
	events.Attach(ring)

	app := NewApp(AppConfig{Tracker: tracker.New(moon.Sand), Events: events})
	app = send(app, MentionDetected{Source: "ocr"})
	events.Close()

	if len(app.Tracker().Mentions()) != 0 {
		t.Error("empty mention should not be recorded")
	}
	if app.toast == nil || !app.toast.isErr {
		t.Error("expected error toast")
	}
	if ring.Totals()[otel.KindMentionReject] != 1 {
		t.Errorf("expected a reject event, got %v", ring.Totals())
	}
}

func TestTrackerChangesBecomeEvents(t *testing.T) {
	ring := otel.NewRing(64)
	events := otel.NewLogger(io.Discard)
	events.Attach(ring)

	app := NewApp(AppConfig{Tracker: tracker.New(moon.Sand), Events: events})
	app = send(app, MentionDetected{Moons: []moon.Moon{tower, shards}})
	app = send(app, MentionDetected{Moons: []moon.Moon{shards, oasis}})
	app = press(app, "2") // confirm shards on mention 0
	events.Close()

	stats := ring.Totals()
	if stats[otel.KindMentionRecord] != 2 {
		t.Errorf("record events = %d, want 2", stats[otel.KindMentionRecord])
	}
	if stats[otel.KindMentionConfirm] != 1 || stats[otel.KindMoonCollect] != 1 {
		t.Errorf("expected confirm and collect events, got %v", stats)
	}
	if stats[otel.KindMentionPrune] != 1 {
		t.Errorf("shards should be pruned from mention 1, got %v", stats)
	}

	var confirm otel.Event
	for _, e := range ring.Recent(0, otel.Filter{}) {
		if e.Kind == otel.KindMentionConfirm {
			confirm = e
		}
	}
	if confirm.Seq == nil || *confirm.Seq != 0 || confirm.MoonID != 2 || confirm.Kingdom != "Sand" {
		t.Errorf("unexpected confirm event %+v", confirm)
	}
}

func TestDeleteWithUncollect(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(t, mock, moon.Sand)
	app = send(app, ProgressLoaded{RunID: "run-1"})
	app = send(app, MentionDetected{Moons: []moon.Moon{tower}})
	app = send(app, tea.KeyMsg{Type: tea.KeyEnter})
	app = ack(app)

	// Confirmed mentions are only listed in the full log
	app = press(app, "a")
	if len(app.visible()) != 1 {
		t.Fatalf("full log should list the confirmed mention")
	}

	app = press(app, "X")

	if len(app.Tracker().Mentions()) != 0 {
		t.Error("mention should be deleted")
	}
	if app.Tracker().IsCollected(tower) {
		t.Error("X should uncollect the resolved moon")
	}
	last := mock.persists[len(mock.persists)-1]
	if last.change.Kind != tracker.ChangeMoonUncollected {
		t.Errorf("expected an uncollect write, got %v", last.change.Kind)
	}
}

func TestDeleteKeepsCollection(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(t, mock, moon.Sand)
	app = send(app, MentionDetected{Moons: []moon.Moon{tower}})
	app = send(app, tea.KeyMsg{Type: tea.KeyEnter})
	app = press(app, "ax")

	if len(app.Tracker().Mentions()) != 0 {
		t.Error("mention should be deleted")
	}
	if !app.Tracker().IsCollected(tower) {
		t.Error("x should leave the collection alone")
	}
}

func TestMoonsCollectedPrunesMentions(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(t, mock, moon.Sand)
	app = send(app, MentionDetected{Moons: []moon.Moon{tower, shards}})

	app = send(app, MoonsCollected{Moons: []moon.Moon{tower, tower}, Source: "ocr"})

	m, ok := app.Tracker().Mention(0)
	if !ok {
		t.Fatal("mention 0 should survive")
	}
	if opts := m.Options(); len(opts) != 1 || !opts[0].Equal(shards) {
		t.Errorf("tower should be pruned, options %v", opts)
	}
	if len(app.Tracker().Collected()) != 1 {
		t.Error("duplicate collects should be ignored")
	}
}

func TestKingdomNavigation(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(t, mock, moon.Cascade)

	app = press(app, "]")
	if got := app.Tracker().ActiveKingdom(); got != moon.Sand {
		t.Errorf("] from Cascade = %v, want Sand", got)
	}
	app = press(app, "[[")
	if got := app.Tracker().ActiveKingdom(); got != moon.Bowsers {
		t.Errorf("[ should wrap to the last kingdom, got %v", got)
	}

	app = send(app, KingdomDetected{Kingdom: moon.Lake})
	if got := app.Tracker().ActiveKingdom(); got != moon.Lake {
		t.Errorf("detected kingdom not applied, got %v", got)
	}
}

func TestKingdomFiltersActionable(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(t, mock, moon.Sand)
	app = send(app, MentionDetected{Moons: []moon.Moon{fish}})

	if len(app.visible()) != 0 {
		t.Error("Lake mention is not actionable in Sand")
	}
	app = send(app, KingdomDetected{Kingdom: moon.Lake})
	if len(app.visible()) != 1 {
		t.Error("Lake mention should be actionable in Lake")
	}
}

func TestResetRequiresConfirmation(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(t, mock, moon.Sand)
	app = send(app, ProgressLoaded{RunID: "run-1", Moons: []moon.Moon{tower}})
	app = send(app, MentionDetected{Moons: []moon.Moon{shards, oasis}})

	app = press(app, "Rn")
	if mock.runs != 0 || len(app.Tracker().Collected()) != 1 {
		t.Fatal("declined reset should change nothing")
	}

	app = press(app, "R")
	if !strings.Contains(app.View(), "Start a new run?") {
		t.Error("reset should ask for confirmation")
	}
	app = press(app, "y")

	if mock.runs != 1 {
		t.Errorf("StartRun calls = %d, want 1", mock.runs)
	}
	if len(app.Tracker().Collected()) != 0 || len(app.Tracker().Mentions()) != 0 {
		t.Error("reset should clear the tracker")
	}
	if app.Tracker().NextSeq() != 0 {
		t.Error("sequence should restart")
	}
	if app.RunID() != "" {
		t.Error("run id should be cleared until the new run exists")
	}

	app = send(app, RunStarted{RunID: "run-2"})
	if app.RunID() != "run-2" {
		t.Errorf("RunID = %q, want run-2", app.RunID())
	}
}

func TestManualMention(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(t, mock, moon.Sand)

	app = press(app, "/")
	if !app.search.active {
		t.Fatal("/ should open the search box")
	}
	if len(app.search.results) != 3 {
		t.Errorf("empty query should list the kingdom, got %d", len(app.search.results))
	}

	app = press(app, "shard")
	if len(app.search.results) != 1 || !app.search.results[0].Equal(shards) {
		t.Fatalf("unexpected results %v", app.search.results)
	}
	app = send(app, tea.KeyMsg{Type: tea.KeyEnter})

	if app.search.active {
		t.Error("enter should close the search box")
	}
	ms := app.Tracker().Mentions()
	if len(ms) != 1 || ms[0].State() != tracker.StateIdentified {
		t.Fatalf("expected one identified mention, got %+v", ms)
	}
}

func TestManualMentionPicksSeveral(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(t, mock, moon.Sand)

	app = press(app, "/")
	app = send(app, tea.KeyMsg{Type: tea.KeyTab})  // tower
	app = send(app, tea.KeyMsg{Type: tea.KeyDown}) // shards
	app = send(app, tea.KeyMsg{Type: tea.KeyTab})
	app = send(app, tea.KeyMsg{Type: tea.KeyEnter})

	ms := app.Tracker().Mentions()
	if len(ms) != 1 || ms[0].Len() != 2 {
		t.Fatalf("expected one mention with two options, got %+v", ms)
	}
	if !ms[0].Options()[0].Equal(tower) {
		t.Error("picked order should be kept")
	}
}

func TestSearchEscapeRecordsNothing(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(t, mock, moon.Sand)

	app = press(app, "/")
	app = send(app, tea.KeyMsg{Type: tea.KeyEsc})

	if app.search.active || len(app.Tracker().Mentions()) != 0 {
		t.Error("esc should close without recording")
	}
	// Keys go back to the main view
	app = press(app, "c")
	if app.compact == config.DefaultConfig().CompactMode {
		t.Error("c should toggle compact mode after the box closed")
	}
}

func TestPaletteCommands(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(t, mock, moon.Sand)

	app = press(app, ":kingdom lake")
	app = send(app, tea.KeyMsg{Type: tea.KeyEnter})
	if got := app.Tracker().ActiveKingdom(); got != moon.Lake {
		t.Errorf("palette kingdom = %v, want Lake", got)
	}

	app = press(app, ":kingdom atlantis")
	app = send(app, tea.KeyMsg{Type: tea.KeyEnter})
	if app.toast == nil || !app.toast.isErr {
		t.Error("unknown kingdom should show an error toast")
	}

	before := app.compact
	app = press(app, ":compact")
	app = send(app, tea.KeyMsg{Type: tea.KeyEnter})
	if app.compact == before {
		t.Error("compact command should toggle compact mode")
	}
}

func TestSettingsAreAppliedAndSaved(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(t, mock, moon.Sand)

	app = press(app, ",")
	if !strings.Contains(app.View(), "Label languages") {
		t.Fatal("settings view should replace the main view")
	}

	// Display section, toggle compact, save
	app = send(app, tea.KeyMsg{Type: tea.KeyShiftTab})
	app = send(app, tea.KeyMsg{Type: tea.KeyEnter})
	app = press(app, "s")

	if app.configOpen {
		t.Fatal("saving should close the settings view")
	}
	if !app.compact || !app.Settings().CompactMode {
		t.Error("compact mode should follow the saved settings")
	}
	if len(mock.saves) != 1 || !mock.saves[0].CompactMode {
		t.Fatalf("expected one save with compact mode, got %+v", mock.saves)
	}
	if app.toast == nil || app.toast.text != "Settings saved" {
		t.Errorf("expected a saved toast, got %+v", app.toast)
	}

	app = send(app, ConfigSaved{Err: errors.New("read-only file system")})
	if app.err == nil || !strings.Contains(app.err.Error(), "read-only") {
		t.Errorf("save failure should be shown, got %v", app.err)
	}
}

func TestSettingsCancel(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(t, mock, moon.Sand)
	before := app.Settings()

	app = press(app, ":settings")
	app = send(app, tea.KeyMsg{Type: tea.KeyEnter})
	if !app.configOpen {
		t.Fatal("settings command should open the settings view")
	}

	app = send(app, tea.KeyMsg{Type: tea.KeyEnter}) // cycle input language
	app = send(app, tea.KeyMsg{Type: tea.KeyEsc})

	if app.configOpen || app.Settings() != before || len(mock.saves) != 0 {
		t.Error("esc should close the view without touching the settings")
	}
	if app.Settings().InputLanguage != moon.ChineseTraditional {
		t.Errorf("input language changed to %s", app.Settings().InputLanguage)
	}
}

func TestToastExpires(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(t, mock, moon.Sand)

	app = send(app, FeedError{Source: "ocr", Err: errors.New("bad line")})
	first := app.toast.id
	app = send(app, FeedError{Source: "ocr", Err: errors.New("another")})

	app = send(app, toastExpired{id: first})
	if app.toast == nil {
		t.Fatal("an older expiry should not clear a newer toast")
	}
	app = send(app, toastExpired{id: app.toast.id})
	if app.toast != nil {
		t.Error("toast should be cleared")
	}
}

func TestPersistErrorIsReported(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(t, mock, moon.Sand)

	app = send(app, Persisted{Key: tower.Key(), Err: errors.New("database is locked")})

	if app.err == nil || !strings.Contains(app.err.Error(), "database is locked") {
		t.Errorf("expected store error, got %v", app.err)
	}
	if len(mock.notes) != 1 || mock.notes[0].err == nil {
		t.Errorf("expected error notification, got %+v", mock.notes)
	}

	// Any key dismisses the error
	app = press(app, "j")
	if app.err != nil {
		t.Error("key press should clear the error")
	}
}

func TestAppNavigation(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(t, mock, moon.Sand)
	app = send(app, MentionDetected{Moons: []moon.Moon{tower, shards}})
	app = send(app, MentionDetected{Moons: []moon.Moon{shards, oasis}})
	app = send(app, MentionDetected{Moons: []moon.Moon{tower, oasis}})

	if app.Cursor() != 0 {
		t.Errorf("initial cursor = %d", app.Cursor())
	}
	app = press(app, "jjj")
	if app.Cursor() != 2 {
		t.Errorf("cursor should stop at the last mention, got %d", app.Cursor())
	}
	app = press(app, "k")
	if app.Cursor() != 1 {
		t.Errorf("cursor = %d, want 1", app.Cursor())
	}
	app = press(app, "G")
	if app.Cursor() != 2 {
		t.Errorf("G should jump to bottom, got %d", app.Cursor())
	}

	// Confirming the last mention removes it from the actionable list and
	// the cursor follows
	app = press(app, "1")
	if app.Cursor() != 1 {
		t.Errorf("cursor should be clamped, got %d", app.Cursor())
	}
}

func TestQuit(t *testing.T) {
	app := NewApp(AppConfig{})
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestViewNotReady(t *testing.T) {
	app := NewApp(AppConfig{})
	if app.View() != "Loading..." {
		t.Errorf("view before sizing = %q", app.View())
	}
}

func TestViewRendersHeaderAndMentions(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(t, mock, moon.Sand)
	app = send(app, ProgressLoaded{RunID: "run-1", Moons: []moon.Moon{oasis}})
	app = send(app, MentionDetected{Moons: []moon.Moon{tower, shards}})

	view := app.View()
	for _, want := range []string{"Sand 1/16", "Lake 0/8", "Atop the Highest Tower", "Moon Shards in the Sand", "Collected: 3"} {
		if !strings.Contains(view, want) {
			t.Errorf("view should contain %q, got:\n%s", want, view)
		}
	}
}

func TestWritesReachTheStoreInOrder(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(t, mock, moon.Sand)
	app = send(app, ProgressLoaded{RunID: "run-1"})

	app = send(app, MoonsCollected{Moons: []moon.Moon{tower, shards, oasis}})
	if len(mock.persists) != 1 {
		t.Fatalf("only one write may be out at a time, got %d", len(mock.persists))
	}
	app = ack(app)
	app = ack(app)
	app = ack(app)

	want := []moon.Moon{tower, shards, oasis}
	if len(mock.persists) != len(want) {
		t.Fatalf("expected %d writes, got %d", len(want), len(mock.persists))
	}
	for i, w := range want {
		if !mock.persists[i].change.Moon.Equal(w) {
			t.Errorf("write %d = %v, want %v", i, mock.persists[i].change.Moon.Key(), w.Key())
		}
	}

	// An extra answer with nothing queued changes nothing
	app = ack(app)
	if len(mock.persists) != 3 {
		t.Errorf("unexpected write after the queue drained: %+v", mock.persists)
	}
}

func TestUncollectWaitsForCollect(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(t, mock, moon.Sand)
	app = send(app, ProgressLoaded{RunID: "run-1"})
	app = send(app, MentionDetected{Moons: []moon.Moon{tower}})

	app = send(app, tea.KeyMsg{Type: tea.KeyEnter})
	app = press(app, "aX")
	if len(mock.persists) != 1 || mock.persists[0].change.Kind != tracker.ChangeMoonCollected {
		t.Fatalf("the uncollect must wait for the collect, got %+v", mock.persists)
	}

	app = ack(app)
	if len(mock.persists) != 2 || mock.persists[1].change.Kind != tracker.ChangeMoonUncollected {
		t.Fatalf("expected the uncollect after the collect was answered, got %+v", mock.persists)
	}
	if app.Tracker().IsCollected(tower) {
		t.Error("tower should be uncollected")
	}
}

func TestDeferredWritesKeepOrder(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(t, mock, moon.Sand)

	app = send(app, MoonsCollected{Moons: []moon.Moon{oasis, tower}})
	app = send(app, ProgressLoaded{RunID: "run-1"})
	app = ack(app)

	if len(mock.persists) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(mock.persists))
	}
	if !mock.persists[0].change.Moon.Equal(oasis) || !mock.persists[1].change.Moon.Equal(tower) {
		t.Errorf("deferred writes out of order: %+v", mock.persists)
	}
}

func TestFailedWriteReleasesTheQueue(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(t, mock, moon.Sand)
	app = send(app, ProgressLoaded{RunID: "run-1"})

	app = send(app, MoonsCollected{Moons: []moon.Moon{tower, shards}})
	app = send(app, Persisted{Key: tower.Key(), Err: errors.New("disk full")})

	if app.err == nil {
		t.Error("the failure should be shown")
	}
	if len(mock.persists) != 2 {
		t.Errorf("the next write should go out after a failure, got %d", len(mock.persists))
	}
}

func TestResetBeforeLoadDropsStaleProgress(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(t, mock, moon.Sand)
	app.Init()

	app = press(app, "Ry")
	app = send(app, ProgressLoaded{RunID: "run-1", Moons: []moon.Moon{tower}})

	if app.Tracker().IsCollected(tower) {
		t.Fatal("progress of the discarded run came back")
	}
	if app.RunID() != "" {
		t.Errorf("run id should wait for the new run, got %q", app.RunID())
	}

	app = send(app, RunStarted{RunID: "run-2"})
	if app.RunID() != "run-2" || len(app.Tracker().Collected()) != 0 {
		t.Errorf("runID=%q collected=%d", app.RunID(), len(app.Tracker().Collected()))
	}

	// Only the late answer is dropped
	app = send(app, ProgressLoaded{RunID: "run-2", Moons: []moon.Moon{fish}})
	if !app.Tracker().IsCollected(fish) {
		t.Error("a later load should apply")
	}
}

func TestResetAfterLoadKeepsNextLoad(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(t, mock, moon.Sand)
	app = send(app, ProgressLoaded{RunID: "run-1", Moons: []moon.Moon{tower}})

	app = press(app, "Ry")
	if app.discardLoad {
		t.Error("nothing is in flight, nothing to discard")
	}
}

func TestUndoConfirmation(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(t, mock, moon.Sand)
	app = send(app, ProgressLoaded{RunID: "run-1"})
	app = send(app, MentionDetected{Moons: []moon.Moon{tower, shards}})
	app = press(app, "2")
	app = ack(app)

	// Confirmed mentions only show in the full log
	app = press(app, "u")
	if app.toast == nil || !app.toast.isErr {
		t.Error("u on an empty list should say there is nothing to undo")
	}

	app = press(app, "au")
	if app.Tracker().IsCollected(shards) {
		t.Fatal("u should uncollect the confirmed moon")
	}
	m, ok := app.Tracker().Mention(0)
	if !ok || m.State() != tracker.StateIdentified {
		t.Fatalf("mention should stay, identified, got %+v ok=%v", m, ok)
	}
	if app.toast == nil || app.toast.isErr || !strings.Contains(app.toast.text, "Moon Shards") {
		t.Errorf("unexpected toast %+v", app.toast)
	}
	last := mock.persists[len(mock.persists)-1]
	if last.change.Kind != tracker.ChangeMoonUncollected || !last.change.Moon.Equal(shards) {
		t.Errorf("expected an uncollect write, got %+v", last)
	}

	// Undo again is a no-op
	app = press(app, "u")
	if !app.toast.isErr {
		t.Error("an identified mention has nothing to undo")
	}
}

func TestUndoFromPalette(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(t, mock, moon.Sand)
	app = send(app, MentionDetected{Moons: []moon.Moon{tower}})
	app = send(app, tea.KeyMsg{Type: tea.KeyEnter})
	app = press(app, "a")

	app = press(app, ":undo")
	app = send(app, tea.KeyMsg{Type: tea.KeyEnter})

	if app.Tracker().IsCollected(tower) {
		t.Error("undo command should uncollect the moon")
	}
	if len(app.Tracker().Mentions()) != 1 {
		t.Error("undo command should keep the mention")
	}
}

func TestConfirmAlreadyCollectedMoon(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(t, mock, moon.Sand)
	app = send(app, ProgressLoaded{RunID: "run-1", Moons: []moon.Moon{tower}})
	app = send(app, MentionDetected{Moons: []moon.Moon{tower}})

	// Nothing left to collect, so only the full log lists it
	app = press(app, "a")
	app = send(app, tea.KeyMsg{Type: tea.KeyEnter})

	m, _ := app.Tracker().Mention(0)
	if m.State() != tracker.StateConfirmed {
		t.Fatal("the mention should still be confirmed")
	}
	if len(mock.notes) != 0 {
		t.Errorf("nothing new was collected, got notifications %+v", mock.notes)
	}
	if len(mock.persists) != 0 {
		t.Errorf("nothing to write, got %+v", mock.persists)
	}
	if app.toast == nil || !strings.HasPrefix(app.toast.text, "Already collected") {
		t.Errorf("unexpected toast %+v", app.toast)
	}
}
