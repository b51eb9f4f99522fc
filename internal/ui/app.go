package ui

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/talkatoo/internal/catalog"
	"github.com/abelbrown/talkatoo/internal/config"
	"github.com/abelbrown/talkatoo/internal/moon"
	"github.com/abelbrown/talkatoo/internal/otel"
	"github.com/abelbrown/talkatoo/internal/tracker"
	"github.com/abelbrown/talkatoo/internal/ui/command"
	"github.com/abelbrown/talkatoo/internal/ui/configview"
)

// toastDuration is how long a toast banner stays up.
const toastDuration = 3 * time.Second

// AppConfig holds the App's collaborators. Side effects are injected as
// tea.Cmd factories so the App never touches the store or the network.
type AppConfig struct {
	Tracker *tracker.Tracker
	Catalog *catalog.Catalog
	Config  *config.Config

	// LoadProgress reads the current run; it must answer with ProgressLoaded.
	LoadProgress func() tea.Cmd
	// StartRun creates a fresh run; it must answer with RunStarted.
	StartRun func() tea.Cmd
	// Persist writes one collect or uncollect; it must answer with Persisted.
	Persist func(runID string, c tracker.Change) tea.Cmd
	// Notify forwards a success (err == nil) or failure; answers with Notified.
	Notify func(message string, err error) tea.Cmd
	// SaveConfig writes edited settings; it must answer with ConfigSaved.
	SaveConfig func(c *config.Config) tea.Cmd

	Events *otel.Logger
	Ring   *otel.Ring
}

// changeBuffer collects tracker changes between the mutation and the end of
// the current Update. Shared by every copy of the App value.
type changeBuffer struct {
	changes []tracker.Change
}

func (b *changeBuffer) add(c tracker.Change) {
	b.changes = append(b.changes, c)
}

func (b *changeBuffer) take() []tracker.Change {
	out := b.changes
	b.changes = nil
	return out
}

// pendingWrite is a collection change waiting for its turn at the store.
type pendingWrite struct {
	runID  string
	change tracker.Change
}

type toast struct {
	id    int
	text  string
	isErr bool
}

// App is the root Bubble Tea model.
// IMPORTANT: App is the only owner of the tracker; every mutation happens
// inside Update, one message at a time.
type App struct {
	cfg      AppConfig
	tracker  *tracker.Tracker
	catalog  *catalog.Catalog
	settings *config.Config
	events   *otel.Logger
	changes  *changeBuffer

	// runID is empty until the store answered; collection changes made
	// before that are held in unsaved and written once it is known.
	runID     string
	unsaved   []tracker.Change
	replaying bool

	// Writes reach the store one at a time in tracker order; writing is set
	// while the head of the queue is out.
	writes  []pendingWrite
	writing bool

	// discardLoad is set by a reset that beat the initial load. The late
	// answer describes the discarded run and is dropped.
	discardLoad bool

	cursor       int
	showAll      bool
	compact      bool
	confirmReset bool
	debugVisible bool

	search     searchBox
	palette    command.Palette
	configView configview.Model
	configOpen bool
	help       help.Model

	toast     *toast
	nextToast int
	err       error
	width     int
	height    int
	ready     bool
	loading   bool
}

// NewApp creates an App. A nil Tracker is replaced by an empty one starting
// in the first display kingdom.
func NewApp(cfg AppConfig) App {
	settings := cfg.Config
	if settings == nil {
		settings = config.DefaultConfig()
	}
	t := cfg.Tracker
	if t == nil {
		first := moon.Cascade
		if ks := settings.DisplayKingdoms(); len(ks) > 0 {
			first = ks[0]
		}
		t = tracker.New(first)
	}
	events := cfg.Events
	if events == nil {
		events = otel.NewNullLogger()
	}

	buf := &changeBuffer{}
	t.Subscribe(buf.add)

	return App{
		cfg:      cfg,
		tracker:  t,
		catalog:  cfg.Catalog,
		settings: settings,
		events:   events,
		changes:  buf,
		compact:  settings.CompactMode,
		loading:  cfg.LoadProgress != nil,
		search:   newSearchBox(),
		palette:  command.New(),
		help:     help.New(),
	}
}

// Init loads the current run from the store.
func (a App) Init() tea.Cmd {
	if a.cfg.LoadProgress != nil {
		return a.cfg.LoadProgress()
	}
	return nil
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	a.events.Trace("ui", msg)

	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.help.Width = msg.Width
		a.palette.SetWidth(min(msg.Width, 72))
		a.search.setWidth(msg.Width)
		a.configView.SetSize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		var cmd tea.Cmd
		a, cmd = a.handleKeyMsg(msg)
		cmds = append(cmds, cmd)

	case MentionDetected:
		cmds = append(cmds, a.recordMention(msg.Moons, msg.Source))

	case MoonsCollected:
		n := 0
		for _, m := range msg.Moons {
			if a.tracker.MarkCollected(m) {
				n++
			}
		}
		if n > 0 {
			cmds = append(cmds, a.showToast(fmt.Sprintf("Collected %d moon(s)", n), false))
		}

	case KingdomDetected:
		a.tracker.SetActiveKingdom(msg.Kingdom)

	case FeedError:
		cmds = append(cmds, a.showToast("Feed: "+msg.Err.Error(), true))

	case ProgressLoaded:
		if a.discardLoad {
			a.discardLoad = false
			a.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindRunLoad, Comp: "ui", Msg: "dropped, run was reset", Count: len(msg.Moons)})
			break
		}
		a.loading = false
		if msg.Err != nil {
			a.err = fmt.Errorf("load progress: %w", msg.Err)
			a.events.Error(otel.KindStoreError, "ui", msg.Err)
			break
		}
		a.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindRunLoad, Comp: "ui", Msg: msg.RunID, Count: len(msg.Moons)})
		a.runID = msg.RunID
		a.replaying = true
		a.tracker.AddCollectedAll(msg.Moons)
		cmds = append(cmds, a.flush())
		a.replaying = false
		cmds = append(cmds, a.persistUnsaved())

	case RunStarted:
		if msg.Err != nil {
			a.err = fmt.Errorf("start run: %w", msg.Err)
			a.events.Error(otel.KindStoreError, "ui", msg.Err)
			break
		}
		a.runID = msg.RunID
		cmds = append(cmds, a.persistUnsaved())

	case Persisted:
		a.writing = false
		if msg.Err != nil {
			a.err = fmt.Errorf("save %s: %w", msg.Key, msg.Err)
			a.events.Emit(otel.Event{
				Level:   otel.LevelError,
				Kind:    otel.KindStoreError,
				Comp:    "ui",
				Kingdom: msg.Key.Kingdom.String(),
				MoonID:  msg.Key.ID,
				Err:     msg.Err.Error(),
			})
			cmds = append(cmds, a.notify("", a.err))
		}

	case Notified:
		if msg.Err != nil {
			a.events.Error(otel.KindNotifyError, "ui", msg.Err)
		}

	case ConfigSaved:
		if msg.Err != nil {
			a.err = fmt.Errorf("save settings: %w", msg.Err)
			a.events.Error(otel.KindError, "ui", msg.Err)
		}

	case toastExpired:
		if a.toast != nil && a.toast.id == msg.id {
			a.toast = nil
		}

	default:
		if a.search.active {
			var cmd tea.Cmd
			a.search, cmd = a.search.update(msg, a.catalog, a.tracker.ActiveKingdom())
			cmds = append(cmds, cmd)
		} else if a.palette.IsActive() {
			var cmd tea.Cmd
			a.palette, cmd, _ = a.palette.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	cmds = append(cmds, a.flush())
	a.clampCursor()
	return a, tea.Batch(cmds...)
}

// handleKeyMsg routes keys to the open overlay or to the main view.
func (a App) handleKeyMsg(msg tea.KeyMsg) (App, tea.Cmd) {
	if a.search.active {
		return a.handleSearchKey(msg)
	}
	if a.palette.IsActive() {
		var cmd tea.Cmd
		var sel *command.Selection
		a.palette, cmd, sel = a.palette.Update(msg)
		if sel != nil {
			return a.runCommand(*sel)
		}
		return a, cmd
	}
	if a.configOpen {
		return a.handleConfigKey(msg)
	}
	if a.confirmReset {
		a.confirmReset = false
		if msg.String() == "y" || msg.String() == "Y" {
			return a.resetRun()
		}
		return a, nil
	}

	// Clear any existing error on key press
	a.err = nil

	a.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindKeyPress, Comp: "ui", Msg: msg.String()})

	visible := a.visible()

	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, keys.Debug):
		a.debugVisible = !a.debugVisible
		return a, nil

	case a.debugVisible:
		// Only D and q work while the overlay is up
		return a, nil

	case key.Matches(msg, keys.Down):
		if a.cursor < len(visible)-1 {
			a.cursor++
		}
	case key.Matches(msg, keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case key.Matches(msg, keys.Top):
		a.cursor = 0
	case key.Matches(msg, keys.Bottom):
		a.cursor = max(len(visible)-1, 0)

	case key.Matches(msg, keys.Confirm):
		return a.confirm(visible, int(msg.Runes[0]-'1'))
	case key.Matches(msg, keys.ConfirmTop):
		return a.confirm(visible, 0)

	case key.Matches(msg, keys.Delete), key.Matches(msg, keys.Uncollect):
		if m, ok := a.selected(visible); ok {
			a.tracker.DeleteMention(m.Seq, key.Matches(msg, keys.Uncollect))
		}
	case key.Matches(msg, keys.Undo):
		return a.undo(visible)

	case key.Matches(msg, keys.PrevKingdom):
		a.cycleKingdom(-1)
	case key.Matches(msg, keys.NextKingdom):
		a.cycleKingdom(1)

	case key.Matches(msg, keys.Search):
		cmd := a.search.open(a.catalog, a.tracker.ActiveKingdom())
		return a, cmd
	case key.Matches(msg, keys.Command):
		cmd := a.palette.Activate()
		return a, cmd

	case key.Matches(msg, keys.Settings):
		a.openSettings()

	case key.Matches(msg, keys.Compact):
		a.compact = !a.compact
	case key.Matches(msg, keys.ShowAll):
		a.showAll = !a.showAll
		a.cursor = 0
	case key.Matches(msg, keys.Reset):
		a.confirmReset = true
	case key.Matches(msg, keys.Help):
		a.help.ShowAll = !a.help.ShowAll
	}

	return a, nil
}

func (a App) handleSearchKey(msg tea.KeyMsg) (App, tea.Cmd) {
	switch {
	case key.Matches(msg, searchKeys.Cancel):
		a.search.close()
		return a, nil

	case key.Matches(msg, searchKeys.Submit):
		candidates := a.search.candidates()
		if len(candidates) == 0 {
			return a, nil
		}
		a.search.close()
		cmd := a.recordMention(candidates, "manual")
		return a, cmd
	}

	var cmd tea.Cmd
	a.search, cmd = a.search.update(msg, a.catalog, a.tracker.ActiveKingdom())
	return a, cmd
}

// handleConfigKey feeds the settings view and applies its result once it
// closes.
func (a App) handleConfigKey(msg tea.KeyMsg) (App, tea.Cmd) {
	a.configView, _ = a.configView.Update(msg)
	if !a.configView.IsQuitting() {
		return a, nil
	}
	a.configOpen = false

	saved, ok := a.configView.Saved()
	if !ok {
		return a, nil
	}
	a.settings = saved
	a.compact = saved.CompactMode
	a.cursor = 0

	cmds := []tea.Cmd{a.showToast("Settings saved", false)}
	if a.cfg.SaveConfig != nil {
		cmds = append(cmds, a.cfg.SaveConfig(saved))
	}
	return a, tea.Batch(cmds...)
}

func (a *App) openSettings() {
	a.configView = configview.New(a.settings)
	a.configView.SetSize(a.width, a.height)
	a.configOpen = true
}

// runCommand executes a palette selection.
func (a App) runCommand(sel command.Selection) (App, tea.Cmd) {
	switch sel.Name {
	case "add":
		cmd := a.search.open(a.catalog, a.tracker.ActiveKingdom())
		return a, cmd
	case "kingdom":
		k, err := moon.ParseKingdom(sel.Arg)
		if err != nil {
			cmd := a.showToast(err.Error(), true)
			return a, cmd
		}
		a.tracker.SetActiveKingdom(k)
	case "next":
		a.cycleKingdom(1)
	case "prev":
		a.cycleKingdom(-1)
	case "compact":
		a.compact = !a.compact
	case "all":
		a.showAll = !a.showAll
		a.cursor = 0
	case "undo":
		return a.undo(a.visible())
	case "reset":
		a.confirmReset = true
	case "settings":
		a.openSettings()
	case "debug":
		a.debugVisible = !a.debugVisible
	case "help":
		a.help.ShowAll = !a.help.ShowAll
	case "quit":
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) recordMention(moons []moon.Moon, source string) tea.Cmd {
	seq, err := a.tracker.RecordMention(moons)
	if err != nil {
		a.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindMentionReject, Comp: "ui", Source: source, Err: err.Error()})
		if errors.Is(err, tracker.ErrNoCandidates) {
			return a.showToast("Ignored a mention with no known moons", true)
		}
		return a.showToast(err.Error(), true)
	}
	if source == "manual" {
		if m, ok := a.tracker.Mention(seq); ok {
			if i := a.indexOfSeq(a.visible(), m.Seq); i >= 0 {
				a.cursor = i
			}
		}
	}
	return nil
}

func (a App) confirm(visible []tracker.Mention, option int) (App, tea.Cmd) {
	m, ok := a.selected(visible)
	if !ok || option < 0 || option >= m.Len() {
		return a, nil
	}
	chosen := m.Options()[option]
	had := a.tracker.IsCollected(chosen)
	if !a.tracker.ConfirmOption(m.Seq, option) {
		return a, nil
	}
	text := a.moonText(chosen)
	if had {
		cmd := a.showToast("Already collected "+text, false)
		return a, cmd
	}
	cmd := a.showToast("Collected "+text, false)
	return a, tea.Batch(cmd, a.notify(text, nil))
}

// undo takes back the confirmation of the selected mention.
func (a App) undo(visible []tracker.Mention) (App, tea.Cmd) {
	m, ok := a.selected(visible)
	if !ok || m.State() != tracker.StateConfirmed {
		cmd := a.showToast("Nothing to undo here", true)
		return a, cmd
	}
	resolved, _ := m.Resolved()
	if !a.tracker.Unconfirm(m.Seq) {
		return a, nil
	}
	cmd := a.showToast("Uncollected "+a.moonText(resolved), false)
	return a, cmd
}

func (a App) moonText(m moon.Moon) string {
	label := moon.RenderLabel(m, a.settings.InputLanguage, a.settings.OutputLanguage)
	return fmt.Sprintf("%s: %s", m.Kingdom, strings.TrimSpace(label))
}

func (a App) resetRun() (App, tea.Cmd) {
	a.tracker.ResetRun()
	if a.loading {
		a.loading = false
		a.discardLoad = true
	}
	a.runID = ""
	a.unsaved = nil
	a.cursor = 0
	cmds := []tea.Cmd{a.showToast("New run started", false)}
	if a.cfg.StartRun != nil {
		cmds = append(cmds, a.cfg.StartRun())
	}
	return a, tea.Batch(cmds...)
}

// cycleKingdom moves through the display kingdoms, wrapping around.
func (a *App) cycleKingdom(step int) {
	ks := a.settings.DisplayKingdoms()
	if len(ks) == 0 {
		return
	}
	i := 0
	switch cur := slices.Index(ks, a.tracker.ActiveKingdom()); {
	case cur >= 0:
		i = ((cur+step)%len(ks) + len(ks)) % len(ks)
	case step < 0:
		// Not in the list: enter from the end
		i = len(ks) - 1
	}
	a.tracker.SetActiveKingdom(ks[i])
}

// flush turns the changes buffered by the tracker subscription into events
// and persistence commands.
func (a *App) flush() tea.Cmd {
	for _, c := range a.changes.take() {
		if c.Kind == tracker.ChangeKingdom {
			a.cursor = 0
		}
		if !a.replaying {
			a.emitChange(c)
		}

		switch c.Kind {
		case tracker.ChangeMoonCollected, tracker.ChangeMoonUncollected:
			if a.replaying {
				continue
			}
			if a.runID == "" {
				a.unsaved = append(a.unsaved, c)
				continue
			}
			a.queueWrite(c)
		}
	}
	return a.nextWrite()
}

// persistUnsaved queues the changes made before the run id was known.
func (a *App) persistUnsaved() tea.Cmd {
	if a.runID == "" || len(a.unsaved) == 0 {
		return nil
	}
	for _, c := range a.unsaved {
		a.queueWrite(c)
	}
	a.unsaved = nil
	return a.nextWrite()
}

func (a *App) queueWrite(c tracker.Change) {
	if a.cfg.Persist != nil {
		a.writes = append(a.writes, pendingWrite{runID: a.runID, change: c})
	}
}

// nextWrite hands the oldest queued write to the store unless one is still
// out. Its Persisted answer releases the next.
func (a *App) nextWrite() tea.Cmd {
	if a.writing {
		return nil
	}
	for len(a.writes) > 0 {
		w := a.writes[0]
		a.writes = a.writes[1:]
		if cmd := a.cfg.Persist(w.runID, w.change); cmd != nil {
			a.writing = true
			return cmd
		}
	}
	return nil
}

// emitChange mirrors a tracker change into the event log. Change kinds use
// the same names as event kinds.
func (a *App) emitChange(c tracker.Change) {
	e := otel.Event{
		Level:   otel.LevelInfo,
		Kind:    otel.EventKind(c.Kind.String()),
		Comp:    "tracker",
		Seq:     otel.SeqPtr(c.Seq),
		Kingdom: c.Kingdom.String(),
		MoonID:  c.Moon.ID,
	}
	if c.Kind == tracker.ChangeMentionPruned {
		e.Level = otel.LevelDebug
		if c.Dropped {
			e.Msg = "dropped"
		}
	}
	a.events.Emit(e)
}

func (a *App) showToast(text string, isErr bool) tea.Cmd {
	a.nextToast++
	id := a.nextToast
	a.toast = &toast{id: id, text: text, isErr: isErr}
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpired{id: id}
	})
}

func (a App) notify(message string, err error) tea.Cmd {
	if a.cfg.Notify == nil {
		return nil
	}
	return a.cfg.Notify(message, err)
}

// visible returns the mentions shown in the list.
func (a App) visible() []tracker.Mention {
	if a.showAll {
		return a.tracker.Mentions()
	}
	return a.tracker.Actionable()
}

func (a App) selected(visible []tracker.Mention) (tracker.Mention, bool) {
	if a.cursor < 0 || a.cursor >= len(visible) {
		return tracker.Mention{}, false
	}
	return visible[a.cursor], true
}

func (a App) indexOfSeq(visible []tracker.Mention, seq int) int {
	for i, m := range visible {
		if m.Seq == seq {
			return i
		}
	}
	return -1
}

func (a *App) clampCursor() {
	n := len(a.visible())
	if a.cursor >= n {
		a.cursor = n - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	if a.configOpen {
		return a.configView.View()
	}

	if a.debugVisible {
		var focus *int
		if m, ok := a.selected(a.visible()); ok {
			focus = &m.Seq
		}
		overlay := debugOverlay(a.cfg.Ring, focus, a.width, a.height-1)
		if overlay == "" {
			overlay = HelpStyle.Render("No event buffer attached.")
		}
		return lipgloss.JoinVertical(lipgloss.Left, overlay, debugStatusBar(a.width))
	}

	active := a.tracker.ActiveKingdom()
	header := RenderHeader(a.settings.DisplayKingdoms(), active, a.tracker.CollectedIn, a.width)
	collected := RenderCollectedBar(a.tracker.Collected(), active, a.width)

	var footer []string
	switch {
	case a.err != nil:
		footer = append(footer, ErrorStyle.Width(a.width).Render("Error: "+a.err.Error()+" (press any key to dismiss)"))
	case a.toast != nil && a.toast.isErr:
		footer = append(footer, ToastError.Width(a.width).Render(a.toast.text))
	case a.toast != nil:
		footer = append(footer, ToastSuccess.Width(a.width).Render(a.toast.text))
	}
	if a.confirmReset {
		footer = append(footer, ConfirmPrompt.Render("Start a new run? All progress of this run is cleared. (y/N)"))
	}

	var overlay string
	switch {
	case a.search.active:
		overlay = a.search.view(a.width, a.settings.InputLanguage, a.settings.OutputLanguage)
	case a.palette.IsActive():
		overlay = a.palette.View()
	}

	visible := a.visible()
	mode := "actionable"
	if a.showAll {
		mode = "all"
	}
	left := fmt.Sprintf("%d/%d %s", min(a.cursor+1, len(visible)), len(visible), mode)
	if a.loading {
		left = "Loading..."
	}
	status := RenderStatusBar(StatusBarText.Render(left), a.help.View(keys), a.width)

	used := lipgloss.Height(header) + lipgloss.Height(collected) + lipgloss.Height(status)
	for _, f := range footer {
		used += lipgloss.Height(f)
	}
	if overlay != "" {
		used += lipgloss.Height(overlay)
	}

	list := RenderMentions(visible, a.cursor, listOptions{
		Width:     a.width,
		Height:    a.height - used,
		Compact:   a.compact,
		Input:     a.settings.InputLanguage,
		Output:    a.settings.OutputLanguage,
		Collected: a.tracker.IsCollected,
	})

	parts := []string{header, strings.TrimRight(list, "\n")}
	if overlay != "" {
		parts = append(parts, overlay)
	}
	parts = append(parts, collected)
	parts = append(parts, footer...)
	parts = append(parts, status)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Settings returns the settings in use (for testing).
func (a App) Settings() *config.Config {
	return a.settings
}

// Tracker returns the tracker (for testing).
func (a App) Tracker() *tracker.Tracker {
	return a.tracker
}

// Cursor returns the current cursor position (for testing).
func (a App) Cursor() int {
	return a.cursor
}

// RunID returns the store run the App persists into (for testing).
func (a App) RunID() string {
	return a.runID
}
