package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap lists every binding of the main view. It implements help.KeyMap so
// the status bar and the "?" screen stay in sync with what Update handles.
type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	Top         key.Binding
	Bottom      key.Binding
	Confirm     key.Binding
	ConfirmTop  key.Binding
	Delete      key.Binding
	Uncollect   key.Binding
	Undo        key.Binding
	PrevKingdom key.Binding
	NextKingdom key.Binding
	Search      key.Binding
	Command     key.Binding
	Settings    key.Binding
	Compact     key.Binding
	ShowAll     key.Binding
	Reset       key.Binding
	Debug       key.Binding
	Help        key.Binding
	Quit        key.Binding
}

var keys = keyMap{
	Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Top:         key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
	Bottom:      key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
	Confirm:     key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "confirm option")),
	ConfirmTop:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm first")),
	Delete:      key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "delete")),
	Uncollect:   key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "delete+uncollect")),
	Undo:        key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo confirm")),
	PrevKingdom: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev kingdom")),
	NextKingdom: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next kingdom")),
	Search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "add mention")),
	Command:     key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "commands")),
	Settings:    key.NewBinding(key.WithKeys(","), key.WithHelp(",", "settings")),
	Compact:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "compact")),
	ShowAll:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "all/actionable")),
	Reset:       key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reset run")),
	Debug:       key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "debug")),
	Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// ShortHelp is shown in the status bar.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Delete, k.NextKingdom, k.Search, k.Help, k.Quit}
}

// FullHelp is shown when help is expanded.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Confirm, k.ConfirmTop, k.Undo, k.Delete, k.Uncollect},
		{k.PrevKingdom, k.NextKingdom, k.Search, k.Command},
		{k.Settings, k.Compact, k.ShowAll, k.Reset, k.Debug, k.Quit},
	}
}

// searchKeys are active while the manual mention box is open.
var searchKeys = struct {
	Up     key.Binding
	Down   key.Binding
	Pick   key.Binding
	Submit key.Binding
	Cancel key.Binding
}{
	Up:     key.NewBinding(key.WithKeys("up", "ctrl+p")),
	Down:   key.NewBinding(key.WithKeys("down", "ctrl+n")),
	Pick:   key.NewBinding(key.WithKeys("tab")),
	Submit: key.NewBinding(key.WithKeys("enter")),
	Cancel: key.NewBinding(key.WithKeys("esc")),
}
