package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorError     = lipgloss.Color("196") // Red
	colorWarn      = lipgloss.Color("214") // Orange
)

// SelectedItem style for the mention under the cursor.
var SelectedItem = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// NormalItem style for an open mention.
var NormalItem = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Padding(0, 1)

// ConfirmedItem style for mentions that were confirmed (full log view).
var ConfirmedItem = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Padding(0, 1)

// CollectedOption marks an option that is already in the collection.
var CollectedOption = lipgloss.NewStyle().
	Foreground(colorMuted).
	Strikethrough(true)

// IdentifiedBadge marks a mention with a single remaining option.
var IdentifiedBadge = lipgloss.NewStyle().
	Foreground(colorSuccess).
	Bold(true)

// SeqBadge style for the "#12" mention number.
var SeqBadge = lipgloss.NewStyle().
	Foreground(colorPrimary).
	Background(lipgloss.Color("236")).
	Padding(0, 1).
	MarginRight(1)

// HeaderBar style for the kingdom strip at the top.
var HeaderBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236"))

// HeaderKingdom style for an inactive kingdom tab.
var HeaderKingdom = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Padding(0, 1)

// HeaderActiveKingdom style for the kingdom the player is in.
var HeaderActiveKingdom = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Bold(true).
	Padding(0, 1)

// HeaderDone style for kingdoms whose required moons are all collected.
var HeaderDone = HeaderKingdom.Foreground(colorSuccess)

// CollectedBar style for the collected-moons strip above the status bar.
var CollectedBar = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Padding(0, 1)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(colorError).
	Bold(true).
	Padding(0, 1)

// ToastSuccess and ToastError style the transient banner.
var (
	ToastSuccess = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(colorSuccess).
			Padding(0, 1)

	ToastError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(colorError).
			Padding(0, 1)
)

// ConfirmPrompt style for the reset confirmation question.
var ConfirmPrompt = lipgloss.NewStyle().
	Foreground(colorWarn).
	Bold(true).
	Padding(0, 1)

// HelpStyle for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// SearchBar style for the manual entry input bar.
var SearchBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("240")).
	Padding(0, 1)

// SearchBarPrompt style for the "+" prompt.
var SearchBarPrompt = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// SearchBarCount style for the picked count.
var SearchBarCount = lipgloss.NewStyle().
	Foreground(colorSecondary)

// SearchPicked marks a result that will be part of the manual mention.
var SearchPicked = lipgloss.NewStyle().
	Foreground(colorSuccess).
	Bold(true)

// DebugPanel frames the debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// DebugHeaderStyle for section titles in the debug overlay.
var DebugHeaderStyle = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)
