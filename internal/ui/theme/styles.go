package theme

import "github.com/charmbracelet/lipgloss"

// Studio color palette
var (
	ColorPrimary   = lipgloss.Color("#22D3EE") // Cyan, the default aurora highlight
	ColorSecondary = lipgloss.Color("#A0A0A0") // Muted gray
	ColorAccent    = lipgloss.Color("#A78BFA") // Violet
	ColorSuccess   = lipgloss.Color("#9ECE6A") // Green
	ColorError     = lipgloss.Color("#F7768E") // Red/pink
	ColorWarning   = lipgloss.Color("#E0AF68") // Amber
	ColorDim       = lipgloss.Color("#565656") // Dim gray
	ColorBg        = lipgloss.Color("#0F172A") // Slate background
	ColorBgAlt     = lipgloss.Color("#1E293B") // Slightly lighter bg
	ColorText      = lipgloss.Color("#E2E8F0") // Main text
	ColorCapture   = lipgloss.Color("#7DCFFF") // Capturing phase
	ColorEncode    = lipgloss.Color("#BB9AF7") // Encoding phase
)

// Styles used throughout the app
var (
	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			PaddingLeft(1)

	StyleStatusBar = lipgloss.NewStyle().
			Foreground(ColorText).
			Background(ColorBgAlt).
			PaddingLeft(1).
			PaddingRight(1)

	StyleStatusKey = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	StyleStatusVal = lipgloss.NewStyle().
			Foreground(ColorSecondary)

	StylePanelTitle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true).
			PaddingLeft(1)

	StyleExportOK = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			PaddingLeft(1)

	StyleExportError = lipgloss.NewStyle().
				Foreground(ColorError).
				PaddingLeft(1)

	StyleHelp = lipgloss.NewStyle().
			Foreground(ColorDim)

	StyleDivider = lipgloss.NewStyle().
			Foreground(ColorDim)

	StyleListTitle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true).
			PaddingLeft(1)

	StyleBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDim)
)
