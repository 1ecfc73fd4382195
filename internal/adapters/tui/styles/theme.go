package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#10B981") // Green
	Muted     = lipgloss.Color("#6B7280") // Gray
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Error     = lipgloss.Color("#EF4444") // Red
	White     = lipgloss.Color("#FFFFFF")

	// Periodicity colors
	Daily     = lipgloss.Color("#6366F1") // Indigo
	Weekly    = lipgloss.Color("#8B5CF6") // Violet
	Monthly   = lipgloss.Color("#EC4899") // Pink
	Quarterly = lipgloss.Color("#F97316") // Orange
	Yearly    = lipgloss.Color("#60A5FA") // Blue

	App = lipgloss.NewStyle().
		Padding(1, 2)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	// Panel frames one dashboard section
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Muted).
		Padding(0, 1)

	PanelTitle = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	Row = lipgloss.NewStyle()

	RowSelected = lipgloss.NewStyle().
			Background(Primary).
			Foreground(White).
			Bold(true)

	RowCurrent = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	// Flag markers in the settings table
	FlagOn  = lipgloss.NewStyle().Foreground(Secondary).SetString("●")
	FlagOff = lipgloss.NewStyle().Foreground(Muted).SetString("○")

	Label = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	HelpKey = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	HelpDesc = lipgloss.NewStyle().
			Foreground(Muted)

	HelpSeparator = lipgloss.NewStyle().
			Foreground(Muted).
			SetString(" • ")

	Success = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	ErrorMsg = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	WarningMsg = lipgloss.NewStyle().
			Foreground(Warning)

	MutedText = lipgloss.NewStyle().
			Foreground(Muted)
)

// PeriodicityColor returns the accent for a periodicity name
func PeriodicityColor(name string) lipgloss.Color {
	switch name {
	case "daily":
		return Daily
	case "weekly":
		return Weekly
	case "monthly":
		return Monthly
	case "quarterly":
		return Quarterly
	case "yearly":
		return Yearly
	default:
		return Primary
	}
}
