package styles

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	CampusGold = lipgloss.Color("#D4A017")
	SlateDark  = lipgloss.Color("#1F2937")
	DimGray    = lipgloss.Color("#6B7280")
	LightGray  = lipgloss.Color("#9CA3AF")
	White      = lipgloss.Color("#F9FAFB")
	Green      = lipgloss.Color("#10B981")
	Red        = lipgloss.Color("#EF4444")
	Blue       = lipgloss.Color("#3B82F6")
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
			Foreground(CampusGold)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)
)

// Chrome styles
var (
	TabStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Padding(0, 2)

	ActiveTabStyle = lipgloss.NewStyle().
			Foreground(CampusGold).
			Bold(true).
			Padding(0, 2)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Background(SlateDark).
			Padding(0, 1)

	BadgeStyle = lipgloss.NewStyle().
			Foreground(SlateDark).
			Background(CampusGold).
			Padding(0, 1).
			Bold(true)

	AlertBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Red).
			Padding(1, 2)
)
