package ui

import "github.com/charmbracelet/lipgloss"

// Colors
var (
	Primary    = lipgloss.Color("#7C3AED") // Purple
	Secondary  = lipgloss.Color("#06B6D4") // Cyan
	Success    = lipgloss.Color("#10B981") // Green
	Warning    = lipgloss.Color("#F59E0B") // Amber
	Error      = lipgloss.Color("#EF4444") // Red
	Muted      = lipgloss.Color("#6B7280") // Gray
	Foreground = lipgloss.Color("#F9FAFB") // Light
	Border     = lipgloss.Color("#374151") // Border gray
	Selected   = lipgloss.Color("#4F46E5") // Indigo
)

// Styles
var (
	// App container
	AppStyle = lipgloss.NewStyle().
			Padding(0, 1)

	// Header
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Padding(0, 1).
			MarginBottom(1)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Foreground)

	VersionStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	// Panels
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 1)

	PanelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Secondary).
			Padding(0, 1)

	ActivePanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(Primary).
				Padding(0, 1)

	// List items
	ItemStyle = lipgloss.NewStyle().
			Padding(0, 1)

	SelectedItemStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Background(Selected).
				Foreground(Foreground)

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Padding(0, 1).
			MarginTop(1)

	// Help bar
	HelpBarStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Padding(0, 1)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(Muted)

	// Entry details
	LabelStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Width(14)

	ValueStyle = lipgloss.NewStyle().
			Foreground(Foreground)

	PathStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	SandboxBadgeStyle = lipgloss.NewStyle().
				Foreground(Warning).
				Bold(true)

	IconOKStyle = lipgloss.NewStyle().
			Foreground(Success)

	// Muted text
	MutedStyle = lipgloss.NewStyle().
			Foreground(Muted)

	// Divider
	DividerStyle = lipgloss.NewStyle().
			Foreground(Border)

	// Notification styles
	SuccessNotifyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#10B981")).
				Background(lipgloss.Color("#064E3B")).
				Padding(0, 1).
				Bold(true)

	ErrorNotifyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FCA5A5")).
				Background(lipgloss.Color("#7F1D1D")).
				Padding(0, 1).
				Bold(true)

	// Dialog box style
	DialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2).
			Width(60)

	// Button styles
	ButtonStyle = lipgloss.NewStyle().
			Foreground(Foreground).
			Background(Border).
			Padding(0, 2)

	ButtonActiveStyle = lipgloss.NewStyle().
				Foreground(Foreground).
				Background(Primary).
				Padding(0, 2).
				Bold(true)
)

// RenderHelpItem renders a help key-description pair
func RenderHelpItem(key, desc string) string {
	return HelpKeyStyle.Render(key) + " " + HelpDescStyle.Render(desc)
}

// RenderNotification renders a styled notification message
func RenderNotification(msgType string, message string) string {
	switch msgType {
	case "success":
		return SuccessNotifyStyle.Render("✓ " + message)
	case "error":
		return ErrorNotifyStyle.Render("✗ " + message)
	default:
		return MutedStyle.Render("• " + message)
	}
}

// RenderButton renders a styled button
func RenderButton(label string, active bool) string {
	if active {
		return ButtonActiveStyle.Render(label)
	}
	return ButtonStyle.Render(label)
}
