package theme

import "github.com/charmbracelet/lipgloss"

// Styles are the lipgloss styles the terminal screens render with.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Text     lipgloss.Style
	Muted    lipgloss.Style
	Primary  lipgloss.Style
	Success  lipgloss.Style
	Error    lipgloss.Style
	Warning  lipgloss.Style
	Box      lipgloss.Style
	Selected lipgloss.Style
}

func NewStyles(p Palette) Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Foreground(p.Primary).Bold(true),
		Subtitle: lipgloss.NewStyle().Foreground(p.TextSecondary),
		Text:     lipgloss.NewStyle().Foreground(p.Text),
		Muted:    lipgloss.NewStyle().Foreground(p.TextTertiary),
		Primary:  lipgloss.NewStyle().Foreground(p.Primary),
		Success:  lipgloss.NewStyle().Foreground(p.Success),
		Error:    lipgloss.NewStyle().Foreground(p.Error).Bold(true),
		Warning:  lipgloss.NewStyle().Foreground(p.Warning),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 1),
		Selected: lipgloss.NewStyle().Foreground(p.PrimaryLight).Bold(true),
	}
}
