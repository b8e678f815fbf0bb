package tui

import "github.com/charmbracelet/lipgloss"

// Styles groups the lipgloss styles of the wizard.
type Styles struct {
	Title    lipgloss.Style
	Prompt   lipgloss.Style
	Label    lipgloss.Style
	Cursor   lipgloss.Style
	Selected lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Help     lipgloss.Style
	Box      lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0F766E")),
		Prompt:   lipgloss.NewStyle().Bold(true),
		Label:    lipgloss.NewStyle().Foreground(lipgloss.Color("#475569")),
		Cursor:   lipgloss.NewStyle().Foreground(lipgloss.Color("#0EA5E9")).Bold(true),
		Selected: lipgloss.NewStyle().Foreground(lipgloss.Color("#16A34A")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")),
		Success:  lipgloss.NewStyle().Foreground(lipgloss.Color("#16A34A")).Bold(true),
		Help:     lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B")).Italic(true),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#0F766E")).
			Padding(1, 2),
	}
}
