package views

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title         lipgloss.Style
	Dim           lipgloss.Style
	Search        lipgloss.Style
	SearchActive  lipgloss.Style
	Header        lipgloss.Style
	Row           lipgloss.Style
	Selected      lipgloss.Style
	Description   lipgloss.Style
	Pagination    lipgloss.Style
	PageSize      lipgloss.Style
	PageSizeOn    lipgloss.Style
	Help          lipgloss.Style
	Main          lipgloss.Style
	StatusError   lipgloss.Style
	StatusLoading lipgloss.Style
	StatusSuccess lipgloss.Style
	DetailTitle   lipgloss.Style
	DetailSection lipgloss.Style
	DetailKey     lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")),
		Dim:          lipgloss.NewStyle().Faint(true),
		Search:       lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		SearchActive: lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")),
		Row:         lipgloss.NewStyle(),
		Selected:    lipgloss.NewStyle().Background(lipgloss.Color("238")).Bold(true),
		Description: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Pagination: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			MarginTop(1),
		PageSize:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		PageSizeOn:    lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		Help:          lipgloss.NewStyle().Faint(true),
		Main:          lipgloss.NewStyle().Padding(1, 2),
		StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
		StatusLoading: lipgloss.NewStyle().Foreground(lipgloss.Color("241")), // gray
		StatusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("78")),  // green
		DetailTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1),
		DetailSection: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginTop(1),
		DetailKey: lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
	}
}
