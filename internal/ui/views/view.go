package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"heroscope/internal/domain"
)

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width            int
	Height           int
	ViewModel        domain.ViewModel
	Ready            bool // a view model has been received
	SearchInput      string
	Searching        bool
	SelectedIndex    int
	Limits           []int
	Spinner          string
	StatusMessage    string
	StatusIsError    bool
	ShowDescriptions bool
	HelpView         string
}

// Renderer handles all view rendering
type Renderer struct {
	styles     *Styles
	heroRender *HeroRenderer
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	styles := NewStyles()
	return &Renderer{
		styles:     styles,
		heroRender: NewHeroRenderer(styles),
	}
}

// Styles exposes the style set so the pager can share it
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// Heroes exposes the hero renderer
func (r *Renderer) Heroes() *HeroRenderer {
	return r.heroRender
}

// Render produces the complete view
func (r *Renderer) Render(state ViewState) string {
	content := &strings.Builder{}
	vm := state.ViewModel

	content.WriteString(r.renderTitleLine(state))
	content.WriteString("\n\n")

	content.WriteString(r.renderSearchLine(state))
	content.WriteString("\n")
	content.WriteString(r.renderToolbar(state))
	content.WriteString("\n\n")

	switch {
	case !state.Ready || (vm.Loading && len(vm.Items) == 0):
		content.WriteString(r.styles.Dim.Render("Loading..."))
	case len(vm.Items) == 0 && vm.Params.Search != "":
		content.WriteString(r.styles.Dim.Render(fmt.Sprintf("No heroes match %q.", vm.Params.Search)))
	case len(vm.Items) == 0:
		content.WriteString(r.styles.Dim.Render("No heroes found."))
	default:
		content.WriteString(r.renderTable(state))
	}

	if state.StatusMessage != "" {
		content.WriteString("\n\n")
		if state.StatusIsError {
			content.WriteString(r.styles.StatusError.Render(state.StatusMessage))
		} else {
			content.WriteString(r.styles.StatusSuccess.Render(state.StatusMessage))
		}
	}

	helpText := state.HelpView
	if helpText == "" {
		helpText = "Press ? for help"
	}
	helpText = r.styles.Help.Render(helpText)

	// Push help to the bottom, accounting for container padding
	currentLines := strings.Count(content.String(), "\n") + 1
	availableLines := state.Height - 2
	if availableLines <= 0 {
		availableLines = 22
	}
	helpLines := strings.Count(helpText, "\n") + 1
	if padding := availableLines - currentLines - helpLines; padding > 0 {
		content.WriteString(strings.Repeat("\n", padding))
	}
	content.WriteString("\n")
	content.WriteString(helpText)

	mainStyle := r.styles.Main
	if state.Height > 0 {
		mainStyle = mainStyle.MaxHeight(state.Height)
	}
	return mainStyle.Render(content.String())
}

func (r *Renderer) renderTitleLine(state ViewState) string {
	logo := r.styles.Title.Render("heroscope")
	if !state.ViewModel.Loading {
		return logo
	}

	indicator := r.styles.StatusLoading.Render(strings.TrimSpace(state.Spinner + " Loading..."))
	termWidth := state.Width
	if termWidth <= 0 {
		termWidth = 80
	}
	paddingWidth := termWidth - 4 - lipgloss.Width(logo) - lipgloss.Width(indicator)
	if paddingWidth < 2 {
		paddingWidth = 2
	}
	return logo + strings.Repeat(" ", paddingWidth) + indicator
}

func (r *Renderer) renderSearchLine(state ViewState) string {
	if state.Searching {
		return r.styles.SearchActive.Render("Search: ") + state.SearchInput
	}
	search := state.ViewModel.Params.Search
	if search == "" {
		return r.styles.Search.Render("Search: (all heroes, press / to search)")
	}
	return r.styles.Search.Render("Search: ") + search
}

func (r *Renderer) renderToolbar(state ViewState) string {
	vm := state.ViewModel
	parts := make([]string, 0, 3)

	if vm.TotalPages == 0 {
		parts = append(parts, "Page 0 of 0")
	} else {
		prev, next := "‹", "›"
		if !vm.HasPrevPage() {
			prev = r.styles.Dim.Render(prev)
		}
		if !vm.HasNextPage() {
			next = r.styles.Dim.Render(next)
		}
		parts = append(parts, fmt.Sprintf("%s Page %d of %d %s", prev, vm.UserPage, vm.TotalPages, next))
	}

	sizes := make([]string, 0, len(state.Limits))
	for i, limit := range state.Limits {
		label := fmt.Sprintf("[%d] %d", i+1, limit)
		if limit == vm.Params.Limit {
			sizes = append(sizes, r.styles.PageSizeOn.Render(label))
		} else {
			sizes = append(sizes, r.styles.PageSize.Render(label))
		}
	}
	if len(sizes) > 0 {
		parts = append(parts, "Show: "+strings.Join(sizes, " "))
	}

	parts = append(parts, fmt.Sprintf("Total: %s", humanize.Comma(int64(vm.Total))))

	return r.styles.Pagination.Render(strings.Join(parts, "  |  "))
}

func (r *Renderer) renderTable(state ViewState) string {
	vm := state.ViewModel
	lines := make([]string, 0, len(vm.Items)+1)
	lines = append(lines, r.heroRender.RenderHeader(state.Width))

	// Rows that do not fit are scrolled so the selection stays visible
	visible := state.Height - 14
	if visible < 3 {
		visible = len(vm.Items)
	}
	start := 0
	if state.SelectedIndex >= visible {
		start = state.SelectedIndex - visible + 1
	}
	end := start + visible
	if end > len(vm.Items) {
		end = len(vm.Items)
	}

	for i := start; i < end; i++ {
		number := vm.Params.Offset() + i + 1
		lines = append(lines, r.heroRender.RenderRow(vm.Items[i], number, i == state.SelectedIndex,
			state.ShowDescriptions, state.Width))
	}
	if end < len(vm.Items) {
		lines = append(lines, r.styles.Dim.Render(fmt.Sprintf("  … %d more on this page", len(vm.Items)-end)))
	}
	return strings.Join(lines, "\n")
}
