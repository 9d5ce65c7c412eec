package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"heroscope/internal/domain"
	"heroscope/internal/ui/views"
)

// QueryStore is the part of the query state the UI drives
type QueryStore interface {
	SetSearch(text string)
	MovePage(delta int) error
	SetLimit(limit int) error
	Limits() []int
	Snapshot() domain.QueryState
}

// Refresher re-issues the current query without waiting for the quiet period
type Refresher interface {
	Refresh()
}

// Options configures the UI model
type Options struct {
	ShowDescriptions bool
	Pager            Pager
	Logger           *zap.Logger
}

// Model represents the UI state
type Model struct {
	store     QueryStore
	refresher Refresher
	pager     Pager
	logger    *zap.Logger

	width  int
	height int

	keys     keyMap
	help     help.Model
	search   textinput.Model
	spinner  spinner.Model
	renderer *views.Renderer

	viewModel        domain.ViewModel
	ready            bool
	searching        bool
	selected         int
	showDescriptions bool
	statusMessage    string
	statusIsError    bool
	inPagerMode      bool // tracks if an external pager owns the terminal

	// Program reference for terminal management
	program *tea.Program
}

// NewModel creates a new UI model
func NewModel(store QueryStore, refresher Refresher, opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	search := textinput.New()
	search.Placeholder = "hero name prefix"
	search.Prompt = ""
	search.CharLimit = 64

	return &Model{
		store:            store,
		refresher:        refresher,
		pager:            opts.Pager,
		logger:           logger.Named("ui"),
		keys:             newKeyMap(),
		help:             help.New(),
		search:           search,
		spinner:          spinner.New(spinner.WithSpinner(spinner.Dot)),
		renderer:         views.NewRenderer(),
		showDescriptions: opts.ShowDescriptions,
	}
}

// SetProgram sets the program reference for terminal management
func (m *Model) SetProgram(p *tea.Program) {
	m.program = p
	if ov, ok := m.pager.(*OvPager); ok {
		ov.SetProgram(p)
	}
}

// ViewModel returns the snapshot currently on screen
func (m *Model) ViewModel() domain.ViewModel {
	return m.viewModel
}

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateBrowse(msg)

	case ViewModelMsg:
		m.applyViewModel(msg.ViewModel)
		return m, nil

	case FetchFailedMsg:
		m.logger.Debug("fetch failed", zap.Error(msg.Err))
		m.statusMessage = fmt.Sprintf("Failed to load heroes: %v", msg.Err)
		m.statusIsError = true
		return m, nil

	case spinner.TickMsg:
		if m.inPagerMode {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case heroPagerMsg:
		if msg.err != nil {
			m.logger.Warn("hero pager failed", zap.Int("hero", msg.heroID), zap.Error(msg.err))
			m.statusMessage = fmt.Sprintf("Could not open details: %v", msg.err)
			m.statusIsError = true
		}
		return m, nil

	case pauseRenderingMsg:
		m.inPagerMode = true
		return m, nil

	case resumeRenderingMsg:
		m.inPagerMode = false
		return m, m.spinner.Tick
	}

	return m, nil
}

func (m *Model) applyViewModel(vm domain.ViewModel) {
	// A new request clears the last failure
	if vm.Loading && !m.viewModel.Loading && m.statusIsError {
		m.statusMessage = ""
		m.statusIsError = false
	}
	if vm.Params != m.viewModel.Params {
		m.selected = 0
	}
	m.viewModel = vm
	m.ready = true
	if m.selected >= len(vm.Items) {
		m.selected = len(vm.Items) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

// updateSearch handles keys while the search box has focus
func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc, tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if after := m.search.Value(); after != before {
		m.store.SetSearch(after)
	}
	return m, cmd
}

// updateBrowse handles keys while browsing the table
func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.search.SetValue(m.viewModel.Params.Search)
		m.search.CursorEnd()
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.PrevPage):
		if m.ready && m.store.Snapshot().Params.Page > 0 {
			m.movePage(-1)
		}

	case key.Matches(msg, m.keys.NextPage):
		// The view model can lag behind presses the store already applied
		if m.ready && m.store.Snapshot().Params.Page+1 < m.viewModel.TotalPages {
			m.movePage(1)
		}

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.viewModel.Items)-1 {
			m.selected++
		}

	case key.Matches(msg, m.keys.PageSize):
		limits := m.store.Limits()
		idx := int(msg.Runes[0] - '1')
		if idx >= 0 && idx < len(limits) {
			if err := m.store.SetLimit(limits[idx]); err != nil {
				m.logger.Warn("set limit rejected", zap.Int("limit", limits[idx]), zap.Error(err))
			}
		}

	case key.Matches(msg, m.keys.Open):
		if hero, ok := m.selectedHero(); ok {
			return m, m.showHero(hero)
		}

	case key.Matches(msg, m.keys.Reload):
		m.refresher.Refresh()

	case key.Matches(msg, m.keys.Details):
		m.showDescriptions = !m.showDescriptions

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	return m, nil
}

func (m *Model) movePage(delta int) {
	if err := m.store.MovePage(delta); err != nil {
		m.logger.Warn("move page rejected", zap.Int("delta", delta), zap.Error(err))
	}
}

func (m *Model) selectedHero() (domain.Hero, bool) {
	if m.selected < 0 || m.selected >= len(m.viewModel.Items) {
		return domain.Hero{}, false
	}
	return m.viewModel.Items[m.selected], true
}

// showHero returns a command that shows the hero detail in the pager
func (m *Model) showHero(hero domain.Hero) tea.Cmd {
	if m.pager == nil {
		return nil
	}
	content := m.renderer.Heroes().RenderDetail(hero)
	return func() tea.Msg {
		if m.program != nil {
			m.program.Send(pauseRenderingMsg{})
		}

		err := m.pager.Show(content)

		if m.program != nil {
			m.program.Send(resumeRenderingMsg{})
		}
		return heroPagerMsg{heroID: hero.ID, err: err}
	}
}

// View renders the UI
func (m *Model) View() string {
	if m.inPagerMode {
		return ""
	}

	helpView := ""
	if m.help.ShowAll {
		helpView = m.help.View(m.keys)
	}

	return m.renderer.Render(views.ViewState{
		Width:            m.width,
		Height:           m.height,
		ViewModel:        m.viewModel,
		Ready:            m.ready,
		SearchInput:      m.search.View(),
		Searching:        m.searching,
		SelectedIndex:    m.selected,
		Limits:           m.store.Limits(),
		Spinner:          m.spinner.View(),
		StatusMessage:    m.statusMessage,
		StatusIsError:    m.statusIsError,
		ShowDescriptions: m.showDescriptions,
		HelpView:         helpView,
	})
}
