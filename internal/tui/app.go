// Package tui is the terminal console: an Overview of the backend's projects
// and bugs, the Prepare tab where a detection run is put together, and the
// Results tab that follows the run while it is open.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/CosmoTheDev/cgconsole/internal/config"
	"github.com/CosmoTheDev/cgconsole/internal/workflow"
	"github.com/CosmoTheDev/cgconsole/models"
	"github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Tab represents a TUI navigation tab.
type Tab int

const (
	TabOverview Tab = iota
	TabPrepare
	TabResults
)

var tabNames = []string{"Overview", "Prepare", "Results"}
var tabCompactNames = []string{"Over", "Prep", "Res"}
var tabTinyNames = []string{"O", "P", "R"}

const (
	pingEvery  = 15 * time.Second
	toastAfter = 5 * time.Second
)

// Backend is everything the console asks of the detection API.
type Backend interface {
	workflow.Searcher
	Ping(ctx context.Context) error
	Projects(ctx context.Context) ([]models.ProjectRecord, error)
	Bugs(ctx context.Context) ([]models.BugRecord, error)
	RegisterProject(ctx context.Context, p models.NewProject) error
	UpdateBug(ctx context.Context, u models.BugUpdate) error
}

type toastLevel int

const (
	toastInfo toastLevel = iota
	toastOK
	toastError
)

type toastMsg struct {
	level toastLevel
	text  string
}

type clearToastMsg struct{ seq int }

type pingMsg struct{ err error }

// notice returns a Cmd that raises a toast.
func notice(level toastLevel, format string, args ...any) tea.Cmd {
	text := fmt.Sprintf(format, args...)
	return func() tea.Msg { return toastMsg{level: level, text: text} }
}

// App is the root bubbletea model.
type App struct {
	ctx       context.Context
	cfg       *config.Config
	backend   Backend
	width     int
	height    int
	activeTab Tab
	overview  OverviewModel
	prepare   PrepareModel
	results   ResultsModel

	statusMsg   string
	statusLevel toastLevel
	statusSeq   int

	backendUp  bool
	lastPingAt time.Time
}

// NewApp creates the TUI application. The launcher submits jobs from the
// Prepare tab; the poller is started each time the Results tab is entered.
func NewApp(cfg *config.Config, backend Backend, launcher *workflow.Launcher, poller *workflow.Poller) *App {
	return &App{
		ctx:      context.Background(),
		cfg:      cfg,
		backend:  backend,
		overview: NewOverviewModel(backend),
		prepare:  NewPrepareModel(workflow.NewSession(backend), launcher, cfg.Detection.DefaultMethod),
		results:  NewResultsModel(poller),
	}
}

// Run starts the bubbletea program. Cancelling ctx aborts outstanding
// backend calls and stops the status poller.
func (a *App) Run(ctx context.Context) error {
	a.bind(ctx)
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	a.results.leave()
	return err
}

// bind scopes every backend call the views issue to ctx.
func (a *App) bind(ctx context.Context) {
	a.ctx = ctx
	a.overview.ctx = ctx
	a.prepare.ctx = ctx
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.pingCmd(),
		a.overview.Init(),
	)
}

func (a *App) pingCmd() tea.Cmd {
	ctx, backend := a.ctx, a.backend
	return func() tea.Msg {
		return pingMsg{err: backend.Ping(ctx)}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		contentW := msg.Width - 2
		if contentW < 20 {
			contentW = 20
		}
		contentH := msg.Height - 7
		if contentH < 8 {
			contentH = 8
		}
		a.overview.SetSize(contentW, contentH)
		a.prepare.SetSize(contentW, contentH)
		a.results.SetSize(contentW, contentH)
		return a, nil

	case pingMsg:
		a.backendUp = msg.err == nil
		a.lastPingAt = time.Now()
		return a, tea.Tick(pingEvery, func(time.Time) tea.Msg {
			return a.pingCmd()()
		})

	case toastMsg:
		return a, a.setToast(msg.level, msg.text)

	case clearToastMsg:
		if msg.seq == a.statusSeq {
			a.statusMsg = ""
		}
		return a, nil

	case submittedMsg:
		model, cmd := a.prepare.Update(msg)
		a.prepare = model.(PrepareModel)
		cmds = append(cmds, cmd)
		if msg.err != nil {
			return a, tea.Batch(cmds...)
		}
		// The job has been sent; move to monitoring even if the backend
		// rejected it.
		if msg.outcome.Err != nil {
			cmds = append(cmds, a.setToast(toastError, msg.outcome.Err.Error()))
		} else {
			cmds = append(cmds, a.setToast(toastOK, fmt.Sprintf("Detection submitted for %s", msg.outcome.Request.BugID)))
		}
		if msg.outcome.View == workflow.ViewMonitoring {
			cmds = append(cmds, a.switchTab(TabResults))
		}
		return a, tea.Batch(cmds...)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.results.leave()
			return a, tea.Quit
		}
		if !a.editing() {
			switch msg.String() {
			case "q":
				a.results.leave()
				return a, tea.Quit
			case "1":
				return a, a.switchTab(TabOverview)
			case "2":
				return a, a.switchTab(TabPrepare)
			case "3":
				return a, a.switchTab(TabResults)
			case "tab":
				return a, a.switchTab((a.activeTab + 1) % Tab(len(tabNames)))
			case "shift+tab":
				next := a.activeTab - 1
				if next < 0 {
					next = Tab(len(tabNames) - 1)
				}
				return a, a.switchTab(next)
			}
		}
		// Keys go to the active view only.
		return a, a.updateActive(msg)
	}

	// Async results are routed to whichever view issued them.
	var cmd tea.Cmd
	var model tea.Model
	model, cmd = a.overview.Update(msg)
	a.overview = model.(OverviewModel)
	cmds = append(cmds, cmd)
	model, cmd = a.prepare.Update(msg)
	a.prepare = model.(PrepareModel)
	cmds = append(cmds, cmd)
	model, cmd = a.results.Update(msg)
	a.results = model.(ResultsModel)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

func (a *App) updateActive(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	var model tea.Model
	switch a.activeTab {
	case TabOverview:
		model, cmd = a.overview.Update(msg)
		a.overview = model.(OverviewModel)
	case TabPrepare:
		model, cmd = a.prepare.Update(msg)
		a.prepare = model.(PrepareModel)
	case TabResults:
		model, cmd = a.results.Update(msg)
		a.results = model.(ResultsModel)
	}
	return cmd
}

// editing reports whether the active view is capturing text input, in which
// case the global navigation keys are passed through to it.
func (a *App) editing() bool {
	switch a.activeTab {
	case TabOverview:
		return a.overview.Editing()
	case TabPrepare:
		return a.prepare.Editing()
	}
	return false
}

// switchTab changes the active tab. Leaving Results stops the status poller;
// entering it starts a fresh one.
func (a *App) switchTab(t Tab) tea.Cmd {
	if t == a.activeTab {
		return nil
	}
	if a.activeTab == TabResults {
		a.results.leave()
	}
	a.activeTab = t
	if t == TabResults {
		return a.results.enter(a.ctx)
	}
	return nil
}

func (a *App) setToast(level toastLevel, text string) tea.Cmd {
	a.statusSeq++
	a.statusMsg = text
	a.statusLevel = level
	seq := a.statusSeq
	return tea.Tick(toastAfter, func(time.Time) tea.Msg { return clearToastMsg{seq: seq} })
}

// View implements tea.Model.
func (a *App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	nav := a.renderTabs()

	var content string
	switch a.activeTab {
	case TabOverview:
		content = a.overview.View()
	case TabPrepare:
		content = a.prepare.View()
	case TabResults:
		content = a.results.View()
	}

	contentBox := lipgloss.NewStyle().
		Width(a.width).
		Padding(0, 1).
		MaxHeight(max(1, a.height-5)).
		Render(content)

	hint := "tab next  shift+tab prev  1-3 jump  q quit"
	if a.editing() {
		hint = "esc stop editing  ctrl+c quit"
	}
	statusLine := dimStyle.Render(hint)
	if a.statusMsg != "" {
		statusLine = lipgloss.JoinHorizontal(lipgloss.Left,
			toastStyle(a.statusLevel).Render(a.statusMsg),
			"  ",
			statusLine,
		)
	}
	status := lipgloss.NewStyle().
		Width(a.width).
		Padding(0, 1).
		Render(statusLine)

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		nav,
		contentBox,
		status,
	)
}

func (a *App) renderHeader() string {
	health := mutedBadgeStyle.Render(" backend ? ")
	if !a.lastPingAt.IsZero() {
		if a.backendUp {
			health = okStyle.Render("● backend up")
		} else {
			health = vulnerableStyle.Render("● backend down")
		}
	}
	row := lipgloss.JoinHorizontal(lipgloss.Left,
		titleStyle.Render("cgconsole"),
		"  ",
		dimStyle.Render(a.cfg.Backend.BaseURL()),
		"  ",
		health,
		"  ",
		mutedBadgeStyle.Render(" "+tabNames[a.activeTab]+" "),
	)
	return lipgloss.NewStyle().
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(line).
		Width(a.width).
		Padding(0, 1).
		Render(row)
}

func (a *App) renderTabs() string {
	labels := tabNames
	rendered := a.renderTabLabels(labels)
	maxWidth := a.width - 2
	if maxWidth < 10 {
		maxWidth = 10
	}
	if lipgloss.Width(rendered) > maxWidth {
		labels = tabCompactNames
		rendered = a.renderTabLabels(labels)
	}
	if lipgloss.Width(rendered) > maxWidth {
		rendered = a.renderTabLabels(tabTinyNames)
	}

	return lipgloss.NewStyle().
		Width(a.width).
		Padding(0, 1).
		Foreground(slate).
		Render(rendered)
}

func (a *App) renderTabLabels(labels []string) string {
	parts := make([]string, 0, len(labels))
	for i, name := range labels {
		label := fmt.Sprintf("%d:%s", i+1, name)
		if Tab(i) == a.activeTab {
			parts = append(parts, lipgloss.NewStyle().Bold(true).Foreground(accent).Render(label))
		} else {
			parts = append(parts, dimStyle.Render(label))
		}
		if i < len(labels)-1 {
			parts = append(parts, dimStyle.Render("  ·  "))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, parts...)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "…" + s[len(s)-max+1:]
}
