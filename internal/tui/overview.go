package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/CosmoTheDev/cgconsole/models"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"
)

type overviewList int

const (
	listProjects overviewList = iota
	listBugs
)

type overviewForm int

const (
	formNone overviewForm = iota
	formRegister
	formUpdateBug
)

// OverviewModel lists registered projects and tracked bugs and hosts the
// register-project and update-bug forms.
type OverviewModel struct {
	ctx      context.Context
	backend  Backend
	projects []models.ProjectRecord
	bugs     []models.BugRecord
	list     overviewList
	cursor   int
	width    int
	height   int
	lastLoad time.Time
	loading  bool

	form   overviewForm
	inputs []textinput.Model
	focus  int
	// currentPatch is the stored patch of the bug being updated, sent again
	// when no patch file is given.
	currentPatch string
}

type overviewLoadedMsg struct {
	projects []models.ProjectRecord
	bugs     []models.BugRecord
	err      error
}

type overviewSavedMsg struct {
	what string
	err  error
}

// NewOverviewModel creates an OverviewModel.
func NewOverviewModel(backend Backend) OverviewModel {
	return OverviewModel{ctx: context.Background(), backend: backend, loading: true}
}

func (o OverviewModel) Init() tea.Cmd {
	return o.loadCmd()
}

// loadCmd fetches projects and bugs concurrently.
func (o OverviewModel) loadCmd() tea.Cmd {
	ctx, backend := o.ctx, o.backend
	return func() tea.Msg {
		var msg overviewLoadedMsg
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			msg.projects, err = backend.Projects(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			msg.bugs, err = backend.Bugs(gctx)
			return err
		})
		msg.err = g.Wait()
		return msg
	}
}

// Editing reports whether a form has keyboard focus.
func (o OverviewModel) Editing() bool { return o.form != formNone }

func (o OverviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case overviewLoadedMsg:
		o.loading = false
		if msg.err != nil {
			return o, notice(toastError, "Loading overview failed: %v", msg.err)
		}
		o.projects = msg.projects
		o.bugs = msg.bugs
		o.lastLoad = time.Now()
		o = o.clampCursor()
		return o, nil

	case overviewSavedMsg:
		if msg.err != nil {
			return o, notice(toastError, "%s failed: %v", msg.what, msg.err)
		}
		o.loading = true
		return o, tea.Batch(
			notice(toastOK, "%s succeeded", msg.what),
			o.loadCmd(),
		)

	case tea.KeyMsg:
		if o.form != formNone {
			return o.updateForm(msg)
		}
		switch msg.String() {
		case "j", "down":
			o.cursor++
		case "k", "up":
			if o.cursor > 0 {
				o.cursor--
			}
		case "p":
			o.list = listProjects
			o.cursor = 0
		case "b":
			o.list = listBugs
			o.cursor = 0
		case "r":
			o.loading = true
			return o, o.loadCmd()
		case "n":
			return o.openForm(formRegister, nil)
		case "u":
			if o.list == listBugs && len(o.bugs) > 0 {
				bug := o.bugs[o.cursor]
				fix := ""
				if len(bug.FixCommits) > 0 {
					fix = bug.FixCommits[0]
				}
				o.currentPatch = bug.Patch
				return o.openForm(formUpdateBug, []string{bug.ID, fix, string(models.MethodBlockScope)})
			}
		}
		o = o.clampCursor()
	}
	return o, nil
}

var formFields = map[overviewForm][]string{
	formRegister:  {"Repository URL", "Language", "Parent"},
	formUpdateBug: {"Bug ID", "Fix commit", "Method", "Patch file"},
}

func (o OverviewModel) openForm(form overviewForm, values []string) (tea.Model, tea.Cmd) {
	labels := formFields[form]
	o.inputs = make([]textinput.Model, len(labels))
	for i, label := range labels {
		in := textinput.New()
		in.Placeholder = label
		in.Prompt = fmt.Sprintf("%-16s", label)
		in.Width = max(20, o.width-24)
		if i < len(values) {
			in.SetValue(values[i])
		}
		o.inputs[i] = in
	}
	o.form = form
	o.focus = 0
	return o, o.inputs[0].Focus()
}

func (o OverviewModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		o.form = formNone
		o.inputs = nil
		return o, nil
	case "tab", "down":
		return o.moveFocus(1)
	case "shift+tab", "up":
		return o.moveFocus(-1)
	case "enter":
		if o.focus < len(o.inputs)-1 {
			return o.moveFocus(1)
		}
		cmd := o.submitForm()
		o.form = formNone
		o.inputs = nil
		return o, cmd
	}
	var cmd tea.Cmd
	o.inputs[o.focus], cmd = o.inputs[o.focus].Update(msg)
	return o, cmd
}

func (o OverviewModel) moveFocus(delta int) (tea.Model, tea.Cmd) {
	o.inputs[o.focus].Blur()
	o.focus = (o.focus + delta + len(o.inputs)) % len(o.inputs)
	return o, o.inputs[o.focus].Focus()
}

func (o OverviewModel) value(i int) string {
	return strings.TrimSpace(o.inputs[i].Value())
}

func (o OverviewModel) submitForm() tea.Cmd {
	backend := o.backend
	ctx := o.ctx
	switch o.form {
	case formRegister:
		p := models.NewProject{URL: o.value(0), Language: o.value(1), Parent: o.value(2)}
		if p.URL == "" {
			return notice(toastError, "Repository URL is required")
		}
		return func() tea.Msg {
			return overviewSavedMsg{what: "Register " + p.URL, err: backend.RegisterProject(ctx, p)}
		}
	case formUpdateBug:
		u := models.BugUpdate{
			ID:        o.value(0),
			FixCommit: o.value(1),
			Method:    models.Method(o.value(2)),
			Patch:     o.currentPatch,
		}
		if u.ID == "" {
			return notice(toastError, "Bug ID is required")
		}
		patchFile := o.value(3)
		return func() tea.Msg {
			if patchFile != "" {
				data, err := os.ReadFile(patchFile)
				if err != nil {
					return overviewSavedMsg{what: "Update " + u.ID, err: err}
				}
				u.Patch = string(data)
			}
			return overviewSavedMsg{what: "Update " + u.ID, err: backend.UpdateBug(ctx, u)}
		}
	}
	return nil
}

func (o *OverviewModel) SetSize(w, h int) {
	o.width = w
	o.height = h
}

func (o OverviewModel) rows() int {
	if o.list == listBugs {
		return len(o.bugs)
	}
	return len(o.projects)
}

func (o OverviewModel) clampCursor() OverviewModel {
	total := o.rows()
	if total == 0 || o.cursor < 0 {
		o.cursor = 0
		return o
	}
	if o.cursor >= total {
		o.cursor = total - 1
	}
	return o
}

func (o OverviewModel) View() string {
	if o.form != formNone {
		return o.viewForm()
	}
	if o.loading && len(o.projects) == 0 && len(o.bugs) == 0 {
		return panelStyle.Width(max(20, o.width-2)).Render("Loading projects and bugs...")
	}

	cardW := 18
	if o.width >= 100 {
		cardW = 20
	}
	verified := 0
	for _, b := range o.bugs {
		if b.Verified {
			verified++
		}
	}
	summary := lipgloss.JoinHorizontal(lipgloss.Top,
		renderCounter("Projects", len(o.projects), infoStyle, cardW),
		renderCounter("Bugs", len(o.bugs), warnStyle, cardW),
		renderCounter("Verified", verified, okStyle, cardW),
	)

	lineLimit := max(5, o.height-12)
	var title, columns, rows string
	if o.list == listBugs {
		title = "Bugs"
		columns = "ID                    Fix commit    Verified"
		for i, b := range o.bugs {
			if i >= lineLimit {
				break
			}
			fix := ""
			if len(b.FixCommits) > 0 {
				fix = b.FixCommits[0]
			}
			mark := dimStyle.Render("no")
			if b.Verified {
				mark = okStyle.Render("yes")
			}
			rows += o.renderRow(i,
				lipgloss.NewStyle().Width(22).Foreground(ink).Render(truncate(b.ID, 20)),
				lipgloss.NewStyle().Width(14).Foreground(slate).Render(truncate(fix, 12)),
				mark,
			)
		}
		if len(o.bugs) == 0 {
			rows = dimStyle.Render("No bugs recorded.\n")
		}
	} else {
		title = "Projects"
		columns = "Name                          Owner           Language    Parent"
		for i, p := range o.projects {
			if i >= lineLimit {
				break
			}
			rows += o.renderRow(i,
				lipgloss.NewStyle().Width(30).Foreground(ink).Render(truncate(p.Name, 28)),
				lipgloss.NewStyle().Width(16).Foreground(slate).Render(truncate(p.Owner, 14)),
				lipgloss.NewStyle().Width(12).Foreground(slate).Render(truncate(p.Language, 10)),
				dimStyle.Render(p.Parent),
			)
		}
		if len(o.projects) == 0 {
			rows = dimStyle.Render("No projects registered. Press n to register one.\n")
		}
	}

	updated := "never"
	if !o.lastLoad.IsZero() {
		updated = o.lastLoad.Format("15:04:05")
	}
	help := lipgloss.JoinHorizontal(lipgloss.Left,
		keycapStyle.Render("p"), " ", dimStyle.Render("projects"), "  ",
		keycapStyle.Render("b"), " ", dimStyle.Render("bugs"), "  ",
		keycapStyle.Render("n"), " ", dimStyle.Render("register"), "  ",
		keycapStyle.Render("u"), " ", dimStyle.Render("update bug"), "  ",
		keycapStyle.Render("r"), " ", dimStyle.Render("refresh"), "   ",
		dimStyle.Render("updated "+updated),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Padding(0, 1).Render(summary),
		panelStyle.Width(max(20, o.width-2)).Render(
			lipgloss.JoinVertical(lipgloss.Left,
				panelHeaderStyle.Render(title),
				dimStyle.Render(columns),
				rows,
				help,
			),
		),
	)
}

func (o OverviewModel) renderRow(idx int, cells ...string) string {
	cursor := " "
	if idx == o.cursor {
		cursor = "▌"
	}
	parts := append([]string{lipgloss.NewStyle().Width(2).Foreground(accent).Render(cursor)}, cells...)
	row := lipgloss.JoinHorizontal(lipgloss.Left, parts...)
	if idx == o.cursor {
		return selectedRowStyle.Width(max(20, o.width-6)).Render(row) + "\n"
	}
	return row + "\n"
}

func (o OverviewModel) viewForm() string {
	title := "Register project"
	if o.form == formUpdateBug {
		title = "Update bug"
	}
	lines := []string{panelHeaderStyle.Render(title), ""}
	for _, in := range o.inputs {
		lines = append(lines, in.View())
	}
	lines = append(lines, "", dimStyle.Render("tab/enter next field  enter on last field saves  esc cancel"))
	return panelStyle.Width(max(20, o.width-2)).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func renderCounter(label string, count int, style lipgloss.Style, width int) string {
	return boxStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Center,
			style.Bold(true).Render(fmt.Sprintf("%d", count)),
			dimStyle.Render(strings.ToUpper(label)),
		),
	) + "  "
}
