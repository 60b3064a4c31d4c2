package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/CosmoTheDev/cgconsole/internal/workflow"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type prepField int

const (
	fieldNone prepField = iota
	fieldBug
	fieldProject
	fieldPatch
	fieldMethod
	fieldDate
	fieldCommit
)

// PrepareModel drives a workflow.Session: search for candidate fix commits,
// pick one, edit its patch and submit the detection job.
type PrepareModel struct {
	ctx      context.Context
	session  *workflow.Session
	launcher *workflow.Launcher

	prep       workflow.Prep
	cursor     int
	searching  bool
	selecting  string
	submitting bool

	editing prepField
	bug     textinput.Model
	project textinput.Model
	method  textinput.Model
	date    textinput.Model
	commit  textinput.Model
	patch   textarea.Model

	width  int
	height int
}

type searchDoneMsg struct {
	prep workflow.Prep
	err  error
}

type selectDoneMsg struct {
	commit string
	prep   workflow.Prep
	err    error
}

type submittedMsg struct {
	outcome workflow.Outcome
	err     error
}

func newInput(prompt, placeholder string) textinput.Model {
	in := textinput.New()
	in.Prompt = fmt.Sprintf("%-10s", prompt)
	in.Placeholder = placeholder
	in.Width = 40
	return in
}

// NewPrepareModel creates a PrepareModel. defaultMethod pre-fills the method
// field.
func NewPrepareModel(session *workflow.Session, launcher *workflow.Launcher, defaultMethod string) PrepareModel {
	method := newInput("Method", "blockscope | simian")
	method.SetValue(defaultMethod)

	patch := textarea.New()
	patch.Placeholder = "Patch body"
	patch.ShowLineNumbers = true
	patch.CharLimit = 0
	patch.MaxHeight = 0
	patch.MaxWidth = 0
	patch.SetWidth(80)
	patch.SetHeight(12)

	return PrepareModel{
		ctx:      context.Background(),
		session:  session,
		launcher: launcher,
		bug:      newInput("Bug", "CVE-2014-0160"),
		project:  newInput("Project", "openssl"),
		method:   method,
		date:     newInput("Date", "YYYY-MM-DD (optional)"),
		commit:   newInput("Commit", "any commit id"),
		patch:    patch,
	}
}

// Editing reports whether a text field has keyboard focus.
func (p PrepareModel) Editing() bool { return p.editing != fieldNone }

func (p PrepareModel) Init() tea.Cmd { return nil }

func (p PrepareModel) searchCmd(bugID, project string) tea.Cmd {
	ctx, session := p.ctx, p.session
	return func() tea.Msg {
		prep, err := session.Search(ctx, bugID, project)
		return searchDoneMsg{prep: prep, err: err}
	}
}

func (p PrepareModel) selectCmd(commit string) tea.Cmd {
	ctx, session := p.ctx, p.session
	return func() tea.Msg {
		prep, err := session.SelectCommit(ctx, commit)
		return selectDoneMsg{commit: commit, prep: prep, err: err}
	}
}

func (p PrepareModel) submitCmd() tea.Cmd {
	p.session.EditPatch(p.patch.Value())
	form := p.session.Form(strings.TrimSpace(p.method.Value()), p.date.Value())
	ctx, launcher := p.ctx, p.launcher
	return func() tea.Msg {
		outcome, err := launcher.Submit(ctx, form)
		return submittedMsg{outcome: outcome, err: err}
	}
}

func (p PrepareModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case searchDoneMsg:
		p.searching = false
		if msg.err != nil {
			if errors.Is(msg.err, workflow.ErrNoCandidates) {
				return p, notice(toastInfo, "No candidate commits found")
			}
			return p, notice(toastError, "Search failed: %v", msg.err)
		}
		p = p.apply(msg.prep)
		p.cursor = 0
		return p, notice(toastOK, "%d candidate commits", len(p.prep.Candidates))

	case selectDoneMsg:
		if msg.commit == p.selecting {
			p.selecting = ""
		}
		if errors.Is(msg.err, workflow.ErrStale) {
			return p, nil
		}
		if msg.err != nil {
			return p, notice(toastError, "Loading commit %s failed: %v", shortCommit(msg.commit), msg.err)
		}
		p = p.apply(msg.prep)
		return p, nil

	case submittedMsg:
		p.submitting = false
		if msg.err != nil {
			return p, notice(toastError, "%v", msg.err)
		}
		return p, nil

	case tea.KeyMsg:
		if p.editing != fieldNone {
			return p.updateEditing(msg)
		}
		switch msg.String() {
		case "/", "s":
			return p.edit(fieldBug)
		case "e":
			return p.edit(fieldPatch)
		case "m":
			return p.edit(fieldMethod)
		case "d":
			return p.edit(fieldDate)
		case "c":
			if p.prep.Project == "" {
				return p, notice(toastInfo, "Search a project first")
			}
			p.commit.SetValue(p.prep.Active)
			return p.edit(fieldCommit)
		case "j", "down":
			if p.cursor < len(p.prep.Candidates)-1 {
				p.cursor++
			}
		case "k", "up":
			if p.cursor > 0 {
				p.cursor--
			}
		case "enter":
			if len(p.prep.Candidates) == 0 {
				return p, nil
			}
			commit := p.prep.Candidates[p.cursor]
			p.selecting = commit
			return p, p.selectCmd(commit)
		case "x", "ctrl+s":
			if p.submitting {
				return p, nil
			}
			p.submitting = true
			return p, p.submitCmd()
		}
	}
	return p, nil
}

// apply takes a new preparation state and loads its patch into the editor.
func (p PrepareModel) apply(prep workflow.Prep) PrepareModel {
	p.prep = prep
	p.patch.SetValue(prep.Patch)
	if p.cursor >= len(prep.Candidates) {
		p.cursor = 0
	}
	return p
}

func (p PrepareModel) edit(field prepField) (tea.Model, tea.Cmd) {
	p.editing = field
	var cmd tea.Cmd
	switch field {
	case fieldBug:
		cmd = p.bug.Focus()
	case fieldProject:
		cmd = p.project.Focus()
	case fieldPatch:
		cmd = p.patch.Focus()
	case fieldMethod:
		cmd = p.method.Focus()
	case fieldDate:
		cmd = p.date.Focus()
	case fieldCommit:
		cmd = p.commit.Focus()
	}
	return p, cmd
}

func (p PrepareModel) blur() PrepareModel {
	p.bug.Blur()
	p.project.Blur()
	p.patch.Blur()
	p.method.Blur()
	p.date.Blur()
	p.commit.Blur()
	p.editing = fieldNone
	return p
}

func (p PrepareModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if p.editing == fieldPatch {
			p.session.EditPatch(p.patch.Value())
		}
		return p.blur(), nil
	case "enter":
		switch p.editing {
		case fieldBug:
			p.bug.Blur()
			return p.edit(fieldProject)
		case fieldProject:
			p = p.blur()
			p.searching = true
			return p, p.searchCmd(strings.TrimSpace(p.bug.Value()), strings.TrimSpace(p.project.Value()))
		case fieldMethod, fieldDate:
			return p.blur(), nil
		case fieldCommit:
			// Commits outside the candidate list are allowed.
			commit := strings.TrimSpace(p.commit.Value())
			p = p.blur()
			if commit == "" {
				return p, nil
			}
			p.selecting = commit
			return p, p.selectCmd(commit)
		}
	}

	var cmd tea.Cmd
	switch p.editing {
	case fieldBug:
		p.bug, cmd = p.bug.Update(msg)
	case fieldProject:
		p.project, cmd = p.project.Update(msg)
	case fieldPatch:
		p.patch, cmd = p.patch.Update(msg)
	case fieldMethod:
		p.method, cmd = p.method.Update(msg)
	case fieldDate:
		p.date, cmd = p.date.Update(msg)
	case fieldCommit:
		p.commit, cmd = p.commit.Update(msg)
	}
	return p, cmd
}

func (p *PrepareModel) SetSize(w, h int) {
	p.width = w
	p.height = h
	p.patch.SetWidth(max(20, w-36))
	p.patch.SetHeight(max(5, h-12))
}

func (p PrepareModel) View() string {
	search := lipgloss.JoinVertical(lipgloss.Left,
		panelHeaderStyle.Render("Search"),
		p.bug.View(),
		p.project.View(),
	)
	if p.searching {
		search = lipgloss.JoinVertical(lipgloss.Left, search, dimStyle.Render("searching..."))
	}

	var commits []string
	for i, c := range p.prep.Candidates {
		marker := "  "
		if c == p.prep.Active {
			marker = "● "
		}
		label := marker + shortCommit(c)
		if c == p.selecting {
			label += dimStyle.Render(" loading")
		}
		if i == p.cursor {
			commits = append(commits, selectedRowStyle.Render(lipgloss.NewStyle().Foreground(accent).Render(label)))
		} else {
			commits = append(commits, lipgloss.NewStyle().Foreground(ink).Render(label))
		}
	}
	if len(commits) == 0 {
		commits = append(commits, dimStyle.Render("No candidates yet."))
	}

	left := panelStyle.Width(30).Render(lipgloss.JoinVertical(lipgloss.Left,
		search,
		"",
		panelHeaderStyle.Render("Candidates"),
		lipgloss.JoinVertical(lipgloss.Left, commits...),
		"",
		p.commit.View(),
	))

	submitLabel := "x submit"
	if p.submitting {
		submitLabel = "submitting..."
	}
	right := panelStyle.Width(max(20, p.width-34)).Render(lipgloss.JoinVertical(lipgloss.Left,
		panelHeaderStyle.Render(fmt.Sprintf("Patch %s", dimStyle.Render(shortCommit(p.prep.Active)))),
		p.patch.View(),
		"",
		p.method.View(),
		p.date.View(),
	))

	help := dimStyle.Render("/ search  j/k choose  enter load commit  c other commit  e edit patch  m method  d date  " + submitLabel)
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
		help,
	)
}

func shortCommit(c string) string {
	if len(c) > 10 {
		return c[:10]
	}
	return c
}
