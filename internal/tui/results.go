package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/CosmoTheDev/cgconsole/internal/workflow"
	"github.com/CosmoTheDev/cgconsole/models"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ResultsModel follows the running detection job. The status poller runs
// only while this tab is active.
type ResultsModel struct {
	poller   *workflow.Poller
	sub      *workflow.Subscription
	status   models.DetectionStatus
	logs     viewport.Model
	lastLoad time.Time
	width    int
	height   int
}

type snapshotMsg struct {
	sub    *workflow.Subscription
	status models.DetectionStatus
}

type pollStoppedMsg struct{ sub *workflow.Subscription }

// NewResultsModel creates a ResultsModel.
func NewResultsModel(poller *workflow.Poller) ResultsModel {
	return ResultsModel{poller: poller, logs: viewport.New(80, 10)}
}

func (r ResultsModel) Init() tea.Cmd { return nil }

// enter starts polling. Snapshots are delivered as snapshotMsg.
func (r *ResultsModel) enter(ctx context.Context) tea.Cmd {
	sub, err := r.poller.Start(ctx)
	if err != nil {
		return notice(toastError, "Status polling: %v", err)
	}
	r.sub = sub
	return waitSnapshot(sub)
}

// leave stops polling and waits until no fetch is in flight.
func (r *ResultsModel) leave() {
	if r.sub == nil {
		return
	}
	r.sub.Stop()
	r.sub = nil
	slog.Debug("tui: results polling stopped")
}

// Polling reports whether a subscription is live.
func (r ResultsModel) Polling() bool { return r.sub != nil }

func waitSnapshot(sub *workflow.Subscription) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-sub.Snapshots()
		if !ok {
			return pollStoppedMsg{sub: sub}
		}
		return snapshotMsg{sub: sub, status: st}
	}
}

func (r ResultsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		if msg.sub != r.sub {
			return r, nil
		}
		r = r.apply(msg.status)
		return r, waitSnapshot(r.sub)

	case pollStoppedMsg:
		if msg.sub == r.sub {
			r.sub = nil
		}
		return r, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "g", "home":
			r.logs.GotoTop()
			return r, nil
		case "G", "end":
			r.logs.GotoBottom()
			return r, nil
		}
		var cmd tea.Cmd
		r.logs, cmd = r.logs.Update(msg)
		return r, cmd
	}
	return r, nil
}

// apply replaces the displayed status wholesale. The log pane follows new
// output.
func (r ResultsModel) apply(st models.DetectionStatus) ResultsModel {
	changed := st.Logs != r.status.Logs
	r.status = st
	r.lastLoad = time.Now()
	if changed {
		r.logs.SetContent(st.Logs)
		r.logs.GotoBottom()
	}
	return r
}

func (r *ResultsModel) SetSize(w, h int) {
	r.width = w
	r.height = h
	r.logs.Width = max(20, w-6)
	r.logs.Height = max(4, h/2-4)
}

func (r ResultsModel) View() string {
	state := dimStyle.Render("idle")
	if r.sub != nil {
		state = okStyle.Render("polling")
	}
	updated := "never"
	if !r.lastLoad.IsZero() {
		updated = r.lastLoad.Format("15:04:05")
	}

	vulnerable := 0
	var rows string
	limit := max(3, r.height-r.logs.Height-10)
	for i, row := range r.status.Results {
		if row.Vulnerable {
			vulnerable++
		}
		if i >= limit {
			continue
		}
		verdict := okStyle.Render("clean")
		if row.Vulnerable {
			verdict = vulnerableStyle.Render("VULNERABLE")
		}
		rows += lipgloss.JoinHorizontal(lipgloss.Left,
			lipgloss.NewStyle().Width(24).Foreground(ink).Render(truncate(row.ProjectName, 22)),
			lipgloss.NewStyle().Width(13).Render(verdict),
			lipgloss.NewStyle().Width(12).Render(confidenceStyle(row.Confidence).Render(fmt.Sprintf("%.2f", row.Confidence))),
			lipgloss.NewStyle().Foreground(slate).Render(truncate(row.Location, max(10, r.width-56))),
		) + "\n"
	}
	if len(r.status.Results) == 0 {
		rows = dimStyle.Render("No detection results yet.\n")
	} else if len(r.status.Results) > limit {
		rows += dimStyle.Render(fmt.Sprintf("… %d more\n", len(r.status.Results)-limit))
	}

	summary := lipgloss.JoinHorizontal(lipgloss.Left,
		state, "  ",
		dimStyle.Render(fmt.Sprintf("%d results", len(r.status.Results))), "  ",
		vulnerableStyle.Render(fmt.Sprintf("%d vulnerable", vulnerable)), "  ",
		dimStyle.Render("updated "+updated),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		panelStyle.Width(max(20, r.width-2)).Render(
			lipgloss.JoinVertical(lipgloss.Left,
				panelHeaderStyle.Render("Detection Results"),
				summary,
				"",
				dimStyle.Render("Project                 Verdict      Confidence  Location"),
				rows,
			),
		),
		panelStyle.Width(max(20, r.width-2)).Render(
			lipgloss.JoinVertical(lipgloss.Left,
				panelHeaderStyle.Render("Logs"),
				r.logs.View(),
				dimStyle.Render("j/k scroll  g/G top/bottom"),
			),
		),
	)
}
