package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/CosmoTheDev/cgconsole/internal/api"
	"github.com/CosmoTheDev/cgconsole/internal/config"
	"github.com/CosmoTheDev/cgconsole/internal/workflow"
	"github.com/CosmoTheDev/cgconsole/models"
	"github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"
)

type fakeBackend struct {
	mu         sync.Mutex
	commits    []string
	patches    map[string]string
	executed   []models.DetectionJobRequest
	execErr    error
	status     models.DetectionStatus
	projects   []models.ProjectRecord
	bugs       []models.BugRecord
	bugsErr    error
	registered []models.NewProject
	updated    []models.BugUpdate
	// ctxs holds the context of every Search and Projects call.
	ctxs []context.Context
}

func (f *fakeBackend) seen(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctxs = append(f.ctxs, ctx)
}

func (f *fakeBackend) Search(ctx context.Context, _, _ string) (api.SearchResult, error) {
	f.seen(ctx)
	return api.SearchResult{Commits: f.commits, Patch: "P"}, nil
}

func (f *fakeBackend) ShowCommit(_ context.Context, _, commit string) (string, error) {
	return f.patches[commit], nil
}

func (f *fakeBackend) Execute(_ context.Context, req models.DetectionJobRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.executed = append(f.executed, req)
	return f.execErr
}

func (f *fakeBackend) Status(context.Context) (models.DetectionStatus, error) {
	return f.status, nil
}

func (f *fakeBackend) Ping(context.Context) error { return nil }

func (f *fakeBackend) Projects(ctx context.Context) ([]models.ProjectRecord, error) {
	f.seen(ctx)
	return f.projects, nil
}

func (f *fakeBackend) Bugs(context.Context) ([]models.BugRecord, error) {
	return f.bugs, f.bugsErr
}

func (f *fakeBackend) RegisterProject(_ context.Context, p models.NewProject) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, p)
	return nil
}

func (f *fakeBackend) UpdateBug(_ context.Context, u models.BugUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, u)
	return nil
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newBackend() *fakeBackend {
	return &fakeBackend{
		commits: []string{"c1", "c2"},
		patches: map[string]string{"c1": "patch one", "c2": "patch two"},
		status:  models.DetectionStatus{Logs: "started\n"},
	}
}

func newTestApp(t *testing.T, fb *fakeBackend) *App {
	t.Helper()
	cfg := &config.Config{
		Backend:   config.BackendConfig{URL: "http://backend.test", APIPrefix: "/api/v1"},
		Detection: config.DetectionConfig{DefaultMethod: "simian"},
	}
	poller := workflow.NewPoller(fb, time.Second, workflow.WithClock(testingclock.NewFakeClock(time.Now())))
	a := NewApp(cfg, fb, workflow.NewLauncher(fb), poller)
	t.Cleanup(a.results.leave)
	_, _ = a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return a
}

// searchPrepare runs a search for CVE-1 in proj through the key bindings.
func searchPrepare(t *testing.T, p PrepareModel) PrepareModel {
	t.Helper()
	m, _ := p.Update(key("/"))
	p = m.(PrepareModel)
	require.True(t, p.Editing())
	p.bug.SetValue("CVE-1")
	m, _ = p.Update(key("enter"))
	p = m.(PrepareModel)
	p.project.SetValue("proj")
	m, cmd := p.Update(key("enter"))
	p = m.(PrepareModel)
	require.False(t, p.Editing())
	require.NotNil(t, cmd)

	m, _ = p.Update(cmd())
	return m.(PrepareModel)
}

func TestPrepareSearchThenSelect(t *testing.T) {
	fb := newBackend()
	p := NewPrepareModel(workflow.NewSession(fb), workflow.NewLauncher(fb), "blockscope")
	p = searchPrepare(t, p)

	assert.Equal(t, []string{"c1", "c2"}, p.prep.Candidates)
	assert.Equal(t, "c1", p.prep.Active)
	assert.Equal(t, "P", p.patch.Value())

	m, _ := p.Update(key("j"))
	m, cmd := m.(PrepareModel).Update(key("enter"))
	p = m.(PrepareModel)
	assert.Equal(t, "c2", p.selecting)
	require.NotNil(t, cmd)

	m, _ = p.Update(cmd())
	p = m.(PrepareModel)
	assert.Equal(t, "c2", p.prep.Active)
	assert.Equal(t, "patch two", p.patch.Value())
	assert.Empty(t, p.selecting)
	assert.Equal(t, []string{"c1", "c2"}, p.prep.Candidates)
}

func TestPrepareEmptySearchKeepsState(t *testing.T) {
	fb := newBackend()
	p := NewPrepareModel(workflow.NewSession(fb), workflow.NewLauncher(fb), "blockscope")
	p = searchPrepare(t, p)

	fb.commits = nil
	m, _ := p.Update(key("/"))
	p = m.(PrepareModel)
	m, _ = p.Update(key("enter"))
	m, cmd := m.(PrepareModel).Update(key("enter"))
	p = m.(PrepareModel)

	m, toast := p.Update(cmd())
	p = m.(PrepareModel)
	require.NotNil(t, toast)
	msg, ok := toast().(toastMsg)
	require.True(t, ok)
	assert.Equal(t, toastInfo, msg.level)
	assert.Equal(t, []string{"c1", "c2"}, p.prep.Candidates)
	assert.Equal(t, "P", p.patch.Value())
}

func TestPrepareStaleSelectionIgnored(t *testing.T) {
	fb := newBackend()
	p := NewPrepareModel(workflow.NewSession(fb), workflow.NewLauncher(fb), "blockscope")
	p = searchPrepare(t, p)

	m, cmd := p.Update(selectDoneMsg{commit: "c1", err: fmt.Errorf("wrapped: %w", workflow.ErrStale)})
	p = m.(PrepareModel)
	assert.Nil(t, cmd)
	assert.Equal(t, "P", p.patch.Value())
}

func TestSubmitNavigatesToResultsAndLeavingStopsPolling(t *testing.T) {
	fb := newBackend()
	a := newTestApp(t, fb)

	_, _ = a.Update(key("2"))
	require.Equal(t, TabPrepare, a.activeTab)
	a.prepare = searchPrepare(t, a.prepare)

	_, cmd := a.Update(key("x"))
	require.NotNil(t, cmd)
	_, _ = a.Update(cmd())

	require.Len(t, fb.executed, 1)
	req := fb.executed[0]
	assert.Equal(t, models.MethodSimian, req.Method)
	assert.Equal(t, "", req.Date)
	assert.Equal(t, "P", req.Patch)
	assert.Equal(t, TabResults, a.activeTab)
	assert.Equal(t, toastOK, a.statusLevel)
	require.True(t, a.results.Polling())
	assert.Equal(t, workflow.Polling, a.results.poller.State())

	select {
	case st := <-a.results.sub.Snapshots():
		_, _ = a.Update(snapshotMsg{sub: a.results.sub, status: st})
	case <-time.After(2 * time.Second):
		t.Fatal("no status snapshot")
	}
	assert.Equal(t, "started\n", a.results.status.Logs)

	_, _ = a.Update(key("1"))
	assert.Equal(t, TabOverview, a.activeTab)
	assert.False(t, a.results.Polling())
	assert.Equal(t, workflow.Idle, a.results.poller.State())
}

func TestSubmitFailureStillNavigates(t *testing.T) {
	fb := newBackend()
	fb.execErr = errors.New("backend rejected job")
	a := newTestApp(t, fb)
	_, _ = a.Update(key("2"))
	a.prepare = searchPrepare(t, a.prepare)

	_, cmd := a.Update(key("x"))
	_, _ = a.Update(cmd())

	assert.Equal(t, TabResults, a.activeTab)
	assert.Equal(t, toastError, a.statusLevel)
	assert.Contains(t, a.statusMsg, "backend rejected job")
}

func TestSubmitValidationFailureStaysOnPrepare(t *testing.T) {
	fb := newBackend()
	a := newTestApp(t, fb)
	_, _ = a.Update(key("2"))
	a.prepare = searchPrepare(t, a.prepare)
	a.prepare.method.SetValue("bogus")

	_, cmd := a.Update(key("x"))
	_, toast := a.Update(cmd())

	assert.Empty(t, fb.executed)
	assert.Equal(t, TabPrepare, a.activeTab)
	assert.False(t, a.results.Polling())
	require.NotNil(t, toast)
}

func TestEditingCapturesNavigationKeys(t *testing.T) {
	a := newTestApp(t, newBackend())
	_, _ = a.Update(key("n"))
	require.True(t, a.overview.Editing())

	_, _ = a.Update(key("2"))
	assert.Equal(t, TabOverview, a.activeTab)

	_, _ = a.Update(key("esc"))
	assert.False(t, a.overview.Editing())
	_, _ = a.Update(key("2"))
	assert.Equal(t, TabPrepare, a.activeTab)
}

func TestResultsLogsFollowNewOutput(t *testing.T) {
	r := NewResultsModel(nil)
	r.SetSize(80, 16)

	long := strings.Repeat("line\n", 50)
	r = r.apply(models.DetectionStatus{Logs: long})
	assert.True(t, r.logs.AtBottom())

	r.logs.GotoTop()
	r = r.apply(models.DetectionStatus{Logs: long})
	assert.False(t, r.logs.AtBottom(), "unchanged logs keep the scroll position")

	r = r.apply(models.DetectionStatus{Logs: long + "more\n", Results: []models.DetectionResultRow{
		{ProjectName: "P", Vulnerable: true, Confidence: 0.9, Location: "a.c:1"},
	}})
	assert.True(t, r.logs.AtBottom())
	assert.Len(t, r.status.Results, 1)
}

func TestResultsIgnoresSnapshotsFromOldSubscription(t *testing.T) {
	r := NewResultsModel(nil)
	m, cmd := r.Update(snapshotMsg{sub: &workflow.Subscription{}, status: models.DetectionStatus{Logs: "old"}})
	assert.Nil(t, cmd)
	assert.Empty(t, m.(ResultsModel).status.Logs)
}

func TestOverviewLoad(t *testing.T) {
	fb := newBackend()
	fb.projects = []models.ProjectRecord{{Name: "openssl"}, {Name: "libressl", Parent: "openssl"}}
	fb.bugs = []models.BugRecord{{ID: "CVE-1", FixCommits: []string{"c1"}}}

	o := NewOverviewModel(fb)
	m, _ := o.Update(o.Init()())
	o = m.(OverviewModel)
	assert.False(t, o.loading)
	assert.Len(t, o.projects, 2)
	assert.Len(t, o.bugs, 1)
	assert.Contains(t, o.View(), "openssl")

	fb.bugsErr = errors.New("down")
	m, toast := o.Update(o.Init()())
	o = m.(OverviewModel)
	require.NotNil(t, toast)
	assert.Equal(t, toastError, toast().(toastMsg).level)
	assert.Len(t, o.projects, 2, "failed reload keeps the previous tables")
}

func TestOverviewRegisterForm(t *testing.T) {
	fb := newBackend()
	o := NewOverviewModel(fb)

	m, _ := o.Update(key("n"))
	o = m.(OverviewModel)
	require.Equal(t, formRegister, o.form)
	o.inputs[0].SetValue("https://github.com/openssl/openssl")
	o.inputs[1].SetValue("C")

	m, _ = o.Update(key("enter"))
	m, _ = m.(OverviewModel).Update(key("enter"))
	m, cmd := m.(OverviewModel).Update(key("enter"))
	o = m.(OverviewModel)
	assert.False(t, o.Editing())
	require.NotNil(t, cmd)

	saved, ok := cmd().(overviewSavedMsg)
	require.True(t, ok)
	require.NoError(t, saved.err)
	require.Len(t, fb.registered, 1)
	assert.Equal(t, models.NewProject{URL: "https://github.com/openssl/openssl", Language: "C"}, fb.registered[0])
}

func TestOverviewUpdateBugKeepsPatch(t *testing.T) {
	fb := newBackend()
	fb.bugs = []models.BugRecord{{ID: "CVE-1", FixCommits: []string{"c1"}, Patch: "old patch"}}
	o := NewOverviewModel(fb)
	m, _ := o.Update(o.Init()())
	m, _ = m.(OverviewModel).Update(key("b"))
	m, _ = m.(OverviewModel).Update(key("u"))
	o = m.(OverviewModel)
	require.Equal(t, formUpdateBug, o.form)
	assert.Equal(t, "CVE-1", o.inputs[0].Value())
	assert.Equal(t, "c1", o.inputs[1].Value())

	for range o.inputs[1:] {
		m, _ = o.Update(key("enter"))
		o = m.(OverviewModel)
	}
	m, cmd := o.Update(key("enter"))
	require.NotNil(t, cmd)
	saved := cmd().(overviewSavedMsg)
	require.NoError(t, saved.err)
	require.Len(t, fb.updated, 1)
	assert.Equal(t, models.BugUpdate{ID: "CVE-1", FixCommit: "c1", Method: models.MethodBlockScope, Patch: "old patch"}, fb.updated[0])
	assert.False(t, m.(OverviewModel).Editing())
}

func TestPrepareSelectsCommitOutsideCandidates(t *testing.T) {
	fb := newBackend()
	fb.patches["deadbeef"] = "custom patch"
	p := NewPrepareModel(workflow.NewSession(fb), workflow.NewLauncher(fb), "blockscope")
	p = searchPrepare(t, p)

	m, _ := p.Update(key("c"))
	p = m.(PrepareModel)
	require.True(t, p.Editing())
	assert.Equal(t, "c1", p.commit.Value(), "prefilled with the active commit")

	p.commit.SetValue("deadbeef")
	m, cmd := p.Update(key("enter"))
	p = m.(PrepareModel)
	assert.False(t, p.Editing())
	require.NotNil(t, cmd)

	m, _ = p.Update(cmd())
	p = m.(PrepareModel)
	assert.Equal(t, "deadbeef", p.prep.Active)
	assert.Equal(t, "custom patch", p.patch.Value())
	assert.Equal(t, []string{"c1", "c2"}, p.prep.Candidates)

	m, cmd = p.Update(key("x"))
	require.NotNil(t, cmd)
	_, _ = m.(PrepareModel).Update(cmd())
	require.Len(t, fb.executed, 1)
	assert.Equal(t, "deadbeef", fb.executed[0].Commit)
	assert.Equal(t, "custom patch", fb.executed[0].Patch)
}

func TestPrepareCommitInputNeedsSearch(t *testing.T) {
	fb := newBackend()
	p := NewPrepareModel(workflow.NewSession(fb), workflow.NewLauncher(fb), "blockscope")

	m, cmd := p.Update(key("c"))
	assert.False(t, m.(PrepareModel).Editing())
	require.NotNil(t, cmd)
	assert.Equal(t, toastInfo, cmd().(toastMsg).level)
}

func TestBackendCallsUseAppContext(t *testing.T) {
	fb := newBackend()
	a := newTestApp(t, fb)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a.bind(ctx)

	_ = a.overview.Init()()
	_, _ = a.Update(key("2"))
	a.prepare = searchPrepare(t, a.prepare)

	require.Len(t, fb.ctxs, 2)
	for _, c := range fb.ctxs {
		assert.ErrorIs(t, c.Err(), context.Canceled)
	}
}
