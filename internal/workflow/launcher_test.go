package workflow

import (
	"context"
	"testing"

	"github.com/CosmoTheDev/cgconsole/internal/api"
	"github.com/CosmoTheDev/cgconsole/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	sent []models.DetectionJobRequest
	err  error
}

func (f *fakeExecutor) Execute(_ context.Context, req models.DetectionJobRequest) error {
	f.sent = append(f.sent, req)
	return f.err
}

type journalEntry struct {
	req    models.DetectionJobRequest
	source string
	err    error
}

type fakeJournal struct {
	entries []journalEntry
}

func (f *fakeJournal) Record(_ context.Context, req models.DetectionJobRequest, source string, sendErr error) (string, error) {
	f.entries = append(f.entries, journalEntry{req, source, sendErr})
	return "id", nil
}

func baseForm() Form {
	return Form{BugID: "CVE-1", Project: "proj", Commit: "c1", Patch: "raw patch", Method: "simian"}
}

// Scenario C.
func TestSubmitNavigatesToMonitoringRegardlessOfResponse(t *testing.T) {
	for _, backendErr := range []error{nil, &api.Error{Code: "E", Message: "rejected"}} {
		exec := &fakeExecutor{err: backendErr}
		l := NewLauncher(exec)

		out, err := l.Submit(context.Background(), baseForm())
		require.NoError(t, err)
		assert.Equal(t, ViewMonitoring, out.View)
		require.Len(t, exec.sent, 1)
		assert.Equal(t, "", exec.sent[0].Date)
		assert.Equal(t, models.MethodSimian, exec.sent[0].Method)
		if backendErr != nil {
			assert.ErrorIs(t, out.Err, backendErr)
		} else {
			assert.NoError(t, out.Err)
		}
	}
}

func TestSubmitEncodesPatchOnTheWire(t *testing.T) {
	// The launcher hands raw text to the client, which encodes at send time.
	exec := &fakeExecutor{}
	out, err := NewLauncher(exec).Submit(context.Background(), baseForm())
	require.NoError(t, err)
	assert.Equal(t, "raw patch", out.Request.Patch)
	assert.Equal(t, "cmF3IHBhdGNo", api.EncodeText(out.Request.Patch))
}

func TestUnknownMethodPassThrough(t *testing.T) {
	exec := &fakeExecutor{}
	form := baseForm()
	form.Method = "fuzzy"

	out, err := NewLauncher(exec, WithPassThrough()).Submit(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, ViewMonitoring, out.View)
	require.Len(t, exec.sent, 1)
	assert.Equal(t, models.Method("fuzzy"), exec.sent[0].Method)
}

func TestUnknownMethodRejectedWhenStrict(t *testing.T) {
	exec := &fakeExecutor{}
	form := baseForm()
	form.Method = "fuzzy"

	out, err := NewLauncher(exec).Submit(context.Background(), form)
	require.ErrorIs(t, err, ErrUnknownMethod)
	assert.Equal(t, ViewPrepare, out.View)
	assert.Empty(t, exec.sent)
}

func TestSubmitJournalsWithSource(t *testing.T) {
	exec := &fakeExecutor{err: api.ErrRequestFailed}
	j := &fakeJournal{}
	_, err := NewLauncher(exec, WithJournal(j, "schedule")).Submit(context.Background(), baseForm())
	require.NoError(t, err)

	require.Len(t, j.entries, 1)
	assert.Equal(t, "schedule", j.entries[0].source)
	assert.ErrorIs(t, j.entries[0].err, api.ErrRequestFailed)
}

func TestInvalidDateNotSent(t *testing.T) {
	exec := &fakeExecutor{}
	form := baseForm()
	form.Date = "next tuesday"

	_, err := NewLauncher(exec).Submit(context.Background(), form)
	require.ErrorIs(t, err, ErrInvalidDate)
	assert.Empty(t, exec.sent)
}

func TestNormalizeDate(t *testing.T) {
	cases := map[string]string{
		"":                     "",
		"  ":                   "",
		"2021-03-04":           "2021-03-04",
		"2021-03-04T10:00:00Z": "2021-03-04",
		"2021/03/04":           "2021-03-04",
		"04.03.2021":           "2021-03-04",
	}
	for in, want := range cases {
		got, err := NormalizeDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := NormalizeDate("2021-13-40")
	assert.ErrorIs(t, err, ErrInvalidDate)
}
