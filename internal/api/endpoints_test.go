package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/CosmoTheDev/cgconsole/internal/config"
	"github.com/CosmoTheDev/cgconsole/models"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBase = "http://backend.test/api/v1"

func newMockedClient(t *testing.T) *Client {
	t.Helper()
	c := New(config.BackendConfig{URL: "http://backend.test", APIPrefix: "/api/v1"})
	httpmock.ActivateNonDefault(c.http.GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

// captureBody registers a POST responder that stores the decoded request body.
func captureBody(t *testing.T, path, response string, into *map[string]any) {
	t.Helper()
	httpmock.RegisterResponder(http.MethodPost, testBase+path,
		func(req *http.Request) (*http.Response, error) {
			raw, err := io.ReadAll(req.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(raw, into))
			return httpmock.NewStringResponse(http.StatusOK, response), nil
		})
}

func TestPing(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, testBase+PathPing,
		httpmock.NewStringResponder(http.StatusOK, `{"pong":true}`))

	require.NoError(t, c.Ping(context.Background()))
}

func TestProjects(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, testBase+PathProjects,
		httpmock.NewStringResponder(http.StatusOK, `{"projects":[
			{"index":0,"name":"openssl","owner":"openssl","language":"C","parent":null},
			{"index":1,"name":"libressl","owner":"libressl","language":"C","parent":"openssl"}]}`))

	projects, err := c.Projects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "openssl", projects[0].Name)
	assert.Empty(t, projects[0].Parent)
	assert.Equal(t, "openssl", projects[1].Parent)
}

func TestBugsDecodesFixCommitsAndText(t *testing.T) {
	c := newMockedClient(t)
	patch := EncodeText("-old\n+new\n")
	httpmock.RegisterResponder(http.MethodGet, testBase+PathBugs,
		httpmock.NewStringResponder(http.StatusOK, `{"bugs":[
			{"index":0,"id":"CVE-2014-0160","fix_commit":"['a1b2', 'c3d4']","patch":"`+patch+`","code":"","verified":true},
			{"index":1,"id":"CVE-2016-2105","fix_commit":["e5f6"],"patch":"","code":"","verified":false},
			{"index":2,"id":"CVE-2020-1967","fix_commit":"","patch":"","code":"","verified":false}]}`))

	bugs, err := c.Bugs(context.Background())
	require.NoError(t, err)
	require.Len(t, bugs, 3)
	assert.Equal(t, []string{"a1b2", "c3d4"}, bugs[0].FixCommits)
	assert.Equal(t, "-old\n+new\n", bugs[0].Patch)
	assert.True(t, bugs[0].Verified)
	assert.Equal(t, []string{"e5f6"}, bugs[1].FixCommits)
	assert.Empty(t, bugs[2].FixCommits)
}

func TestUpdateBugPayload(t *testing.T) {
	c := newMockedClient(t)
	var body map[string]any
	captureBody(t, PathUpdateBug, `{"version":"1.0"}`, &body)

	err := c.UpdateBug(context.Background(), models.BugUpdate{
		ID: "CVE-1", Patch: "diff", FixCommit: "abc", Method: models.MethodSimian,
	})
	require.NoError(t, err)
	assert.Equal(t, "CVE-1", body["id"])
	assert.Equal(t, []any{"abc"}, body["fix_commit"])
	assert.Equal(t, EncodeText("diff"), body["patch"])
	assert.Equal(t, "simian", body["method"])

	captureBody(t, PathUpdateBug, `{"version":"1.0"}`, &body)
	require.NoError(t, c.UpdateBug(context.Background(), models.BugUpdate{ID: "CVE-1", Method: models.MethodBlockScope}))
	assert.Equal(t, "", body["fix_commit"])
}

func TestRegisterProjectFailure(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodPost, testBase+PathRegister,
		httpmock.NewStringResponder(http.StatusOK, `{"version":"1.0","error":{"code":"E_DUP","message":"already registered"}}`))

	err := c.RegisterProject(context.Background(), models.NewProject{URL: "https://github.com/openssl/openssl", Language: "C"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestSearchDecodesPatch(t *testing.T) {
	c := newMockedClient(t)
	var body map[string]any
	captureBody(t, PathSearch,
		`{"search_result":{"commits":["c1","c2","c3"],"patch":"`+EncodeText("P")+`"}}`, &body)

	got, err := c.Search(context.Background(), "CVE-1", "proj")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2", "c3"}, got.Commits)
	assert.Equal(t, "P", got.Patch)
	assert.Equal(t, map[string]any{"bug_id": "CVE-1", "project_name": "proj"}, body)
}

func TestShowCommit(t *testing.T) {
	c := newMockedClient(t)
	var body map[string]any
	captureBody(t, PathShowCommit, `{"commit":{"patch":"`+EncodeText("Q")+`"}}`, &body)

	patch, err := c.ShowCommit(context.Background(), "proj", "c2")
	require.NoError(t, err)
	assert.Equal(t, "Q", patch)
	assert.Equal(t, "proj", body["project_name"])
	assert.Equal(t, "c2", body["commit"])
}

func TestExecuteEncodesPatch(t *testing.T) {
	c := newMockedClient(t)
	var body map[string]any
	captureBody(t, PathExecute, `{"version":"1.0"}`, &body)

	err := c.Execute(context.Background(), models.DetectionJobRequest{
		BugID: "CVE-1", ProjectName: "proj", Commit: "c1", Patch: "raw", Method: models.MethodSimian,
	})
	require.NoError(t, err)
	assert.Equal(t, EncodeText("raw"), body["patch"])
	assert.Equal(t, "simian", body["method"])
	assert.Equal(t, "", body["date"])
}

func TestStatusVariants(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, testBase+PathStatus,
		httpmock.NewStringResponder(http.StatusOK, `{"status":{"logs":"line1\nline2","detection_results":[
			{"project_name":"P","vulnerable":"True","confidence":0.8,"location":"src/a.c:12"},
			{"project_name":"Q","vulnerable":false,"confidence":1.5,"location":"b.c:3"}]}}`))

	st, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "line1\nline2", st.Logs)
	require.Len(t, st.Results, 2)
	assert.True(t, bool(st.Results[0].Vulnerable))
	assert.Equal(t, "src/a.c", st.Results[0].File())
	assert.Equal(t, 12, st.Results[0].Line())
	assert.False(t, bool(st.Results[1].Vulnerable))

	httpmock.RegisterResponder(http.MethodGet, testBase+PathStatus,
		httpmock.NewStringResponder(http.StatusOK, `{"status":{"logs":"","detection_results":"[]"}}`))
	st, err = c.Status(context.Background())
	require.NoError(t, err)
	assert.Empty(t, st.Results)
}

func TestStatusIdempotent(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, testBase+PathStatus,
		httpmock.NewStringResponder(http.StatusOK, `{"status":{"logs":"x","detection_results":[
			{"project_name":"P","vulnerable":"True","confidence":0.8,"location":"f:1"}]}}`))

	first, err := c.Status(context.Background())
	require.NoError(t, err)
	second, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
}
