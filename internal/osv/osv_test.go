package osv

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const heartbleed = `{
  "id": "CVE-2014-0160",
  "summary": "TLS heartbeat read overrun",
  "aliases": ["GHSA-0000-1111-2222"],
  "severity": [
    {"type": "CVSS_V2", "score": "AV:N/AC:L/Au:N/C:P/I:N/A:N"},
    {"type": "CVSS_V3", "score": "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:N/A:N"}
  ],
  "affected": [{
    "package": {"name": "openssl", "ecosystem": "GIT"},
    "ranges": [{
      "type": "GIT",
      "repo": "https://github.com/openssl/openssl",
      "events": [{"introduced": "4817504d"}, {"fixed": "96db9023b881d7cd9f379b0c154650d6c108e9a3"}]
    }]
  }],
  "references": [
    {"type": "FIX", "url": "https://github.com/openssl/openssl/commit/96db9023b881d7cd9f379b0c154650d6c108e9a3"},
    {"type": "FIX", "url": "https://git.openssl.org/gitweb/?p=openssl.git;a=commit;h=731f431497f463f3a2a97236fe0187b11c44aead"},
    {"type": "WEB", "url": "https://heartbleed.com/"}
  ]
}`

func newMockedClient(t *testing.T) *Client {
	t.Helper()
	c := New(WithBaseURL("http://osv.test/v1"))
	httpmock.ActivateNonDefault(c.http.GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestGet(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, "http://osv.test/v1/vulns/CVE-2014-0160",
		httpmock.NewStringResponder(http.StatusOK, heartbleed))

	v, err := c.Get(context.Background(), "CVE-2014-0160")
	require.NoError(t, err)
	assert.Equal(t, "CVE-2014-0160", v.ID)
	assert.Equal(t, "TLS heartbeat read overrun", v.Summary)
	require.Len(t, v.Affected, 1)
	assert.Equal(t, "https://github.com/openssl/openssl", v.Affected[0].Ranges[0].Repo)
}

func TestGetWithJSONContentType(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, "http://osv.test/v1/vulns/CVE-2014-0160",
		func(req *http.Request) (*http.Response, error) {
			resp := httpmock.NewStringResponse(http.StatusOK, heartbleed)
			resp.Header.Set("Content-Type", "application/json")
			return resp, nil
		})

	v, err := c.Get(context.Background(), "CVE-2014-0160")
	require.NoError(t, err)
	assert.Equal(t, "CVE-2014-0160", v.ID)
	assert.Len(t, FixCommits(v), 2)
}

func TestGetRejectsNonJSONBody(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, "http://osv.test/v1/vulns/CVE-2014-0160",
		httpmock.NewStringResponder(http.StatusOK, "<html>maintenance</html>"))

	_, err := c.Get(context.Background(), "CVE-2014-0160")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestGetNotFound(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, "http://osv.test/v1/vulns/CVE-0000-0000",
		httpmock.NewStringResponder(http.StatusNotFound, `{"code":5,"message":"Bug not found."}`))

	_, err := c.Get(context.Background(), "CVE-0000-0000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetServerError(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, "http://osv.test/v1/vulns/CVE-2014-0160",
		httpmock.NewStringResponder(http.StatusInternalServerError, "boom"))

	_, err := c.Get(context.Background(), "CVE-2014-0160")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "HTTP 500")
}

func TestFixCommits(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, "http://osv.test/v1/vulns/CVE-2014-0160",
		httpmock.NewStringResponder(http.StatusOK, heartbleed))
	v, err := c.Get(context.Background(), "CVE-2014-0160")
	require.NoError(t, err)

	fixes := FixCommits(v)
	require.Len(t, fixes, 2, "the github FIX link repeats the range event and is dropped")
	assert.Equal(t, FixCommit{
		Repo:   "https://github.com/openssl/openssl",
		Commit: "96db9023b881d7cd9f379b0c154650d6c108e9a3",
		Source: "range",
	}, fixes[0])
	assert.Equal(t, "731f431497f463f3a2a97236fe0187b11c44aead", fixes[1].Commit)
	assert.Equal(t, "reference", fixes[1].Source)
}

func TestCommitFromURL(t *testing.T) {
	tests := []struct {
		url      string
		repo     string
		sha      string
		wantFind bool
	}{
		{"https://github.com/madler/zlib/commit/e54e1299404101a5a9d0cf5e45512b543967f958", "https://github.com/madler/zlib", "e54e1299404101a5a9d0cf5e45512b543967f958", true},
		{"https://gitlab.com/gnutls/gnutls/-/commit/abc1234", "https://gitlab.com/gnutls/gnutls", "abc1234", true},
		{"https://bitbucket.org/team/repo/commits/deadbeef/", "https://bitbucket.org/team/repo", "deadbeef", true},
		{"https://github.com/madler/zlib/pull/12", "", "", false},
		{"not a url", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			repo, sha, ok := commitFromURL(tt.url)
			assert.Equal(t, tt.wantFind, ok)
			assert.Equal(t, tt.repo, repo)
			assert.Equal(t, tt.sha, sha)
		})
	}
}

func TestCVEAndVector(t *testing.T) {
	v := Vuln{ID: "GHSA-0000-1111-2222", Aliases: []string{"GO-2024-1", "CVE-2024-1234"}}
	assert.Equal(t, "CVE-2024-1234", CVE(v))
	assert.Empty(t, CVE(Vuln{ID: "GHSA-x"}))
	assert.Empty(t, CVSSVector(v))

	v.Severity = []Severity{
		{Type: "CVSS_V3", Score: "CVSS:3.1/AV:N"},
		{Type: "CVSS_V2", Score: "AV:N"},
	}
	assert.Equal(t, "CVSS:3.1/AV:N", CVSSVector(v))
}
