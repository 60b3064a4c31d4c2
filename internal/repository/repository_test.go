package repository

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/CosmoTheDev/cgconsole/internal/config"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	gogithub "github.com/google/go-github/v68/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

func TestParseURL(t *testing.T) {
	target, err := ParseURL("https://github.com/openssl/openssl.git")
	require.NoError(t, err)
	assert.Equal(t, Target{Host: "github.com", Owner: "openssl", Name: "openssl"}, target)
	assert.Equal(t, "openssl/openssl", target.FullName())

	_, err = ParseURL("not a url")
	assert.Error(t, err)
}

func githubTestSource(t *testing.T, handler http.HandlerFunc) *GitHubSource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := gogithub.NewClient(nil).WithEnterpriseURLs(srv.URL+"/", srv.URL+"/")
	require.NoError(t, err)
	return &GitHubSource{client: client}
}

func TestGitHubLanguage(t *testing.T) {
	src := githubTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/repos/openssl/openssl", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"openssl","language":"C"}`))
	})

	d := &LanguageDetector{sources: map[string]languageSource{"github.com": src}}
	lang, err := d.Detect(context.Background(), "https://github.com/openssl/openssl")
	require.NoError(t, err)
	assert.Equal(t, "C", lang)
}

func TestGitLabLanguagePicksLargestShare(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/languages"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Perl": 12.5, "C": 80.1, "Shell": 7.4}`))
	}))
	defer srv.Close()

	src, err := newGitLabClient("", gitlab.WithBaseURL(srv.URL+"/api/v4/"))
	require.NoError(t, err)
	lang, err := src.Language(context.Background(), "gnutls", "gnutls")
	require.NoError(t, err)
	assert.Equal(t, "C", lang)
}

func TestDetectUnsupportedHost(t *testing.T) {
	d := &LanguageDetector{sources: map[string]languageSource{}}
	_, err := d.Detect(context.Background(), "https://github.com/openssl/openssl")
	assert.True(t, errors.Is(err, ErrUnsupportedHost))
}

func TestNewLanguageDetectorDefaults(t *testing.T) {
	d, err := NewLanguageDetector(config.GitConfig{
		GitHub: []config.GitHubConfig{{Token: "t", Host: "github.example.com"}},
	})
	require.NoError(t, err)
	for _, host := range []string{"github.com", "gitlab.com", "github.example.com"} {
		assert.Contains(t, d.sources, host)
	}
}

func commitFile(t *testing.T, wt *gogit.Worktree, dir, content, msg string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib.c"), []byte(content), 0o600))
	_, err := wt.Add("lib.c")
	require.NoError(t, err)
	_, err = wt.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{Name: "dev", Email: "dev@example.com", When: time.Now()},
	})
	require.NoError(t, err)
}

func TestCommitPatch(t *testing.T) {
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	commitFile(t, wt, dir, "int len = payload;\n", "initial")
	commitFile(t, wt, dir, "int len = min(payload, max);\n", "fix overread")

	opened, err := Open(context.Background(), dir, "")
	require.NoError(t, err)

	patch, err := CommitPatch(opened, "HEAD")
	require.NoError(t, err)
	assert.Contains(t, patch, "-int len = payload;")
	assert.Contains(t, patch, "+int len = min(payload, max);")

	root, err := CommitPatch(opened, "HEAD~1")
	require.NoError(t, err)
	assert.Contains(t, root, "+int len = payload;")

	_, err = CommitPatch(opened, "deadbeef")
	assert.Error(t, err)
}
