package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/CosmoTheDev/cgconsole/internal/config"
	"github.com/CosmoTheDev/cgconsole/internal/workflow"
	"github.com/CosmoTheDev/cgconsole/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactedMasksSecretsWithoutTouchingConfig(t *testing.T) {
	cfg := config.Config{
		Git: config.GitConfig{
			GitHub: []config.GitHubConfig{{Token: "ghp_real"}, {Host: "github.example.com"}},
			GitLab: []config.GitLabConfig{{Token: "glpat-real"}},
		},
		Notify: config.NotifyConfig{
			Slack:    config.SlackNotifyConfig{WebhookURL: "https://hooks.slack.com/services/T/B/X"},
			Telegram: config.TelegramNotifyConfig{BotToken: "123:abc", ChatID: "42"},
			Email:    config.EmailNotifyConfig{Password: "hunter2", Username: "ops"},
			Webhook:  config.WebhookNotifyConfig{URL: "https://hook.example", Secret: "s3cret"},
		},
	}

	out := redacted(cfg)

	assert.Equal(t, "ghp-***", out.Git.GitHub[0].Token)
	assert.Empty(t, out.Git.GitHub[1].Token, "empty secrets stay empty")
	assert.Equal(t, "glpat-***", out.Git.GitLab[0].Token)
	assert.Equal(t, "https://hooks.slack.com/***", out.Notify.Slack.WebhookURL)
	assert.Equal(t, "tg-***", out.Notify.Telegram.BotToken)
	assert.Equal(t, "42", out.Notify.Telegram.ChatID)
	assert.Equal(t, "***", out.Notify.Email.Password)
	assert.Equal(t, "ops", out.Notify.Email.Username)
	assert.Equal(t, "***", out.Notify.Webhook.Secret)
	assert.Equal(t, "https://hook.example", out.Notify.Webhook.URL)

	assert.Equal(t, "ghp_real", cfg.Git.GitHub[0].Token)
	assert.Equal(t, "glpat-real", cfg.Git.GitLab[0].Token)
}

func TestTokenFor(t *testing.T) {
	git := config.GitConfig{
		GitHub: []config.GitHubConfig{{Token: "gh-token"}},
		GitLab: []config.GitLabConfig{{Token: "gl-token"}},
	}
	assert.Equal(t, "gh-token", tokenFor(git, "https://github.com/openssl/openssl"))
	assert.Equal(t, "gl-token", tokenFor(git, "https://gitlab.com/gnutls/gnutls"))
	assert.Empty(t, tokenFor(git, "/home/me/src/openssl"))
}

func TestSameStatus(t *testing.T) {
	row := models.DetectionResultRow{ProjectName: "libfoo", Confidence: 0.9, Location: "a.c:10"}
	a := models.DetectionStatus{Logs: "started\n", Results: []models.DetectionResultRow{row}}
	b := models.DetectionStatus{Logs: "started\n", Results: []models.DetectionResultRow{row}}
	assert.True(t, sameStatus(a, b))

	b.Logs += "done\n"
	assert.False(t, sameStatus(a, b))

	c := models.DetectionStatus{Logs: a.Logs, Results: []models.DetectionResultRow{{ProjectName: "libfoo", Confidence: 0.5, Location: "a.c:10"}}}
	assert.False(t, sameStatus(a, c))
	assert.False(t, sameStatus(a, models.DetectionStatus{Logs: a.Logs}))
}

func TestSetFirst(t *testing.T) {
	assert.Nil(t, setFirst([]config.GitHubConfig(nil), config.GitHubConfig{}))
	assert.Equal(t, []config.GitHubConfig{{Token: "t"}}, setFirst(nil, config.GitHubConfig{Token: "t"}))

	list := []config.GitLabConfig{{Token: "old"}, {Token: "second", Host: "gl.example"}}
	got := setFirst(list, config.GitLabConfig{Token: "new"})
	assert.Equal(t, []config.GitLabConfig{{Token: "new"}, {Token: "second", Host: "gl.example"}}, got)
}

func TestFormValidators(t *testing.T) {
	assert.NoError(t, positiveInt(" 5 "))
	assert.Error(t, positiveInt("0"))
	assert.Error(t, positiveInt("five"))

	assert.Error(t, requireText("bug")("  "))
	assert.NoError(t, requireText("bug")("CVE-2014-0160"))

	assert.Equal(t, 30, parseIntOrDefault("", 30))
	assert.Equal(t, 0.75, parseFloatOrZero("0.75"))
	assert.Zero(t, parseFloatOrZero("abc"))
}

func TestShortCommit(t *testing.T) {
	assert.Equal(t, "96db9023b881", shortCommit("96db9023b881d7cd9f379b0c154650d6c108e9a3"))
	assert.Equal(t, "96db902", shortCommit("96db902"))
}

type stubExecutor struct {
	err error
	got []models.DetectionJobRequest
}

func (s *stubExecutor) Execute(ctx context.Context, req models.DetectionJobRequest) error {
	s.got = append(s.got, req)
	return s.err
}

func submitted(t *testing.T, execErr error) workflow.Outcome {
	t.Helper()
	exec := &stubExecutor{err: execErr}
	out, err := workflow.NewLauncher(exec).Submit(context.Background(), workflow.Form{
		BugID: "CVE-2014-0160", Project: "openssl", Commit: "96db902", Patch: "P", Method: "blockscope",
	})
	require.NoError(t, err)
	require.Len(t, exec.got, 1)
	return out
}

func TestAfterSubmitFollowsRejectedSubmission(t *testing.T) {
	rejected := errors.New("backend said no")
	out := submitted(t, rejected)
	require.Equal(t, workflow.ViewMonitoring, out.View)

	followed := 0
	err := afterSubmit(out, true, func() error { followed++; return nil })

	assert.Equal(t, 1, followed, "a rejected job is still monitored")
	assert.ErrorIs(t, err, rejected, "the rejection still fails the command")
}

func TestAfterSubmitWithoutWatch(t *testing.T) {
	followed := 0
	follow := func() error { followed++; return nil }

	assert.NoError(t, afterSubmit(submitted(t, nil), false, follow))
	rejected := errors.New("backend said no")
	assert.ErrorIs(t, afterSubmit(submitted(t, rejected), false, follow), rejected)
	assert.Zero(t, followed)
}

func TestAfterSubmitFollowError(t *testing.T) {
	broken := errors.New("poller failed")
	err := afterSubmit(submitted(t, nil), true, func() error { return broken })
	assert.ErrorIs(t, err, broken)
}
