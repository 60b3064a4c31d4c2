package repository

import (
	"context"
	"fmt"
	"net/http"

	"github.com/CosmoTheDev/cgconsole/internal/config"
	gogithub "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

// GitHubSource reads repository metadata from GitHub and GitHub Enterprise.
type GitHubSource struct {
	client *gogithub.Client
}

// NewGitHub creates a GitHubSource. An empty token gives an anonymous client.
func NewGitHub(cfg config.GitHubConfig) (*GitHubSource, error) {
	var httpClient *http.Client
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	client := gogithub.NewClient(httpClient)

	if cfg.Host != "" && cfg.Host != "github.com" {
		base := fmt.Sprintf("https://%s/api/v3/", cfg.Host)
		upload := fmt.Sprintf("https://%s/api/uploads/", cfg.Host)
		var err error
		client, err = client.WithEnterpriseURLs(base, upload)
		if err != nil {
			return nil, fmt.Errorf("configuring GitHub enterprise URLs: %w", err)
		}
	}
	return &GitHubSource{client: client}, nil
}

func (g *GitHubSource) Name() string { return "github" }

func (g *GitHubSource) Language(ctx context.Context, owner, name string) (string, error) {
	r, _, err := g.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return "", fmt.Errorf("getting GitHub repo %s/%s: %w", owner, name, err)
	}
	return r.GetLanguage(), nil
}
