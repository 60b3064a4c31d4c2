package repository

import (
	"context"
	"fmt"

	"github.com/CosmoTheDev/cgconsole/internal/config"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

// GitLabSource reads repository metadata from GitLab (cloud and self-hosted).
type GitLabSource struct {
	client *gitlab.Client
}

func NewGitLab(cfg config.GitLabConfig) (*GitLabSource, error) {
	opts := []gitlab.ClientOptionFunc{}
	if cfg.Host != "" && cfg.Host != "gitlab.com" {
		opts = append(opts, gitlab.WithBaseURL(fmt.Sprintf("https://%s/api/v4/", cfg.Host)))
	}
	return newGitLabClient(cfg.Token, opts...)
}

func newGitLabClient(token string, opts ...gitlab.ClientOptionFunc) (*GitLabSource, error) {
	client, err := gitlab.NewClient(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating GitLab client: %w", err)
	}
	return &GitLabSource{client: client}, nil
}

func (g *GitLabSource) Name() string { return "gitlab" }

// Language returns the language with the largest share of the project.
func (g *GitLabSource) Language(ctx context.Context, owner, name string) (string, error) {
	nameWithNS := owner + "/" + name
	langs, _, err := g.client.Projects.GetProjectLanguages(nameWithNS, gitlab.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("getting GitLab languages for %s: %w", nameWithNS, err)
	}
	if langs == nil {
		return "", nil
	}
	var best string
	var share float32
	for lang, pct := range *langs {
		if pct > share || (pct == share && lang < best) {
			best, share = lang, pct
		}
	}
	return best, nil
}
