// Package repository looks up metadata for source projects on their hosting
// platform and extracts commit patches from git repositories.
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/CosmoTheDev/cgconsole/internal/config"
	"github.com/gitsight/go-vcsurl"
)

// ErrUnsupportedHost is returned for URLs on hosts with no configured provider.
var ErrUnsupportedHost = errors.New("no provider for repository host")

// Target is a parsed repository URL.
type Target struct {
	Host  string
	Owner string
	Name  string
}

func (t Target) FullName() string { return t.Owner + "/" + t.Name }

// ParseURL parses HTTPS and SSH repository URLs.
func ParseURL(raw string) (Target, error) {
	info, err := vcsurl.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Target{}, fmt.Errorf("parsing repository URL %q: %w", raw, err)
	}
	t := Target{Host: string(info.Host), Owner: info.Username, Name: info.Name}
	if t.Owner == "" || t.Name == "" {
		return Target{}, fmt.Errorf("repository URL %q has no owner/name", raw)
	}
	return t, nil
}

// languageSource reports a repository's primary language.
type languageSource interface {
	Name() string
	Language(ctx context.Context, owner, name string) (string, error)
}

// LanguageDetector picks the hosting provider for a URL and asks it for the
// repository's primary language.
type LanguageDetector struct {
	sources map[string]languageSource // host → source
}

// NewLanguageDetector registers the configured GitHub and GitLab instances.
// github.com and gitlab.com are always available, unauthenticated when no
// token is configured for them.
func NewLanguageDetector(cfg config.GitConfig) (*LanguageDetector, error) {
	d := &LanguageDetector{sources: make(map[string]languageSource)}
	for _, gh := range cfg.GitHub {
		src, err := NewGitHub(gh)
		if err != nil {
			return nil, err
		}
		d.sources[hostOr(gh.Host, "github.com")] = src
	}
	for _, gl := range cfg.GitLab {
		src, err := NewGitLab(gl)
		if err != nil {
			return nil, err
		}
		d.sources[hostOr(gl.Host, "gitlab.com")] = src
	}
	if _, ok := d.sources["github.com"]; !ok {
		src, err := NewGitHub(config.GitHubConfig{})
		if err != nil {
			return nil, err
		}
		d.sources["github.com"] = src
	}
	if _, ok := d.sources["gitlab.com"]; !ok {
		src, err := NewGitLab(config.GitLabConfig{})
		if err != nil {
			return nil, err
		}
		d.sources["gitlab.com"] = src
	}
	return d, nil
}

// Detect returns the primary language of the repository at rawURL.
func (d *LanguageDetector) Detect(ctx context.Context, rawURL string) (string, error) {
	t, err := ParseURL(rawURL)
	if err != nil {
		return "", err
	}
	src, ok := d.sources[t.Host]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedHost, t.Host)
	}
	lang, err := src.Language(ctx, t.Owner, t.Name)
	if err != nil {
		return "", err
	}
	slog.Debug("repository: detected language", "provider", src.Name(), "repo", t.FullName(), "language", lang)
	return lang, nil
}

func hostOr(host, fallback string) string {
	if host == "" {
		return fallback
	}
	return host
}
