package repository

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"
)

// Open returns the repository at src. A local directory is opened in place;
// anything else is treated as a remote URL and cloned into memory, with
// token used for HTTPS authentication.
func Open(ctx context.Context, src, token string) (*gogit.Repository, error) {
	if info, err := os.Stat(src); err == nil && info.IsDir() {
		repo, err := gogit.PlainOpenWithOptions(src, &gogit.PlainOpenOptions{DetectDotGit: true})
		if err != nil {
			return nil, fmt.Errorf("opening repository %s: %w", src, err)
		}
		return repo, nil
	}

	opts := &gogit.CloneOptions{URL: src}
	if token != "" {
		opts.Auth = &githttp.BasicAuth{Username: "cgconsole", Password: token}
	}
	slog.Debug("Cloning repository", "url", src)
	repo, err := gogit.CloneContext(ctx, memory.NewStorage(), nil, opts)
	if err != nil {
		return nil, fmt.Errorf("cloning %s: %w", src, err)
	}
	return repo, nil
}

// CommitPatch returns the unified diff that rev introduced relative to its
// first parent. A root commit is diffed against the empty tree.
func CommitPatch(repo *gogit.Repository, rev string) (string, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", rev, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return "", fmt.Errorf("loading commit %s: %w", hash, err)
	}

	if commit.NumParents() > 0 {
		parent, err := commit.Parent(0)
		if err != nil {
			return "", fmt.Errorf("loading parent of %s: %w", hash, err)
		}
		patch, err := parent.Patch(commit)
		if err != nil {
			return "", fmt.Errorf("diffing %s: %w", hash, err)
		}
		return patch.String(), nil
	}

	tree, err := commit.Tree()
	if err != nil {
		return "", fmt.Errorf("loading tree of %s: %w", hash, err)
	}
	changes, err := object.DiffTree(nil, tree)
	if err != nil {
		return "", fmt.Errorf("diffing %s: %w", hash, err)
	}
	patch, err := changes.Patch()
	if err != nil {
		return "", fmt.Errorf("diffing %s: %w", hash, err)
	}
	return patch.String(), nil
}
