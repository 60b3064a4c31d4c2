package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/CosmoTheDev/cgconsole/models"
)

// Ping checks that the backend is reachable and answering.
func (c *Client) Ping(ctx context.Context) error {
	res := c.FetchJSON(ctx, PathPing, nil)
	if !res.Success {
		return res.failure()
	}
	var pong pongResponse
	if err := decode(res, &pong); err != nil {
		return err
	}
	if !pong.Pong {
		return fmt.Errorf("%w: ping answered without pong", ErrRequestFailed)
	}
	return nil
}

// Projects lists the registered source projects.
func (c *Client) Projects(ctx context.Context) ([]models.ProjectRecord, error) {
	res := c.FetchJSON(ctx, PathProjects, nil)
	if !res.Success {
		return nil, res.failure()
	}
	var body projectsResponse
	if err := decode(res, &body); err != nil {
		return nil, err
	}
	return body.Projects, nil
}

// RegisterProject asks the backend to clone and index a new project.
func (c *Client) RegisterProject(ctx context.Context, p models.NewProject) error {
	res := c.PostJSON(ctx, PathRegister, p)
	if !res.Success {
		return res.failure()
	}
	return nil
}

// Bugs lists the tracked vulnerabilities with patch and code decoded.
func (c *Client) Bugs(ctx context.Context) ([]models.BugRecord, error) {
	res := c.FetchJSON(ctx, PathBugs, nil)
	if !res.Success {
		return nil, res.failure()
	}
	var body bugsResponse
	if err := decode(res, &body); err != nil {
		return nil, err
	}

	bugs := make([]models.BugRecord, 0, len(body.Bugs))
	for _, w := range body.Bugs {
		patch, err := decodeOptional(w.Patch)
		if err != nil {
			return nil, fmt.Errorf("bug %s patch: %w", w.ID, err)
		}
		code, err := decodeOptional(w.Code)
		if err != nil {
			return nil, fmt.Errorf("bug %s code: %w", w.ID, err)
		}
		bugs = append(bugs, models.BugRecord{
			Index:      w.Index,
			ID:         w.ID,
			FixCommits: []string(w.FixCommit),
			Patch:      patch,
			Code:       code,
			Verified:   w.Verified,
		})
	}
	return bugs, nil
}

// UpdateBug replaces a bug's fix commit and patch (or code, for simian).
func (c *Client) UpdateBug(ctx context.Context, u models.BugUpdate) error {
	req := updateBugRequest{
		ID:        u.ID,
		FixCommit: "",
		Patch:     EncodeText(u.Patch),
		Method:    u.Method.String(),
	}
	if u.FixCommit != "" {
		req.FixCommit = []string{u.FixCommit}
	}
	res := c.PostJSON(ctx, PathUpdateBug, req)
	if !res.Success {
		return res.failure()
	}
	return nil
}

// Search finds candidate fix commits for bugID in projectName.
func (c *Client) Search(ctx context.Context, bugID, projectName string) (SearchResult, error) {
	res := c.PostJSON(ctx, PathSearch, searchRequest{BugID: bugID, ProjectName: projectName})
	if !res.Success {
		return SearchResult{}, res.failure()
	}
	var body searchResponse
	if err := decode(res, &body); err != nil {
		return SearchResult{}, err
	}
	patch, err := decodeOptional(body.SearchResult.Patch)
	if err != nil {
		return SearchResult{}, fmt.Errorf("search patch: %w", err)
	}
	return SearchResult{Commits: body.SearchResult.Commits, Patch: patch}, nil
}

// ShowCommit returns the decoded patch introduced by commit.
func (c *Client) ShowCommit(ctx context.Context, projectName, commit string) (string, error) {
	res := c.PostJSON(ctx, PathShowCommit, showCommitRequest{ProjectName: projectName, Commit: commit})
	if !res.Success {
		return "", res.failure()
	}
	var body showCommitResponse
	if err := decode(res, &body); err != nil {
		return "", err
	}
	patch, err := decodeOptional(body.Commit.Patch)
	if err != nil {
		return "", fmt.Errorf("commit %s patch: %w", commit, err)
	}
	return patch, nil
}

// Execute submits a detection job. The request's Patch is raw text and is
// encoded here.
func (c *Client) Execute(ctx context.Context, req models.DetectionJobRequest) error {
	wire := req
	wire.Patch = EncodeText(req.Patch)
	res := c.PostJSON(ctx, PathExecute, wire)
	if !res.Success {
		return res.failure()
	}
	return nil
}

// Status fetches the current detection snapshot.
func (c *Client) Status(ctx context.Context) (models.DetectionStatus, error) {
	res := c.FetchJSON(ctx, PathStatus, nil)
	if !res.Success {
		return models.DetectionStatus{}, res.failure()
	}
	var body statusResponse
	if err := decode(res, &body); err != nil {
		return models.DetectionStatus{}, err
	}
	return models.DetectionStatus{
		Logs:    body.Status.Logs,
		Results: []models.DetectionResultRow(body.Status.DetectionResults),
	}, nil
}

func decode(res Result, v any) error {
	if err := json.Unmarshal(res.Data, v); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrRequestFailed, err)
	}
	return nil
}

func decodeOptional(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	return DecodeText(s)
}
