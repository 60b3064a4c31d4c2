package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/CosmoTheDev/cgconsole/models"
)

// Endpoint paths, relative to the client's base URL.
const (
	PathPing       = "/ping"
	PathProjects   = "/project/fetch_all"
	PathRegister   = "/project/register"
	PathBugs       = "/bug/fetch_all"
	PathUpdateBug  = "/bug/update"
	PathSearch     = "/detection/search"
	PathShowCommit = "/detection/show_commit"
	PathExecute    = "/detection/execute"
	PathStatus     = "/detection/status"
)

// SearchResult is the decoded response of a commit search.
type SearchResult struct {
	Commits []string
	// Patch is the bug's patch text, already base64-decoded.
	Patch string
}

type pongResponse struct {
	Pong bool `json:"pong"`
}

type projectsResponse struct {
	Projects []models.ProjectRecord `json:"projects"`
}

type bugWire struct {
	Index     int        `json:"index"`
	ID        string     `json:"id"`
	FixCommit commitList `json:"fix_commit"`
	Patch     string     `json:"patch"`
	Code      string     `json:"code"`
	Verified  bool       `json:"verified"`
}

type bugsResponse struct {
	Bugs []bugWire `json:"bugs"`
}

type updateBugRequest struct {
	ID string `json:"id"`
	// FixCommit is either a one-element list or "" when no commit is set.
	FixCommit any    `json:"fix_commit"`
	Patch     string `json:"patch"`
	Method    string `json:"method"`
}

type searchRequest struct {
	BugID       string `json:"bug_id"`
	ProjectName string `json:"project_name"`
}

type searchResponse struct {
	SearchResult struct {
		Commits []string `json:"commits"`
		Patch   string   `json:"patch"`
	} `json:"search_result"`
}

type showCommitRequest struct {
	ProjectName string `json:"project_name"`
	Commit      string `json:"commit"`
}

type showCommitResponse struct {
	Commit struct {
		Patch string `json:"patch"`
	} `json:"commit"`
}

type statusResponse struct {
	Status struct {
		Logs             string     `json:"logs"`
		DetectionResults resultRows `json:"detection_results"`
	} `json:"status"`
}

// commitList decodes fix_commit, which the backend stores either as a JSON
// array or as the textual rendering of a list such as "['a1b2', 'c3d4']".
type commitList []string

func (c *commitList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*c = nil
		return nil
	}
	if b[0] == '[' {
		var list []string
		if err := json.Unmarshal(b, &list); err != nil {
			return fmt.Errorf("fix_commit: %w", err)
		}
		*c = list
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("fix_commit: %w", err)
	}
	*c = parseCommitText(s)
	return nil
}

func parseCommitText(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.Trim(strings.TrimSpace(part), `'"`)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// resultRows accepts the detection_results array, or the string "[]" the
// backend emits before any run has produced results.
type resultRows []models.DetectionResultRow

func (r *resultRows) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*r = nil
		return nil
	}
	if b[0] == '"' {
		var inner string
		if err := json.Unmarshal(b, &inner); err != nil {
			return err
		}
		inner = strings.TrimSpace(inner)
		if inner == "" || inner == "[]" {
			*r = nil
			return nil
		}
		b = []byte(inner)
	}
	var rows []models.DetectionResultRow
	if err := json.Unmarshal(b, &rows); err != nil {
		return fmt.Errorf("detection_results: %w", err)
	}
	*r = rows
	return nil
}
