// Package report renders detection status, projects, bugs and journal
// entries for the CLI in table, JSON, YAML or SARIF form.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/CosmoTheDev/cgconsole/models"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"go.yaml.in/yaml/v3"
)

// Supported output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatSARIF = "sarif"
)

// Meta names the job a status belongs to; it only decorates SARIF output.
type Meta struct {
	BugID   string
	Project string
}

// ParseFormat validates a --format value.
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON, FormatYAML, FormatSARIF:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (supported: table, json, yaml, sarif)", s)
	}
}

// Status writes st in the given format.
func Status(w io.Writer, format string, st models.DetectionStatus, meta Meta) error {
	switch format {
	case FormatJSON, FormatYAML:
		return Encode(w, format, st)
	case FormatSARIF:
		return writeSARIF(w, st, meta)
	}

	if st.Logs != "" {
		if _, err := fmt.Fprintln(w, strings.TrimRight(st.Logs, "\n")); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	if len(st.Results) == 0 {
		_, err := fmt.Fprintln(w, "No detection results yet.")
		return err
	}
	rows := make([][]string, 0, len(st.Results))
	for _, r := range st.Results {
		rows = append(rows, []string{r.ProjectName, verdict(r.Vulnerable), fmt.Sprintf("%.2f", r.Confidence), r.Location})
	}
	return Table(w, []string{"PROJECT", "VULNERABLE", "CONFIDENCE", "LOCATION"}, rows)
}

// Projects writes the project list.
func Projects(w io.Writer, format string, projects []models.ProjectRecord) error {
	if format != FormatTable {
		return Encode(w, format, projects)
	}
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{strconv.Itoa(p.Index), p.Name, p.Owner, p.Language, p.Parent})
	}
	return Table(w, []string{"#", "NAME", "OWNER", "LANGUAGE", "PARENT"}, rows)
}

// Bugs writes the bug list without patch bodies.
func Bugs(w io.Writer, format string, bugs []models.BugRecord) error {
	if format != FormatTable {
		return Encode(w, format, bugs)
	}
	rows := make([][]string, 0, len(bugs))
	for _, b := range bugs {
		rows = append(rows, []string{strconv.Itoa(b.Index), b.ID, strings.Join(b.FixCommits, ", "), strconv.FormatBool(b.Verified)})
	}
	return Table(w, []string{"#", "ID", "FIX COMMITS", "VERIFIED"}, rows)
}

// Submissions writes journal entries.
func Submissions(w io.Writer, format string, subs []models.Submission) error {
	if format != FormatTable {
		return Encode(w, format, subs)
	}
	rows := make([][]string, 0, len(subs))
	for _, s := range subs {
		rows = append(rows, []string{s.SubmittedAt, s.BugID, s.ProjectName, shortSHA(s.Commit), s.Method, s.Date, s.Outcome, s.Source})
	}
	return Table(w, []string{"SUBMITTED", "BUG", "PROJECT", "COMMIT", "METHOD", "DATE", "OUTCOME", "SOURCE"}, rows)
}

// Encode writes v as JSON or YAML.
func Encode(w io.Writer, format string, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("format %q is not supported here", format)
	}
}

// Table writes rows under headers with a plain border.
func Table(w io.Writer, headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.String())
	return err
}

func verdict(v models.Verdict) string {
	if v {
		return "yes"
	}
	return "no"
}

func shortSHA(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}
