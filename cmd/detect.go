package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/CosmoTheDev/cgconsole/internal/config"
	"github.com/CosmoTheDev/cgconsole/internal/report"
	"github.com/CosmoTheDev/cgconsole/internal/repository"
	"github.com/CosmoTheDev/cgconsole/internal/workflow"
	"github.com/CosmoTheDev/cgconsole/models"
	"github.com/spf13/cobra"
)

var (
	detectBug       string
	detectProject   string
	detectCommit    string
	detectMethod    string
	detectDate      string
	detectPatchFile string
	detectPatchRepo string
	detectRev       string
	detectWatch     bool
	detectFormat    string
	detectShowPatch bool
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Search fix commits, submit detection runs and read their status",
}

var detectSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "List candidate fix commits for a bug in a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(detectFormat)
		if err != nil {
			return err
		}
		e, err := loadEnv(nil)
		if err != nil {
			return err
		}
		res, err := e.backend.Search(cmd.Context(), detectBug, detectProject)
		if err != nil {
			return err
		}
		if format != report.FormatTable {
			return report.Encode(os.Stdout, format, res)
		}
		if len(res.Commits) == 0 {
			fmt.Println(warnStyle.Render("No candidate commits found."))
			return nil
		}
		rows := make([][]string, 0, len(res.Commits))
		for i, c := range res.Commits {
			rows = append(rows, []string{fmt.Sprintf("%d", i+1), c})
		}
		if err := report.Table(os.Stdout, []string{"#", "COMMIT"}, rows); err != nil {
			return err
		}
		if detectShowPatch {
			fmt.Println()
			fmt.Println(res.Patch)
		}
		return nil
	},
}

var detectShowCommitCmd = &cobra.Command{
	Use:   "show-commit",
	Short: "Print the patch of a commit in a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(nil)
		if err != nil {
			return err
		}
		patch, err := e.backend.ShowCommit(cmd.Context(), detectProject, detectCommit)
		if err != nil {
			return err
		}
		fmt.Print(patch)
		if !strings.HasSuffix(patch, "\n") {
			fmt.Println()
		}
		return nil
	},
}

var detectRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Submit a detection run",
	Long: `Searches for the bug's candidate fix commits, selects --commit (or the
first candidate) and submits a detection job with that commit's patch.

The patch can be replaced with --patch-file, or extracted from a git
repository with --patch-from-repo (a local path or a clone URL) at --rev
(default: the selected commit).`,
	Example: `  cgconsole detect run --bug CVE-2014-0160 --project openssl --method blockscope
  cgconsole detect run --bug CVE-2014-0160 --project openssl --commit 96db902 \
      --patch-from-repo ~/src/openssl --date 2014-04-07 --watch`,
	RunE: runDetect,
}

var detectStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the detection status",
	Long: `Prints the backend's detection logs and result rows. With --watch the
status is polled until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(detectFormat)
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()
		e, err := loadEnv(nil)
		if err != nil {
			return err
		}
		meta := report.Meta{BugID: detectBug, Project: detectProject}
		if detectWatch {
			return followStatus(ctx, e, format, meta)
		}
		st, err := e.backend.Status(ctx)
		if err != nil {
			return err
		}
		return report.Status(os.Stdout, format, st, meta)
	},
}

func init() {
	for _, c := range []*cobra.Command{detectSearchCmd, detectRunCmd, detectStatusCmd} {
		c.Flags().StringVar(&detectBug, "bug", "", "bug identifier")
		c.Flags().StringVar(&detectProject, "project", "", "project name")
	}
	_ = detectSearchCmd.MarkFlagRequired("bug")
	_ = detectSearchCmd.MarkFlagRequired("project")
	_ = detectRunCmd.MarkFlagRequired("bug")
	_ = detectRunCmd.MarkFlagRequired("project")

	detectSearchCmd.Flags().StringVarP(&detectFormat, "format", "f", report.FormatTable, "output format: table|json|yaml")
	detectSearchCmd.Flags().BoolVar(&detectShowPatch, "patch", false, "also print the default patch")

	detectShowCommitCmd.Flags().StringVar(&detectProject, "project", "", "project name (required)")
	detectShowCommitCmd.Flags().StringVar(&detectCommit, "commit", "", "commit hash (required)")
	_ = detectShowCommitCmd.MarkFlagRequired("project")
	_ = detectShowCommitCmd.MarkFlagRequired("commit")

	detectRunCmd.Flags().StringVar(&detectCommit, "commit", "", "candidate commit to use (default: first candidate)")
	detectRunCmd.Flags().StringVar(&detectMethod, "method", "", "detection method (default: detection.default_method)")
	detectRunCmd.Flags().StringVar(&detectDate, "date", "", "cutoff date, YYYY-MM-DD (optional)")
	detectRunCmd.Flags().StringVar(&detectPatchFile, "patch-file", "", "use this patch instead of the commit's, - for stdin")
	detectRunCmd.Flags().StringVar(&detectPatchRepo, "patch-from-repo", "", "extract the patch from this git repository")
	detectRunCmd.Flags().StringVar(&detectRev, "rev", "", "revision to extract with --patch-from-repo")
	detectRunCmd.Flags().BoolVarP(&detectWatch, "watch", "w", false, "follow the detection status after submitting")
	detectRunCmd.Flags().StringVarP(&detectFormat, "format", "f", report.FormatTable, "status output format with --watch")
	detectRunCmd.MarkFlagsMutuallyExclusive("patch-file", "patch-from-repo")

	detectStatusCmd.Flags().BoolVarP(&detectWatch, "watch", "w", false, "poll until interrupted")
	detectStatusCmd.Flags().StringVarP(&detectFormat, "format", "f", report.FormatTable, "output format: table|json|yaml|sarif")

	detectCmd.AddCommand(detectSearchCmd, detectShowCommitCmd, detectRunCmd, detectStatusCmd, detectPrepareCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(detectFormat)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	e, err := loadEnv(nil)
	if err != nil {
		return err
	}
	j, db, err := e.openJournal(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	session := workflow.NewSession(e.backend)
	prep, err := session.Search(ctx, detectBug, detectProject)
	if err != nil {
		if errors.Is(err, workflow.ErrNoCandidates) {
			return fmt.Errorf("no candidate commits for %s in %s", detectBug, detectProject)
		}
		return err
	}
	if detectCommit != "" && detectCommit != prep.Active {
		if prep, err = session.SelectCommit(ctx, detectCommit); err != nil {
			return err
		}
	}

	switch {
	case detectPatchFile != "":
		patch, err := readPatchFile(detectPatchFile)
		if err != nil {
			return err
		}
		session.EditPatch(patch)
	case detectPatchRepo != "":
		rev := detectRev
		if rev == "" {
			rev = prep.Active
		}
		patch, err := patchFromRepo(ctx, e.cfg.Git, detectPatchRepo, rev)
		if err != nil {
			return err
		}
		session.EditPatch(patch)
	}

	method := detectMethod
	if method == "" {
		method = e.cfg.Detection.DefaultMethod
	}
	out, err := e.launcher(j, "cli").Submit(ctx, session.Form(method, detectDate))
	if err != nil {
		return err
	}
	return afterSubmit(out, detectWatch, func() error {
		return followStatus(ctx, e, format, report.Meta{BugID: out.Request.BugID, Project: out.Request.ProjectName})
	})
}

// afterSubmit reports a transmitted submission. With watch set the status is
// followed even when the backend rejected the job; the rejection is still
// returned once following ends.
func afterSubmit(out workflow.Outcome, watch bool, follow func() error) error {
	if out.Err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("Submission failed: %v", out.Err)))
	} else {
		fmt.Println(successStyle.Render(fmt.Sprintf("Submitted %s against %s at %s (%s)",
			out.Request.BugID, out.Request.ProjectName, out.Request.Commit, out.Request.Method)))
	}
	if !watch {
		if out.Err == nil {
			fmt.Println(dimStyle.Render("Follow progress with: cgconsole detect status --watch"))
		}
		return out.Err
	}
	if err := follow(); err != nil {
		return err
	}
	return out.Err
}

// patchFromRepo extracts the diff rev introduced in the repository at src.
func patchFromRepo(ctx context.Context, git config.GitConfig, src, rev string) (string, error) {
	repo, err := repository.Open(ctx, src, tokenFor(git, src))
	if err != nil {
		return "", err
	}
	return repository.CommitPatch(repo, rev)
}

// tokenFor picks the configured token for the host of a clone URL.
func tokenFor(git config.GitConfig, src string) string {
	t, err := repository.ParseURL(src)
	if err != nil {
		return ""
	}
	for _, gh := range git.GitHub {
		if hostOrDefault(gh.Host, "github.com") == t.Host {
			return gh.Token
		}
	}
	for _, gl := range git.GitLab {
		if hostOrDefault(gl.Host, "gitlab.com") == t.Host {
			return gl.Token
		}
	}
	return ""
}

func hostOrDefault(host, def string) string {
	if host == "" {
		return def
	}
	return host
}

// followStatus polls the backend until ctx is cancelled, printing each
// snapshot that differs from the previous one.
func followStatus(ctx context.Context, e *env, format string, meta report.Meta) error {
	sub, err := e.poller().Start(ctx)
	if err != nil {
		return err
	}
	defer sub.Stop()

	var last models.DetectionStatus
	first := true
	for st := range sub.Snapshots() {
		if !first && sameStatus(last, st) {
			continue
		}
		first = false
		last = st
		if format == report.FormatTable {
			fmt.Println(dimStyle.Render(fmt.Sprintf("── %s ──", time.Now().Format("15:04:05"))))
		}
		if err := report.Status(os.Stdout, format, st, meta); err != nil {
			return err
		}
	}
	return nil
}

func sameStatus(a, b models.DetectionStatus) bool {
	if a.Logs != b.Logs || len(a.Results) != len(b.Results) {
		return false
	}
	for i := range a.Results {
		if a.Results[i] != b.Results[i] {
			return false
		}
	}
	return true
}
