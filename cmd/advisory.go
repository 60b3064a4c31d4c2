package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/CosmoTheDev/cgconsole/internal/osv"
	"github.com/CosmoTheDev/cgconsole/internal/report"
	"github.com/CosmoTheDev/cgconsole/models"
	"github.com/spf13/cobra"
)

var (
	advisoryFormat string
	advisoryApply  bool
)

var bugAdvisoryCmd = &cobra.Command{
	Use:   "advisory <id>",
	Short: "Look up a bug's published advisory and fix commits on OSV.dev",
	Long: `Fetches the OSV advisory for a CVE or other OSV identifier and lists the
commits it names as fixes.

With --apply the first fix commit that has a repository is cloned, its diff
is extracted and the bug is updated on the backend with that commit and
patch, as "bug update" would.`,
	Example: `  cgconsole bug advisory CVE-2014-0160
  cgconsole bug advisory CVE-2014-0160 --apply`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(advisoryFormat)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		id := strings.TrimSpace(args[0])

		v, err := osv.New().Get(ctx, id)
		if err != nil {
			return err
		}
		fixes := osv.FixCommits(v)

		if format != report.FormatTable {
			if err := report.Encode(os.Stdout, format, struct {
				osv.Vuln   `yaml:",inline"`
				FixCommits []osv.FixCommit `json:"fix_commits" yaml:"fix_commits"`
			}{v, fixes}); err != nil {
				return err
			}
		} else {
			printAdvisory(v, fixes)
		}

		if !advisoryApply {
			return nil
		}
		var fix osv.FixCommit
		for _, f := range fixes {
			if f.Repo != "" {
				fix = f
				break
			}
		}
		if fix.Commit == "" {
			return fmt.Errorf("advisory %s names no fix commit with a repository", v.ID)
		}

		e, err := loadEnv(nil)
		if err != nil {
			return err
		}
		fmt.Println(dimStyle.Render(fmt.Sprintf("Extracting %s from %s ...", shortCommit(fix.Commit), fix.Repo)))
		patch, err := patchFromRepo(ctx, e.cfg.Git, fix.Repo, fix.Commit)
		if err != nil {
			return err
		}
		u := models.BugUpdate{ID: id, Patch: patch, FixCommit: fix.Commit, Method: models.MethodBlockScope}
		if err := e.backend.UpdateBug(ctx, u); err != nil {
			return err
		}
		fmt.Println(successStyle.Render(fmt.Sprintf("Updated %s with fix commit %s", id, shortCommit(fix.Commit))))
		return nil
	},
}

func printAdvisory(v osv.Vuln, fixes []osv.FixCommit) {
	fmt.Println(headerStyle.Render(v.ID))
	if cve := osv.CVE(v); cve != "" && cve != v.ID {
		fmt.Printf("CVE       : %s\n", cve)
	}
	if len(v.Aliases) > 0 {
		fmt.Printf("Aliases   : %s\n", strings.Join(v.Aliases, ", "))
	}
	if v.Summary != "" {
		fmt.Printf("Summary   : %s\n", v.Summary)
	}
	if vec := osv.CVSSVector(v); vec != "" {
		fmt.Printf("CVSS      : %s\n", vec)
	}
	if v.Published != "" {
		fmt.Printf("Published : %s\n", v.Published)
	}
	if v.Withdrawn != "" {
		fmt.Println(warnStyle.Render(fmt.Sprintf("Withdrawn : %s", v.Withdrawn)))
	}
	fmt.Println()

	if len(fixes) == 0 {
		fmt.Println(warnStyle.Render("No fix commits named."))
		return
	}
	rows := make([][]string, 0, len(fixes))
	for _, f := range fixes {
		rows = append(rows, []string{f.Commit, f.Repo, f.Source})
	}
	_ = report.Table(os.Stdout, []string{"FIX COMMIT", "REPOSITORY", "FROM"}, rows)
}

func shortCommit(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}

func init() {
	bugAdvisoryCmd.Flags().StringVarP(&advisoryFormat, "format", "f", report.FormatTable, "output format: table|json|yaml")
	bugAdvisoryCmd.Flags().BoolVar(&advisoryApply, "apply", false, "update the bug with the first fix commit and its patch")
	bugCmd.AddCommand(bugAdvisoryCmd)
}
