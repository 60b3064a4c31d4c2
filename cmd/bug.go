package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/CosmoTheDev/cgconsole/internal/report"
	"github.com/CosmoTheDev/cgconsole/models"
	"github.com/spf13/cobra"
)

var (
	bugFormat    string
	bugID        string
	bugPatchFile string
	bugFixCommit string
	bugMethod    string
)

var bugCmd = &cobra.Command{
	Use:   "bug",
	Short: "List and update tracked vulnerabilities",
}

var bugListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bugs known to the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(bugFormat)
		if err != nil {
			return err
		}
		e, err := loadEnv(nil)
		if err != nil {
			return err
		}
		bugs, err := e.backend.Bugs(cmd.Context())
		if err != nil {
			return err
		}
		return report.Bugs(os.Stdout, format, bugs)
	},
}

var bugUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Set a bug's fix commit and patch",
	Long: `Updates the fix commit and patch of a bug. With --method simian the text
is stored as the bug's vulnerable code instead of its patch.

--patch-file - reads the patch from stdin.`,
	Example: `  git show 96db902 | cgconsole bug update --id CVE-2014-0160 --fix-commit 96db902 --patch-file -`,
	RunE: func(cmd *cobra.Command, args []string) error {
		method := models.Method(strings.TrimSpace(bugMethod))
		if !method.Known() {
			return fmt.Errorf("unknown method %q (want one of %v)", bugMethod, models.Methods)
		}
		patch, err := readPatchFile(bugPatchFile)
		if err != nil {
			return err
		}
		e, err := loadEnv(nil)
		if err != nil {
			return err
		}
		u := models.BugUpdate{
			ID:        strings.TrimSpace(bugID),
			Patch:     patch,
			FixCommit: strings.TrimSpace(bugFixCommit),
			Method:    method,
		}
		if err := e.backend.UpdateBug(cmd.Context(), u); err != nil {
			return err
		}
		fmt.Println(successStyle.Render(fmt.Sprintf("Updated %s", u.ID)))
		return nil
	},
}

func init() {
	bugListCmd.Flags().StringVarP(&bugFormat, "format", "f", report.FormatTable, "output format: table|json|yaml")

	bugUpdateCmd.Flags().StringVar(&bugID, "id", "", "bug identifier (required)")
	bugUpdateCmd.Flags().StringVar(&bugPatchFile, "patch-file", "", "file holding the patch, or - for stdin (required)")
	bugUpdateCmd.Flags().StringVar(&bugFixCommit, "fix-commit", "", "fix commit hash")
	bugUpdateCmd.Flags().StringVar(&bugMethod, "method", string(models.MethodBlockScope), "detection method the text is for")
	_ = bugUpdateCmd.MarkFlagRequired("id")
	_ = bugUpdateCmd.MarkFlagRequired("patch-file")

	bugCmd.AddCommand(bugListCmd, bugUpdateCmd)
}
