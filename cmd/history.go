package cmd

import (
	"os"

	"github.com/CosmoTheDev/cgconsole/internal/report"
	"github.com/spf13/cobra"
)

var (
	historyBug    string
	historyLimit  int
	historyFormat string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List journaled detection submissions",
	Long: `Every detection run submitted from the console, the CLI or a schedule is
recorded in the local journal (database.driver, default SQLite at
~/.cgconsole/journal.db), whether or not the backend accepted it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(historyFormat)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		e, err := loadEnv(nil)
		if err != nil {
			return err
		}
		j, db, err := e.openJournal(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		subs, err := j.Recent(ctx, historyBug, historyLimit)
		if err != nil {
			return err
		}
		return report.Submissions(os.Stdout, format, subs)
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyBug, "bug", "", "only show submissions for this bug")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of entries")
	historyCmd.Flags().StringVarP(&historyFormat, "format", "f", report.FormatTable, "output format: table|json|yaml")
}
