package cmd

import (
	"fmt"

	"github.com/CosmoTheDev/cgconsole/internal/config"
	"github.com/CosmoTheDev/cgconsole/internal/tui"
	"github.com/spf13/cobra"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Launch the terminal console",
	Long: `Opens the interactive console: browse projects and bugs, prepare a
detection run against a candidate fix commit, and follow its results.

Logs are written to ~/.cgconsole/console.log while the console is open.`,
	RunE: runUI,
}

func runUI(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	e, err := loadEnv(nil)
	if err != nil {
		return err
	}

	logPath, err := config.LogFilePath()
	if err != nil {
		return fmt.Errorf("resolving log file: %w", err)
	}
	closeLog, err := setupFileLogger(logPath, false)
	if err != nil {
		return err
	}
	defer closeLog()

	j, db, err := e.openJournal(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	app := tui.NewApp(e.cfg, e.backend, e.launcher(j, "ui"), e.poller())
	return app.Run(ctx)
}
