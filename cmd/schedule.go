package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/CosmoTheDev/cgconsole/internal/report"
	"github.com/CosmoTheDev/cgconsole/internal/scheduler"
	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run detection submissions on cron schedules",
	Long: `Schedules are read from the "schedules" list of the config file:

  "schedules": [
    {"name": "heartbleed-nightly", "expr": "0 2 * * *", "bug_id": "CVE-2014-0160",
     "project": "openssl", "method": "blockscope", "enabled": true}
  ]

Each firing searches the bug's candidate commits, uses "commit" (or the first
candidate) and "patch_file" when set, and submits the run. Expressions accept
five-field cron syntax and descriptors such as "@daily" or "@every 6h".`,
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured schedules",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(nil)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(e.cfg.Schedules))
		for _, s := range e.cfg.Schedules {
			valid := "ok"
			if err := scheduler.Validate(s.Expr); err != nil {
				valid = err.Error()
			}
			rows = append(rows, []string{s.Name, s.Expr, s.BugID, s.Project, s.Method, strconv.FormatBool(s.Enabled), valid})
		}
		return report.Table(os.Stdout, []string{"NAME", "EXPR", "BUG", "PROJECT", "METHOD", "ENABLED", "EXPR CHECK"}, rows)
	},
}

var scheduleRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the enabled schedules until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
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

		sched := scheduler.New(scheduler.DetectionRun(e.backend, e.launcher(j, "schedule"), e.cfg.Detection.DefaultMethod))
		if n := sched.Load(e.cfg.Schedules); n == 0 {
			return fmt.Errorf("no enabled schedules in config")
		}
		sched.Start(ctx)
		fmt.Printf("Running schedules %v. Press Ctrl+C to stop.\n", sched.Names())

		<-ctx.Done()
		sched.Stop()
		slog.Info("scheduler stopped")
		return nil
	},
}

var scheduleTriggerCmd = &cobra.Command{
	Use:   "trigger <name>",
	Short: "Run one schedule immediately",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		sched := scheduler.New(scheduler.DetectionRun(e.backend, e.launcher(j, "schedule"), e.cfg.Detection.DefaultMethod))
		sched.Load(e.cfg.Schedules)
		if err := sched.TriggerNow(ctx, args[0]); err != nil {
			return err
		}
		fmt.Println(successStyle.Render(fmt.Sprintf("Schedule %s submitted", args[0])))
		return nil
	},
}

func init() {
	scheduleCmd.AddCommand(scheduleListCmd, scheduleRunCmd, scheduleTriggerCmd)
}
