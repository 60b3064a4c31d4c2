package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "cgconsole",
	Short: "Operator console for the clone-detection backend",
	Long: `cgconsole drives a vulnerability clone-detection backend: register source
projects, record known bugs and their fix commits, launch detection runs
against candidate commits and follow their progress.

Get started:
  cgconsole doctor          Check configuration and backend reachability
  cgconsole project list    Show registered projects
  cgconsole bug advisory    Look up a bug's fix commits on OSV.dev
  cgconsole detect prepare  Interactively prepare and submit a detection run
  cgconsole history         Show journaled submissions
  cgconsole ui              Launch the terminal console
  cgconsole watch           Follow detection status and send notifications`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ~/.cgconsole/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable verbose/debug output")

	rootCmd.Version = Version
	rootCmd.AddCommand(
		uiCmd,
		projectCmd,
		bugCmd,
		detectCmd,
		watchCmd,
		scheduleCmd,
		historyCmd,
		configCmd,
		doctorCmd,
	)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
	if verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
		slog.Debug("Verbose logging enabled")
	}
}
