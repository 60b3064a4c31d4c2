package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/CosmoTheDev/cgconsole/internal/api"
	"github.com/CosmoTheDev/cgconsole/internal/config"
	"github.com/CosmoTheDev/cgconsole/internal/database"
	"github.com/CosmoTheDev/cgconsole/internal/notify"
	"github.com/CosmoTheDev/cgconsole/internal/scheduler"
	"github.com/CosmoTheDev/cgconsole/models"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Verify the backend, journal, credentials and schedules",
	Long: `Checks that the detection backend answers, the journal database can be
reached, the default method is known, and reports which git providers,
notification channels and schedules are configured.`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	allOK := true
	fail := func(format string, a ...any) {
		fmt.Printf("FAIL ("+format+")\n", a...)
		allOK = false
	}

	fmt.Println("=== cgconsole doctor ===")
	fmt.Println()

	fmt.Print("Backend .................. ")
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	backend := api.New(cfg.Backend)
	if err := backend.Ping(pingCtx); err != nil {
		fail("%s: %s", backend.BaseURL(), err)
	} else {
		fmt.Printf("OK (%s)\n", backend.BaseURL())
	}
	cancel()

	fmt.Print("Database ................. ")
	db, err := database.New(cfg.Database)
	if err != nil {
		fail("%s", err)
	} else {
		if err := db.Ping(ctx); err != nil {
			fail("%s", err)
		} else {
			where := cfg.Database.Path
			if db.Driver() == "mysql" {
				where = "dsn configured"
			}
			fmt.Printf("OK (%s: %s)\n", db.Driver(), where)
		}
		db.Close()
	}

	fmt.Print("Default method ........... ")
	switch {
	case models.Method(cfg.Detection.DefaultMethod).Known():
		fmt.Printf("OK (%s)\n", cfg.Detection.DefaultMethod)
	case cfg.Detection.StrictMethods:
		fail("%q is not one of %v", cfg.Detection.DefaultMethod, models.Methods)
	default:
		fmt.Printf("WARN (%q is passed through unchecked)\n", cfg.Detection.DefaultMethod)
	}

	fmt.Print("Git providers ............ ")
	var hosts []string
	for _, gh := range cfg.Git.GitHub {
		if gh.Token != "" {
			hosts = append(hosts, hostOrDefault(gh.Host, "github.com"))
		}
	}
	for _, gl := range cfg.Git.GitLab {
		if gl.Token != "" {
			hosts = append(hosts, hostOrDefault(gl.Host, "gitlab.com"))
		}
	}
	if len(hosts) == 0 {
		fmt.Println("none (public repositories only)")
	} else {
		fmt.Printf("OK (%s)\n", strings.Join(hosts, ", "))
	}

	fmt.Print("Notifications ............ ")
	d := notify.NewDispatcher(cfg.Notify, nil)
	if d.IsAnyConfigured() {
		fmt.Printf("OK (%s)\n", strings.Join(d.Channels(), ", "))
	} else {
		fmt.Println("none (cgconsole watch will only log)")
	}

	fmt.Print("Schedules ................ ")
	enabled := 0
	var bad []string
	for _, s := range cfg.Schedules {
		if err := scheduler.Validate(s.Expr); err != nil {
			bad = append(bad, s.Name)
			continue
		}
		if s.Enabled {
			enabled++
		}
	}
	if len(bad) > 0 {
		fail("invalid expressions: %s", strings.Join(bad, ", "))
	} else {
		fmt.Printf("OK (%d configured, %d enabled)\n", len(cfg.Schedules), enabled)
	}

	fmt.Println()
	if allOK {
		fmt.Println(successStyle.Render("All checks passed, cgconsole is ready."))
	} else {
		fmt.Println(warnStyle.Render("Some checks failed. Fix them with 'cgconsole config edit-ui'."))
	}
	return nil
}
