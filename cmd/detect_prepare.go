package cmd

import (
	"context"
	"fmt"

	"github.com/CosmoTheDev/cgconsole/internal/report"
	"github.com/CosmoTheDev/cgconsole/internal/workflow"
	"github.com/CosmoTheDev/cgconsole/models"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var detectPrepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Interactively prepare and submit a detection run",
	Long: `Walks through a detection run:
  - pick the bug and the project to search
  - choose one of the candidate fix commits
  - review or edit its patch
  - choose the method and an optional cutoff date, then submit`,
	RunE: runDetectPrepare,
}

func init() {
	detectPrepareCmd.Flags().BoolVarP(&detectWatch, "watch", "w", false, "follow the detection status after submitting")
}

func runDetectPrepare(cmd *cobra.Command, args []string) error {
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

	fmt.Println()
	fmt.Println(headerStyle.Render("  cgconsole · prepare detection"))

	bugs, projects := loadCatalog(ctx, e)

	// --- Step 1: bug and project ---
	var bugID, project string
	if err := huh.NewForm(
		huh.NewGroup(
			catalogField("Bug", bugOptions(bugs), &bugID),
			catalogField("Project", projectOptions(projects), &project),
		),
	).Run(); err != nil {
		return err
	}

	session := workflow.NewSession(e.backend)
	prep, err := session.Search(ctx, bugID, project)
	if err != nil {
		return err
	}

	// --- Step 2: candidate commit ---
	commit := prep.Active
	commitOpts := make([]huh.Option[string], 0, len(prep.Candidates))
	for _, c := range prep.Candidates {
		commitOpts = append(commitOpts, huh.NewOption(c, c))
	}
	if err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Candidate fix commit").
				Description(fmt.Sprintf("%d candidates for %s in %s", len(prep.Candidates), bugID, project)).
				Options(commitOpts...).
				Value(&commit),
		),
	).Run(); err != nil {
		return err
	}
	if commit != prep.Active {
		if prep, err = session.SelectCommit(ctx, commit); err != nil {
			return err
		}
	}

	// --- Step 3: patch, method, date ---
	patch := prep.Patch
	method := e.cfg.Detection.DefaultMethod
	var date string
	confirm := true
	if err := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Patch").
				Description("Edits are sent as-is").
				CharLimit(0).
				Lines(14).
				Value(&patch),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Method").
				Options(methodOptions()...).
				Value(&method),
			huh.NewInput().
				Title("Cutoff date (optional)").
				Placeholder("YYYY-MM-DD").
				Validate(func(s string) error {
					_, err := workflow.NormalizeDate(s)
					return err
				}).
				Value(&date),
			huh.NewConfirm().
				Title("Submit detection run?").
				Value(&confirm),
		),
	).Run(); err != nil {
		return err
	}
	if !confirm {
		fmt.Println(dimStyle.Render("  Not submitted."))
		return nil
	}

	session.EditPatch(patch)
	out, err := e.launcher(j, "cli").Submit(ctx, session.Form(method, date))
	if err != nil {
		return err
	}
	return afterSubmit(out, detectWatch, func() error {
		return followStatus(ctx, e, report.FormatTable, report.Meta{BugID: out.Request.BugID, Project: out.Request.ProjectName})
	})
}

// loadCatalog fetches bugs and projects concurrently. A failure of either is
// not fatal; the wizard falls back to free-text input.
func loadCatalog(ctx context.Context, e *env) ([]models.BugRecord, []models.ProjectRecord) {
	var bugs []models.BugRecord
	var projects []models.ProjectRecord
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bugs, err = e.backend.Bugs(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		projects, err = e.backend.Projects(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("  Could not load bugs/projects (%v); enter them by hand.", err)))
		return nil, nil
	}
	return bugs, projects
}

func bugOptions(bugs []models.BugRecord) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(bugs))
	for _, b := range bugs {
		opts = append(opts, huh.NewOption(b.ID, b.ID))
	}
	return opts
}

func projectOptions(projects []models.ProjectRecord) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(projects))
	for _, p := range projects {
		label := p.Name
		if p.Parent != "" {
			label = fmt.Sprintf("%s (clone of %s)", p.Name, p.Parent)
		}
		opts = append(opts, huh.NewOption(label, p.Name))
	}
	return opts
}

// catalogField is a select when options are known and a text input otherwise.
func catalogField(title string, opts []huh.Option[string], value *string) huh.Field {
	if len(opts) == 0 {
		return huh.NewInput().
			Title(title).
			Validate(func(s string) error {
				if s == "" {
					return fmt.Errorf("%s is required", title)
				}
				return nil
			}).
			Value(value)
	}
	return huh.NewSelect[string]().
		Title(title).
		Options(opts...).
		Filtering(true).
		Value(value)
}
