package scheduler

import (
	"context"
	"fmt"
	"os"

	"github.com/CosmoTheDev/cgconsole/internal/config"
	"github.com/CosmoTheDev/cgconsole/internal/workflow"
)

// DetectionRun returns a RunFunc that searches for the schedule's bug,
// selects its commit (or the first candidate), and submits the job through
// launcher. A patch_file replaces the patch the backend returned.
func DetectionRun(backend workflow.Searcher, launcher *workflow.Launcher, defaultMethod string) RunFunc {
	return func(ctx context.Context, sched config.ScheduleConfig) error {
		session := workflow.NewSession(backend)
		prep, err := session.Search(ctx, sched.BugID, sched.Project)
		if err != nil {
			return err
		}
		if sched.Commit != "" && sched.Commit != prep.Active {
			if _, err := session.SelectCommit(ctx, sched.Commit); err != nil {
				return err
			}
		}
		if sched.PatchFile != "" {
			data, err := os.ReadFile(sched.PatchFile)
			if err != nil {
				return fmt.Errorf("reading patch file: %w", err)
			}
			session.EditPatch(string(data))
		}

		method := sched.Method
		if method == "" {
			method = defaultMethod
		}
		out, err := launcher.Submit(ctx, session.Form(method, sched.Date))
		if err != nil {
			return err
		}
		return out.Err
	}
}
