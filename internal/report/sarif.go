package report

import (
	"fmt"
	"io"

	"github.com/CosmoTheDev/cgconsole/models"
	"github.com/owenrumney/go-sarif/v2/sarif"
)

const (
	toolName      = "cgconsole"
	toolURI       = "https://github.com/CosmoTheDev/cgconsole"
	ruleID        = "vulnerable-clone"
	ruleCandidate = "clone-candidate"
)

func writeSARIF(w io.Writer, st models.DetectionStatus, meta Meta) error {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("failed to create SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(toolName, toolURI)
	run.AddRule(ruleID).
		WithDescription("Code clone that still carries the vulnerable pattern of a known bug")
	run.AddRule(ruleCandidate).
		WithDescription("Code clone of a known bug's patch site judged not vulnerable")

	for _, row := range st.Results {
		id, level := ruleCandidate, "note"
		if row.Vulnerable {
			id, level = ruleID, "error"
		}

		physical := sarif.NewPhysicalLocation().
			WithArtifactLocation(sarif.NewArtifactLocation().WithUri(row.File()))
		if line := row.Line(); line > 0 {
			physical = physical.WithRegion(sarif.NewRegion().WithStartLine(line))
		}

		result := sarif.NewRuleResult(id).
			WithMessage(sarif.NewTextMessage(message(row, meta))).
			WithLevel(level).
			WithLocations([]*sarif.Location{sarif.NewLocation().WithPhysicalLocation(physical)})
		result.PropertyBag = *sarif.NewPropertyBag()
		result.PropertyBag.Add("project", row.ProjectName)
		result.PropertyBag.Add("confidence", row.Confidence)
		run.AddResult(result)
	}
	report.AddRun(run)
	return report.PrettyWrite(w)
}

func message(row models.DetectionResultRow, meta Meta) string {
	what := "Clone"
	if row.Vulnerable {
		what = "Vulnerable clone"
	}
	if meta.BugID != "" {
		what += " of " + meta.BugID
	}
	return fmt.Sprintf("%s in %s (confidence %.2f)", what, row.ProjectName, row.Confidence)
}
