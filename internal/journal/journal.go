// Package journal keeps a local record of detection submissions and of the
// vulnerable rows operators have already been notified about.
package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/CosmoTheDev/cgconsole/internal/api"
	"github.com/CosmoTheDev/cgconsole/internal/database"
	"github.com/CosmoTheDev/cgconsole/models"
	"github.com/google/uuid"
)

const submissionColumns = `id, submission_id, bug_id, project_name, commit_sha, method,
	cutoff_date, patch, outcome, error_msg, source, submitted_at`

// Journal writes to the submissions and notified_rows tables.
type Journal struct {
	db  database.DB
	now func() time.Time
}

func New(db database.DB) *Journal {
	return &Journal{db: db, now: time.Now}
}

// Record stores req as it was sent and returns its client-side id.
func (j *Journal) Record(ctx context.Context, req models.DetectionJobRequest, source string, sendErr error) (string, error) {
	sub := models.Submission{
		SubmissionID: uuid.NewString(),
		BugID:        req.BugID,
		ProjectName:  req.ProjectName,
		Commit:       req.Commit,
		Method:       req.Method.String(),
		Date:         req.Date,
		Patch:        api.EncodeText(req.Patch),
		Outcome:      models.OutcomeAccepted,
		Source:       source,
		SubmittedAt:  j.now().UTC().Format(time.RFC3339),
	}
	if sendErr != nil {
		sub.Outcome = models.OutcomeFailed
		sub.ErrorMsg = sendErr.Error()
	}
	if _, err := j.db.Insert(ctx, "submissions", sub); err != nil {
		return "", fmt.Errorf("journaling submission: %w", err)
	}
	return sub.SubmissionID, nil
}

// Recent returns up to limit submissions, newest first. A bugID filters the
// list when non-empty.
func (j *Journal) Recent(ctx context.Context, bugID string, limit int) ([]models.Submission, error) {
	if limit <= 0 {
		limit = 50
	}
	var subs []models.Submission
	var err error
	if bugID != "" {
		err = j.db.Select(ctx, &subs,
			`SELECT `+submissionColumns+` FROM submissions WHERE bug_id = ? ORDER BY id DESC LIMIT ?`, bugID, limit)
	} else {
		err = j.db.Select(ctx, &subs,
			`SELECT `+submissionColumns+` FROM submissions ORDER BY id DESC LIMIT ?`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("listing submissions: %w", err)
	}
	return subs, nil
}

// Get returns the submission with the given client-side id.
func (j *Journal) Get(ctx context.Context, submissionID string) (models.Submission, error) {
	var sub models.Submission
	err := j.db.Get(ctx, &sub,
		`SELECT `+submissionColumns+` FROM submissions WHERE submission_id = ?`, submissionID)
	if err != nil {
		return models.Submission{}, fmt.Errorf("loading submission %s: %w", submissionID, err)
	}
	return sub, nil
}

type notifiedRow struct {
	RowKey      string  `db:"row_key"`
	ProjectName string  `db:"project_name"`
	Location    string  `db:"location"`
	Confidence  float64 `db:"confidence"`
	FirstSeen   string  `db:"first_seen"`
}

// MarkNotified records row and reports whether it had not been seen before.
func (j *Journal) MarkNotified(ctx context.Context, row models.DetectionResultRow) (bool, error) {
	fresh, err := j.db.InsertIgnore(ctx, "notified_rows", notifiedRow{
		RowKey:      row.Key(),
		ProjectName: row.ProjectName,
		Location:    row.Location,
		Confidence:  row.Confidence,
		FirstSeen:   j.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return false, fmt.Errorf("marking row %s: %w", row.Key(), err)
	}
	return fresh, nil
}
