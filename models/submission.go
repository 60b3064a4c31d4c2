package models

// Submission outcomes recorded in the local journal.
const (
	OutcomeAccepted = "accepted"
	OutcomeFailed   = "failed"
)

// Submission is a journaled detection job as it was put on the wire.
type Submission struct {
	ID           int64  `json:"id"            db:"id"`
	SubmissionID string `json:"submission_id" db:"submission_id"` // client-side uuid
	BugID        string `json:"bug_id"        db:"bug_id"`
	ProjectName  string `json:"project_name"  db:"project_name"`
	Commit       string `json:"commit"        db:"commit_sha"`
	Method       string `json:"method"        db:"method"`
	Date         string `json:"date"          db:"cutoff_date"`
	Patch        string `json:"patch"         db:"patch"` // base64, as sent
	Outcome      string `json:"outcome"       db:"outcome"`
	ErrorMsg     string `json:"error_msg"     db:"error_msg"`
	Source       string `json:"source"        db:"source"` // ui|cli|schedule
	SubmittedAt  string `json:"submitted_at"  db:"submitted_at"`
}
