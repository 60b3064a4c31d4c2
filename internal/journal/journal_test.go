package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/CosmoTheDev/cgconsole/internal/config"
	"github.com/CosmoTheDev/cgconsole/internal/database"
	"github.com/CosmoTheDev/cgconsole/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJournal(t *testing.T) *Journal {
	t.Helper()
	db, err := database.New(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "j.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	j := New(db)
	j.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return j
}

func TestRecordAndList(t *testing.T) {
	ctx := context.Background()
	j := newJournal(t)
	req := models.DetectionJobRequest{BugID: "CVE-1", ProjectName: "proj", Commit: "c1", Patch: "raw", Method: models.MethodBlockScope}

	id, err := j.Record(ctx, req, "ui", nil)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)

	other := req
	other.BugID = "CVE-2"
	_, err = j.Record(ctx, other, "cli", errors.New("backend error (500): boom"))
	require.NoError(t, err)

	all, err := j.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "CVE-2", all[0].BugID)
	assert.Equal(t, models.OutcomeFailed, all[0].Outcome)
	assert.Contains(t, all[0].ErrorMsg, "boom")

	mine, err := j.Recent(ctx, "CVE-1", 10)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "cmF3", mine[0].Patch)
	assert.Equal(t, "2024-05-01T12:00:00Z", mine[0].SubmittedAt)

	got, err := j.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "c1", got.Commit)
	assert.Equal(t, "ui", got.Source)
}

func TestMarkNotifiedOnce(t *testing.T) {
	ctx := context.Background()
	j := newJournal(t)
	row := models.DetectionResultRow{ProjectName: "P", Vulnerable: true, Confidence: 0.8, Location: "a.c:1"}

	fresh, err := j.MarkNotified(ctx, row)
	require.NoError(t, err)
	assert.True(t, fresh)

	row.Confidence = 0.9
	fresh, err = j.MarkNotified(ctx, row)
	require.NoError(t, err)
	assert.False(t, fresh)
}
