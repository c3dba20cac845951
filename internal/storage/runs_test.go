package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/overtime-sync/internal/common"
	"github.com/Veraticus/overtime-sync/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newRun(job string, started time.Time) *model.Run {
	return &model.Run{
		Job:        job,
		ReportType: "ot_analysis",
		DateFrom:   "2025-08-01",
		DateTo:     "2025-08-31",
		CategoryID: 30,
		CompanyID:  1,
		StartedAt:  started,
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.Migrate(ctx))

	var version int
	require.NoError(t, store.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestRunLifecycle(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	run := newRun("zip-20", time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC))
	require.NoError(t, store.StartRun(ctx, run))
	_, err := uuid.Parse(run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	run.WizardID = 42
	run.ReportName = "taps_hr.ot_analysis_xlsx"
	require.NoError(t, store.UpdateRun(ctx, run))

	latest, err := store.LatestRun(ctx, "zip-20")
	require.NoError(t, err)
	assert.Equal(t, int64(42), latest.WizardID)
	assert.Equal(t, model.RunStatusRunning, latest.Status)
	assert.Nil(t, latest.FinishedAt)

	run.ArtifactPath = "/tmp/ot_analysis_2025-08-01_to_2025-08-31_cat20.xlsx"
	run.RowsWritten = 81
	run.Status = model.RunStatusSucceeded
	require.NoError(t, store.FinishRun(ctx, run))
	require.NotNil(t, run.FinishedAt)

	latest, err = store.LatestRun(ctx, "zip-20")
	require.NoError(t, err)
	assert.Equal(t, run.ID, latest.ID)
	assert.Equal(t, model.RunStatusSucceeded, latest.Status)
	assert.Equal(t, 81, latest.RowsWritten)
	assert.Equal(t, "ot_analysis", latest.ReportType)
	assert.Equal(t, int64(30), latest.CategoryID)
	assert.True(t, latest.StartedAt.Equal(run.StartedAt))
	require.NotNil(t, latest.FinishedAt)
}

func TestFinishRun_Failed(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	run := newRun("mt-20", time.Time{})
	require.NoError(t, store.StartRun(ctx, run))
	assert.False(t, run.StartedAt.IsZero())

	run.Status = model.RunStatusFailed
	run.Error = "web_save: report configuration rejected"
	require.NoError(t, store.FinishRun(ctx, run))

	latest, err := store.LatestRun(ctx, "mt-20")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, latest.Status)
	assert.Equal(t, run.Error, latest.Error)
}

func TestFinishRun_RejectsRunning(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	run := newRun("mt-20", time.Time{})
	require.NoError(t, store.StartRun(ctx, run))
	assert.ErrorIs(t, store.FinishRun(ctx, run), ErrInvalidRun)
}

func TestUpdateRun_Unknown(t *testing.T) {
	store := createTestStorage(t)
	run := newRun("zip-20", time.Now())
	run.ID = uuid.NewString()
	run.Status = model.RunStatusRunning

	assert.ErrorIs(t, store.UpdateRun(context.Background(), run), common.ErrNotFound)
}

func TestListRuns(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	base := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)

	for i, job := range []string{"zip-20", "zip-21", "zip-c", "mt-20"} {
		require.NoError(t, store.StartRun(ctx, newRun(job, base.Add(time.Duration(i)*time.Hour))))
	}

	runs, err := store.ListRuns(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "mt-20", runs[0].Job)
	assert.Equal(t, "zip-c", runs[1].Job)
	assert.Equal(t, "zip-21", runs[2].Job)

	_, err = store.ListRuns(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestLatestRun_NotFound(t *testing.T) {
	store := createTestStorage(t)
	_, err := store.LatestRun(context.Background(), "zip-20")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestValidateRun(t *testing.T) {
	tests := []struct {
		run     *model.Run
		name    string
		wantErr bool
	}{
		{name: "nil", run: nil, wantErr: true},
		{name: "missing id", run: &model.Run{Job: "j", Status: model.RunStatusRunning}, wantErr: true},
		{name: "missing job", run: &model.Run{ID: "x", Status: model.RunStatusRunning}, wantErr: true},
		{name: "bad status", run: &model.Run{ID: "x", Job: "j", Status: "paused"}, wantErr: true},
		{name: "valid", run: &model.Run{ID: "x", Job: "j", Status: model.RunStatusFailed}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRun(tt.run)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewSQLiteStorage_InMemory(t *testing.T) {
	store, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	assert.Equal(t, ":memory:", store.Path())

	_, err = NewSQLiteStorage("  ")
	assert.ErrorIs(t, err, ErrEmptyString)
}
