// Package testutil provides shared fixtures for tests that cross package
// boundaries: an in-memory run ledger and report workbooks.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/overtime-sync/internal/model"
	"github.com/Veraticus/overtime-sync/internal/service"
	"github.com/Veraticus/overtime-sync/internal/storage"
)

// TestLedger is an in-memory run ledger bound to a test.
type TestLedger struct {
	Ledger service.RunLedger
	t      *testing.T
}

// SetupTestLedger creates a migrated in-memory ledger that is closed when
// the test ends.
func SetupTestLedger(t *testing.T) *TestLedger {
	t.Helper()

	store, err := storage.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("failed to create test ledger: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestLedger{
		Ledger: store,
		t:      t,
	}
}

// MustLatest returns the newest run of job or fails the test.
func (l *TestLedger) MustLatest(job string) *model.Run {
	l.t.Helper()
	run, err := l.Ledger.LatestRun(context.Background(), job)
	if err != nil {
		l.t.Fatalf("no run recorded for %s: %v", job, err)
	}
	return run
}

// MustList returns up to limit runs or fails the test.
func (l *TestLedger) MustList(limit int) []model.Run {
	l.t.Helper()
	runs, err := l.Ledger.ListRuns(context.Background(), limit)
	if err != nil {
		l.t.Fatalf("failed to list runs: %v", err)
	}
	return runs
}
