package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/jmarceau/echeancier/constants"
	"github.com/jmarceau/echeancier/internal/common"
)

func openTestStore(t *testing.T) *RunStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "runs.db"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunStore_RoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run := Run{
		ID:             uuid.New(),
		Filename:       "tableau.pdf",
		Status:         constants.RunStatusSucceeded,
		RowCount:       24,
		TotalInsurance: 240.00,
		TotalInterest:  1234.56,
		FirstDueDate:   "01/01/2025",
		Payload:        `[{"Assurances":"10,00"}]`,
	}
	if err := store.CreateRun(ctx, run); err != nil {
		t.Fatalf("create run: %v", err)
	}

	got, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.Status != run.Status || got.RowCount != run.RowCount {
		t.Errorf("got %+v", got)
	}
	if got.TotalInsurance != run.TotalInsurance || got.TotalInterest != run.TotalInterest {
		t.Errorf("totals not preserved: %+v", got)
	}
	if got.FirstDueDate != run.FirstDueDate || got.Payload != run.Payload {
		t.Errorf("fields not preserved: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at not stamped")
	}
}

func TestRunStore_GetMissing(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetRun(context.Background(), uuid.New())
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected common.ErrNotFound, got %v", err)
	}
}

func TestRunStore_ListNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		if err := store.CreateRun(ctx, Run{
			ID:       uuid.New(),
			Filename: name,
			Status:   constants.RunStatusNoData,
		}); err != nil {
			t.Fatalf("create run %s: %v", name, err)
		}
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
}
