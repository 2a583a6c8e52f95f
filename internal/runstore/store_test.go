package runstore_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidyinbox/tidyinbox/internal/cleanup"
	"github.com/tidyinbox/tidyinbox/internal/mailbox"
	"github.com/tidyinbox/tidyinbox/internal/policy"
	"github.com/tidyinbox/tidyinbox/internal/runstore"
)

var baseTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func sampleRun(t *testing.T, id, userID string, startedAt time.Time) cleanup.Run {
	t.Helper()
	th, err := mailbox.NewThread("t1", []mailbox.Message{{
		ID:                "m1",
		ThreadID:          "t1",
		From:              mailbox.Address{Address: "news@example.com"},
		SentAt:            startedAt.AddDate(0, 0, -45),
		SizeEstimateBytes: 2048,
		Category:          mailbox.CategoryPromotions,
	}})
	require.NoError(t, err)
	return cleanup.Run{
		ID:          id,
		UserID:      userID,
		PolicyID:    "pol-1",
		Policy:      policy.Default(userID),
		Status:      cleanup.StatusCompleted,
		StartedAt:   startedAt,
		CompletedAt: startedAt.Add(time.Minute),
		Before:      mailbox.NewSnapshot(userID, startedAt, []mailbox.Thread{th}),
		Actions: []cleanup.ActionRecord{{
			ThreadID:  "t1",
			MessageID: "m1",
			Action:    policy.ActionArchive,
			RuleID:    "r1",
			Timestamp: startedAt,
			Outcome:   cleanup.OutcomeApplied,
		}},
	}
}

// stores runs each test against both implementations.
func stores(t *testing.T) map[string]cleanup.RunStore {
	t.Helper()
	db, err := runstore.OpenSQLite(filepath.Join(t.TempDir(), "runs.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return map[string]cleanup.RunStore{
		"sqlite": db,
		"memory": runstore.NewMemory(),
	}
}

func TestSaveAndFindByID(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := sampleRun(t, "run-1", "user-1", baseTime)
			require.NoError(t, store.Save(ctx, want))

			got, err := store.FindByID(ctx, "run-1")
			require.NoError(t, err)
			assert.Equal(t, want.ID, got.ID)
			assert.Equal(t, want.Status, got.Status)
			assert.Equal(t, want.Policy.Name, got.Policy.Name)
			require.Len(t, got.Actions, 1)
			assert.Equal(t, policy.ActionArchive, got.Actions[0].Action)
			assert.Equal(t, 1, got.Before.ThreadCount)
			assert.True(t, want.StartedAt.Equal(got.StartedAt))
		})
	}
}

func TestFindByIDNotFound(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.FindByID(context.Background(), "missing")
			assert.ErrorIs(t, err, cleanup.ErrRunNotFound)
		})
	}
}

func TestSaveReplacesByID(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			run := sampleRun(t, "run-1", "user-1", baseTime)
			run.Status = cleanup.StatusInProgress
			require.NoError(t, store.Save(ctx, run))

			run.Status = cleanup.StatusCompleted
			require.NoError(t, store.Save(ctx, run))

			got, err := store.FindByID(ctx, "run-1")
			require.NoError(t, err)
			assert.Equal(t, cleanup.StatusCompleted, got.Status)
		})
	}
}

func TestListByUserOrderingAndLimits(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i < 5; i++ {
				run := sampleRun(t, fmt.Sprintf("run-%d", i), "user-1",
					baseTime.Add(time.Duration(i)*time.Hour))
				require.NoError(t, store.Save(ctx, run))
			}
			require.NoError(t, store.Save(ctx,
				sampleRun(t, "other", "user-2", baseTime)))

			runs, err := store.ListByUser(ctx, "user-1", 0, time.Time{})
			require.NoError(t, err)
			require.Len(t, runs, 5)
			assert.Equal(t, "run-4", runs[0].ID) // most recent first
			assert.Equal(t, "run-0", runs[4].ID)

			limited, err := store.ListByUser(ctx, "user-1", 2, time.Time{})
			require.NoError(t, err)
			require.Len(t, limited, 2)
			assert.Equal(t, "run-4", limited[0].ID)

			// runs strictly before run-2's start
			older, err := store.ListByUser(ctx, "user-1", 0, baseTime.Add(2*time.Hour))
			require.NoError(t, err)
			require.Len(t, older, 2)
			assert.Equal(t, "run-1", older[0].ID)
		})
	}
}

func TestListByUserEmpty(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			runs, err := store.ListByUser(context.Background(), "nobody", 10, time.Time{})
			require.NoError(t, err)
			assert.Empty(t, runs)
		})
	}
}
