package runstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tidyinbox/tidyinbox/internal/cleanup"
)

// Memory is an in-memory RunStore for tests and one-off invocations that do
// not need history to survive the process.
type Memory struct {
	mu   sync.RWMutex
	runs map[string]cleanup.Run
}

var _ cleanup.RunStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{runs: map[string]cleanup.Run{}}
}

func (m *Memory) Save(ctx context.Context, run cleanup.Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

func (m *Memory) FindByID(ctx context.Context, id string) (cleanup.Run, error) {
	if err := ctx.Err(); err != nil {
		return cleanup.Run{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return cleanup.Run{}, cleanup.ErrRunNotFound
	}
	return run, nil
}

func (m *Memory) ListByUser(ctx context.Context, userID string, limit int, before time.Time) ([]cleanup.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var runs []cleanup.Run
	for _, run := range m.runs {
		if run.UserID != userID {
			continue
		}
		if !before.IsZero() && !run.StartedAt.Before(before) {
			continue
		}
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
