package retention

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"greenpass-service/internal/model"
)

type fakeAdjustments struct {
	mu      sync.Mutex
	cutoffs []time.Time
	removed int64
	err     error
}

func (f *fakeAdjustments) Append(context.Context, *model.CapacityAdjustment) error { return nil }

func (f *fakeAdjustments) Latest(context.Context, uint) (*model.CapacityAdjustment, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAdjustments) History(context.Context, uint, time.Time) ([]model.CapacityAdjustment, error) {
	return nil, nil
}

func (f *fakeAdjustments) PruneBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.removed, f.err
}

func TestRunOncePrunesAtRetentionCutoff(t *testing.T) {
	repo := &fakeAdjustments{removed: 12}
	p := NewPruner(repo, 365*24*time.Hour, nil)

	before := time.Now()
	p.RunOnce()
	after := time.Now()

	if len(repo.cutoffs) != 1 {
		t.Fatalf("PruneBefore called %d times, want 1", len(repo.cutoffs))
	}
	cutoff := repo.cutoffs[0]
	if cutoff.Before(before.Add(-365*24*time.Hour)) || cutoff.After(after.Add(-365*24*time.Hour)) {
		t.Errorf("cutoff %v not one retention window before now", cutoff)
	}
}

func TestRunOnceSurvivesStoreErrors(t *testing.T) {
	repo := &fakeAdjustments{err: errors.New("connection reset")}
	p := NewPruner(repo, 24*time.Hour, nil)

	// Must not panic; the failure is logged and the next scheduled run retries.
	p.RunOnce()

	if len(repo.cutoffs) != 1 {
		t.Fatalf("PruneBefore called %d times, want 1", len(repo.cutoffs))
	}
}
