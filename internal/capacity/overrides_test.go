package capacity

import (
	"context"
	"testing"
	"time"
)

func TestSetOverrideValidation(t *testing.T) {
	f := newFixture(t)
	future := f.clock.Now().Add(time.Hour)

	tests := []struct {
		name string
		req  OverrideRequest
	}{
		{"multiplier below floor", OverrideRequest{DestinationID: 1, Multiplier: 0.05, Reason: "closure", ExpiresAt: future}},
		{"multiplier above ceiling", OverrideRequest{DestinationID: 1, Multiplier: 1.6, Reason: "event", ExpiresAt: future}},
		{"empty reason", OverrideRequest{DestinationID: 1, Multiplier: 0.5, ExpiresAt: future}},
		{"expiry in the past", OverrideRequest{DestinationID: 1, Multiplier: 0.5, Reason: "storm", ExpiresAt: f.clock.Now().Add(-time.Minute)}},
		{"expiry right now", OverrideRequest{DestinationID: 1, Multiplier: 0.5, Reason: "storm", ExpiresAt: f.clock.Now()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.SetOverride(context.Background(), tt.req); !IsValidation(err) {
				t.Errorf("err = %v, want ValidationError", err)
			}
		})
	}

	t.Run("unknown destination", func(t *testing.T) {
		_, err := f.svc.SetOverride(context.Background(), OverrideRequest{
			DestinationID: 404, Multiplier: 0.5, Reason: "storm", ExpiresAt: future,
		})
		if !IsNotFound(err) {
			t.Errorf("err = %v, want NotFoundError", err)
		}
	})
}

func TestSetOverrideReplacesPrevious(t *testing.T) {
	// One override per destination: a second set replaces the first rather
	// than stacking on it.
	f := newFixture(t)
	future := f.clock.Now().Add(time.Hour)

	for _, m := range []float64{0.5, 1.2} {
		if _, err := f.svc.SetOverride(context.Background(), OverrideRequest{
			DestinationID: 1, Multiplier: m, Reason: "ranger directive", ExpiresAt: future,
		}); err != nil {
			t.Fatalf("SetOverride(%v): %v", m, err)
		}
	}

	res, err := f.svc.GetDynamicCapacity(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetDynamicCapacity: %v", err)
	}
	if res.AdjustedCapacity != 120 {
		t.Errorf("adjusted capacity = %d, want 120 from the latest override", res.AdjustedCapacity)
	}
}

func TestClearOverride(t *testing.T) {
	f := newFixture(t)

	t.Run("idempotent when absent", func(t *testing.T) {
		if err := f.svc.ClearOverride(context.Background(), 1); err != nil {
			t.Fatalf("ClearOverride: %v", err)
		}
		if n := f.adj.count(1); n != 0 {
			t.Errorf("adjustment entries after no-op clear = %d, want 0", n)
		}
	})

	t.Run("restores factor-based capacity", func(t *testing.T) {
		_, err := f.svc.SetOverride(context.Background(), OverrideRequest{
			DestinationID: 1, Multiplier: 0.5, Reason: "storm damage",
			ExpiresAt: f.clock.Now().Add(time.Hour),
		})
		if err != nil {
			t.Fatalf("SetOverride: %v", err)
		}
		if err := f.svc.ClearOverride(context.Background(), 1); err != nil {
			t.Fatalf("ClearOverride: %v", err)
		}

		res, err := f.svc.GetDynamicCapacity(context.Background(), 1)
		if err != nil {
			t.Fatalf("GetDynamicCapacity: %v", err)
		}
		if res.Override != nil || res.Flags.Override {
			t.Error("cleared override still applied")
		}
		if res.AdjustedCapacity != 80 {
			t.Errorf("adjusted capacity = %d, want 80", res.AdjustedCapacity)
		}
		// Both the set and the clear moved the capacity, so each is audited.
		if n := f.adj.count(1); n != 2 {
			t.Errorf("adjustment entries = %d, want 2", n)
		}
	})
}
