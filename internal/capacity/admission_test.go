package capacity

import (
	"context"
	"strings"
	"sync"
	"testing"

	"greenpass-service/internal/model"
)

func TestPartySizeValidation(t *testing.T) {
	f := newFixture(t)
	for _, size := range []int{0, -3, 11} {
		if _, err := f.svc.TryReserve(context.Background(), ReserveRequest{DestinationID: 1, PartySize: size}); !IsValidation(err) {
			t.Errorf("TryReserve(size=%d) err = %v, want ValidationError", size, err)
		}
		if _, err := f.svc.IsBookingAllowed(context.Background(), 1, size); !IsValidation(err) {
			t.Errorf("IsBookingAllowed(size=%d) err = %v, want ValidationError", size, err)
		}
	}
}

func TestTryReserveAtBoundary(t *testing.T) {
	// Base 100, tier high, off season: adjusted capacity 80. A party of 5
	// fits exactly into the last 5 spots; the next visitor is turned away.
	f := newFixture(t)
	f.seedOccupancy(t, 1, 75)

	decision, err := f.svc.TryReserve(context.Background(), ReserveRequest{DestinationID: 1, PartySize: 5})
	if err != nil {
		t.Fatalf("TryReserve: %v", err)
	}
	if !decision.Admitted {
		t.Fatalf("boundary party rejected: %+v", decision)
	}
	if decision.Reference == "" {
		t.Error("admitted decision has no reference")
	}
	if decision.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", decision.Remaining)
	}

	decision, err = f.svc.TryReserve(context.Background(), ReserveRequest{DestinationID: 1, PartySize: 1})
	if err != nil {
		t.Fatalf("TryReserve over capacity: %v", err)
	}
	if decision.Admitted {
		t.Fatal("party admitted past adjusted capacity")
	}
	if !strings.Contains(decision.Reason, "0 spots remaining") {
		t.Errorf("reason = %q, want remaining count cited", decision.Reason)
	}
}

func TestTryReserveLastSlotRace(t *testing.T) {
	// Two parties race for the final 5 spots. Exactly one wins; the check and
	// the insert share the destination lock, so the sum never exceeds capacity.
	f := newFixture(t)
	f.seedOccupancy(t, 1, 75)

	var wg sync.WaitGroup
	decisions := make([]*Decision, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			decisions[i], errs[i] = f.svc.TryReserve(context.Background(),
				ReserveRequest{DestinationID: 1, PartySize: 5})
		}(i)
	}
	wg.Wait()

	admitted := 0
	for i := 0; i < 2; i++ {
		if errs[i] != nil {
			t.Fatalf("TryReserve[%d]: %v", i, errs[i])
		}
		if decisions[i].Admitted {
			admitted++
		} else if !strings.Contains(decisions[i].Reason, "0 spots remaining") {
			t.Errorf("loser reason = %q", decisions[i].Reason)
		}
	}
	if admitted != 1 {
		t.Fatalf("admitted = %d, want exactly 1", admitted)
	}

	occ, err := f.resv.OccupiedCount(context.Background(), 1)
	if err != nil {
		t.Fatalf("OccupiedCount: %v", err)
	}
	if occ != 80 {
		t.Errorf("final occupancy = %d, want 80", occ)
	}
}

func TestTryReserveStress(t *testing.T) {
	// 100 concurrent single-visitor requests against a 30-spot low-tier site.
	// Above 85% utilization the safeguard trims capacity to floor(30*0.9) = 27,
	// so exactly 27 are admitted and occupancy never overshoots.
	f := newFixture(t)
	small := model.Destination{
		Name:            "Mosswood Loop",
		BaseCapacity:    30,
		SensitivityTier: model.TierLow,
		IsActive:        true,
	}
	if err := f.dests.Create(context.Background(), &small); err != nil {
		t.Fatalf("create destination: %v", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := f.svc.TryReserve(context.Background(),
				ReserveRequest{DestinationID: small.ID, PartySize: 1})
			if err != nil {
				t.Errorf("TryReserve: %v", err)
				return
			}
			if d.Admitted {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != 27 {
		t.Errorf("admitted = %d, want 27", admitted)
	}
	occ, err := f.resv.OccupiedCount(context.Background(), small.ID)
	if err != nil {
		t.Fatalf("OccupiedCount: %v", err)
	}
	if occ != admitted {
		t.Errorf("occupancy = %d, admitted = %d", occ, admitted)
	}
}

func TestTryReserveRetriesTransientFailures(t *testing.T) {
	f := newFixture(t)

	// Two failed inserts, then success within the attempt budget.
	f.resv.failCreates = 2
	decision, err := f.svc.TryReserve(context.Background(), ReserveRequest{DestinationID: 1, PartySize: 2})
	if err != nil {
		t.Fatalf("TryReserve with transient failures: %v", err)
	}
	if !decision.Admitted {
		t.Fatalf("decision = %+v, want admitted", decision)
	}

	// Budget exhausted: the caller sees a transient error, nothing is created.
	f.resv.failCreates = 3
	_, err = f.svc.TryReserve(context.Background(), ReserveRequest{DestinationID: 1, PartySize: 2})
	if !IsTransient(err) {
		t.Fatalf("err = %v, want TransientError", err)
	}
	occ, cerr := f.resv.OccupiedCount(context.Background(), 1)
	if cerr != nil {
		t.Fatalf("OccupiedCount: %v", cerr)
	}
	if occ != 2 {
		t.Errorf("occupancy = %d, want 2 (failed attempts must not hold spots)", occ)
	}
}

func TestTryReserveUnknownDestination(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.TryReserve(context.Background(), ReserveRequest{DestinationID: 404, PartySize: 2}); !IsNotFound(err) {
		t.Errorf("err = %v, want NotFoundError", err)
	}
}

func TestCancellationFreesCapacity(t *testing.T) {
	f := newFixture(t)
	f.seedOccupancy(t, 1, 70)

	first, err := f.svc.TryReserve(context.Background(), ReserveRequest{DestinationID: 1, PartySize: 10})
	if err != nil || !first.Admitted {
		t.Fatalf("TryReserve: %v, decision %+v", err, first)
	}

	// Destination is now full at the adjusted capacity of 80.
	blocked, err := f.svc.TryReserve(context.Background(), ReserveRequest{DestinationID: 1, PartySize: 1})
	if err != nil {
		t.Fatalf("TryReserve while full: %v", err)
	}
	if blocked.Admitted {
		t.Fatal("admitted past adjusted capacity")
	}

	if _, err := f.svc.TransitionReservation(context.Background(), first.Reference, model.ReservationCancelled); err != nil {
		t.Fatalf("TransitionReservation: %v", err)
	}

	after, err := f.svc.TryReserve(context.Background(), ReserveRequest{DestinationID: 1, PartySize: 1})
	if err != nil {
		t.Fatalf("TryReserve after cancel: %v", err)
	}
	if !after.Admitted {
		t.Fatalf("cancellation did not free capacity: %+v", after)
	}
}

func TestPendingReservationHoldsSpots(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.TryReserve(context.Background(), ReserveRequest{DestinationID: 1, PartySize: 4}); err != nil {
		t.Fatalf("TryReserve: %v", err)
	}
	res, err := f.svc.GetDynamicCapacity(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetDynamicCapacity: %v", err)
	}
	if res.CurrentOccupancy != 4 {
		t.Errorf("occupancy = %d, want 4 (pending bookings hold their spots)", res.CurrentOccupancy)
	}
}

func TestStaleTransitionCannotResurrectCancelledBooking(t *testing.T) {
	// An approve call races a cancellation: while the approve waits on the
	// destination lock, the pending booking is cancelled and its freed spots
	// are re-admitted to another party. The approve must re-validate against
	// the fresh status under the lock and fail, or the cancelled booking would
	// rejoin the occupying set and push occupancy past adjusted capacity.
	f := newFixture(t)
	f.seedOccupancy(t, 1, 75)

	decision, err := f.svc.TryReserve(context.Background(), ReserveRequest{DestinationID: 1, PartySize: 5})
	if err != nil || !decision.Admitted {
		t.Fatalf("TryReserve: %v, decision %+v", err, decision)
	}

	reads := make(chan struct{}, 1)
	f.resv.onGet = func(string) {
		select {
		case reads <- struct{}{}:
		default:
		}
	}

	// Hold the destination lock so the approve call parks between its lookup
	// and its locked re-validation.
	mu := f.svc.lockFor(1)
	mu.Lock()

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.TransitionReservation(context.Background(), decision.Reference, model.ReservationApproved)
		done <- err
	}()
	<-reads

	target, err := f.resv.GetByReference(context.Background(), decision.Reference)
	if err != nil {
		t.Fatalf("GetByReference: %v", err)
	}
	if err := f.resv.UpdateStatus(context.Background(), target.ID, model.ReservationCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := f.resv.Create(context.Background(), &model.Reservation{
		Reference:     "replacement",
		DestinationID: 1,
		GroupSize:     5,
		Status:        model.ReservationApproved,
	}); err != nil {
		t.Fatalf("re-admit: %v", err)
	}
	mu.Unlock()

	if err := <-done; !IsValidation(err) {
		t.Fatalf("stale approve err = %v, want ValidationError", err)
	}

	occ, err := f.resv.OccupiedCount(context.Background(), 1)
	if err != nil {
		t.Fatalf("OccupiedCount: %v", err)
	}
	res, err := f.svc.GetDynamicCapacity(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetDynamicCapacity: %v", err)
	}
	if occ != 80 {
		t.Errorf("occupancy = %d, want 80", occ)
	}
	if occ > res.AdjustedCapacity {
		t.Errorf("occupancy %d exceeds adjusted capacity %d", occ, res.AdjustedCapacity)
	}
}

func TestReservationTransitions(t *testing.T) {
	f := newFixture(t)
	decision, err := f.svc.TryReserve(context.Background(), ReserveRequest{DestinationID: 1, PartySize: 2})
	if err != nil || !decision.Admitted {
		t.Fatalf("TryReserve: %v, decision %+v", err, decision)
	}

	t.Run("skipping approval is rejected", func(t *testing.T) {
		_, err := f.svc.TransitionReservation(context.Background(), decision.Reference, model.ReservationCheckedIn)
		if !IsValidation(err) {
			t.Errorf("err = %v, want ValidationError", err)
		}
	})

	t.Run("full lifecycle", func(t *testing.T) {
		for _, status := range []string{model.ReservationApproved, model.ReservationCheckedIn, model.ReservationCheckedOut} {
			r, err := f.svc.TransitionReservation(context.Background(), decision.Reference, status)
			if err != nil {
				t.Fatalf("transition to %s: %v", status, err)
			}
			if r.Status != status {
				t.Errorf("status = %s, want %s", r.Status, status)
			}
		}
	})

	t.Run("unknown reference", func(t *testing.T) {
		_, err := f.svc.TransitionReservation(context.Background(), "no-such-booking", model.ReservationApproved)
		if !IsNotFound(err) {
			t.Errorf("err = %v, want NotFoundError", err)
		}
	})
}
