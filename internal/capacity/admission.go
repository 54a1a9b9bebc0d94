package capacity

import (
	"context"
	"fmt"
	"time"

	"greenpass-service/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReserveRequest is one booking attempt against a destination's capacity.
type ReserveRequest struct {
	DestinationID uint      `json:"destination_id" validate:"required"`
	PartySize     int       `json:"party_size" validate:"required"`
	UserID        uint      `json:"-"`
	VisitDate     time.Time `json:"visit_date"`
	Notes         string    `json:"notes"`
}

// Decision is the outcome of an admission check. Reason is set on rejection.
type Decision struct {
	Admitted  bool   `json:"admitted"`
	Reference string `json:"reference,omitempty"`
	Remaining int    `json:"remaining"`
	Reason    string `json:"reason,omitempty"`
}

// IsBookingAllowed is the read-only advisory check used for display. It gives
// no admission guarantee: two callers can both see the last slot. TryReserve
// is the authoritative operation.
func (s *Service) IsBookingAllowed(ctx context.Context, destinationID uint, partySize int) (*Decision, error) {
	if err := s.validatePartySize(partySize); err != nil {
		return nil, err
	}
	res, err := s.GetDynamicCapacity(ctx, destinationID)
	if err != nil {
		return nil, err
	}
	return s.decide(res, partySize), nil
}

// TryReserve atomically admits or rejects a party against the destination's
// adjusted capacity. Occupancy is re-derived from the reservation set inside
// the per-destination critical section; the check and the reservation insert
// happen under the same lock, so two racing requests can never jointly exceed
// capacity. Transient store failures retry the whole attempt from scratch:
// nothing is partially created when an attempt fails.
func (s *Service) TryReserve(ctx context.Context, req ReserveRequest) (*Decision, error) {
	if err := s.validatePartySize(req.PartySize); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= s.cfg.ReserveAttempts; attempt++ {
		decision, err := s.reserveOnce(ctx, req)
		if err == nil {
			return decision, nil
		}
		if !IsTransient(err) {
			return nil, err
		}
		lastErr = err
		s.log.Warn("reservation attempt failed, retrying",
			zap.Uint("destination_id", req.DestinationID),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	return nil, &TransientError{Op: "reserve", Err: fmt.Errorf("attempts exhausted: %w", lastErr)}
}

func (s *Service) reserveOnce(ctx context.Context, req ReserveRequest) (*Decision, error) {
	mu := s.lockFor(req.DestinationID)
	mu.Lock()
	defer mu.Unlock()

	dest, err := s.destinations.GetByID(ctx, req.DestinationID)
	if err != nil {
		return nil, err
	}
	occupancy, err := s.reservations.OccupiedCount(ctx, req.DestinationID)
	if err != nil {
		return nil, err
	}
	res, err := s.evaluate(ctx, dest, occupancy)
	if err != nil {
		return nil, err
	}

	decision := s.decide(res, req.PartySize)
	if !decision.Admitted {
		s.log.Info("booking rejected",
			zap.Uint("destination_id", req.DestinationID),
			zap.Int("party_size", req.PartySize),
			zap.Int("remaining", decision.Remaining),
			zap.String("reason", decision.Reason))
		return decision, nil
	}

	reservation := &model.Reservation{
		Reference:     uuid.New().String(),
		DestinationID: req.DestinationID,
		UserID:        req.UserID,
		GroupSize:     req.PartySize,
		Status:        model.ReservationPending,
		VisitDate:     req.VisitDate,
		Notes:         req.Notes,
	}
	if err := s.reservations.Create(ctx, reservation); err != nil {
		return nil, err
	}

	decision.Reference = reservation.Reference
	decision.Remaining = res.AdjustedCapacity - occupancy - req.PartySize
	s.log.Info("booking admitted",
		zap.Uint("destination_id", req.DestinationID),
		zap.String("reference", reservation.Reference),
		zap.Int("party_size", req.PartySize),
		zap.Int("remaining", decision.Remaining))
	s.recordIfChanged(ctx, res, "capacity evaluation")
	return decision, nil
}

func (s *Service) decide(res *Result, partySize int) *Decision {
	remaining := res.AdjustedCapacity - res.CurrentOccupancy
	if remaining < 0 {
		remaining = 0
	}
	if res.CurrentOccupancy+partySize > res.AdjustedCapacity {
		return &Decision{
			Admitted:  false,
			Remaining: remaining,
			Reason:    fmt.Sprintf("party of %d exceeds capacity: %d spots remaining", partySize, remaining),
		}
	}
	return &Decision{Admitted: true, Remaining: remaining - partySize}
}

func (s *Service) validatePartySize(partySize int) error {
	if partySize <= 0 {
		return &ValidationError{Field: "party_size", Message: "must be positive"}
	}
	if partySize > s.cfg.MaxPartySize {
		return &ValidationError{Field: "party_size",
			Message: fmt.Sprintf("must not exceed %d", s.cfg.MaxPartySize)}
	}
	return nil
}

// legal reservation status transitions
var transitions = map[string][]string{
	model.ReservationPending:   {model.ReservationApproved, model.ReservationCancelled},
	model.ReservationApproved:  {model.ReservationCheckedIn, model.ReservationCancelled},
	model.ReservationCheckedIn: {model.ReservationCheckedOut},
}

// TransitionReservation moves a reservation along its lifecycle. Transitions
// out of the occupying set (cancel, check-out) free capacity implicitly on the
// next occupancy recomputation; nothing is decremented by hand.
func (s *Service) TransitionReservation(ctx context.Context, reference, status string) (*model.Reservation, error) {
	// First read only resolves the destination for the lock. The status it
	// sees is stale the moment the lock is contended.
	reservation, err := s.reservations.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	mu := s.lockFor(reservation.DestinationID)
	mu.Lock()
	defer mu.Unlock()

	// Re-read and validate under the lock: another caller may have moved the
	// status (and its freed spots may already be re-admitted) while this one
	// waited. Applying a decision made against the stale read could resurrect
	// a cancelled booking into the occupying set past the adjusted capacity.
	reservation, err = s.reservations.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	allowed := false
	for _, next := range transitions[reservation.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, &ValidationError{Field: "status",
			Message: fmt.Sprintf("cannot transition from %s to %s", reservation.Status, status)}
	}

	if err := s.reservations.UpdateStatus(ctx, reservation.ID, status); err != nil {
		return nil, err
	}
	reservation.Status = status
	s.log.Info("reservation transitioned",
		zap.String("reference", reference),
		zap.Uint("destination_id", reservation.DestinationID),
		zap.String("status", status))
	return reservation, nil
}

// ListReservations returns all reservations for a destination.
func (s *Service) ListReservations(ctx context.Context, destinationID uint) ([]model.Reservation, error) {
	return s.reservations.ListByDestination(ctx, destinationID)
}
