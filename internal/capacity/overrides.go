package capacity

import (
	"context"
	"fmt"
	"time"

	"greenpass-service/internal/model"

	"go.uber.org/zap"
)

// OverrideRequest is the administrative input for setting a capacity override.
type OverrideRequest struct {
	DestinationID uint      `json:"destination_id" validate:"required"`
	Multiplier    float64   `json:"multiplier" validate:"required"`
	Reason        string    `json:"reason" validate:"required"`
	ExpiresAt     time.Time `json:"expires_at" validate:"required"`
	CreatedBy     uint      `json:"-"`
}

// SetOverride upserts the destination's override after validation. The change
// is audited with the before/after adjusted capacity.
func (s *Service) SetOverride(ctx context.Context, req OverrideRequest) (*model.CapacityOverride, error) {
	if req.Multiplier < model.OverrideMinMultiplier || req.Multiplier > model.OverrideMaxMultiplier {
		return nil, &ValidationError{Field: "multiplier",
			Message: fmt.Sprintf("must be between %.1f and %.1f", model.OverrideMinMultiplier, model.OverrideMaxMultiplier)}
	}
	if req.Reason == "" {
		return nil, &ValidationError{Field: "reason", Message: "must not be empty"}
	}
	now := s.now()
	if !req.ExpiresAt.After(now) {
		return nil, &ValidationError{Field: "expires_at", Message: "must be in the future"}
	}
	dest, err := s.destinations.GetByID(ctx, req.DestinationID)
	if err != nil {
		return nil, err
	}

	override := &model.CapacityOverride{
		DestinationID: req.DestinationID,
		Multiplier:    req.Multiplier,
		Reason:        req.Reason,
		ExpiresAt:     req.ExpiresAt,
		Active:        true,
		CreatedBy:     req.CreatedBy,
	}
	if err := s.overrides.Upsert(ctx, override); err != nil {
		return nil, err
	}
	s.log.Info("capacity override set",
		zap.Uint("destination_id", req.DestinationID),
		zap.Float64("multiplier", req.Multiplier),
		zap.Time("expires_at", req.ExpiresAt),
		zap.String("reason", req.Reason))

	s.auditOverrideChange(ctx, dest, fmt.Sprintf("override set: %s", req.Reason))
	return override, nil
}

// ClearOverride marks the destination's override inactive. Clearing an absent
// override is not an error.
func (s *Service) ClearOverride(ctx context.Context, destinationID uint) error {
	existing, err := s.ActiveOverride(ctx, destinationID)
	if err != nil {
		return err
	}
	if err := s.overrides.Deactivate(ctx, destinationID); err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	s.log.Info("capacity override cleared", zap.Uint("destination_id", destinationID))

	dest, err := s.destinations.GetByID(ctx, destinationID)
	if err != nil {
		return err
	}
	s.auditOverrideChange(ctx, dest, "override cleared")
	return nil
}

// ActiveOverride returns the destination's override only while it is active
// and unexpired, else nil. Expiry is lazy: no sweeper marks rows expired, a
// read simply stops applying them.
func (s *Service) ActiveOverride(ctx context.Context, destinationID uint) (*model.CapacityOverride, error) {
	row, err := s.overrides.Get(ctx, destinationID)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if !row.Applies(s.now()) {
		return nil, nil
	}
	return row, nil
}

// auditOverrideChange re-evaluates one destination and appends an adjustment
// entry when the computed capacity moved. Only the mutated destination is
// touched; nothing here locks or recomputes the rest of the fleet.
func (s *Service) auditOverrideChange(ctx context.Context, dest *model.Destination, reason string) {
	occupancy, err := s.reservations.OccupiedCount(ctx, dest.ID)
	if err != nil {
		s.log.Warn("occupancy read failed during override audit",
			zap.Uint("destination_id", dest.ID), zap.Error(err))
		return
	}
	res, err := s.evaluate(ctx, dest, occupancy)
	if err != nil {
		s.log.Warn("evaluation failed during override audit",
			zap.Uint("destination_id", dest.ID), zap.Error(err))
		return
	}
	s.recordIfChanged(ctx, res, reason)
}
