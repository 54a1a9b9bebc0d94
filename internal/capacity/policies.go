package capacity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"greenpass-service/internal/model"

	"go.uber.org/zap"
)

// PolicyRequest is the administrative input for updating a tier policy.
type PolicyRequest struct {
	CapacityMultiplier  float64 `json:"capacity_multiplier" validate:"required"`
	RequiresPermit      bool    `json:"requires_permit"`
	RequiresEcoBriefing bool    `json:"requires_eco_briefing"`
	RestrictionMessage  string  `json:"restriction_message"`
	UpdatedBy           uint    `json:"-"`
}

// GetPolicy returns the policy for a sensitivity tier.
func (s *Service) GetPolicy(ctx context.Context, tier string) (*model.EcologicalPolicy, error) {
	if !model.ValidTier(tier) {
		return nil, &NotFoundError{Resource: "tier", ID: tier}
	}
	return s.policies.GetByTier(ctx, tier)
}

// ListPolicies returns all tier policies.
func (s *Service) ListPolicies(ctx context.Context) ([]model.EcologicalPolicy, error) {
	return s.policies.List(ctx)
}

// UpdatePolicy mutates the tier's baseline. The change is audited with a
// tier-scoped entry (DestinationID 0); per-destination entries follow lazily
// the next time each affected destination is evaluated, so a policy update
// never has to lock or recompute every destination synchronously.
func (s *Service) UpdatePolicy(ctx context.Context, tier string, req PolicyRequest) (*model.EcologicalPolicy, error) {
	if !model.ValidTier(tier) {
		return nil, &NotFoundError{Resource: "tier", ID: tier}
	}
	if req.CapacityMultiplier < 0.1 || req.CapacityMultiplier > 1.0 {
		return nil, &ValidationError{Field: "capacity_multiplier", Message: "must be between 0.1 and 1.0"}
	}
	existing, err := s.policies.GetByTier(ctx, tier)
	if err != nil {
		return nil, err
	}
	previous := existing.CapacityMultiplier

	existing.CapacityMultiplier = req.CapacityMultiplier
	existing.RequiresPermit = req.RequiresPermit
	existing.RequiresEcoBriefing = req.RequiresEcoBriefing
	existing.RestrictionMessage = req.RestrictionMessage
	existing.UpdatedBy = req.UpdatedBy
	if err := s.policies.Upsert(ctx, existing); err != nil {
		return nil, err
	}
	s.log.Info("tier policy updated",
		zap.String("tier", tier),
		zap.Float64("previous_multiplier", previous),
		zap.Float64("capacity_multiplier", req.CapacityMultiplier))

	if previous != req.CapacityMultiplier {
		breakdown, _ := json.Marshal(map[string]any{
			"tier":     tier,
			"previous": previous,
			"current":  req.CapacityMultiplier,
		})
		entry := &model.CapacityAdjustment{
			Factors: breakdown,
			Reason:  fmt.Sprintf("policy update: tier %s multiplier %.2f -> %.2f", tier, previous, req.CapacityMultiplier),
		}
		if err := s.adjustments.Append(ctx, entry); err != nil {
			s.log.Warn("policy adjustment append failed", zap.String("tier", tier), zap.Error(err))
		}
	}
	return existing, nil
}

// GetAdjustmentHistory returns audit entries, optionally scoped to one
// destination (destinationID 0 means all), within the trailing window.
func (s *Service) GetAdjustmentHistory(ctx context.Context, destinationID uint, sinceDays int) ([]model.CapacityAdjustment, error) {
	if sinceDays <= 0 {
		sinceDays = 30
	}
	since := s.now().Add(-time.Duration(sinceDays) * 24 * time.Hour)
	return s.adjustments.History(ctx, destinationID, since)
}
