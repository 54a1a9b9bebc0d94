package capacity

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"greenpass-service/internal/model"

	"go.uber.org/zap"
)

// FactorFlags marks which factors contributed to the result. Override is set
// whenever an override is applied, regardless of its value, since an override
// always requires operator attention.
type FactorFlags struct {
	Weather        bool `json:"weather"`
	Season         bool `json:"season"`
	Utilization    bool `json:"utilization"`
	Infrastructure bool `json:"infrastructure"`
	Override       bool `json:"override"`
}

// Result is the output of one capacity evaluation. It is recomputed on demand
// and never persisted as a source of truth.
type Result struct {
	DestinationID      uint                    `json:"destination_id"`
	BaseCapacity       int                     `json:"base_capacity"`
	CurrentOccupancy   int                     `json:"current_occupancy"`
	AdjustedCapacity   int                     `json:"adjusted_capacity"`
	AvailableSpots     int                     `json:"available_spots"`
	CombinedMultiplier float64                 `json:"combined_multiplier"`
	ActiveFactors      []string                `json:"active_factors"`
	UnknownFactors     []string                `json:"unknown_factors,omitempty"`
	Flags              FactorFlags             `json:"active_factor_flags"`
	Factors            []Factor                `json:"factors"`
	Policy             model.EcologicalPolicy  `json:"policy"`
	Override           *model.CapacityOverride `json:"override,omitempty"`
	DisplayMessage     string                  `json:"display_message"`
}

// GetDynamicCapacity computes the current adjusted capacity for a destination
// from its tier policy, the four dynamic factors and any applying override.
// Material changes since the last audited value are appended to the adjustment
// log as a side effect; the computation itself is pure.
func (s *Service) GetDynamicCapacity(ctx context.Context, destinationID uint) (*Result, error) {
	dest, err := s.destinations.GetByID(ctx, destinationID)
	if err != nil {
		return nil, err
	}
	occupancy, err := s.reservations.OccupiedCount(ctx, destinationID)
	if err != nil {
		return nil, err
	}
	res, err := s.evaluate(ctx, dest, occupancy)
	if err != nil {
		return nil, err
	}
	s.recordIfChanged(ctx, res, "capacity evaluation")
	return res, nil
}

// GetAvailableSpots returns max(0, adjustedCapacity - currentOccupancy).
func (s *Service) GetAvailableSpots(ctx context.Context, destinationID uint) (int, error) {
	res, err := s.GetDynamicCapacity(ctx, destinationID)
	if err != nil {
		return 0, err
	}
	return res.AvailableSpots, nil
}

// evaluate runs the factor chain against an occupancy snapshot the caller has
// already taken. The admission gate calls this inside its critical section so
// the utilization factor sees the same snapshot the admission check uses.
func (s *Service) evaluate(ctx context.Context, dest *model.Destination, occupancy int) (*Result, error) {
	now := s.now()

	policy, err := s.policies.GetByTier(ctx, dest.SensitivityTier)
	if err != nil {
		return nil, err
	}

	severity, werr := s.weatherSeverity(ctx, dest)
	weather := WeatherFactor(severity)
	if werr != nil {
		weather = Factor{Name: FactorWeather, Multiplier: 1.0, Unknown: true, Note: "weather source unavailable"}
	}
	season := SeasonFactor(now.Month(), s.cfg.HighSeasonStart, s.cfg.HighSeasonEnd)
	utilization := UtilizationFactor(occupancy, dest.BaseCapacity, s.cfg.UtilizationThreshold, s.cfg.UtilizationMultiplier)
	strain := StrainFactor(dest.Indicators())

	override, err := s.ActiveOverride(ctx, dest.ID)
	if err != nil {
		return nil, err
	}

	combined := policy.CapacityMultiplier * weather.Multiplier * season.Multiplier *
		utilization.Multiplier * strain.Multiplier
	if override != nil {
		// An override replaces the factor chain outright: an operator setting
		// 0.8 means 80% of base capacity, not 80% of an already-reduced figure.
		combined = override.Multiplier
	}
	combined = clamp(combined, 0, maxCombinedMultiplier)

	// Epsilon guard so binary rounding in the multiplier chain cannot floor
	// away a slot (100 x 0.6 must be 60, never 59).
	adjusted := int(math.Floor(float64(dest.BaseCapacity)*combined + 1e-9))
	if adjusted < 0 {
		adjusted = 0
	}

	res := &Result{
		DestinationID:      dest.ID,
		BaseCapacity:       dest.BaseCapacity,
		CurrentOccupancy:   occupancy,
		AdjustedCapacity:   adjusted,
		AvailableSpots:     max(0, adjusted-occupancy),
		CombinedMultiplier: combined,
		Factors:            []Factor{weather, season, utilization, strain},
		Policy:             *policy,
		Override:           override,
	}

	for _, f := range res.Factors {
		if f.Unknown {
			res.UnknownFactors = append(res.UnknownFactors, f.Name)
			continue
		}
		if f.Applied() {
			res.ActiveFactors = append(res.ActiveFactors, f.Name)
		}
	}
	if policy.CapacityMultiplier != 1.0 {
		res.ActiveFactors = append(res.ActiveFactors, FactorPolicy)
	}
	if override != nil {
		res.ActiveFactors = append(res.ActiveFactors, FactorOverride)
	}
	res.Flags = FactorFlags{
		Weather:        weather.Applied() && !weather.Unknown,
		Season:         season.Applied(),
		Utilization:    utilization.Applied(),
		Infrastructure: strain.Applied() && !strain.Unknown,
		Override:       override != nil,
	}
	res.DisplayMessage = displayMessage(res)

	return res, nil
}

func (s *Service) weatherSeverity(ctx context.Context, dest *model.Destination) (Severity, error) {
	if s.weather == nil {
		return "", fmt.Errorf("no weather classifier configured")
	}
	return s.weather.SeverityFor(ctx, dest)
}

// displayMessage renders the visitor-facing headline for the current state.
func displayMessage(res *Result) string {
	remaining := res.AdjustedCapacity - res.CurrentOccupancy
	switch {
	case remaining <= 0:
		return "Fully Booked"
	case remaining*5 <= res.AdjustedCapacity:
		return fmt.Sprintf("Limited Spots (%d remaining)", remaining)
	case res.Policy.RestrictionMessage != "":
		return res.Policy.RestrictionMessage
	default:
		return "Open"
	}
}

// recordIfChanged appends an audit entry when the adjusted capacity differs
// from the last audited value for the destination. Audit failures never fail
// the evaluation; they are logged and the next evaluation retries naturally.
func (s *Service) recordIfChanged(ctx context.Context, res *Result, reason string) {
	latest, err := s.adjustments.Latest(ctx, res.DestinationID)
	if err != nil && !IsNotFound(err) {
		s.log.Warn("adjustment lookup failed",
			zap.Uint("destination_id", res.DestinationID), zap.Error(err))
		return
	}
	if latest != nil && latest.AdjustedCapacity == res.AdjustedCapacity {
		return
	}
	s.appendAdjustment(ctx, res, reason)
}

func (s *Service) appendAdjustment(ctx context.Context, res *Result, reason string) {
	breakdown := map[string]any{
		"policy":   res.Policy.CapacityMultiplier,
		"combined": res.CombinedMultiplier,
	}
	for _, f := range res.Factors {
		breakdown[f.Name] = f.Multiplier
	}
	if res.Override != nil {
		breakdown[FactorOverride] = res.Override.Multiplier
	}
	raw, err := json.Marshal(breakdown)
	if err != nil {
		s.log.Warn("factor breakdown marshal failed", zap.Error(err))
		raw = []byte("{}")
	}
	entry := &model.CapacityAdjustment{
		DestinationID:    res.DestinationID,
		OriginalCapacity: res.BaseCapacity,
		AdjustedCapacity: res.AdjustedCapacity,
		Factors:          raw,
		Reason:           reason,
	}
	if err := s.adjustments.Append(ctx, entry); err != nil {
		s.log.Warn("adjustment append failed",
			zap.Uint("destination_id", res.DestinationID), zap.Error(err))
		return
	}
	s.log.Info("capacity adjusted",
		zap.Uint("destination_id", res.DestinationID),
		zap.Int("original_capacity", res.BaseCapacity),
		zap.Int("adjusted_capacity", res.AdjustedCapacity),
		zap.Float64("combined_multiplier", res.CombinedMultiplier),
		zap.String("reason", reason))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
