package model

import "time"

// EcologicalPolicy is the per-tier baseline: a capacity ceiling multiplier plus
// the administrative requirements attached to visiting destinations of that tier.
type EcologicalPolicy struct {
	ID                  uint      `json:"id" gorm:"primaryKey"`
	Tier                string    `json:"tier" gorm:"type:varchar(16);uniqueIndex;not null"`
	CapacityMultiplier  float64   `json:"capacity_multiplier" gorm:"not null"`
	RequiresPermit      bool      `json:"requires_permit" gorm:"default:false"`
	RequiresEcoBriefing bool      `json:"requires_eco_briefing" gorm:"default:false"`
	RestrictionMessage  string    `json:"restriction_message" gorm:"type:text"`
	UpdatedBy           uint      `json:"updated_by"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// DefaultPolicies seeds the registry with one policy per tier. Multipliers are the
// tier's baseline ceiling applied before any dynamic factor.
func DefaultPolicies() []EcologicalPolicy {
	return []EcologicalPolicy{
		{Tier: TierLow, CapacityMultiplier: 1.0},
		{Tier: TierMedium, CapacityMultiplier: 0.9, RequiresEcoBriefing: true},
		{Tier: TierHigh, CapacityMultiplier: 0.8, RequiresPermit: true, RequiresEcoBriefing: true,
			RestrictionMessage: "Permit required. Guided access only during high season."},
		{Tier: TierCritical, CapacityMultiplier: 0.5, RequiresPermit: true, RequiresEcoBriefing: true,
			RestrictionMessage: "Critical habitat. Access limited to small permitted groups."},
	}
}
