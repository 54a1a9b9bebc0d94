package model

import "time"

// Override multiplier bounds. An override replaces the computed factor chain, so it
// may both tighten (below 1) and loosen (above 1, up to the global clamp) capacity.
const (
	OverrideMinMultiplier = 0.1
	OverrideMaxMultiplier = 1.5
)

// CapacityOverride is a time-bounded administrative replacement of the computed
// capacity multiplier. At most one active, non-expired override exists per destination.
type CapacityOverride struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	DestinationID uint      `json:"destination_id" gorm:"uniqueIndex;not null"`
	Multiplier    float64   `json:"multiplier" gorm:"not null"`
	Reason        string    `json:"reason" gorm:"type:text;not null"`
	ExpiresAt     time.Time `json:"expires_at" gorm:"index;not null"`
	Active        bool      `json:"active" gorm:"default:true"`
	CreatedBy     uint      `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Applies reports whether the override should be honored at the given instant.
// Expiry is lazy: expired rows stay in place but are never applied.
func (o *CapacityOverride) Applies(now time.Time) bool {
	return o != nil && o.Active && now.Before(o.ExpiresAt)
}
