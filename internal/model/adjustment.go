package model

import (
	"time"

	"gorm.io/datatypes"
)

// CapacityAdjustment is one append-only audit entry recording a material change to a
// destination's computed capacity, whether factor-driven or override-driven.
// DestinationID 0 marks a tier-scoped entry (a policy update that affects every
// destination of that tier; per-destination entries follow lazily on evaluation).
type CapacityAdjustment struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	DestinationID    uint           `json:"destination_id" gorm:"index:idx_adjustment_dest_time"`
	OriginalCapacity int            `json:"original_capacity"`
	AdjustedCapacity int            `json:"adjusted_capacity"`
	Factors          datatypes.JSON `json:"factors"`
	Reason           string         `json:"reason" gorm:"type:text"`
	CreatedAt        time.Time      `json:"created_at" gorm:"index:idx_adjustment_dest_time"`
}
