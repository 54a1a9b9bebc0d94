package model

import (
	"time"

	"gorm.io/gorm"
)

// Sensitivity tiers classify how ecologically fragile a destination is.
// The tier selects the baseline policy applied before any dynamic factors.
const (
	TierLow      = "low"
	TierMedium   = "medium"
	TierHigh     = "high"
	TierCritical = "critical"
)

// ValidTier reports whether tier is one of the four known sensitivity tiers.
func ValidTier(tier string) bool {
	switch tier {
	case TierLow, TierMedium, TierHigh, TierCritical:
		return true
	}
	return false
}

// Destination represents an ecologically sensitive site with a hard visitor ceiling.
// Occupancy is never stored here: it is always recomputed from the reservation set.
type Destination struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	Name             string         `json:"name" gorm:"type:varchar(100);index;not null"`
	Region           string         `json:"region" gorm:"type:varchar(100)"`
	Latitude         float64        `json:"latitude"`
	Longitude        float64        `json:"longitude"`
	BaseCapacity     int            `json:"base_capacity" gorm:"not null"`
	SensitivityTier  string         `json:"sensitivity_tier" gorm:"type:varchar(16);index;not null;default:'medium'"`
	SoilStrain       int            `json:"soil_strain" gorm:"default:0"`
	VegetationStrain int            `json:"vegetation_strain" gorm:"default:0"`
	WildlifeStrain   int            `json:"wildlife_strain" gorm:"default:0"`
	WaterStrain      int            `json:"water_strain" gorm:"default:0"`
	IsActive         bool           `json:"is_active" gorm:"default:true"`
	CreatedBy        uint           `json:"created_by" gorm:"index"`
	UpdatedBy        uint           `json:"updated_by"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// EcologicalIndicators bundles the four 0-100 strain scores for factor evaluation.
type EcologicalIndicators struct {
	Soil       int `json:"soil"`
	Vegetation int `json:"vegetation"`
	Wildlife   int `json:"wildlife"`
	Water      int `json:"water"`
}

// Indicators returns the destination's strain scores as one value.
func (d *Destination) Indicators() EcologicalIndicators {
	return EcologicalIndicators{
		Soil:       d.SoilStrain,
		Vegetation: d.VegetationStrain,
		Wildlife:   d.WildlifeStrain,
		Water:      d.WaterStrain,
	}
}
