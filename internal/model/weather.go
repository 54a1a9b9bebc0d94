package model

import "time"

// WeatherReport is the latest severity classification known for a destination,
// fed by the ingestion boundary (or an administrator). Reports expire so stale
// data reads as "unknown" instead of masquerading as good conditions.
type WeatherReport struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	DestinationID uint      `json:"destination_id" gorm:"uniqueIndex;not null"`
	Severity      string    `json:"severity" gorm:"type:varchar(16);not null"`
	Source        string    `json:"source" gorm:"type:varchar(100)"`
	ObservedAt    time.Time `json:"observed_at"`
	ExpiresAt     time.Time `json:"expires_at" gorm:"index"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
