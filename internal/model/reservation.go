package model

import (
	"time"

	"gorm.io/gorm"
)

// Reservation statuses. A reservation occupies capacity from the moment it is
// committed: pending must count, or two racing requests could both pass the
// admission check before either shows up in the occupancy sum.
const (
	ReservationPending    = "pending"
	ReservationApproved   = "approved"
	ReservationCheckedIn  = "checked-in"
	ReservationCheckedOut = "checked-out"
	ReservationCancelled  = "cancelled"
)

// OccupyingStatuses is the single authoritative definition of which reservation
// states count toward a destination's occupancy. Both the admission gate and
// occupancy recomputation use this list; no call site defines its own.
var OccupyingStatuses = []string{ReservationPending, ReservationApproved, ReservationCheckedIn}

// Reservation is one admitted booking of a party against a destination's capacity.
type Reservation struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	Reference     string         `json:"reference" gorm:"type:varchar(36);uniqueIndex;not null"`
	DestinationID uint           `json:"destination_id" gorm:"index;not null"`
	UserID        uint           `json:"user_id" gorm:"index"`
	GroupSize     int            `json:"group_size" gorm:"not null"`
	Status        string         `json:"status" gorm:"type:varchar(16);index;default:'pending'"`
	VisitDate     time.Time      `json:"visit_date"`
	Notes         string         `json:"notes" gorm:"type:text"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// Occupying reports whether the reservation currently counts toward occupancy.
func (r *Reservation) Occupying() bool {
	for _, s := range OccupyingStatuses {
		if r.Status == s {
			return true
		}
	}
	return false
}
