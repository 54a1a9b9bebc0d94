package capacity

import (
	"context"
	"time"

	"greenpass-service/internal/model"
)

// DestinationRepository provides access to destination records. BaseCapacity and
// the ecological indicators are read on every evaluation.
type DestinationRepository interface {
	GetByID(ctx context.Context, id uint) (*model.Destination, error)
	List(ctx context.Context) ([]model.Destination, error)
	Create(ctx context.Context, d *model.Destination) error
	Update(ctx context.Context, d *model.Destination) error
}

// ReservationRepository is the authoritative source of occupancy. OccupiedCount
// sums group sizes over model.OccupyingStatuses; it is never cached across an
// admission decision.
type ReservationRepository interface {
	OccupiedCount(ctx context.Context, destinationID uint) (int, error)
	Create(ctx context.Context, r *model.Reservation) error
	GetByReference(ctx context.Context, reference string) (*model.Reservation, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	ListByDestination(ctx context.Context, destinationID uint) ([]model.Reservation, error)
}

// OverrideRepository stores at most one override row per destination. Expiry is
// not the repository's concern: it returns the raw row and the service decides
// whether the row still applies.
type OverrideRepository interface {
	Upsert(ctx context.Context, o *model.CapacityOverride) error
	Get(ctx context.Context, destinationID uint) (*model.CapacityOverride, error)
	Deactivate(ctx context.Context, destinationID uint) error
}

// PolicyRepository holds one EcologicalPolicy per sensitivity tier.
type PolicyRepository interface {
	GetByTier(ctx context.Context, tier string) (*model.EcologicalPolicy, error)
	Upsert(ctx context.Context, p *model.EcologicalPolicy) error
	List(ctx context.Context) ([]model.EcologicalPolicy, error)
}

// AdjustmentRepository is the append-only audit trail of capacity changes.
type AdjustmentRepository interface {
	Append(ctx context.Context, a *model.CapacityAdjustment) error
	Latest(ctx context.Context, destinationID uint) (*model.CapacityAdjustment, error)
	History(ctx context.Context, destinationID uint, since time.Time) ([]model.CapacityAdjustment, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// WeatherClassifier is the boundary to weather ingestion. Implementations
// return the current severity for a destination; any error is treated as
// missing data and degrades the weather factor to unknown.
type WeatherClassifier interface {
	SeverityFor(ctx context.Context, dest *model.Destination) (Severity, error)
}
