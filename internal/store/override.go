package store

import (
	"context"
	"errors"

	"greenpass-service/internal/capacity"
	"greenpass-service/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OverrideStore is the gorm-backed capacity.OverrideRepository. The unique
// index on destination_id enforces at most one override row per destination;
// Upsert replaces the row in place.
type OverrideStore struct {
	db *gorm.DB
}

func NewOverrideStore(db *gorm.DB) *OverrideStore {
	return &OverrideStore{db: db}
}

func (s *OverrideStore) Upsert(ctx context.Context, o *model.CapacityOverride) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "destination_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"multiplier", "reason", "expires_at", "active", "created_by", "updated_at",
		}),
	}).Create(o).Error
	if err != nil {
		return &capacity.TransientError{Op: "override upsert", Err: err}
	}
	return nil
}

func (s *OverrideStore) Get(ctx context.Context, destinationID uint) (*model.CapacityOverride, error) {
	var o model.CapacityOverride
	err := s.db.WithContext(ctx).Where("destination_id = ?", destinationID).First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &capacity.NotFoundError{Resource: "override", ID: formatID(destinationID)}
		}
		return nil, &capacity.TransientError{Op: "override read", Err: err}
	}
	return &o, nil
}

// Deactivate marks the row inactive. Missing rows are fine: clearing an absent
// override is idempotent.
func (s *OverrideStore) Deactivate(ctx context.Context, destinationID uint) error {
	err := s.db.WithContext(ctx).Model(&model.CapacityOverride{}).
		Where("destination_id = ?", destinationID).
		Update("active", false).Error
	if err != nil {
		return &capacity.TransientError{Op: "override deactivate", Err: err}
	}
	return nil
}
