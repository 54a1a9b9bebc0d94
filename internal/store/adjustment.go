package store

import (
	"context"
	"errors"
	"time"

	"greenpass-service/internal/capacity"
	"greenpass-service/internal/model"

	"gorm.io/gorm"
)

// AdjustmentStore is the gorm-backed capacity.AdjustmentRepository. Entries are
// append-only; the only delete path is retention pruning.
type AdjustmentStore struct {
	db *gorm.DB
}

func NewAdjustmentStore(db *gorm.DB) *AdjustmentStore {
	return &AdjustmentStore{db: db}
}

func (s *AdjustmentStore) Append(ctx context.Context, a *model.CapacityAdjustment) error {
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return &capacity.TransientError{Op: "adjustment append", Err: err}
	}
	return nil
}

func (s *AdjustmentStore) Latest(ctx context.Context, destinationID uint) (*model.CapacityAdjustment, error) {
	var a model.CapacityAdjustment
	err := s.db.WithContext(ctx).
		Where("destination_id = ?", destinationID).
		Order("created_at desc").
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &capacity.NotFoundError{Resource: "adjustment", ID: formatID(destinationID)}
		}
		return nil, &capacity.TransientError{Op: "adjustment read", Err: err}
	}
	return &a, nil
}

// History returns entries newer than since, newest first. destinationID 0
// returns entries for every destination, tier-scoped entries included.
func (s *AdjustmentStore) History(ctx context.Context, destinationID uint, since time.Time) ([]model.CapacityAdjustment, error) {
	query := s.db.WithContext(ctx).Where("created_at >= ?", since)
	if destinationID != 0 {
		query = query.Where("destination_id = ?", destinationID)
	}
	var entries []model.CapacityAdjustment
	if err := query.Order("created_at desc").Find(&entries).Error; err != nil {
		return nil, &capacity.TransientError{Op: "adjustment history", Err: err}
	}
	return entries, nil
}

// PruneBefore deletes entries older than the compliance retention cutoff.
func (s *AdjustmentStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&model.CapacityAdjustment{})
	if result.Error != nil {
		return 0, &capacity.TransientError{Op: "adjustment prune", Err: result.Error}
	}
	return result.RowsAffected, nil
}
