package store

import (
	"context"
	"errors"
	"strconv"

	"greenpass-service/internal/capacity"
	"greenpass-service/internal/model"

	"gorm.io/gorm"
)

// DestinationStore is the gorm-backed capacity.DestinationRepository.
type DestinationStore struct {
	db *gorm.DB
}

func NewDestinationStore(db *gorm.DB) *DestinationStore {
	return &DestinationStore{db: db}
}

func (s *DestinationStore) GetByID(ctx context.Context, id uint) (*model.Destination, error) {
	var dest model.Destination
	err := s.db.WithContext(ctx).First(&dest, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &capacity.NotFoundError{Resource: "destination", ID: formatID(id)}
		}
		return nil, &capacity.TransientError{Op: "destination read", Err: err}
	}
	return &dest, nil
}

func (s *DestinationStore) List(ctx context.Context) ([]model.Destination, error) {
	var dests []model.Destination
	if err := s.db.WithContext(ctx).Order("name").Find(&dests).Error; err != nil {
		return nil, &capacity.TransientError{Op: "destination list", Err: err}
	}
	return dests, nil
}

func (s *DestinationStore) Create(ctx context.Context, d *model.Destination) error {
	if err := s.db.WithContext(ctx).Create(d).Error; err != nil {
		return &capacity.TransientError{Op: "destination create", Err: err}
	}
	return nil
}

func (s *DestinationStore) Update(ctx context.Context, d *model.Destination) error {
	if err := s.db.WithContext(ctx).Save(d).Error; err != nil {
		return &capacity.TransientError{Op: "destination update", Err: err}
	}
	return nil
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
