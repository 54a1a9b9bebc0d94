package store

import (
	"context"
	"errors"

	"greenpass-service/internal/capacity"
	"greenpass-service/internal/model"

	"gorm.io/gorm"
)

// ReservationStore is the gorm-backed capacity.ReservationRepository and the
// authoritative source of occupancy.
type ReservationStore struct {
	db *gorm.DB
}

func NewReservationStore(db *gorm.DB) *ReservationStore {
	return &ReservationStore{db: db}
}

// OccupiedCount sums group sizes of reservations in the occupying statuses.
// It is a fresh query every time: no cached counter crosses a decision boundary.
func (s *ReservationStore) OccupiedCount(ctx context.Context, destinationID uint) (int, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&model.Reservation{}).
		Where("destination_id = ? AND status IN ?", destinationID, model.OccupyingStatuses).
		Select("COALESCE(SUM(group_size), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, &capacity.TransientError{Op: "occupancy read", Err: err}
	}
	return int(total), nil
}

func (s *ReservationStore) Create(ctx context.Context, r *model.Reservation) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return &capacity.TransientError{Op: "reservation create", Err: err}
	}
	return nil
}

func (s *ReservationStore) GetByReference(ctx context.Context, reference string) (*model.Reservation, error) {
	var r model.Reservation
	err := s.db.WithContext(ctx).Where("reference = ?", reference).First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &capacity.NotFoundError{Resource: "reservation", ID: reference}
		}
		return nil, &capacity.TransientError{Op: "reservation read", Err: err}
	}
	return &r, nil
}

func (s *ReservationStore) UpdateStatus(ctx context.Context, id uint, status string) error {
	result := s.db.WithContext(ctx).Model(&model.Reservation{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return &capacity.TransientError{Op: "reservation update", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return &capacity.NotFoundError{Resource: "reservation", ID: formatID(id)}
	}
	return nil
}

func (s *ReservationStore) ListByDestination(ctx context.Context, destinationID uint) ([]model.Reservation, error) {
	var reservations []model.Reservation
	err := s.db.WithContext(ctx).
		Where("destination_id = ?", destinationID).
		Order("created_at desc").
		Find(&reservations).Error
	if err != nil {
		return nil, &capacity.TransientError{Op: "reservation list", Err: err}
	}
	return reservations, nil
}
