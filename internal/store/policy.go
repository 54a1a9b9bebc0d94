package store

import (
	"context"
	"errors"

	"greenpass-service/internal/capacity"
	"greenpass-service/internal/model"

	"gorm.io/gorm"
)

// PolicyStore is the gorm-backed capacity.PolicyRepository.
type PolicyStore struct {
	db *gorm.DB
}

func NewPolicyStore(db *gorm.DB) *PolicyStore {
	return &PolicyStore{db: db}
}

func (s *PolicyStore) GetByTier(ctx context.Context, tier string) (*model.EcologicalPolicy, error) {
	var p model.EcologicalPolicy
	err := s.db.WithContext(ctx).Where("tier = ?", tier).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &capacity.NotFoundError{Resource: "tier", ID: tier}
		}
		return nil, &capacity.TransientError{Op: "policy read", Err: err}
	}
	return &p, nil
}

func (s *PolicyStore) Upsert(ctx context.Context, p *model.EcologicalPolicy) error {
	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return &capacity.TransientError{Op: "policy upsert", Err: err}
	}
	return nil
}

func (s *PolicyStore) List(ctx context.Context) ([]model.EcologicalPolicy, error) {
	var policies []model.EcologicalPolicy
	if err := s.db.WithContext(ctx).Order("tier").Find(&policies).Error; err != nil {
		return nil, &capacity.TransientError{Op: "policy list", Err: err}
	}
	return policies, nil
}

// Seed inserts the default policy for any tier that has none yet. Existing
// rows are left untouched so administrative changes survive restarts.
func (s *PolicyStore) Seed(ctx context.Context, defaults []model.EcologicalPolicy) error {
	for _, p := range defaults {
		var count int64
		if err := s.db.WithContext(ctx).Model(&model.EcologicalPolicy{}).
			Where("tier = ?", p.Tier).Count(&count).Error; err != nil {
			return &capacity.TransientError{Op: "policy seed", Err: err}
		}
		if count > 0 {
			continue
		}
		if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
			return &capacity.TransientError{Op: "policy seed", Err: err}
		}
	}
	return nil
}
