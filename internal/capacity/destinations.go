package capacity

import (
	"context"
	"fmt"

	"greenpass-service/internal/model"

	"go.uber.org/zap"
)

// DestinationRequest is the administrative input for registering or updating
// a destination.
type DestinationRequest struct {
	Name             string  `json:"name" validate:"required"`
	Region           string  `json:"region"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	BaseCapacity     int     `json:"base_capacity" validate:"required"`
	SensitivityTier  string  `json:"sensitivity_tier" validate:"required"`
	SoilStrain       int     `json:"soil_strain"`
	VegetationStrain int     `json:"vegetation_strain"`
	WildlifeStrain   int     `json:"wildlife_strain"`
	WaterStrain      int     `json:"water_strain"`
	CreatedBy        uint    `json:"-"`
}

func (r DestinationRequest) validate() error {
	if r.BaseCapacity <= 0 {
		return &ValidationError{Field: "base_capacity", Message: "must be positive"}
	}
	if !model.ValidTier(r.SensitivityTier) {
		return &ValidationError{Field: "sensitivity_tier",
			Message: fmt.Sprintf("unknown tier %q", r.SensitivityTier)}
	}
	for _, strain := range []int{r.SoilStrain, r.VegetationStrain, r.WildlifeStrain, r.WaterStrain} {
		if strain < 0 || strain > 100 {
			return &ValidationError{Field: "ecological_indicators", Message: "must be between 0 and 100"}
		}
	}
	return nil
}

// CreateDestination registers a new destination.
func (s *Service) CreateDestination(ctx context.Context, req DestinationRequest) (*model.Destination, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	dest := &model.Destination{
		Name:             req.Name,
		Region:           req.Region,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
		BaseCapacity:     req.BaseCapacity,
		SensitivityTier:  req.SensitivityTier,
		SoilStrain:       req.SoilStrain,
		VegetationStrain: req.VegetationStrain,
		WildlifeStrain:   req.WildlifeStrain,
		WaterStrain:      req.WaterStrain,
		IsActive:         true,
		CreatedBy:        req.CreatedBy,
		UpdatedBy:        req.CreatedBy,
	}
	if err := s.destinations.Create(ctx, dest); err != nil {
		return nil, err
	}
	s.log.Info("destination created",
		zap.Uint("destination_id", dest.ID),
		zap.String("name", dest.Name),
		zap.String("tier", dest.SensitivityTier),
		zap.Int("base_capacity", dest.BaseCapacity))
	return dest, nil
}

// UpdateDestination mutates a destination's profile. Changing the tier or the
// indicators shifts the computed capacity; the change is audited lazily on the
// next evaluation like any other factor input.
func (s *Service) UpdateDestination(ctx context.Context, id uint, req DestinationRequest) (*model.Destination, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	dest, err := s.destinations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dest.Name = req.Name
	dest.Region = req.Region
	dest.Latitude = req.Latitude
	dest.Longitude = req.Longitude
	dest.BaseCapacity = req.BaseCapacity
	dest.SensitivityTier = req.SensitivityTier
	dest.SoilStrain = req.SoilStrain
	dest.VegetationStrain = req.VegetationStrain
	dest.WildlifeStrain = req.WildlifeStrain
	dest.WaterStrain = req.WaterStrain
	dest.UpdatedBy = req.CreatedBy
	if err := s.destinations.Update(ctx, dest); err != nil {
		return nil, err
	}
	s.log.Info("destination updated", zap.Uint("destination_id", id))
	return dest, nil
}

// GetDestination returns one destination.
func (s *Service) GetDestination(ctx context.Context, id uint) (*model.Destination, error) {
	return s.destinations.GetByID(ctx, id)
}

// ListDestinations returns all destinations.
func (s *Service) ListDestinations(ctx context.Context) ([]model.Destination, error) {
	return s.destinations.List(ctx)
}
