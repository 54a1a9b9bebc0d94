package handler

import (
	"net/http"
	"time"

	"greenpass-service/internal/capacity"
	"greenpass-service/pkg/logger"
	"greenpass-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SetOverride installs or replaces a destination's capacity override.
func (h *Handler) SetOverride(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordCapacityOperation("set_override")

	var req capacity.OverrideRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		log.Warn("Request validation failed", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	req.CreatedBy = userID(c)

	defer prometheus.TrackDBOperation("upsert")(time.Now())

	override, err := h.svc.SetOverride(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}

	log.Info("Override set",
		zap.Uint("destination_id", req.DestinationID),
		zap.Float64("multiplier", req.Multiplier),
		zap.Time("expires_at", req.ExpiresAt))
	return c.JSON(http.StatusOK, override)
}

// ClearOverride deactivates a destination's override. Idempotent.
func (h *Handler) ClearOverride(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordCapacityOperation("clear_override")

	id, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid destination ID"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	if err := h.svc.ClearOverride(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}

	log.Info("Override cleared", zap.Uint("destination_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "override cleared"})
}

// GetPolicy returns the policy for one sensitivity tier.
func (h *Handler) GetPolicy(c echo.Context) error {
	prometheus.RecordCapacityOperation("get_policy")

	policy, err := h.svc.GetPolicy(c.Request().Context(), c.Param("tier"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, policy)
}

// ListPolicies returns all tier policies.
func (h *Handler) ListPolicies(c echo.Context) error {
	prometheus.RecordCapacityOperation("list_policies")

	policies, err := h.svc.ListPolicies(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"policies": policies})
}

// UpdatePolicy mutates a tier's baseline policy.
func (h *Handler) UpdatePolicy(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordCapacityOperation("update_policy")

	tier := c.Param("tier")
	var req capacity.PolicyRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	req.UpdatedBy = userID(c)

	defer prometheus.TrackDBOperation("update")(time.Now())

	policy, err := h.svc.UpdatePolicy(c.Request().Context(), tier, req)
	if err != nil {
		return writeError(c, err)
	}

	log.Info("Policy updated",
		zap.String("tier", tier),
		zap.Float64("capacity_multiplier", policy.CapacityMultiplier))
	return c.JSON(http.StatusOK, policy)
}

// WeatherReportRequest feeds a severity observation for a destination.
type WeatherReportRequest struct {
	DestinationID uint   `json:"destination_id" validate:"required"`
	Severity      string `json:"severity" validate:"required"`
	Source        string `json:"source"`
	ValidMinutes  int    `json:"valid_minutes"`
}

// ReportWeather records the current severity classification for a destination.
func (h *Handler) ReportWeather(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordCapacityOperation("report_weather")

	var req WeatherReportRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	report, err := h.weather.Report(c.Request().Context(), req.DestinationID,
		capacity.Severity(req.Severity), req.Source,
		time.Duration(req.ValidMinutes)*time.Minute)
	if err != nil {
		return writeError(c, err)
	}

	log.Info("Weather report recorded",
		zap.Uint("destination_id", req.DestinationID),
		zap.String("severity", req.Severity))
	return c.JSON(http.StatusOK, report)
}

// CreateDestination registers a destination.
func (h *Handler) CreateDestination(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordCapacityOperation("create_destination")

	var req capacity.DestinationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	req.CreatedBy = userID(c)

	defer prometheus.TrackDBOperation("insert")(time.Now())

	dest, err := h.svc.CreateDestination(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}

	log.Info("Destination created",
		zap.Uint("destination_id", dest.ID),
		zap.String("name", dest.Name))
	return c.JSON(http.StatusCreated, dest)
}

// UpdateDestination mutates a destination's profile.
func (h *Handler) UpdateDestination(c echo.Context) error {
	prometheus.RecordCapacityOperation("update_destination")

	id, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid destination ID"})
	}
	var req capacity.DestinationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	req.CreatedBy = userID(c)

	dest, err := h.svc.UpdateDestination(c.Request().Context(), id, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dest)
}

// GetDestination returns one destination.
func (h *Handler) GetDestination(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid destination ID"})
	}
	dest, err := h.svc.GetDestination(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dest)
}

// ListDestinations returns all destinations.
func (h *Handler) ListDestinations(c echo.Context) error {
	dests, err := h.svc.ListDestinations(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"destinations": dests, "count": len(dests)})
}
