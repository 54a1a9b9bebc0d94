package handler

import (
	"net/http"
	"strconv"
	"time"

	"greenpass-service/pkg/logger"
	"greenpass-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// GetDynamicCapacity returns the current adjusted capacity for a destination.
func (h *Handler) GetDynamicCapacity(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordCapacityOperation("get_capacity")

	id, err := parseUintParam(c, "id")
	if err != nil {
		log.Error("Invalid destination ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid destination ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	res, err := h.svc.GetDynamicCapacity(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	prometheus.UpdateCapacityGauges(res.DestinationID, res.AdjustedCapacity, res.AvailableSpots, res.Override != nil)

	log.Info("Capacity evaluated",
		zap.Uint("destination_id", id),
		zap.Int("adjusted_capacity", res.AdjustedCapacity),
		zap.Float64("combined_multiplier", res.CombinedMultiplier),
		zap.Strings("active_factors", res.ActiveFactors))
	return c.JSON(http.StatusOK, res)
}

// GetAvailableSpots returns the remaining spots for a destination.
func (h *Handler) GetAvailableSpots(c echo.Context) error {
	prometheus.RecordCapacityOperation("get_spots")

	id, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid destination ID"})
	}

	spots, err := h.svc.GetAvailableSpots(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"destination_id":  id,
		"available_spots": spots,
	})
}

// IsBookingAllowed is the advisory pre-check used by booking forms. The
// authoritative decision is made by TryReserve.
func (h *Handler) IsBookingAllowed(c echo.Context) error {
	prometheus.RecordCapacityOperation("booking_allowed")

	id, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid destination ID"})
	}
	partySize, err := strconv.Atoi(c.QueryParam("party_size"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid party_size"})
	}

	decision, err := h.svc.IsBookingAllowed(c.Request().Context(), id, partySize)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"destination_id": id,
		"party_size":     partySize,
		"allowed":        decision.Admitted,
		"remaining":      decision.Remaining,
		"reason":         decision.Reason,
	})
}

// GetAdjustmentHistory returns the audit trail, optionally scoped by
// destination and trailing window.
func (h *Handler) GetAdjustmentHistory(c echo.Context) error {
	prometheus.RecordCapacityOperation("adjustment_history")

	var destinationID uint
	if raw := c.QueryParam("destination_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid destination_id"})
		}
		destinationID = uint(id)
	}
	sinceDays, _ := strconv.Atoi(c.QueryParam("since_days"))

	entries, err := h.svc.GetAdjustmentHistory(c.Request().Context(), destinationID, sinceDays)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"adjustments": entries,
		"count":       len(entries),
	})
}

func parseUintParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
