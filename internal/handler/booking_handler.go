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

// CreateBooking is the authoritative admission endpoint. A rejected booking is
// a 409 with the remaining capacity in the reason, not an error.
func (h *Handler) CreateBooking(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordCapacityOperation("reserve")

	var req capacity.ReserveRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		log.Warn("Request validation failed", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	req.UserID = userID(c)

	defer prometheus.TrackDBOperation("insert")(time.Now())

	decision, err := h.svc.TryReserve(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	prometheus.RecordAdmission(decision.Admitted)

	if !decision.Admitted {
		log.Info("Booking rejected",
			zap.Uint("destination_id", req.DestinationID),
			zap.Int("party_size", req.PartySize),
			zap.String("reason", decision.Reason))
		return c.JSON(http.StatusConflict, decision)
	}

	log.Info("Booking admitted",
		zap.Uint("destination_id", req.DestinationID),
		zap.Int("party_size", req.PartySize),
		zap.String("reference", decision.Reference))
	return c.JSON(http.StatusCreated, decision)
}

// TransitionRequest changes a reservation's lifecycle status.
type TransitionRequest struct {
	Status string `json:"status" validate:"required"`
}

// TransitionBooking approves, checks in/out or cancels a reservation.
// Cancelling frees capacity on the next occupancy recomputation.
func (h *Handler) TransitionBooking(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordCapacityOperation("transition")

	reference := c.Param("reference")
	var req TransitionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	reservation, err := h.svc.TransitionReservation(c.Request().Context(), reference, req.Status)
	if err != nil {
		return writeError(c, err)
	}

	log.Info("Reservation transitioned",
		zap.String("reference", reference),
		zap.String("status", req.Status))
	return c.JSON(http.StatusOK, reservation)
}

// ListBookings returns the reservations for a destination.
func (h *Handler) ListBookings(c echo.Context) error {
	prometheus.RecordCapacityOperation("list_bookings")

	id, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid destination ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	reservations, err := h.svc.ListReservations(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reservations": reservations,
		"count":        len(reservations),
	})
}
