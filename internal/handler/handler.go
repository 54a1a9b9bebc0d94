// Package handler exposes the capacity engine over HTTP. Handlers hold the
// service by reference; no handler reaches around it to shared state.
package handler

import (
	"net/http"

	"greenpass-service/internal/capacity"
	"greenpass-service/internal/weather"
	"greenpass-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Handler bundles the HTTP endpoints around the capacity service.
type Handler struct {
	svc     *capacity.Service
	weather *weather.Classifier
}

func New(svc *capacity.Service, wc *weather.Classifier) *Handler {
	return &Handler{svc: svc, weather: wc}
}

// writeError maps the capacity error taxonomy onto HTTP statuses.
func writeError(c echo.Context, err error) error {
	log := logger.FromContext(c)
	switch {
	case capacity.IsValidation(err):
		log.Warn("Request rejected", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case capacity.IsNotFound(err):
		log.Warn("Resource not found", zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case capacity.IsTransient(err):
		log.Error("Store unavailable", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "temporarily unavailable, please try again"})
	default:
		log.Error("Internal error", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

func userID(c echo.Context) uint {
	if id, ok := c.Get("user_id").(uint); ok {
		return id
	}
	return 0
}
