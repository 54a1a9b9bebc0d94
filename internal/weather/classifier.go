// Package weather implements the capacity engine's weather boundary on top of
// stored severity reports. Polling an upstream weather API is a separate
// concern; whatever feeds the reports, the engine only ever sees a severity.
package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"greenpass-service/internal/capacity"
	"greenpass-service/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Classifier resolves a destination's current severity from the most recent
// unexpired report. Missing or expired reports surface as an error, which the
// engine degrades to an "unknown" weather factor.
type Classifier struct {
	db         *gorm.DB
	now        func() time.Time
	defaultTTL time.Duration
}

// NewClassifier builds a classifier. defaultTTL is the validity window applied
// to reports that do not carry their own; zero falls back to six hours.
func NewClassifier(db *gorm.DB, now func() time.Time, defaultTTL time.Duration) *Classifier {
	if now == nil {
		now = time.Now
	}
	if defaultTTL <= 0 {
		defaultTTL = 6 * time.Hour
	}
	return &Classifier{db: db, now: now, defaultTTL: defaultTTL}
}

// SeverityFor implements capacity.WeatherClassifier.
func (c *Classifier) SeverityFor(ctx context.Context, dest *model.Destination) (capacity.Severity, error) {
	var report model.WeatherReport
	err := c.db.WithContext(ctx).
		Where("destination_id = ?", dest.ID).
		First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("no weather report for destination %d", dest.ID)
		}
		return "", err
	}
	if !c.now().Before(report.ExpiresAt) {
		return "", fmt.Errorf("weather report for destination %d expired at %s", dest.ID, report.ExpiresAt.Format(time.RFC3339))
	}
	return capacity.Severity(report.Severity), nil
}

// Report upserts the severity for a destination with a validity window.
func (c *Classifier) Report(ctx context.Context, destinationID uint, severity capacity.Severity, source string, validFor time.Duration) (*model.WeatherReport, error) {
	switch severity {
	case capacity.SeverityNone, capacity.SeverityLow, capacity.SeverityMedium,
		capacity.SeverityHigh, capacity.SeverityCritical:
	default:
		return nil, &capacity.ValidationError{Field: "severity",
			Message: fmt.Sprintf("unknown severity %q", severity)}
	}
	if validFor <= 0 {
		validFor = c.defaultTTL
	}
	now := c.now()
	report := &model.WeatherReport{
		DestinationID: destinationID,
		Severity:      string(severity),
		Source:        source,
		ObservedAt:    now,
		ExpiresAt:     now.Add(validFor),
	}
	err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "destination_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"severity", "source", "observed_at", "expires_at", "updated_at",
		}),
	}).Create(report).Error
	if err != nil {
		return nil, &capacity.TransientError{Op: "weather report upsert", Err: err}
	}
	return report, nil
}
