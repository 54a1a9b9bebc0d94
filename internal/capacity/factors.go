package capacity

import (
	"fmt"
	"time"

	"greenpass-service/internal/model"
)

// Severity is the weather classification consumed from the weather boundary.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Factor labels used in results, audit entries and logs.
const (
	FactorPolicy         = "policy"
	FactorWeather        = "weather"
	FactorSeason         = "season"
	FactorUtilization    = "utilization"
	FactorInfrastructure = "infrastructure"
	FactorOverride       = "override"
)

// Factor is the outcome of one independent evaluator. Multiplier is always in
// (0, 1]. Unknown marks a factor that degraded to the identity multiplier
// because its input was missing or malformed, so operators can tell "good
// conditions" apart from "no data".
type Factor struct {
	Name       string  `json:"name"`
	Multiplier float64 `json:"multiplier"`
	Unknown    bool    `json:"unknown,omitempty"`
	Note       string  `json:"note,omitempty"`
}

// Applied reports whether the factor reduced capacity.
func (f Factor) Applied() bool { return f.Multiplier != 1.0 }

var weatherMultipliers = map[Severity]float64{
	SeverityNone:     1.00,
	SeverityLow:      0.90,
	SeverityMedium:   0.85,
	SeverityHigh:     0.80,
	SeverityCritical: 0.75,
}

// WeatherFactor maps a severity classification to its multiplier. Unknown or
// missing severities fail open to 1.0 and are flagged rather than rejected.
func WeatherFactor(severity Severity) Factor {
	if m, ok := weatherMultipliers[severity]; ok {
		f := Factor{Name: FactorWeather, Multiplier: m}
		if severity != SeverityNone {
			f.Note = fmt.Sprintf("weather severity %s", severity)
		}
		return f
	}
	return Factor{Name: FactorWeather, Multiplier: 1.0, Unknown: true, Note: "no weather data"}
}

// SeasonFactor applies the high-season reduction when month falls inside the
// configured range. The range may wrap the year end (e.g. November-February).
func SeasonFactor(month time.Month, start, end time.Month) Factor {
	if month < time.January || month > time.December {
		return Factor{Name: FactorSeason, Multiplier: 1.0, Unknown: true, Note: "invalid month"}
	}
	inSeason := false
	if start <= end {
		inSeason = month >= start && month <= end
	} else {
		inSeason = month >= start || month <= end
	}
	if inSeason {
		return Factor{Name: FactorSeason, Multiplier: 0.80, Note: "high season"}
	}
	return Factor{Name: FactorSeason, Multiplier: 1.0}
}

// UtilizationFactor applies a safeguard reduction once the occupancy snapshot
// crosses the threshold share of base capacity. It always works from the
// snapshot taken before admission, never from post-admission occupancy, so the
// factor cannot oscillate within a single decision.
func UtilizationFactor(occupancy, baseCapacity int, threshold, multiplier float64) Factor {
	if baseCapacity <= 0 {
		return Factor{Name: FactorUtilization, Multiplier: 1.0, Unknown: true, Note: "base capacity not set"}
	}
	if occupancy < 0 {
		return Factor{Name: FactorUtilization, Multiplier: 1.0, Unknown: true, Note: "negative occupancy snapshot"}
	}
	ratio := float64(occupancy) / float64(baseCapacity)
	if ratio > threshold {
		return Factor{Name: FactorUtilization, Multiplier: multiplier,
			Note: fmt.Sprintf("occupancy at %.0f%% of base capacity", ratio*100)}
	}
	return Factor{Name: FactorUtilization, Multiplier: 1.0}
}

// StrainFactor scores the four ecological indicators and bands the mean:
// <=40 no reduction, 40-70 moderate, >70 heavy. Out-of-range indicators mark
// the factor unknown and fail open.
func StrainFactor(ind model.EcologicalIndicators) Factor {
	scores := []int{ind.Soil, ind.Vegetation, ind.Wildlife, ind.Water}
	sum := 0
	for _, s := range scores {
		if s < 0 || s > 100 {
			return Factor{Name: FactorInfrastructure, Multiplier: 1.0, Unknown: true,
				Note: fmt.Sprintf("indicator out of range: %d", s)}
		}
		sum += s
	}
	mean := float64(sum) / float64(len(scores))
	switch {
	case mean > 70:
		return Factor{Name: FactorInfrastructure, Multiplier: 0.80,
			Note: fmt.Sprintf("severe ecological strain (score %.1f)", mean)}
	case mean > 40:
		return Factor{Name: FactorInfrastructure, Multiplier: 0.90,
			Note: fmt.Sprintf("elevated ecological strain (score %.1f)", mean)}
	}
	return Factor{Name: FactorInfrastructure, Multiplier: 1.0}
}
