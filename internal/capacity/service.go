package capacity

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config carries the tunable policy knobs. Zero values are replaced with the
// defaults below so a partially filled config stays safe.
type Config struct {
	HighSeasonStart       time.Month
	HighSeasonEnd         time.Month
	UtilizationThreshold  float64
	UtilizationMultiplier float64
	MaxPartySize          int
	ReserveAttempts       int
	Now                   func() time.Time
}

const (
	defaultUtilizationThreshold  = 0.85
	defaultUtilizationMultiplier = 0.90
	defaultMaxPartySize          = 10
	defaultReserveAttempts       = 3

	// Hard bound on the combined multiplier, loosened or tightened by nothing.
	maxCombinedMultiplier = 1.5
)

func (c Config) withDefaults() Config {
	if c.HighSeasonStart == 0 {
		c.HighSeasonStart = time.May
	}
	if c.HighSeasonEnd == 0 {
		c.HighSeasonEnd = time.October
	}
	if c.UtilizationThreshold == 0 {
		c.UtilizationThreshold = defaultUtilizationThreshold
	}
	if c.UtilizationMultiplier == 0 {
		c.UtilizationMultiplier = defaultUtilizationMultiplier
	}
	if c.MaxPartySize == 0 {
		c.MaxPartySize = defaultMaxPartySize
	}
	if c.ReserveAttempts == 0 {
		c.ReserveAttempts = defaultReserveAttempts
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Service is the capacity policy engine and booking admission gate. It is
// constructed once with its collaborators injected and holds no global state;
// per-destination locks serialize admission decisions.
type Service struct {
	destinations DestinationRepository
	reservations ReservationRepository
	overrides    OverrideRepository
	policies     PolicyRepository
	adjustments  AdjustmentRepository
	weather      WeatherClassifier
	cfg          Config
	log          *zap.Logger

	locks sync.Map // destination ID -> *sync.Mutex
}

// NewService wires the engine. A nil logger falls back to zap's no-op logger.
func NewService(
	destinations DestinationRepository,
	reservations ReservationRepository,
	overrides OverrideRepository,
	policies PolicyRepository,
	adjustments AdjustmentRepository,
	weather WeatherClassifier,
	cfg Config,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		destinations: destinations,
		reservations: reservations,
		overrides:    overrides,
		policies:     policies,
		adjustments:  adjustments,
		weather:      weather,
		cfg:          cfg.withDefaults(),
		log:          log,
	}
}

// lockFor returns the mutex serializing admission for one destination.
// Destinations are independent; there is no cross-destination lock.
func (s *Service) lockFor(destinationID uint) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(destinationID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (s *Service) now() time.Time { return s.cfg.Now() }
