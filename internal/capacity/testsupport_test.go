package capacity

import (
	"context"
	"sync"
	"testing"
	"time"

	"greenpass-service/internal/model"
)

// In-memory repositories for engine and gate tests. They honor the same error
// taxonomy as the gorm-backed stores and allow transient-failure injection.

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type memDestinations struct {
	mu    sync.Mutex
	items map[uint]model.Destination
	next  uint
}

func (m *memDestinations) GetByID(_ context.Context, id uint) (*model.Destination, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.items[id]
	if !ok {
		return nil, &NotFoundError{Resource: "destination", ID: "?"}
	}
	return &d, nil
}

func (m *memDestinations) List(_ context.Context) ([]model.Destination, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Destination, 0, len(m.items))
	for _, d := range m.items {
		out = append(out, d)
	}
	return out, nil
}

func (m *memDestinations) Create(_ context.Context, d *model.Destination) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	d.ID = m.next
	m.items[d.ID] = *d
	return nil
}

func (m *memDestinations) Update(_ context.Context, d *model.Destination) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[d.ID] = *d
	return nil
}

type memReservations struct {
	mu          sync.Mutex
	items       []model.Reservation
	next        uint
	failCreates int
	failCounts  int
	onGet       func(reference string)
}

func (m *memReservations) OccupiedCount(_ context.Context, destinationID uint) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCounts > 0 {
		m.failCounts--
		return 0, &TransientError{Op: "occupancy read", Err: errInjected}
	}
	total := 0
	for i := range m.items {
		r := &m.items[i]
		if r.DestinationID == destinationID && r.Occupying() {
			total += r.GroupSize
		}
	}
	return total, nil
}

func (m *memReservations) Create(_ context.Context, r *model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreates > 0 {
		m.failCreates--
		return &TransientError{Op: "reservation create", Err: errInjected}
	}
	m.next++
	r.ID = m.next
	m.items = append(m.items, *r)
	return nil
}

func (m *memReservations) GetByReference(_ context.Context, reference string) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.onGet != nil {
		m.onGet(reference)
	}
	for i := range m.items {
		if m.items[i].Reference == reference {
			r := m.items[i]
			return &r, nil
		}
	}
	return nil, &NotFoundError{Resource: "reservation", ID: reference}
}

func (m *memReservations) UpdateStatus(_ context.Context, id uint, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].Status = status
			return nil
		}
	}
	return &NotFoundError{Resource: "reservation", ID: "?"}
}

func (m *memReservations) ListByDestination(_ context.Context, destinationID uint) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Reservation
	for _, r := range m.items {
		if r.DestinationID == destinationID {
			out = append(out, r)
		}
	}
	return out, nil
}

type memOverrides struct {
	mu    sync.Mutex
	items map[uint]model.CapacityOverride
}

func (m *memOverrides) Upsert(_ context.Context, o *model.CapacityOverride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[o.DestinationID] = *o
	return nil
}

func (m *memOverrides) Get(_ context.Context, destinationID uint) (*model.CapacityOverride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.items[destinationID]
	if !ok {
		return nil, &NotFoundError{Resource: "override", ID: "?"}
	}
	return &o, nil
}

func (m *memOverrides) Deactivate(_ context.Context, destinationID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.items[destinationID]; ok {
		o.Active = false
		m.items[destinationID] = o
	}
	return nil
}

type memPolicies struct {
	mu    sync.Mutex
	items map[string]model.EcologicalPolicy
}

func (m *memPolicies) GetByTier(_ context.Context, tier string) (*model.EcologicalPolicy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[tier]
	if !ok {
		return nil, &NotFoundError{Resource: "tier", ID: tier}
	}
	return &p, nil
}

func (m *memPolicies) Upsert(_ context.Context, p *model.EcologicalPolicy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[p.Tier] = *p
	return nil
}

func (m *memPolicies) List(_ context.Context) ([]model.EcologicalPolicy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.EcologicalPolicy, 0, len(m.items))
	for _, p := range m.items {
		out = append(out, p)
	}
	return out, nil
}

type memAdjustments struct {
	mu    sync.Mutex
	items []model.CapacityAdjustment
	next  uint
}

func (m *memAdjustments) Append(_ context.Context, a *model.CapacityAdjustment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	a.ID = m.next
	a.CreatedAt = time.Now()
	m.items = append(m.items, *a)
	return nil
}

func (m *memAdjustments) Latest(_ context.Context, destinationID uint) (*model.CapacityAdjustment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i].DestinationID == destinationID {
			a := m.items[i]
			return &a, nil
		}
	}
	return nil, &NotFoundError{Resource: "adjustment", ID: "?"}
}

func (m *memAdjustments) History(_ context.Context, destinationID uint, since time.Time) ([]model.CapacityAdjustment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.CapacityAdjustment
	for _, a := range m.items {
		if destinationID != 0 && a.DestinationID != destinationID {
			continue
		}
		if a.CreatedAt.Before(since) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *memAdjustments) PruneBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []model.CapacityAdjustment
	var removed int64
	for _, a := range m.items {
		if a.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	m.items = kept
	return removed, nil
}

func (m *memAdjustments) count(destinationID uint) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.items {
		if a.DestinationID == destinationID {
			n++
		}
	}
	return n
}

type stubWeather struct {
	mu       sync.Mutex
	severity Severity
	err      error
}

func (w *stubWeather) SeverityFor(context.Context, *model.Destination) (Severity, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.severity, w.err
}

func (w *stubWeather) set(severity Severity, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.severity = severity
	w.err = err
}

var errInjected = &injectedError{}

type injectedError struct{}

func (*injectedError) Error() string { return "injected failure" }

// fixture wires a Service over the in-memory repositories with one seeded
// destination (ID 1, base capacity 100, tier high) and a clock pinned to an
// off-season date.
type fixture struct {
	svc     *Service
	dests   *memDestinations
	resv    *memReservations
	ovr     *memOverrides
	pol     *memPolicies
	adj     *memAdjustments
	weather *stubWeather
	clock   *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := &fakeClock{t: time.Date(2025, time.February, 10, 12, 0, 0, 0, time.UTC)}
	f := &fixture{
		dests:   &memDestinations{items: map[uint]model.Destination{}},
		resv:    &memReservations{},
		ovr:     &memOverrides{items: map[uint]model.CapacityOverride{}},
		pol:     &memPolicies{items: map[string]model.EcologicalPolicy{}},
		adj:     &memAdjustments{},
		weather: &stubWeather{severity: SeverityNone},
		clock:   clock,
	}
	for _, p := range model.DefaultPolicies() {
		f.pol.items[p.Tier] = p
	}
	f.dests.next = 1
	f.dests.items[1] = model.Destination{
		ID:              1,
		Name:            "Verdant Ridge",
		BaseCapacity:    100,
		SensitivityTier: model.TierHigh,
		IsActive:        true,
	}

	f.svc = NewService(f.dests, f.resv, f.ovr, f.pol, f.adj, f.weather,
		Config{Now: clock.Now}, nil)
	return f
}

// seedOccupancy inserts one approved reservation holding n spots.
func (f *fixture) seedOccupancy(t *testing.T, destinationID uint, n int) {
	t.Helper()
	err := f.resv.Create(context.Background(), &model.Reservation{
		Reference:     "seed",
		DestinationID: destinationID,
		GroupSize:     n,
		Status:        model.ReservationApproved,
	})
	if err != nil {
		t.Fatalf("seed occupancy: %v", err)
	}
}
