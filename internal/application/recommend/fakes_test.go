package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/domain"
)

var t0 = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// memLog is an in-memory interaction log. Interactions are kept in insertion
// order, which tests keep chronological.
type memLog struct {
	mu    sync.Mutex
	rows  []domain.Interaction
	err   error
	calls int
}

func (m *memLog) add(customer int64, product int64, t domain.InteractionType, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var cid *int64
	if customer != 0 {
		c := customer
		cid = &c
	}
	m.rows = append(m.rows, domain.Interaction{
		ID: uuid.New(), CustomerID: cid, SessionID: "s", ProductID: product, Type: t, CreatedAt: at,
	})
}

func (m *memLog) Append(_ context.Context, in *domain.Interaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, *in)
	return nil
}

func (m *memLog) snapshot() []domain.Interaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.rows)
}

func (m *memLog) OwnedProducts(_ context.Context, customerID int64, types []domain.InteractionType) ([]int64, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []int64
	for _, r := range m.snapshot() {
		if r.CustomerID != nil && *r.CustomerID == customerID && slices.Contains(types, r.Type) && !slices.Contains(out, r.ProductID) {
			out = append(out, r.ProductID)
		}
	}
	return out, nil
}

func (m *memLog) CustomersWhoInteracted(_ context.Context, productIDs []int64, types []domain.InteractionType, excludeCustomer int64, limit int) ([]int64, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []int64
	for _, r := range m.snapshot() {
		if r.CustomerID == nil || *r.CustomerID == excludeCustomer {
			continue
		}
		if !slices.Contains(types, r.Type) || !slices.Contains(productIDs, r.ProductID) || slices.Contains(out, *r.CustomerID) {
			continue
		}
		out = append(out, *r.CustomerID)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memLog) SignalsByCustomers(_ context.Context, customerIDs []int64, excludeProducts []int64) ([]domain.Signal, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Signal
	for _, r := range m.snapshot() {
		if r.CustomerID == nil || !slices.Contains(customerIDs, *r.CustomerID) || slices.Contains(excludeProducts, r.ProductID) {
			continue
		}
		out = append(out, domain.Signal{ProductID: r.ProductID, Type: r.Type})
	}
	return out, nil
}

func (m *memLog) SignalsSince(_ context.Context, since time.Time) ([]domain.Signal, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Signal
	for _, r := range m.snapshot() {
		if !r.CreatedAt.Before(since) {
			out = append(out, domain.Signal{ProductID: r.ProductID, Type: r.Type})
		}
	}
	return out, nil
}

func (m *memLog) RecentViews(_ context.Context, customerID int64, limit int) ([]int64, error) {
	if m.err != nil {
		return nil, m.err
	}
	rows := m.snapshot()
	var out []int64
	for i := len(rows) - 1; i >= 0 && len(out) < limit; i-- {
		r := rows[i]
		if r.CustomerID != nil && *r.CustomerID == customerID && r.Type == domain.InteractionView {
			out = append(out, r.ProductID)
		}
	}
	return out, nil
}

func (m *memLog) RecentlyViewed(_ context.Context, customerID int64, exclude []int64, limit int) ([]int64, error) {
	if m.err != nil {
		return nil, m.err
	}
	rows := m.snapshot()
	var out []int64
	for i := len(rows) - 1; i >= 0 && len(out) < limit; i-- {
		r := rows[i]
		if r.CustomerID == nil || *r.CustomerID != customerID || r.Type != domain.InteractionView {
			continue
		}
		if slices.Contains(exclude, r.ProductID) || slices.Contains(out, r.ProductID) {
			continue
		}
		out = append(out, r.ProductID)
	}
	return out, nil
}

type fakeCatalog struct {
	mu       sync.Mutex
	products map[int64]domain.Product
	err      error
}

func newFakeCatalog(ps ...domain.Product) *fakeCatalog {
	c := &fakeCatalog{products: map[int64]domain.Product{}}
	for _, p := range ps {
		c.put(p)
	}
	return c
}

func (c *fakeCatalog) put(p domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = p
}

func (c *fakeCatalog) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	p, ok := c.products[id]
	if !ok {
		return nil, domain.ErrNotFound("product not found")
	}
	return &p, nil
}

func (c *fakeCatalog) ListActiveProducts(_ context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	var out []domain.Product
	for _, p := range c.products {
		if !p.IsActive {
			continue
		}
		if f.IDs != nil && !slices.Contains(f.IDs, p.ID) {
			continue
		}
		if f.CategoryID != nil && p.CategoryID != *f.CategoryID {
			continue
		}
		if f.SharesWith != nil {
			sameBrand := p.BrandID != nil && f.SharesWith.BrandID != nil && *p.BrandID == *f.SharesWith.BrandID
			if p.CategoryID != f.SharesWith.CategoryID && !sameBrand {
				continue
			}
		}
		if slices.Contains(f.ExcludeIDs, p.ID) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.RatingAverage != b.RatingAverage {
			return a.RatingAverage > b.RatingAverage
		}
		if a.SalesCount != b.SalesCount {
			return a.SalesCount > b.SalesCount
		}
		return a.ID < b.ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

type order struct {
	id        int64
	delivered bool
	products  []int64
}

type fakeOrders struct {
	orders []order
	err    error
}

func (o *fakeOrders) ListDeliveredOrderItems(_ context.Context, productID int64) ([]domain.OrderItem, error) {
	if o.err != nil {
		return nil, o.err
	}
	var out []domain.OrderItem
	for _, ord := range o.orders {
		if !ord.delivered || !slices.Contains(ord.products, productID) {
			continue
		}
		for _, p := range ord.products {
			out = append(out, domain.OrderItem{OrderID: ord.id, ProductID: p})
		}
	}
	return out, nil
}

// memCache stores JSON so values round-trip the same way they do through Redis.
type memCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *memCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return false, c.getErr
	}
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memCache) Set(_ context.Context, key string, val any, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.data[key] = raw
	c.ttls[key] = ttl
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
		delete(c.ttls, k)
	}
	return nil
}

func (c *memCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

type memExposures struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]*domain.Exposure
	createErr error
}

func newMemExposures() *memExposures {
	return &memExposures{rows: map[uuid.UUID]*domain.Exposure{}}
}

func (m *memExposures) Create(_ context.Context, e *domain.Exposure) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	cp := *e
	m.rows[e.ID] = &cp
	return nil
}

func (m *memExposures) Get(_ context.Context, id uuid.UUID) (*domain.Exposure, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrNotFound("exposure not found")
	}
	cp := *e
	cp.ClickedIDs = slices.Clone(e.ClickedIDs)
	return &cp, nil
}

func (m *memExposures) AppendClick(_ context.Context, id uuid.UUID, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[id]
	if !ok {
		return domain.ErrNotFound("exposure not found")
	}
	e.Click(productID)
	return nil
}

func (m *memExposures) MarkConverted(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[id]
	if !ok {
		return domain.ErrNotFound("exposure not found")
	}
	e.Converted = true
	return nil
}

func (m *memExposures) MarkConvertedByPurchase(_ context.Context, customerID int64, productIDs []int64, since, until time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, e := range m.rows {
		if e.Converted || e.CustomerID == nil || *e.CustomerID != customerID {
			continue
		}
		if e.CreatedAt.Before(since) || e.CreatedAt.After(until) {
			continue
		}
		for _, p := range productIDs {
			if e.Recommends(p) {
				e.Converted = true
				n++
				break
			}
		}
	}
	return n, nil
}

func (m *memExposures) all() []domain.Exposure {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Exposure, 0, len(m.rows))
	for _, e := range m.rows {
		out = append(out, *e)
	}
	return out
}

// inlineTracker runs jobs synchronously; full=true simulates a saturated queue.
type inlineTracker struct {
	full bool
}

func (t inlineTracker) Submit(job func(ctx context.Context)) bool {
	if t.full {
		return false
	}
	job(context.Background())
	return true
}

type failingStrategy struct {
	name string
	err  error
}

func (f failingStrategy) Name() string { return f.name }

func (f failingStrategy) Recommend(context.Context, Request) ([]int64, error) { return nil, f.err }

// flakyStrategy fails with err while it is set. With partial it returns ids
// alongside the error.
type flakyStrategy struct {
	name    string
	ids     []int64
	err     error
	partial bool
}

func (f *flakyStrategy) Name() string { return f.name }

func (f *flakyStrategy) Recommend(_ context.Context, req Request) ([]int64, error) {
	if f.err != nil && !f.partial {
		return nil, f.err
	}
	return topN(f.ids, req.Limit), f.err
}

type staticStrategy struct {
	name  string
	ids   []int64
	calls atomic.Int32
}

func (s *staticStrategy) Name() string { return s.name }

func (s *staticStrategy) Recommend(_ context.Context, req Request) ([]int64, error) {
	s.calls.Add(1)
	return topN(s.ids, req.Limit), nil
}

var errBoom = errors.New("boom")

func product(id, category int64, brand int64, rating float64, active bool) domain.Product {
	p := domain.Product{ID: id, Name: "p", CategoryID: category, IsActive: active, RatingAverage: rating}
	if brand != 0 {
		b := brand
		p.BrandID = &b
	}
	return p
}

type fixture struct {
	log       *memLog
	catalog   *fakeCatalog
	orders    *fakeOrders
	cache     *memCache
	exposures *memExposures
	tracker   inlineTracker
	svc       *Service
}

func newFixture() *fixture {
	f := &fixture{
		log:       &memLog{},
		catalog:   newFakeCatalog(),
		orders:    &fakeOrders{},
		cache:     newMemCache(),
		exposures: newMemExposures(),
	}
	f.build()
	return f
}

func (f *fixture) build() {
	f.svc = New(Deps{
		Interactions: f.log,
		Writer:       f.log,
		Exposures:    f.exposures,
		Catalog:      f.catalog,
		Orders:       f.orders,
		Cache:        f.cache,
		Tracker:      f.tracker,
		Clock:        fixedClock{now: t0},
	}, Options{})
}
