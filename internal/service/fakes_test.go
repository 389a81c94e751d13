package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/courierwatch/courier-tracker/internal/database"
	"github.com/courierwatch/courier-tracker/internal/events"
	"github.com/courierwatch/courier-tracker/internal/model"
	"github.com/courierwatch/courier-tracker/internal/repository"
)

// fakeStore is an in-memory couriers/orders store. Transactions snapshot it
// and restore the snapshot when the transaction function fails.
type fakeStore struct {
	couriers      []model.Courier
	sessions      []model.Session
	nextCourierID int64
	nextSessionID int64

	// failOn makes the named repository method return failErr.
	failOn  string
	failErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextCourierID: 1, nextSessionID: 1}
}

func (s *fakeStore) fail(method string) error {
	if s.failOn == method {
		return s.failErr
	}
	return nil
}

func (s *fakeStore) clone() *fakeStore {
	c := *s
	c.couriers = append([]model.Courier(nil), s.couriers...)
	c.sessions = make([]model.Session, len(s.sessions))
	for i, session := range s.sessions {
		if session.RemainingMinutes != nil {
			v := *session.RemainingMinutes
			session.RemainingMinutes = &v
		}
		c.sessions[i] = session
	}
	return &c
}

func (s *fakeStore) restore(from *fakeStore) {
	s.couriers = from.couriers
	s.sessions = from.sessions
	s.nextCourierID = from.nextCourierID
	s.nextSessionID = from.nextSessionID
}

func (s *fakeStore) sessionValues(courierID int64) []float64 {
	var values []float64
	for _, session := range s.sessions {
		if session.CourierID == courierID {
			values = append(values, session.Value())
		}
	}
	return values
}

type fakeTransactor struct {
	store    *fakeStore
	beginErr error
}

func (f *fakeTransactor) WithTx(ctx context.Context, fn database.TxFunc) error {
	if f.beginErr != nil {
		return fmt.Errorf("begin transaction: %w", f.beginErr)
	}
	snapshot := f.store.clone()
	if err := fn(nil); err != nil {
		f.store.restore(snapshot)
		return err
	}
	return nil
}

type fakeCourierRepo struct {
	store *fakeStore
}

func (r *fakeCourierRepo) WithTx(tx *sqlx.Tx) repository.CourierRepository {
	return r
}

func (r *fakeCourierRepo) find(match func(model.Courier) bool) *model.Courier {
	for i := range r.store.couriers {
		if match(r.store.couriers[i]) {
			c := r.store.couriers[i]
			return &c
		}
	}
	return nil
}

func (r *fakeCourierRepo) FindByID(ctx context.Context, id int64) (*model.Courier, error) {
	if err := r.store.fail("FindByID"); err != nil {
		return nil, err
	}
	return r.find(func(c model.Courier) bool { return c.ID == id }), nil
}

func (r *fakeCourierRepo) FindByName(ctx context.Context, name string) (*model.Courier, error) {
	if err := r.store.fail("FindByName"); err != nil {
		return nil, err
	}
	return r.find(func(c model.Courier) bool { return c.Name == name }), nil
}

func (r *fakeCourierRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Courier, error) {
	if err := r.store.fail("FindAll"); err != nil {
		return nil, err
	}
	couriers := append([]model.Courier(nil), r.store.couriers...)
	sort.Slice(couriers, func(i, j int) bool { return couriers[i].Name < couriers[j].Name })
	return page(couriers, limit, offset), nil
}

func (r *fakeCourierRepo) FindOrCreate(ctx context.Context, name string, now time.Time) (*model.Courier, error) {
	if err := r.store.fail("FindOrCreate"); err != nil {
		return nil, err
	}
	if existing := r.find(func(c model.Courier) bool { return c.Name == name }); existing != nil {
		return existing, nil
	}
	courier := model.Courier{ID: r.store.nextCourierID, Name: name, LastUpdate: now}
	r.store.nextCourierID++
	r.store.couriers = append(r.store.couriers, courier)
	return &courier, nil
}

func (r *fakeCourierRepo) UpdateStats(ctx context.Context, id int64, stats model.CourierStats, now time.Time) error {
	if err := r.store.fail("UpdateStats"); err != nil {
		return err
	}
	for i := range r.store.couriers {
		if r.store.couriers[i].ID == id {
			r.store.couriers[i].Deliveries = stats.Count
			r.store.couriers[i].DelSum = stats.Total
			r.store.couriers[i].AvgTime = stats.Average
			r.store.couriers[i].LastUpdate = now
		}
	}
	return nil
}

func (r *fakeCourierRepo) Count(ctx context.Context) (int, error) {
	if err := r.store.fail("Count"); err != nil {
		return 0, err
	}
	return len(r.store.couriers), nil
}

type fakeSessionRepo struct {
	store *fakeStore
}

func (r *fakeSessionRepo) WithTx(tx *sqlx.Tx) repository.SessionRepository {
	return r
}

func (r *fakeSessionRepo) FindLatestByCourierID(ctx context.Context, courierID int64) (*model.Session, error) {
	if err := r.store.fail("FindLatestByCourierID"); err != nil {
		return nil, err
	}
	var latest *model.Session
	for i := range r.store.sessions {
		s := r.store.sessions[i]
		if s.CourierID != courierID {
			continue
		}
		if latest == nil || s.ObservedAt.After(latest.ObservedAt) ||
			(s.ObservedAt.Equal(latest.ObservedAt) && s.ID > latest.ID) {
			latest = &s
		}
	}
	return latest, nil
}

func (r *fakeSessionRepo) FindByCourierID(ctx context.Context, courierID int64) ([]model.Session, error) {
	if err := r.store.fail("FindByCourierID"); err != nil {
		return nil, err
	}
	var sessions []model.Session
	for _, s := range r.store.sessions {
		if s.CourierID == courierID {
			sessions = append(sessions, s)
		}
	}
	return sessions, nil
}

func (r *fakeSessionRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Session, error) {
	if err := r.store.fail("FindAll"); err != nil {
		return nil, err
	}
	sessions := append([]model.Session(nil), r.store.sessions...)
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID > sessions[j].ID })
	return page(sessions, limit, offset), nil
}

func (r *fakeSessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	if err := r.store.fail("Create"); err != nil {
		return nil, err
	}
	value := params.RemainingMinutes
	session := model.Session{
		ID:               r.store.nextSessionID,
		CourierID:        params.CourierID,
		RemainingMinutes: &value,
		ObservedAt:       params.ObservedAt,
	}
	r.store.nextSessionID++
	r.store.sessions = append(r.store.sessions, session)
	return &session, nil
}

func (r *fakeSessionRepo) Touch(ctx context.Context, id int64, value *float64, at time.Time) error {
	if err := r.store.fail("Touch"); err != nil {
		return err
	}
	for i := range r.store.sessions {
		if r.store.sessions[i].ID == id {
			if value != nil {
				v := *value
				r.store.sessions[i].RemainingMinutes = &v
			}
			r.store.sessions[i].ObservedAt = at
		}
	}
	return nil
}

func (r *fakeSessionRepo) Totals(ctx context.Context, courierID int64) (int, float64, error) {
	if err := r.store.fail("Totals"); err != nil {
		return 0, 0, err
	}
	var count int
	var total float64
	for _, s := range r.store.sessions {
		if s.CourierID == courierID {
			count++
			total += s.Value()
		}
	}
	return count, total, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit < len(items) {
		items = items[:limit]
	}
	return items
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) types() []model.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]model.EventType, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}

// tickingClock advances one minute on every call.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2024, 11, 5, 14, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Minute)
		return now
	}
}

var errStatement = errors.New("pq: value too long for type")

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
