package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gym-service/internal/models"
	"gym-service/internal/storage"
	"gym-service/pkg/response"
)

// memStore is an in-memory Store. Writes staged through a memTx apply
// all-or-nothing on Commit, mirroring the batch-write contract of the real
// store.
type memStore struct {
	mu       sync.Mutex
	classes  map[string]*models.ClassOccurrence
	profiles map[string]*models.UserProfile

	// failure injection
	failUpdateFor string
	beginErr      error
}

func newMemStore() *memStore {
	return &memStore{
		classes:  make(map[string]*models.ClassOccurrence),
		profiles: make(map[string]*models.UserProfile),
	}
}

func copyClass(c *models.ClassOccurrence) *models.ClassOccurrence {
	cp := *c
	cp.Attendees = make([]models.Attendee, len(c.Attendees))
	copy(cp.Attendees, c.Attendees)
	return &cp
}

func (m *memStore) seedClass(c *models.ClassOccurrence) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.Attendees == nil {
		c.Attendees = []models.Attendee{}
	}
	m.classes[c.ID] = copyClass(c)
}

func (m *memStore) class(id string) *models.ClassOccurrence {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.classes[id]
	if !ok {
		return nil
	}
	return copyClass(c)
}

type memTx struct {
	store  *memStore
	staged []func()
}

func (t *memTx) Commit() error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, apply := range t.staged {
		apply()
	}
	t.staged = nil
	return nil
}

func (t *memTx) Rollback() error {
	t.staged = nil
	return nil
}

func (m *memStore) BeginTx(ctx context.Context) (storage.Tx, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	return &memTx{store: m}, nil
}

func (m *memStore) CreateClass(ctx context.Context, tx storage.Tx, c *models.ClassOccurrence) (bool, error) {
	m.mu.Lock()
	_, exists := m.classes[c.ID]
	m.mu.Unlock()
	if exists {
		return false, nil
	}

	cp := copyClass(c)
	tx.(*memTx).staged = append(tx.(*memTx).staged, func() {
		if _, ok := m.classes[cp.ID]; !ok {
			m.classes[cp.ID] = cp
		}
	})
	return true, nil
}

func (m *memStore) GetClass(ctx context.Context, id string) (*models.ClassOccurrence, error) {
	c := m.class(id)
	if c == nil {
		return nil, response.ErrNotFound
	}
	return c, nil
}

func (m *memStore) GetClassForUpdate(ctx context.Context, tx storage.Tx, id string) (*models.ClassOccurrence, error) {
	return m.GetClass(ctx, id)
}

func (m *memStore) UpdateClassAttendees(ctx context.Context, tx storage.Tx, id string, attendees []models.Attendee) error {
	if m.failUpdateFor == id {
		return fmt.Errorf("injected failure for %s", id)
	}

	cp := make([]models.Attendee, len(attendees))
	copy(cp, attendees)
	tx.(*memTx).staged = append(tx.(*memTx).staged, func() {
		if c, ok := m.classes[id]; ok {
			c.Attendees = cp
		}
	})
	return nil
}

func (m *memStore) FindByDayTime(ctx context.Context, day, startTime string) ([]*models.ClassOccurrence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ClassOccurrence
	for _, c := range m.classes {
		if c.Day == day && c.Time == startTime {
			out = append(out, copyClass(c))
		}
	}
	return out, nil
}

func (m *memStore) FindByDateRange(ctx context.Context, from, to string) ([]*models.ClassOccurrence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ClassOccurrence
	for _, c := range m.classes {
		if c.Date >= from && c.Date <= to {
			out = append(out, copyClass(c))
		}
	}
	return out, nil
}

func (m *memStore) FindByAttendeeSnapshot(ctx context.Context, uid, name, photoURL string) ([]*models.ClassOccurrence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ClassOccurrence
	for _, c := range m.classes {
		for _, a := range c.Attendees {
			if a.MatchesSnapshot(uid, name, photoURL) {
				out = append(out, copyClass(c))
				break
			}
		}
	}
	return out, nil
}

func (m *memStore) FindByAttendeeUID(ctx context.Context, uid string) ([]*models.ClassOccurrence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ClassOccurrence
	for _, c := range m.classes {
		for _, a := range c.Attendees {
			if a.UID == uid {
				out = append(out, copyClass(c))
				break
			}
		}
	}
	return out, nil
}

func (m *memStore) CreateProfile(ctx context.Context, tx storage.Tx, p *models.UserProfile) error {
	m.mu.Lock()
	_, exists := m.profiles[p.UID]
	m.mu.Unlock()
	if exists {
		return response.ErrConflict
	}

	cp := *p
	tx.(*memTx).staged = append(tx.(*memTx).staged, func() {
		m.profiles[cp.UID] = &cp
	})
	return nil
}

func (m *memStore) GetProfile(ctx context.Context, uid string) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[uid]
	if !ok {
		return nil, response.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) GetProfileByName(ctx context.Context, name string) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, response.ErrNotFound
}

func (m *memStore) UpdateProfile(ctx context.Context, tx storage.Tx, p *models.UserProfile) error {
	m.mu.Lock()
	_, exists := m.profiles[p.UID]
	m.mu.Unlock()
	if !exists {
		return response.ErrNotFound
	}

	cp := *p
	tx.(*memTx).staged = append(tx.(*memTx).staged, func() {
		m.profiles[cp.UID] = &cp
	})
	return nil
}

// lockerStub records lock order and can refuse locks.
type lockerStub struct {
	mu      sync.Mutex
	locked  []string
	refused bool
	err     error
}

func (l *lockerStub) Lock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	if l.refused {
		return false, nil
	}
	l.mu.Lock()
	l.locked = append(l.locked, key)
	l.mu.Unlock()
	return true, nil
}

func (l *lockerStub) Unlock(ctx context.Context, key string) error {
	return nil
}

var errInjected = errors.New("injected store failure")
