package calendar

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/apperr"
)

type MemoryStore struct {
	mu     sync.RWMutex
	events map[uuid.UUID]Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[uuid.UUID]Event)}
}

func (s *MemoryStore) Create(_ context.Context, e *Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	s.mu.Lock()
	s.events[e.ID] = *e
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Update(_ context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[e.ID]; !ok {
		return apperr.NotFound("calendar event %s not found", e.ID)
	}
	s.events[e.ID] = *e
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return apperr.NotFound("calendar event %s not found", id)
	}
	delete(s.events, id)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return nil, apperr.NotFound("calendar event %s not found", id)
	}
	return &e, nil
}

func (s *MemoryStore) List(_ context.Context, from, to time.Time) ([]*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Event
	for _, e := range s.events {
		if e.Start.Before(to) && !e.End.Before(from) {
			ev := e
			out = append(out, &ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}
