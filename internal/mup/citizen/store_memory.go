package citizen

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store for tests and local runs.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]*Citizen
	byJMBG map[string]string
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]*Citizen),
		byJMBG: make(map[string]string),
	}
}

func (s *MemoryStore) Create(_ context.Context, c *Citizen) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[c.ID]; ok {
		return ErrDuplicate
	}
	if _, ok := s.byJMBG[c.JMBG]; ok {
		return ErrDuplicate
	}
	stored := *c
	s.byID[c.ID] = &stored
	s.byJMBG[c.JMBG] = c.ID
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Citizen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *c
	return &out, nil
}

func (s *MemoryStore) GetByJMBG(_ context.Context, jmbg string) (*Citizen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byJMBG[jmbg]
	if !ok {
		return nil, ErrNotFound
	}
	out := *s.byID[id]
	return &out, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Citizen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Citizen, 0, len(s.byID))
	for _, c := range s.byID {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JMBG < out[j].JMBG })
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, c *Citizen) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.byID[c.ID]
	if !ok {
		return ErrNotFound
	}
	cur.FirstName = c.FirstName
	cur.LastName = c.LastName
	cur.Email = c.Email
	cur.Phone = c.Phone
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byJMBG, c.JMBG)
	delete(s.byID, id)
	return nil
}
