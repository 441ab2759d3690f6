package infraction

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store for tests and local runs.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]*Infraction
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*Infraction)}
}

func (s *MemoryStore) Create(_ context.Context, in *Infraction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *in
	s.byID[in.ID] = &stored
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Infraction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	in, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *in
	return &out, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Infraction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Infraction, 0, len(s.byID))
	for _, in := range s.byID {
		c := *in
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateTime.After(out[j].DateTime) })
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, in *Infraction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[in.ID]
	if !ok {
		return ErrNotFound
	}
	*cur = *in
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *MemoryStore) AggregateByYear(_ context.Context, year int) ([]DuiBucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type key struct {
		municipality string
		typ          Type
	}
	groups := make(map[key]*DuiBucket)
	for _, in := range s.byID {
		if in.DateTime.Year() != year {
			continue
		}
		k := key{in.Municipality, in.Type}
		b, ok := groups[k]
		if !ok {
			b = &DuiBucket{Municipality: in.Municipality, Type: in.Type}
			groups[k] = b
		}
		b.Count++
		b.TotalFine += in.Fine
		b.TotalPoints += in.PenaltyPoints
	}

	out := make([]DuiBucket, 0, len(groups))
	for _, b := range groups {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Municipality != out[j].Municipality {
			return out[i].Municipality < out[j].Municipality
		}
		return out[i].Type < out[j].Type
	})
	return out, nil
}
