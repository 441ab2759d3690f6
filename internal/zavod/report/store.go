package report

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var ErrNotFound = errors.New("report not found")

// Store persists reports. Save writes the report and all its indicator rows
// atomically; there is deliberately no update or delete.
type Store interface {
	Save(ctx context.Context, r *Report) error
	Get(ctx context.Context, id string) (*Report, error)
	List(ctx context.Context) ([]*Report, error)
}

// MemoryStore is an in-memory Store for tests and local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string]*Report
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reports: make(map[string]*Report)}
}

func (s *MemoryStore) Save(_ context.Context, r *Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *r
	stored.Indicators = append([]Indicator(nil), r.Indicators...)
	s.reports[r.ID] = &stored
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *r
	out.Indicators = append([]Indicator(nil), r.Indicators...)
	return &out, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Report, 0, len(s.reports))
	for _, r := range s.reports {
		c := *r
		c.Indicators = append([]Indicator(nil), r.Indicators...)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GeneratedAt.After(out[j].GeneratedAt) })
	return out, nil
}
