package survey

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store for tests and local runs.
type MemoryStore struct {
	mu           sync.RWMutex
	surveys      map[string]*Survey
	participants map[string]*Participant
	byToken      map[string]string
	answers      map[string][]Answer // participant id -> answers
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		surveys:      make(map[string]*Survey),
		participants: make(map[string]*Participant),
		byToken:      make(map[string]string),
		answers:      make(map[string][]Answer),
	}
}

func (s *MemoryStore) CreateSurvey(_ context.Context, sv *Survey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *sv
	stored.Questions = append([]Question(nil), sv.Questions...)
	s.surveys[sv.ID] = &stored
	return nil
}

func (s *MemoryStore) GetSurvey(_ context.Context, id string) (*Survey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sv, ok := s.surveys[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *sv
	out.Questions = append([]Question(nil), sv.Questions...)
	return &out, nil
}

func (s *MemoryStore) ListSurveys(_ context.Context) ([]*Survey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Survey, 0, len(s.surveys))
	for _, sv := range s.surveys {
		c := *sv
		c.Questions = append([]Question(nil), sv.Questions...)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) AddQuestion(_ context.Context, q *Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sv, ok := s.surveys[q.SurveyID]
	if !ok {
		return ErrNotFound
	}
	sv.Questions = append(sv.Questions, *q)
	return nil
}

func (s *MemoryStore) AddParticipant(_ context.Context, p *Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.surveys[p.SurveyID]; !ok {
		return ErrNotFound
	}
	stored := *p
	s.participants[p.ID] = &stored
	s.byToken[p.Token] = p.ID
	return nil
}

func (s *MemoryStore) GetParticipantByToken(_ context.Context, token string) (*Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byToken[token]
	if !ok {
		return nil, ErrNotFound
	}
	out := *s.participants[id]
	return &out, nil
}

func (s *MemoryStore) CountParticipants(_ context.Context, surveyID string) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total, responded := 0, 0
	for _, p := range s.participants {
		if p.SurveyID != surveyID {
			continue
		}
		total++
		if p.Answered {
			responded++
		}
	}
	return total, responded, nil
}

func (s *MemoryStore) SaveAnswers(_ context.Context, participantID string, answers []Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[participantID]
	if !ok {
		return ErrNotFound
	}
	if p.Answered {
		return ErrAlreadyAnswered
	}
	s.answers[participantID] = append([]Answer(nil), answers...)
	p.Answered = true
	return nil
}

func (s *MemoryStore) ListAnswersBySurvey(_ context.Context, surveyID string) ([]Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Answer
	for pid, answers := range s.answers {
		if p, ok := s.participants[pid]; !ok || p.SurveyID != surveyID {
			continue
		}
		out = append(out, answers...)
	}
	return out, nil
}
