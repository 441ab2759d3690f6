package survey

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	platformredis "egov/internal/platform/redis"
	"egov/pkg/faults"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// Service implements survey management and the cached statistics aggregate.
// The redis client may be nil; statistics are then recomputed on every call.
type Service struct {
	store    Store
	cache    *platformredis.Client
	cacheTTL time.Duration
	log      *slog.Logger
	now      func() time.Time
}

func NewService(store Store, cache *platformredis.Client, cacheTTL time.Duration, log *slog.Logger) *Service {
	return &Service{
		store:    store,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log,
		now:      time.Now,
	}
}

func (s *Service) CreateSurvey(ctx context.Context, dto CreateSurveyDTO) (*Survey, error) {
	if dto.Title == "" {
		return nil, faults.New(faults.KindBadRequest, "survey title is required")
	}
	sv := &Survey{
		ID:          uuid.NewString(),
		Title:       dto.Title,
		Description: dto.Description,
		CreatedAt:   s.now(),
	}
	for i, text := range dto.Questions {
		if text == "" {
			return nil, faults.New(faults.KindBadRequest, "question text is required")
		}
		sv.Questions = append(sv.Questions, Question{
			ID:       uuid.NewString(),
			SurveyID: sv.ID,
			Text:     text,
			Position: i + 1,
		})
	}
	if err := s.store.CreateSurvey(ctx, sv); err != nil {
		return nil, fmt.Errorf("create survey: %w", err)
	}
	s.log.Info("survey created", "survey_id", sv.ID, "questions", len(sv.Questions))
	return sv, nil
}

func (s *Service) GetSurvey(ctx context.Context, id string) (*Survey, error) {
	sv, err := s.store.GetSurvey(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, faults.Wrap(err, faults.KindNotFound, "survey not found")
		}
		return nil, fmt.Errorf("get survey: %w", err)
	}
	return sv, nil
}

func (s *Service) ListSurveys(ctx context.Context) ([]*Survey, error) {
	out, err := s.store.ListSurveys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	return out, nil
}

func (s *Service) AddQuestion(ctx context.Context, dto CreateQuestionDTO) (*Question, error) {
	if dto.Text == "" {
		return nil, faults.New(faults.KindBadRequest, "question text is required")
	}
	q := &Question{
		ID:       uuid.NewString(),
		SurveyID: dto.SurveyID,
		Text:     dto.Text,
	}
	if err := s.store.AddQuestion(ctx, q); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, faults.Wrap(err, faults.KindNotFound, "survey not found")
		}
		return nil, fmt.Errorf("add question: %w", err)
	}
	s.invalidateStats(ctx, dto.SurveyID)
	return q, nil
}

// AddParticipant issues an anonymous response token for the survey.
func (s *Service) AddParticipant(ctx context.Context, surveyID string) (*Participant, error) {
	if _, err := s.GetSurvey(ctx, surveyID); err != nil {
		return nil, err
	}
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	p := &Participant{
		ID:        uuid.NewString(),
		SurveyID:  surveyID,
		Token:     hex.EncodeToString(buf),
		CreatedAt: s.now(),
	}
	if err := s.store.AddParticipant(ctx, p); err != nil {
		return nil, fmt.Errorf("add participant: %w", err)
	}
	return p, nil
}

func (s *Service) ParticipantByToken(ctx context.Context, token string) (*Participant, error) {
	p, err := s.store.GetParticipantByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, faults.Wrap(err, faults.KindNotFound, "participant not found")
		}
		return nil, fmt.Errorf("get participant: %w", err)
	}
	return p, nil
}

// SubmitAnswers records a participant's full response set. A token submits
// at most once; repeats conflict.
func (s *Service) SubmitAnswers(ctx context.Context, dto SubmitAnswersDTO) (*Participant, error) {
	if len(dto.Answers) == 0 {
		return nil, faults.New(faults.KindBadRequest, "at least one answer is required")
	}
	p, err := s.ParticipantByToken(ctx, dto.Token)
	if err != nil {
		return nil, err
	}

	sv, err := s.GetSurvey(ctx, p.SurveyID)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(sv.Questions))
	for _, q := range sv.Questions {
		known[q.ID] = true
	}

	answers := make([]Answer, 0, len(dto.Answers))
	for questionID, value := range dto.Answers {
		if !known[questionID] {
			return nil, faults.New(faults.KindBadRequest,
				fmt.Sprintf("question %s does not belong to this survey", questionID))
		}
		answers = append(answers, Answer{
			ID:            uuid.NewString(),
			ParticipantID: p.ID,
			QuestionID:    questionID,
			Value:         value,
		})
	}

	if err := s.store.SaveAnswers(ctx, p.ID, answers); err != nil {
		switch {
		case errors.Is(err, ErrAlreadyAnswered):
			return nil, faults.Wrap(err, faults.KindConflict, "participant already answered this survey")
		case errors.Is(err, ErrNotFound):
			return nil, faults.Wrap(err, faults.KindNotFound, "participant not found")
		}
		return nil, fmt.Errorf("save answers: %w", err)
	}

	p.Answered = true
	s.invalidateStats(ctx, p.SurveyID)
	s.log.Info("survey answers submitted", "survey_id", p.SurveyID, "answers", len(answers))
	return p, nil
}

// Statistics aggregates the survey's responses. Results are cached in redis
// for cacheTTL and invalidated whenever a submission changes the data.
func (s *Service) Statistics(ctx context.Context, surveyID string) (*Statistics, error) {
	if cached := s.cachedStats(ctx, surveyID); cached != nil {
		return cached, nil
	}

	var (
		sv               *Survey
		total, responded int
		answers          []Answer
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sv, err = s.GetSurvey(gctx, surveyID)
		return err
	})
	g.Go(func() error {
		var err error
		total, responded, err = s.store.CountParticipants(gctx, surveyID)
		if err != nil {
			return fmt.Errorf("count participants: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		answers, err = s.store.ListAnswersBySurvey(gctx, surveyID)
		if err != nil {
			return fmt.Errorf("list answers: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &Statistics{
		SurveyID:     surveyID,
		Title:        sv.Title,
		Participants: total,
		Responded:    responded,
		Answers:      len(answers),
	}

	byQuestion := make(map[string]*QuestionStats, len(sv.Questions))
	for _, q := range sv.Questions {
		qs := &QuestionStats{QuestionID: q.ID, Text: q.Text, ValueCounts: make(map[string]int)}
		byQuestion[q.ID] = qs
	}
	for _, a := range answers {
		qs, ok := byQuestion[a.QuestionID]
		if !ok {
			continue
		}
		qs.Responses++
		qs.ValueCounts[a.Value]++
	}
	for _, q := range sv.Questions {
		qs := byQuestion[q.ID]
		best := 0
		for value, n := range qs.ValueCounts {
			if n > best || (n == best && value < qs.MostFrequent) {
				best = n
				qs.MostFrequent = value
			}
		}
		stats.Questions = append(stats.Questions, *qs)
	}

	s.cacheStats(ctx, stats)
	return stats, nil
}

func statsKey(surveyID string) string {
	return "zavod:survey-stats:" + surveyID
}

func (s *Service) cachedStats(ctx context.Context, surveyID string) *Statistics {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, statsKey(surveyID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn("stats cache read failed", "survey_id", surveyID, "error", err)
		}
		return nil
	}
	var stats Statistics
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil
	}
	return &stats
}

func (s *Service) cacheStats(ctx context.Context, stats *Statistics) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, statsKey(stats.SurveyID), raw, s.cacheTTL).Err(); err != nil {
		s.log.Warn("stats cache write failed", "survey_id", stats.SurveyID, "error", err)
	}
}

func (s *Service) invalidateStats(ctx context.Context, surveyID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, statsKey(surveyID)).Err(); err != nil {
		s.log.Warn("stats cache invalidation failed", "survey_id", surveyID, "error", err)
	}
}
