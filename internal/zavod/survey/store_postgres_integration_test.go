//go:build integration

package survey

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"

	"egov/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pool  *pgxpool.Pool
	store *PostgresStore
	seq   int
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	pg := containers.NewPostgresContainer(s.T(), "zavod.sql")
	pool, err := pgxpool.New(context.Background(), pg.DSN)
	s.Require().NoError(err)
	s.Require().NoError(pool.Ping(context.Background()))
	s.pool = pool
	s.store = NewPostgres(pool)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.pool.Exec(context.Background(), `TRUNCATE surveys, questions, participants, answers`)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newSurvey(questions ...string) *Survey {
	s.seq++
	sv := &Survey{
		ID:        fmt.Sprintf("survey-%d", s.seq),
		Title:     "Public services satisfaction",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	for i, text := range questions {
		sv.Questions = append(sv.Questions, Question{
			ID:       fmt.Sprintf("%s-q%d", sv.ID, i+1),
			SurveyID: sv.ID,
			Text:     text,
			Position: i + 1,
		})
	}
	return sv
}

func (s *PostgresStoreSuite) TestCreateSurveyWithQuestions() {
	ctx := context.Background()
	sv := s.newSurvey("How satisfied are you?", "Would you recommend the portal?")
	s.Require().NoError(s.store.CreateSurvey(ctx, sv))

	got, err := s.store.GetSurvey(ctx, sv.ID)
	s.Require().NoError(err)
	s.Equal(sv.Title, got.Title)
	s.Require().Len(got.Questions, 2)
	s.Equal(1, got.Questions[0].Position)
	s.Equal(2, got.Questions[1].Position)
}

func (s *PostgresStoreSuite) TestAddQuestionAppendsPosition() {
	ctx := context.Background()
	sv := s.newSurvey("First?")
	s.Require().NoError(s.store.CreateSurvey(ctx, sv))

	q := &Question{ID: "extra-q", SurveyID: sv.ID, Text: "Second?"}
	s.Require().NoError(s.store.AddQuestion(ctx, q))

	got, err := s.store.GetSurvey(ctx, sv.ID)
	s.Require().NoError(err)
	s.Require().Len(got.Questions, 2)
	s.Equal(2, got.Questions[1].Position)
}

func (s *PostgresStoreSuite) TestSaveAnswersOnce() {
	ctx := context.Background()
	sv := s.newSurvey("Rate us 1-5")
	s.Require().NoError(s.store.CreateSurvey(ctx, sv))

	p := &Participant{ID: "part-1", SurveyID: sv.ID, Token: "tok-1", CreatedAt: time.Now().UTC()}
	s.Require().NoError(s.store.AddParticipant(ctx, p))

	answers := []Answer{{ID: "ans-1", ParticipantID: p.ID, QuestionID: sv.Questions[0].ID, Value: "5"}}
	s.Require().NoError(s.store.SaveAnswers(ctx, p.ID, answers))

	got, err := s.store.GetParticipantByToken(ctx, "tok-1")
	s.Require().NoError(err)
	s.True(got.Answered)

	// A second submission from the same token must conflict, not overwrite.
	again := []Answer{{ID: "ans-2", ParticipantID: p.ID, QuestionID: sv.Questions[0].ID, Value: "1"}}
	s.ErrorIs(s.store.SaveAnswers(ctx, p.ID, again), ErrAlreadyAnswered)

	stored, err := s.store.ListAnswersBySurvey(ctx, sv.ID)
	s.Require().NoError(err)
	s.Require().Len(stored, 1)
	s.Equal("5", stored[0].Value)
}

func (s *PostgresStoreSuite) TestSaveAnswersUnknownParticipant() {
	ctx := context.Background()
	err := s.store.SaveAnswers(ctx, "no-such-participant", []Answer{
		{ID: "ans-1", ParticipantID: "no-such-participant", QuestionID: "q", Value: "x"},
	})
	s.ErrorIs(err, ErrNotFound)
}

func (s *PostgresStoreSuite) TestCountParticipants() {
	ctx := context.Background()
	sv := s.newSurvey("Q?")
	s.Require().NoError(s.store.CreateSurvey(ctx, sv))

	for i := 0; i < 3; i++ {
		p := &Participant{
			ID:        fmt.Sprintf("part-%d", i),
			SurveyID:  sv.ID,
			Token:     fmt.Sprintf("tok-%d", i),
			CreatedAt: time.Now().UTC(),
		}
		s.Require().NoError(s.store.AddParticipant(ctx, p))
	}
	s.Require().NoError(s.store.SaveAnswers(ctx, "part-0", []Answer{
		{ID: "ans-1", ParticipantID: "part-0", QuestionID: sv.Questions[0].ID, Value: "yes"},
	}))

	total, responded, err := s.store.CountParticipants(ctx, sv.ID)
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Equal(1, responded)
}
