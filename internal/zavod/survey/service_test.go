package survey

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"egov/pkg/faults"
)

type ServiceSuite struct {
	suite.Suite
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.service = NewService(NewMemoryStore(), nil, 0, slog.New(slog.DiscardHandler))
}

func (s *ServiceSuite) createSurvey(questions ...string) *Survey {
	sv, err := s.service.CreateSurvey(context.Background(), CreateSurveyDTO{
		Title:     "Public transport satisfaction",
		Questions: questions,
	})
	s.Require().NoError(err)
	return sv
}

func (s *ServiceSuite) TestCreateSurvey() {
	ctx := context.Background()

	s.Run("title is required", func() {
		_, err := s.service.CreateSurvey(ctx, CreateSurveyDTO{})
		s.True(faults.Is(err, faults.KindBadRequest))
	})

	s.Run("inline questions get sequential positions", func() {
		sv := s.createSurvey("How often do you ride?", "Overall rating?")
		got, err := s.service.GetSurvey(ctx, sv.ID)
		s.Require().NoError(err)
		s.Require().Len(got.Questions, 2)
		s.Equal(1, got.Questions[0].Position)
		s.Equal(2, got.Questions[1].Position)
	})

	s.Run("unknown survey is not found", func() {
		_, err := s.service.GetSurvey(ctx, "ghost")
		s.True(faults.Is(err, faults.KindNotFound))
	})
}

func (s *ServiceSuite) TestParticipantsAndSubmission() {
	ctx := context.Background()
	sv := s.createSurvey("Overall rating?")
	questionID := sv.Questions[0].ID

	p, err := s.service.AddParticipant(ctx, sv.ID)
	s.Require().NoError(err)
	s.NotEmpty(p.Token)

	s.Run("token lookup finds the participant", func() {
		got, err := s.service.ParticipantByToken(ctx, p.Token)
		s.Require().NoError(err)
		s.Equal(p.ID, got.ID)
		s.False(got.Answered)
	})

	s.Run("answers to foreign questions are rejected", func() {
		_, err := s.service.SubmitAnswers(ctx, SubmitAnswersDTO{
			Token:   p.Token,
			Answers: map[string]string{"not-a-question": "5"},
		})
		s.True(faults.Is(err, faults.KindBadRequest))
	})

	s.Run("submission flips the answered flag", func() {
		got, err := s.service.SubmitAnswers(ctx, SubmitAnswersDTO{
			Token:   p.Token,
			Answers: map[string]string{questionID: "4"},
		})
		s.Require().NoError(err)
		s.True(got.Answered)
	})

	s.Run("second submission conflicts", func() {
		_, err := s.service.SubmitAnswers(ctx, SubmitAnswersDTO{
			Token:   p.Token,
			Answers: map[string]string{questionID: "5"},
		})
		s.True(faults.Is(err, faults.KindConflict))
	})

	s.Run("unknown token is not found", func() {
		_, err := s.service.SubmitAnswers(ctx, SubmitAnswersDTO{
			Token:   "missing",
			Answers: map[string]string{questionID: "3"},
		})
		s.True(faults.Is(err, faults.KindNotFound))
	})
}

func (s *ServiceSuite) TestStatistics() {
	ctx := context.Background()
	sv := s.createSurvey("Overall rating?", "Would you recommend it?")
	rating, recommend := sv.Questions[0].ID, sv.Questions[1].ID

	submit := func(answers map[string]string) {
		p, err := s.service.AddParticipant(ctx, sv.ID)
		s.Require().NoError(err)
		_, err = s.service.SubmitAnswers(ctx, SubmitAnswersDTO{Token: p.Token, Answers: answers})
		s.Require().NoError(err)
	}

	submit(map[string]string{rating: "4", recommend: "yes"})
	submit(map[string]string{rating: "4", recommend: "no"})
	submit(map[string]string{rating: "2", recommend: "yes"})

	// One more participant who never responds.
	_, err := s.service.AddParticipant(ctx, sv.ID)
	s.Require().NoError(err)

	stats, err := s.service.Statistics(ctx, sv.ID)
	s.Require().NoError(err)
	s.Equal(4, stats.Participants)
	s.Equal(3, stats.Responded)
	s.Equal(6, stats.Answers)
	s.Require().Len(stats.Questions, 2)

	s.Equal(rating, stats.Questions[0].QuestionID)
	s.Equal(3, stats.Questions[0].Responses)
	s.Equal("4", stats.Questions[0].MostFrequent)
	s.Equal(2, stats.Questions[0].ValueCounts["4"])
	s.Equal("yes", stats.Questions[1].MostFrequent)
}
