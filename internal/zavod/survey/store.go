package survey

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("survey record not found")
	ErrAlreadyAnswered = errors.New("participant already answered")
)

// Store persists surveys and their responses. SaveAnswers writes the whole
// response set and flips the participant's answered flag in one atomic unit.
type Store interface {
	CreateSurvey(ctx context.Context, s *Survey) error
	GetSurvey(ctx context.Context, id string) (*Survey, error)
	ListSurveys(ctx context.Context) ([]*Survey, error)
	AddQuestion(ctx context.Context, q *Question) error
	AddParticipant(ctx context.Context, p *Participant) error
	GetParticipantByToken(ctx context.Context, token string) (*Participant, error)
	CountParticipants(ctx context.Context, surveyID string) (total, responded int, err error)
	SaveAnswers(ctx context.Context, participantID string, answers []Answer) error
	ListAnswersBySurvey(ctx context.Context, surveyID string) ([]Answer, error)
}
