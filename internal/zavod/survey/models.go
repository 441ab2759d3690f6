// Package survey implements the statistics office's citizen surveys:
// questionnaires, tokenized participants, submitted answers, and the
// per-survey statistics feeding the SURVEY report.
package survey

import "time"

// Survey is a questionnaire owned by the statistics office.
type Survey struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	Questions   []Question `json:"questions"`
}

// Question belongs to exactly one survey.
type Question struct {
	ID       string `json:"id"`
	SurveyID string `json:"surveyId"`
	Text     string `json:"text"`
	Position int    `json:"position"`
}

// Participant is an anonymous respondent identified by an opaque token.
type Participant struct {
	ID        string    `json:"id"`
	SurveyID  string    `json:"surveyId"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
	Answered  bool      `json:"answered"`
}

// Answer is one participant's response to one question.
type Answer struct {
	ID            string `json:"id"`
	ParticipantID string `json:"participantId"`
	QuestionID    string `json:"questionId"`
	Value         string `json:"value"`
}

// CreateSurveyDTO creates a survey, optionally with its questions inline.
type CreateSurveyDTO struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Questions   []string `json:"questions,omitempty"`
}

// CreateQuestionDTO appends a question to an existing survey.
type CreateQuestionDTO struct {
	SurveyID string `json:"surveyId"`
	Text     string `json:"text"`
}

// SubmitAnswersDTO carries one participant's full response set.
type SubmitAnswersDTO struct {
	Token   string            `json:"token"`
	Answers map[string]string `json:"answers"` // question id -> value
}

// QuestionStats summarizes responses to one question.
type QuestionStats struct {
	QuestionID   string         `json:"questionId"`
	Text         string         `json:"text"`
	Responses    int            `json:"responses"`
	ValueCounts  map[string]int `json:"valueCounts"`
	MostFrequent string         `json:"mostFrequent,omitempty"`
}

// Statistics is the aggregate for one survey.
type Statistics struct {
	SurveyID     string          `json:"surveyId"`
	Title        string          `json:"title"`
	Participants int             `json:"participants"`
	Responded    int             `json:"responded"`
	Answers      int             `json:"answers"`
	Questions    []QuestionStats `json:"questions"`
}
