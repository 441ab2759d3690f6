// Package report builds the statistics office's immutable reports: the
// source data is fetched first, then the report and its indicator rows are
// persisted together. A report is never mutated after creation.
package report

import "time"

// Type enumerates report kinds.
type Type string

const (
	TypeDui        Type = "DUI"
	TypeDocsIssued Type = "DOCS_ISSUED"
	TypeSurvey     Type = "SURVEY"
)

// Report is an immutable snapshot with its indicator rows.
type Report struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Type        Type        `json:"type"`
	Config      string      `json:"config"`
	GeneratedAt time.Time   `json:"generatedAt"`
	SurveyID    string      `json:"surveyId,omitempty"`
	Indicators  []Indicator `json:"indicators"`
}

// Indicator is one data row of a report. Which fields are populated depends
// on the report type: DUI rows carry year/municipality/infraction type,
// docs-issued rows carry the period and document type, survey rows carry the
// question and its dominant answer.
type Indicator struct {
	ID             string     `json:"id"`
	ReportID       string     `json:"reportId"`
	Year           int        `json:"year,omitempty"`
	Municipality   string     `json:"municipality,omitempty"`
	InfractionType string     `json:"infractionType,omitempty"`
	DocumentType   string     `json:"documentType,omitempty"`
	PeriodFrom     *time.Time `json:"periodFrom,omitempty"`
	PeriodTo       *time.Time `json:"periodTo,omitempty"`
	QuestionText   string     `json:"questionText,omitempty"`
	Value          string     `json:"value,omitempty"`
	Count          int        `json:"count"`
}
