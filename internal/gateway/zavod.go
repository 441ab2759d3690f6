package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"egov/pkg/faults"

	"github.com/go-chi/chi/v5"
)

// Survey administration and report generation are back-office concerns, so
// every zavod route except answer submission is admin-only. Participants
// answer through their issued token, which is the access credential.

func (g *Gateway) handleCreateSurvey(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := Require(p); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	var body json.RawMessage
	if !readJSON(w, r, &body) {
		return
	}
	var reply json.RawMessage
	if err := g.rpc.Send(r.Context(), ZavodService, "createSurway", body, &reply); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	writeRaw(w, http.StatusCreated, reply)
}

func (g *Gateway) handleGetSurvey(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := Require(p); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	g.forward(w, r, ZavodService, "getSurway", map[string]string{"id": chi.URLParam(r, "id")})
}

func (g *Gateway) handleListSurveys(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := Require(p); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	g.forward(w, r, ZavodService, "getAllSurways", struct{}{})
}

func (g *Gateway) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := Require(p); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	var body json.RawMessage
	if !readJSON(w, r, &body) {
		return
	}
	var reply json.RawMessage
	if err := g.rpc.Send(r.Context(), ZavodService, "createQuestion", body, &reply); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	writeRaw(w, http.StatusCreated, reply)
}

func (g *Gateway) handleCreateParticipant(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := Require(p); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	var body struct {
		SurveyID string `json:"surveyId"`
	}
	if !readJSON(w, r, &body) {
		return
	}
	var reply json.RawMessage
	if err := g.rpc.Send(r.Context(), ZavodService, "createParticipant", body, &reply); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	writeRaw(w, http.StatusCreated, reply)
}

// handleFindParticipant resolves a participation token. Any authenticated
// caller may look up their own token.
func (g *Gateway) handleFindParticipant(w http.ResponseWriter, r *http.Request) {
	if _, ok := principal(w, r); !ok {
		return
	}
	g.forward(w, r, ZavodService, "findParticipantByToken", map[string]string{"token": chi.URLParam(r, "token")})
}

func (g *Gateway) handleSubmitAnswers(w http.ResponseWriter, r *http.Request) {
	if _, ok := principal(w, r); !ok {
		return
	}
	var body json.RawMessage
	if !readJSON(w, r, &body) {
		return
	}
	g.forward(w, r, ZavodService, "submitAnswers", body)
}

func (g *Gateway) handleSurveyStatistics(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := Require(p); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	g.forward(w, r, ZavodService, "getSurveyStatistics", map[string]string{"surveyId": chi.URLParam(r, "surveyId")})
}

func (g *Gateway) handleGenerateDuiReport(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := Require(p); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		faults.WriteHTTP(w, faults.New(faults.KindBadRequest, "year must be an integer"))
		return
	}
	var reply json.RawMessage
	if err := g.rpc.Send(r.Context(), ZavodService, "generateDuiReport", map[string]int{"year": year}, &reply); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	writeRaw(w, http.StatusCreated, reply)
}

func (g *Gateway) handleGenerateDocsIssuedReport(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := Require(p); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	var body struct {
		From  string `json:"from"`
		To    string `json:"to"`
		Title string `json:"title,omitempty"`
	}
	if !readJSON(w, r, &body) {
		return
	}
	var reply json.RawMessage
	if err := g.rpc.Send(r.Context(), ZavodService, "generateDocsIssuedReport", body, &reply); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	writeRaw(w, http.StatusCreated, reply)
}

func (g *Gateway) handleGenerateSurveyReport(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := Require(p); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	// The body is optional; it may carry a custom report title.
	var body struct {
		Title string `json:"title,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		faults.WriteHTTP(w, faults.Wrap(err, faults.KindBadRequest, "malformed request body"))
		return
	}
	var reply json.RawMessage
	err := g.rpc.Send(r.Context(), ZavodService, "generateSurveyReport",
		map[string]string{"surveyId": chi.URLParam(r, "surveyId"), "title": body.Title}, &reply)
	if err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	writeRaw(w, http.StatusCreated, reply)
}

func (g *Gateway) handleGetReport(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := Require(p); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	g.forward(w, r, ZavodService, "getReportById", map[string]string{"id": chi.URLParam(r, "id")})
}

func (g *Gateway) handleListReports(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := Require(p); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	g.forward(w, r, ZavodService, "getAllReports", struct{}{})
}
