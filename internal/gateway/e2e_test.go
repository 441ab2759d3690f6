package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"egov/internal/audit"
	jwttoken "egov/internal/jwt_token"
	"egov/internal/mup"
	"egov/internal/mup/citizen"
	"egov/internal/mup/docstore"
	"egov/internal/mup/document"
	"egov/internal/mup/infraction"
	"egov/internal/mup/request"
	"egov/internal/platform/metrics"
	"egov/internal/rpc"
	"egov/internal/zavod"
	"egov/internal/zavod/report"
	"egov/internal/zavod/survey"
)

// EndToEndSuite runs the whole portal in process: the gateway router in
// front of real RPC servers for both backends, with in-memory stores.
type EndToEndSuite struct {
	suite.Suite
	router     http.Handler
	jwt        *jwttoken.JWTService
	adminToken string
}

func TestEndToEndSuite(t *testing.T) {
	suite.Run(t, new(EndToEndSuite))
}

func (s *EndToEndSuite) SetupSuite() {
	log := slog.New(slog.DiscardHandler)

	// mup backend
	mupMetrics := metrics.NewForTest()
	requests := request.NewService(request.NewMemoryStore(), audit.NewPublisher(audit.NewMemoryStore()), mupMetrics, log)
	mupServer := rpc.NewServer(log)
	mup.RegisterCommands(mupServer, mup.Services{
		Citizens:    citizen.NewService(citizen.NewMemoryStore(), log),
		Requests:    requests,
		Infractions: infraction.NewService(infraction.NewMemoryStore(), log),
		Documents:   document.NewService(requests, docstore.NewMemoryStore(), log),
	})
	mupRouter := chi.NewRouter()
	mupServer.Register(mupRouter)
	mupHTTP := httptest.NewServer(mupRouter)
	s.T().Cleanup(mupHTTP.Close)

	// zavod backend, dialing mup for registry data
	zavodMetrics := metrics.NewForTest()
	mupClient := rpc.NewClient(map[string]string{report.MupService: mupHTTP.URL}, time.Second, zavodMetrics)
	surveys := survey.NewService(survey.NewMemoryStore(), nil, 0, log)
	zavodServer := rpc.NewServer(log)
	zavod.RegisterCommands(zavodServer, zavod.Services{
		Surveys: surveys,
		Reports: report.NewService(report.NewMemoryStore(), surveys, mupClient, zavodMetrics, log),
	})
	zavodRouter := chi.NewRouter()
	zavodServer.Register(zavodRouter)
	zavodHTTP := httptest.NewServer(zavodRouter)
	s.T().Cleanup(zavodHTTP.Close)

	// gateway in front of both
	gwMetrics := metrics.NewForTest()
	dispatcher := rpc.NewClient(map[string]string{
		MupService:   mupHTTP.URL,
		ZavodService: zavodHTTP.URL,
	}, time.Second, gwMetrics)
	s.jwt = jwttoken.NewJWTService("e2e-signing-key", "egov-gateway")
	s.router = New(dispatcher, s.jwt, log).Router(gwMetrics)

	adminToken, err := s.jwt.GenerateAccessToken("admin-1", "1111111111111", jwttoken.RoleAdmin, time.Hour)
	s.Require().NoError(err)
	s.adminToken = adminToken
}

func (s *EndToEndSuite) request(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *EndToEndSuite) decode(rec *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), v))
}

func (s *EndToEndSuite) registerAndLogin(jmbg string) (token, citizenID string) {
	rec := s.request(http.MethodPost, "/mup/citizens", "", map[string]string{
		"jmbg":      jmbg,
		"firstName": "Milica",
		"lastName":  "Jovanovic",
		"email":     jmbg + "@example.rs",
		"password":  "correct-horse",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.request(http.MethodPost, "/auth/login", "", map[string]string{
		"jmbg":     jmbg,
		"password": "correct-horse",
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var login loginResponse
	s.decode(rec, &login)
	return login.AccessToken, login.UserID
}

func (s *EndToEndSuite) TestPassportScenario() {
	token, citizenID := s.registerAndLogin("0101990100001")

	// Citizen submits a passport request with the fee paid inline.
	rec := s.request(http.MethodPost, "/mup/request", token, map[string]any{
		"caseNumber": "MUP-2026-0001",
		"type":       "PASSPORT",
		"citizenId":  citizenID,
		"payment": map[string]any{
			"amount":          3000,
			"currency":        "RSD",
			"referenceNumber": "97-0001",
			"status":          "PAID",
			"timestamp":       time.Now().UTC(),
		},
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var created request.Request
	s.decode(rec, &created)
	s.Equal(request.StatusCreated, created.Status)
	s.Require().NotNil(created.Payment)

	// Another citizen cannot read it.
	otherToken, _ := s.registerAndLogin("0101990100002")
	rec = s.request(http.MethodGet, "/mup/request/"+created.ID, otherToken, nil)
	s.Equal(http.StatusForbidden, rec.Code)

	// Skipping IN_PROCESS is rejected.
	rec = s.request(http.MethodPut, "/mup/request/"+created.ID, s.adminToken, map[string]string{"status": "APPROVED"})
	s.Equal(http.StatusBadRequest, rec.Code)

	// The legal path: IN_PROCESS, then APPROVED.
	rec = s.request(http.MethodPut, "/mup/request/"+created.ID, s.adminToken, map[string]string{"status": "IN_PROCESS"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	rec = s.request(http.MethodPut, "/mup/request/"+created.ID, s.adminToken, map[string]string{
		"status":       "APPROVED",
		"adminMessage": "documents verified",
	})
	s.Require().Equal(http.StatusOK, rec.Code)
	var approved request.Request
	s.decode(rec, &approved)
	s.Equal(request.StatusApproved, approved.Status)
	s.Equal("admin-1", approved.ProcessedBy)

	// Admin uploads the produced passport scan.
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	s.Require().NoError(mw.WriteField("requestId", created.ID))
	s.Require().NoError(mw.WriteField("name", "passport"))
	s.Require().NoError(mw.WriteField("type", "PASSPORT"))
	part, err := mw.CreateFormFile("file", "passport.pdf")
	s.Require().NoError(err)
	_, err = part.Write([]byte("%PDF-1.4 passport"))
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	upload := httptest.NewRequest(http.MethodPost, "/mup/documents/upload", &buf)
	upload.Header.Set("Authorization", "Bearer "+s.adminToken)
	upload.Header.Set("Content-Type", mw.FormDataContentType())
	uploadRec := httptest.NewRecorder()
	s.router.ServeHTTP(uploadRec, upload)
	s.Require().Equal(http.StatusCreated, uploadRec.Code, uploadRec.Body.String())

	// The document now rides on the aggregate; the citizen streams it back.
	rec = s.request(http.MethodGet, "/mup/request/"+created.ID, token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var withDoc request.Request
	s.decode(rec, &withDoc)
	s.Require().NotNil(withDoc.Document)
	s.NotEmpty(withDoc.Document.FileKey)

	rec = s.request(http.MethodGet, "/mup/documents/stream/"+withDoc.Document.FileKey, token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("%PDF-1.4 passport", rec.Body.String())
	s.Equal(`inline; filename="passport.pdf"`, rec.Header().Get("Content-Disposition"))

	// APPROVED -> COMPLETED closes the case.
	rec = s.request(http.MethodPut, "/mup/request/"+created.ID, s.adminToken, map[string]string{"status": "COMPLETED"})
	s.Require().Equal(http.StatusOK, rec.Code)

	// Terminal state: no further transitions.
	rec = s.request(http.MethodPut, "/mup/request/"+created.ID, s.adminToken, map[string]string{"status": "IN_PROCESS"})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *EndToEndSuite) TestDuiReportScenario() {
	year := 2023
	for i, m := range []string{"Novi Sad", "Novi Sad", "Nis"} {
		rec := s.request(http.MethodPost, "/mup/infractions", s.adminToken, map[string]any{
			"dateTime":      time.Date(year, time.Month(i+1), 10, 22, 0, 0, 0, time.UTC),
			"municipality":  m,
			"description":   "checkpoint stop",
			"penaltyPoints": 6,
			"fine":          50000,
			"type":          "DRUNK_DRIVING",
		})
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := s.request(http.MethodPost, fmt.Sprintf("/zavod/reports/dui?year=%d", year), s.adminToken, nil)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var rep report.Report
	s.decode(rec, &rep)
	s.Equal(report.TypeDui, rep.Type)

	total := 0
	for _, ind := range rep.Indicators {
		total += ind.Count
	}
	s.Equal(3, total)

	// Reports are immutable snapshots, fetchable later.
	rec = s.request(http.MethodGet, "/zavod/reports/"+rep.ID, s.adminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	// Citizens cannot see reports.
	token, _ := s.registerAndLogin("0101990100003")
	rec = s.request(http.MethodGet, "/zavod/reports/"+rep.ID, token, nil)
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *EndToEndSuite) TestSurveyScenario() {
	rec := s.request(http.MethodPost, "/zavod/surveys", s.adminToken, map[string]any{
		"title":     "Portal satisfaction",
		"questions": []string{"How satisfied are you?"},
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var sv survey.Survey
	s.decode(rec, &sv)
	s.Require().Len(sv.Questions, 1)

	rec = s.request(http.MethodPost, "/zavod/participants", s.adminToken, map[string]string{"surveyId": sv.ID})
	s.Require().Equal(http.StatusCreated, rec.Code)
	var participant survey.Participant
	s.decode(rec, &participant)
	s.NotEmpty(participant.Token)

	citizenToken, _ := s.registerAndLogin("0101990100004")
	answers := map[string]any{
		"token":   participant.Token,
		"answers": map[string]string{sv.Questions[0].ID: "very satisfied"},
	}
	rec = s.request(http.MethodPost, "/zavod/answers", citizenToken, answers)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	// One token answers once.
	rec = s.request(http.MethodPost, "/zavod/answers", citizenToken, answers)
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.request(http.MethodPost, "/zavod/reports/survey/"+sv.ID, s.adminToken, nil)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var rep report.Report
	s.decode(rec, &rep)
	s.Equal(report.TypeSurvey, rep.Type)
	s.Require().Len(rep.Indicators, 1)
	s.Equal("very satisfied", rep.Indicators[0].Value)
	s.Equal(1, rep.Indicators[0].Count)
}

func (s *EndToEndSuite) TestSelfRegistrationCannotEscalate() {
	// Asking for ADMIN on the open registration route must still produce a
	// plain citizen account.
	rec := s.request(http.MethodPost, "/mup/citizens", "", map[string]string{
		"jmbg":      "0101990100009",
		"firstName": "Petar",
		"lastName":  "Petrovic",
		"email":     "petar@example.rs",
		"password":  "correct-horse",
		"role":      "ADMIN",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.request(http.MethodPost, "/auth/login", "", map[string]string{
		"jmbg":     "0101990100009",
		"password": "correct-horse",
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var login loginResponse
	s.decode(rec, &login)

	rec = s.request(http.MethodGet, "/mup/request", login.AccessToken, nil)
	s.Equal(http.StatusForbidden, rec.Code)

	// Administrators provision privileged accounts through their own route.
	rec = s.request(http.MethodPost, "/mup/citizens/admin", login.AccessToken, map[string]string{
		"jmbg":      "0101990100010",
		"firstName": "Jovana",
		"lastName":  "Ilic",
		"email":     "jovana@example.rs",
		"password":  "correct-horse",
		"role":      "ADMIN",
	})
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.request(http.MethodPost, "/mup/citizens/admin", s.adminToken, map[string]string{
		"jmbg":      "0101990100010",
		"firstName": "Jovana",
		"lastName":  "Ilic",
		"email":     "jovana@example.rs",
		"password":  "correct-horse",
		"role":      "ADMIN",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.request(http.MethodPost, "/auth/login", "", map[string]string{
		"jmbg":     "0101990100010",
		"password": "correct-horse",
	})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &login)

	rec = s.request(http.MethodGet, "/mup/request", login.AccessToken, nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *EndToEndSuite) TestUnauthenticatedIsRejected() {
	rec := s.request(http.MethodGet, "/mup/request", "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.True(strings.Contains(rec.Body.String(), "UNAUTHORIZED"))
}
