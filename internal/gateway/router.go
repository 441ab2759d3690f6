package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"egov/internal/platform/metrics"
	"egov/internal/platform/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router builds the public route table. Citizen registration and login are
// the only unauthenticated API routes.
func (g *Gateway) Router(m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(g.log))
	r.Use(middleware.Logger(g.log))
	r.Use(middleware.Latency(m))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/auth/login", g.handleLogin)
	r.Post("/mup/citizens", g.handleCreateCitizen)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(g.jwt, g.log))

		r.Route("/mup", func(r chi.Router) {
			r.Post("/citizens/admin", g.handleProvisionCitizen)
			r.Get("/citizens", g.handleListCitizens)
			r.Get("/citizens/{id}", g.handleGetCitizen)
			r.Get("/citizens/jmbg/{jmbg}", g.handleGetCitizenByJMBG)
			r.Put("/citizens/{id}", g.handleUpdateCitizen)
			r.Delete("/citizens/{id}", g.handleRemoveCitizen)

			r.Post("/request", g.handleCreateRequest)
			r.Get("/request", g.handleListRequests)
			r.Get("/request/filter", g.handleFilterRequests)
			r.Get("/request/citizen/{citizenId}", g.handleRequestsByCitizen)
			r.Get("/request/{id}", g.handleGetRequest)
			r.Put("/request/{id}", g.handleUpdateRequestStatus)
			r.Delete("/request/{id}", g.handleRemoveRequest)

			r.Post("/appointments", g.handleCreateSub(appointmentRes))
			r.Get("/appointments", g.handleListSub(appointmentRes))
			r.Get("/appointments/{id}", g.handleGetSub(appointmentRes))
			r.Get("/appointments/request/{requestId}", g.handleGetSubByRequest(appointmentRes))
			r.Put("/appointments/{id}", g.handleUpdateSub(appointmentRes))
			r.Delete("/appointments/{id}", g.handleRemoveSub(appointmentRes))

			r.Post("/payments", g.handleCreateSub(paymentRes))
			r.Get("/payments", g.handleListSub(paymentRes))
			r.Get("/payments/{id}", g.handleGetSub(paymentRes))
			r.Get("/payments/request/{requestId}", g.handleGetSubByRequest(paymentRes))
			r.Put("/payments/{id}", g.handleUpdateSub(paymentRes))
			r.Delete("/payments/{id}", g.handleRemoveSub(paymentRes))

			r.Post("/documents", g.handleCreateSub(documentRes))
			r.Get("/documents", g.handleListSub(documentRes))
			r.Get("/documents/{id}", g.handleGetSub(documentRes))
			r.Get("/documents/request/{requestId}", g.handleGetSubByRequest(documentRes))
			r.Put("/documents/{id}", g.handleUpdateSub(documentRes))
			r.Delete("/documents/{id}", g.handleRemoveSub(documentRes))

			r.Post("/documents/upload", g.handleUploadDocument)
			r.Get("/documents/stream/{fileUrl}", g.handleStreamDocument)
			r.Get("/documents/url/{fileUrl}", g.handleDocumentURL)
			r.Delete("/documents/file/{fileUrl}", g.handleDeleteDocumentFile)

			r.Post("/infractions", g.adminRelayBody("createInfraction", func(_ *http.Request, body json.RawMessage) any {
				return body
			}))
			r.Get("/infractions", g.adminRelay("findAllInfractions", func(_ *http.Request) any {
				return struct{}{}
			}))
			r.Get("/infractions/{id}", g.adminRelay("findOneInfraction", func(r *http.Request) any {
				return map[string]string{"id": chi.URLParam(r, "id")}
			}))
			r.Put("/infractions/{id}", g.adminRelayBody("updateInfraction", func(r *http.Request, body json.RawMessage) any {
				return map[string]any{"id": chi.URLParam(r, "id"), "data": body}
			}))
			r.Delete("/infractions/{id}", g.adminRelay("removeInfraction", func(r *http.Request) any {
				return map[string]string{"id": chi.URLParam(r, "id")}
			}))
		})

		r.Route("/zavod", func(r chi.Router) {
			r.Post("/surveys", g.handleCreateSurvey)
			r.Get("/surveys", g.handleListSurveys)
			r.Get("/surveys/{id}", g.handleGetSurvey)
			r.Get("/surveys/{surveyId}/statistics", g.handleSurveyStatistics)
			r.Post("/questions", g.handleCreateQuestion)
			r.Post("/participants", g.handleCreateParticipant)
			r.Get("/participants/{token}", g.handleFindParticipant)
			r.Post("/answers", g.handleSubmitAnswers)

			r.Post("/reports/dui", g.handleGenerateDuiReport)
			r.Post("/reports/docs-issued", g.handleGenerateDocsIssuedReport)
			r.Post("/reports/survey/{surveyId}", g.handleGenerateSurveyReport)
			r.Get("/reports", g.handleListReports)
			r.Get("/reports/{id}", g.handleGetReport)
		})
	})

	return r
}
