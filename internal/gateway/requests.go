package gateway

import (
	"encoding/json"
	"net/http"

	"egov/internal/platform/middleware"
	"egov/pkg/faults"

	"github.com/go-chi/chi/v5"
)

// fetchRequest loads a request and returns its raw JSON plus the owning
// citizen id, for handlers that gate citizen access on ownership.
func (g *Gateway) fetchRequest(r *http.Request, id string) (json.RawMessage, string, error) {
	var raw json.RawMessage
	if err := g.fetch(r, MupService, "findOneRequest", map[string]string{"id": id}, &raw); err != nil {
		return nil, "", err
	}
	var v struct {
		CitizenID string `json:"citizenId"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, "", faults.Wrap(err, faults.KindInternal, "unreadable request payload")
	}
	return raw, v.CitizenID, nil
}

// guardRequest passes admins, and citizens who own the request.
func (g *Gateway) guardRequest(r *http.Request, p middleware.Principal, requestID string) error {
	if p.IsAdmin() {
		return nil
	}
	_, ownerID, err := g.fetchRequest(r, requestID)
	if err != nil {
		return err
	}
	return RequireOwner(p, ownerID)
}

func (g *Gateway) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var body json.RawMessage
	if !readJSON(w, r, &body) {
		return
	}
	if !p.IsAdmin() {
		// Citizens submit requests for themselves only.
		var v struct {
			CitizenID string `json:"citizenId"`
		}
		if err := json.Unmarshal(body, &v); err != nil {
			faults.WriteHTTP(w, faults.Wrap(err, faults.KindBadRequest, "malformed request body"))
			return
		}
		if err := RequireOwner(p, v.CitizenID); err != nil {
			faults.WriteHTTP(w, err)
			return
		}
	}
	var reply json.RawMessage
	if err := g.rpc.Send(r.Context(), MupService, "createRequest", body, &reply); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	writeRaw(w, http.StatusCreated, reply)
}

func (g *Gateway) handleListRequests(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := Require(p); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	g.forward(w, r, MupService, "findAllRequests", struct{}{})
}

func (g *Gateway) handleFilterRequests(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := Require(p); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	q := r.URL.Query()
	g.forward(w, r, MupService, "findAllRequestsWithFilter", map[string]string{
		"citizenId":     q.Get("citizenId"),
		"requestStatus": q.Get("requestStatus"),
		"requestType":   q.Get("requestType"),
	})
}

func (g *Gateway) handleRequestsByCitizen(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	citizenID := chi.URLParam(r, "citizenId")
	if err := RequireOwner(p, citizenID); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	g.forward(w, r, MupService, "findRequestsByCitizenId", map[string]string{"citizenId": citizenID})
}

func (g *Gateway) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	raw, ownerID, err := g.fetchRequest(r, chi.URLParam(r, "id"))
	if err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	if err := RequireOwner(p, ownerID); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	writeRaw(w, http.StatusOK, raw)
}

func (g *Gateway) handleUpdateRequestStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := Require(p); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	var body struct {
		Status       string `json:"status"`
		AdminMessage string `json:"adminMessage,omitempty"`
	}
	if !readJSON(w, r, &body) {
		return
	}
	g.forward(w, r, MupService, "updateRequestStatus", map[string]any{
		"id": chi.URLParam(r, "id"),
		"data": map[string]string{
			"status":       body.Status,
			"adminMessage": body.AdminMessage,
			"processedBy":  p.ID,
		},
	})
}

func (g *Gateway) handleRemoveRequest(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := Require(p); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	g.forward(w, r, MupService, "removeRequest", map[string]string{"id": chi.URLParam(r, "id")})
}

// subResource wires the appointment/payment/document route families, which
// share their shape: create takes {requestId, data}, reads are owner-gated
// through the parent request, updates and deletes are admin-only.
type subResource struct {
	create        string
	list          string
	get           string
	getByRequest  string
	update        string
	remove        string
	citizenCreate bool
}

var (
	appointmentRes = subResource{
		create:        "createAppointment",
		list:          "findAllAppointments",
		get:           "findOneAppointment",
		getByRequest:  "findAppointmentByRequestId",
		update:        "updateAppointment",
		remove:        "removeAppointment",
		citizenCreate: true,
	}
	paymentRes = subResource{
		create:        "createPayment",
		list:          "findAllPayments",
		get:           "findOnePayment",
		getByRequest:  "findPaymentByRequestId",
		update:        "updatePayment",
		remove:        "removePayment",
		citizenCreate: true,
	}
	documentRes = subResource{
		create:       "createDocument",
		list:         "findAllDocuments",
		get:          "findOneDocument",
		getByRequest: "findDocumentByRequestId",
		update:       "updateDocument",
		remove:       "removeDocument",
	}
)

func (g *Gateway) handleCreateSub(res subResource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		var body struct {
			RequestID string          `json:"requestId"`
			Data      json.RawMessage `json:"data"`
		}
		if !readJSON(w, r, &body) {
			return
		}
		if err := g.guardSubCreate(r, p, res, body.RequestID); err != nil {
			faults.WriteHTTP(w, err)
			return
		}
		var reply json.RawMessage
		err := g.rpc.Send(r.Context(), MupService, res.create,
			map[string]any{"requestId": body.RequestID, "data": body.Data}, &reply)
		if err != nil {
			faults.WriteHTTP(w, err)
			return
		}
		writeRaw(w, http.StatusCreated, reply)
	}
}

func (g *Gateway) guardSubCreate(r *http.Request, p middleware.Principal, res subResource, requestID string) error {
	if p.IsAdmin() {
		return nil
	}
	if !res.citizenCreate {
		return faults.New(faults.KindForbidden, "insufficient role")
	}
	return g.guardRequest(r, p, requestID)
}

func (g *Gateway) handleListSub(res subResource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		if err := Require(p); err != nil {
			faults.WriteHTTP(w, err)
			return
		}
		g.forward(w, r, MupService, res.list, struct{}{})
	}
}

func (g *Gateway) handleGetSub(res subResource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		var raw json.RawMessage
		err := g.fetch(r, MupService, res.get, map[string]string{"id": chi.URLParam(r, "id")}, &raw)
		if err != nil {
			faults.WriteHTTP(w, err)
			return
		}
		if !p.IsAdmin() {
			var v struct {
				RequestID string `json:"requestId"`
			}
			if err := json.Unmarshal(raw, &v); err != nil {
				faults.WriteHTTP(w, faults.Wrap(err, faults.KindInternal, "unreadable payload"))
				return
			}
			if err := g.guardRequest(r, p, v.RequestID); err != nil {
				faults.WriteHTTP(w, err)
				return
			}
		}
		writeRaw(w, http.StatusOK, raw)
	}
}

func (g *Gateway) handleGetSubByRequest(res subResource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		requestID := chi.URLParam(r, "requestId")
		if err := g.guardRequest(r, p, requestID); err != nil {
			faults.WriteHTTP(w, err)
			return
		}
		g.forward(w, r, MupService, res.getByRequest, map[string]string{"requestId": requestID})
	}
}

func (g *Gateway) handleUpdateSub(res subResource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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
		g.forward(w, r, MupService, res.update, map[string]any{
			"id":   chi.URLParam(r, "id"),
			"data": body,
		})
	}
}

func (g *Gateway) handleRemoveSub(res subResource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		if err := Require(p); err != nil {
			faults.WriteHTTP(w, err)
			return
		}
		g.forward(w, r, MupService, res.remove, map[string]string{"id": chi.URLParam(r, "id")})
	}
}

// handleInfraction routes are admin-only CRUD relays.
func (g *Gateway) adminRelay(command string, payload func(r *http.Request) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		if err := Require(p); err != nil {
			faults.WriteHTTP(w, err)
			return
		}
		g.forward(w, r, MupService, command, payload(r))
	}
}

func (g *Gateway) adminRelayBody(command string, wrap func(r *http.Request, body json.RawMessage) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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
		g.forward(w, r, MupService, command, wrap(r, body))
	}
}
