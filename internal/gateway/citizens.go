package gateway

import (
	"encoding/json"
	"net/http"

	"egov/pkg/faults"

	"github.com/go-chi/chi/v5"
)

// handleCreateCitizen is the open registration route. The role field is
// overwritten before the payload leaves the gateway: self-registration
// always produces a CITIZEN account, whatever the caller asked for.
func (g *Gateway) handleCreateCitizen(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if !readJSON(w, r, &body) {
		return
	}
	if body == nil {
		body = map[string]json.RawMessage{}
	}
	body["role"] = json.RawMessage(`"CITIZEN"`)
	var reply json.RawMessage
	if err := g.rpc.Send(r.Context(), MupService, "createCitizen", body, &reply); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	writeRaw(w, http.StatusCreated, reply)
}

// handleProvisionCitizen lets an administrator create accounts with an
// explicit role, including other administrators.
func (g *Gateway) handleProvisionCitizen(w http.ResponseWriter, r *http.Request) {
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
	if err := g.rpc.Send(r.Context(), MupService, "createCitizen", body, &reply); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	writeRaw(w, http.StatusCreated, reply)
}

func (g *Gateway) handleListCitizens(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := Require(p); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	g.forward(w, r, MupService, "findAllCitizens", struct{}{})
}

func (g *Gateway) handleGetCitizen(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := RequireOwner(p, id); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	g.forward(w, r, MupService, "findOneCitizen", map[string]string{"id": id})
}

func (g *Gateway) handleGetCitizenByJMBG(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	jmbg := chi.URLParam(r, "jmbg")
	if err := RequireOwnerJMBG(p, jmbg); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	g.forward(w, r, MupService, "findCitizenByJmbg", map[string]string{"jmbg": jmbg})
}

func (g *Gateway) handleUpdateCitizen(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := RequireOwner(p, id); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	var body json.RawMessage
	if !readJSON(w, r, &body) {
		return
	}
	g.forward(w, r, MupService, "updateCitizen", map[string]any{"id": id, "data": body})
}

func (g *Gateway) handleRemoveCitizen(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := Require(p); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	g.forward(w, r, MupService, "removeCitizen", map[string]string{"id": chi.URLParam(r, "id")})
}
