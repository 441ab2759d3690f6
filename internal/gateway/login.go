package gateway

import (
	"errors"
	"net/http"

	jwttoken "egov/internal/jwt_token"
	"egov/pkg/faults"

	"golang.org/x/crypto/bcrypt"
)

type loginRequest struct {
	JMBG     string `json:"jmbg"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	UserID      string `json:"userId"`
	Role        string `json:"role"`
}

type credentialsReply struct {
	ID           string `json:"id"`
	JMBG         string `json:"jmbg"`
	Role         string `json:"role"`
	PasswordHash string `json:"passwordHash"`
}

// handleLogin verifies the citizen's password against the registry and
// issues an access token. Wrong jmbg and wrong password are reported
// identically so the endpoint does not confirm which citizens exist.
func (g *Gateway) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.JMBG == "" || req.Password == "" {
		faults.WriteHTTP(w, faults.New(faults.KindBadRequest, "jmbg and password are required"))
		return
	}

	var creds credentialsReply
	err := g.fetch(r, MupService, "getCitizenCredentials", map[string]string{"jmbg": req.JMBG}, &creds)
	if err != nil {
		if faults.Is(err, faults.KindNotFound) {
			faults.WriteHTTP(w, faults.New(faults.KindUnauthorized, "invalid credentials"))
			return
		}
		faults.WriteHTTP(w, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(req.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			faults.WriteHTTP(w, faults.New(faults.KindUnauthorized, "invalid credentials"))
			return
		}
		faults.WriteHTTP(w, err)
		return
	}

	token, err := g.jwt.GenerateAccessToken(creds.ID, creds.JMBG, jwttoken.Role(creds.Role), g.tokenTTL)
	if err != nil {
		faults.WriteHTTP(w, err)
		return
	}

	g.log.Info("login succeeded",
		"user_id", creds.ID,
		"role", creds.Role,
		"device", ParseUserAgent(r.UserAgent()),
	)
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		UserID:      creds.ID,
		Role:        creds.Role,
	})
}
