// Package citizen manages the citizen registry: identity records keyed by
// JMBG, credentials for gateway login, and the role attached to each account.
package citizen

import (
	"time"

	jwttoken "egov/internal/jwt_token"
)

// Citizen is a registry record. PasswordHash never leaves the service over
// JSON; the credentials operation exposes it to the gateway login flow only.
type Citizen struct {
	ID           string        `json:"id"`
	JMBG         string        `json:"jmbg"`
	FirstName    string        `json:"firstName"`
	LastName     string        `json:"lastName"`
	Email        string        `json:"email"`
	Phone        string        `json:"phone,omitempty"`
	Role         jwttoken.Role `json:"role"`
	CreatedAt    time.Time     `json:"createdAt"`
	PasswordHash string        `json:"-"`
}

// Credentials is the login-support payload: the hash travels to the gateway
// over the internal RPC link only, never to end clients.
type Credentials struct {
	ID           string        `json:"id"`
	JMBG         string        `json:"jmbg"`
	Role         jwttoken.Role `json:"role"`
	PasswordHash string        `json:"passwordHash"`
}

// CreateDTO registers a new citizen.
type CreateDTO struct {
	JMBG      string        `json:"jmbg"`
	FirstName string        `json:"firstName"`
	LastName  string        `json:"lastName"`
	Email     string        `json:"email"`
	Phone     string        `json:"phone,omitempty"`
	Password  string        `json:"password"`
	Role      jwttoken.Role `json:"role,omitempty"`
}

// UpdateDTO patches contact fields. Zero values leave the field unchanged.
type UpdateDTO struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}
