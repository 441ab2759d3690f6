package gateway

import (
	jwttoken "egov/internal/jwt_token"
	"egov/internal/platform/middleware"
	"egov/pkg/faults"
)

// Require passes when the principal holds one of the allowed roles. Admins
// pass every route that lists any role.
func Require(p middleware.Principal, roles ...jwttoken.Role) error {
	if p.IsAdmin() {
		return nil
	}
	for _, role := range roles {
		if p.Role == role {
			return nil
		}
	}
	return faults.New(faults.KindForbidden, "insufficient role")
}

// RequireOwner passes admins unconditionally and citizens only when the
// resource owner id matches the principal id.
func RequireOwner(p middleware.Principal, ownerID string) error {
	if p.IsAdmin() {
		return nil
	}
	if ownerID != "" && p.ID == ownerID {
		return nil
	}
	return faults.New(faults.KindForbidden, "not the resource owner")
}

// RequireOwnerJMBG is RequireOwner for jmbg-keyed routes.
func RequireOwnerJMBG(p middleware.Principal, jmbg string) error {
	if p.IsAdmin() {
		return nil
	}
	if jmbg != "" && p.JMBG == jmbg {
		return nil
	}
	return faults.New(faults.KindForbidden, "not the resource owner")
}
