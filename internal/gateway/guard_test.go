package gateway

import (
	"testing"

	jwttoken "egov/internal/jwt_token"
	"egov/internal/platform/middleware"
	"egov/pkg/faults"

	"github.com/stretchr/testify/assert"
)

func TestRequire(t *testing.T) {
	admin := middleware.Principal{ID: "a-1", Role: jwttoken.RoleAdmin}
	citizen := middleware.Principal{ID: "c-1", Role: jwttoken.RoleCitizen}

	assert.NoError(t, Require(admin))
	assert.NoError(t, Require(admin, jwttoken.RoleCitizen))
	assert.NoError(t, Require(citizen, jwttoken.RoleCitizen))

	err := Require(citizen)
	assert.True(t, faults.Is(err, faults.KindForbidden))
}

func TestRequireOwner(t *testing.T) {
	admin := middleware.Principal{ID: "a-1", Role: jwttoken.RoleAdmin}
	citizen := middleware.Principal{ID: "c-1", Role: jwttoken.RoleCitizen}

	assert.NoError(t, RequireOwner(admin, "someone-else"))
	assert.NoError(t, RequireOwner(citizen, "c-1"))
	assert.True(t, faults.Is(RequireOwner(citizen, "c-2"), faults.KindForbidden))
	// An empty owner id never matches, even if the principal id were empty.
	assert.True(t, faults.Is(RequireOwner(middleware.Principal{Role: jwttoken.RoleCitizen}, ""), faults.KindForbidden))
}

func TestRequireOwnerJMBG(t *testing.T) {
	admin := middleware.Principal{ID: "a-1", Role: jwttoken.RoleAdmin}
	citizen := middleware.Principal{ID: "c-1", JMBG: "0101990123456", Role: jwttoken.RoleCitizen}

	assert.NoError(t, RequireOwnerJMBG(admin, "0101990123456"))
	assert.NoError(t, RequireOwnerJMBG(citizen, "0101990123456"))
	assert.True(t, faults.Is(RequireOwnerJMBG(citizen, "0202991654321"), faults.KindForbidden))
}
