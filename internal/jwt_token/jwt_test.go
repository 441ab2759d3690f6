package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"egov/pkg/faults"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-signing-key", "egov-gateway")

	token, err := svc.GenerateAccessToken("c1", "0101990123456", RoleCitizen, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "c1", claims.UserID)
	assert.Equal(t, "0101990123456", claims.JMBG)
	assert.Equal(t, RoleCitizen, claims.Role)
}

func TestJWTService_ExpiredToken(t *testing.T) {
	svc := NewJWTService("test-signing-key", "egov-gateway")

	token, err := svc.GenerateAccessToken("c1", "0101990123456", RoleCitizen, -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.KindUnauthorized))
}

func TestJWTService_WrongKey(t *testing.T) {
	issued, err := NewJWTService("key-a", "egov-gateway").
		GenerateAccessToken("a1", "", RoleAdmin, time.Hour)
	require.NoError(t, err)

	_, err = NewJWTService("key-b", "egov-gateway").ValidateToken(issued)
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.KindUnauthorized))
}

func TestJWTService_GarbageToken(t *testing.T) {
	svc := NewJWTService("test-signing-key", "egov-gateway")
	_, err := svc.ValidateToken("not-a-jwt")
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.KindUnauthorized))
}
