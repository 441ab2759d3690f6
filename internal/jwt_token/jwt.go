package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"egov/pkg/faults"
)

// Role is the coarse authorization level carried in a token.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleCitizen Role = "CITIZEN"
)

// Claims represents the JWT claims for our access tokens. JMBG rides along
// so the gateway can enforce ownership on jmbg-keyed routes without a lookup.
type Claims struct {
	UserID string `json:"user_id"`
	JMBG   string `json:"jmbg"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

// JWTService handles JWT creation and validation.
type JWTService struct {
	signingKey []byte
	issuer     string
}

func NewJWTService(signingKey string, issuer string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

func (s *JWTService) GenerateAccessToken(userID, jmbg string, role Role, expiresIn time.Duration) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		JMBG:   jmbg,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})

	return newToken.SignedString(s.signingKey)
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, faults.New(faults.KindUnauthorized, "token has expired")
		}
		return nil, faults.New(faults.KindUnauthorized, "invalid token")
	}

	if !parsed.Valid {
		return nil, faults.New(faults.KindUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, faults.New(faults.KindUnauthorized, "invalid token claims")
	}

	if claims.Role != RoleAdmin && claims.Role != RoleCitizen {
		return nil, faults.New(faults.KindUnauthorized, "unknown role in token")
	}

	return claims, nil
}
