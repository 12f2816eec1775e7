package jwt

import (
	"time"

	"nearest-departures/internal/domain/user"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Issuer is stamped into every token this service mints.
const Issuer = "nearest-departures"

// Claims defines our canonical JWT claims payload.
type Claims struct {
	Role user.Role `json:"role"` // board access level (VIEWER/OPERATOR)
	jwtlib.RegisteredClaims
}

// ensure Claims implements jwtlib.Claims interface
var _ jwtlib.Claims = (*Claims)(nil)

// NewUserClaims constructs claims for a board viewer.
func NewUserClaims(userID string, role user.Role, ttl time.Duration) *Claims {
	now := time.Now().UTC()
	return &Claims{
		Role: role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
			Issuer:    Issuer,
		},
	}
}
