package jwt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"nearest-departures/internal/domain/user"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoAuthHeader       = errors.New("authorization header missing")
	ErrBadAuthScheme      = errors.New("authorization must start with Bearer")
	ErrEmptyToken         = errors.New("bearer token missing")
	ErrInvalidSigningAlgo = errors.New("unexpected signing method")
	ErrRoleForbidden      = errors.New("role not allowed")
)

// Manager handles JWT creation and validation.
type Manager struct {
	secret    []byte
	accessTTL time.Duration
}

// NewManager creates a token manager.
func NewManager(secret string, accessTTL time.Duration) *Manager {
	s := strings.TrimSpace(secret)
	if s == "" {
		panic("jwt: empty secret key")
	}

	return &Manager{
		secret:    []byte(s),
		accessTTL: accessTTL,
	}
}

// IssueUserToken returns a signed access token for a board viewer.
func (m *Manager) IssueUserToken(userID string, role user.Role) (string, *Claims, error) {
	// validate role
	if !role.Valid() {
		return "", nil, fmt.Errorf("invalid role: %s", role)
	}

	// create claims and sign token
	claims := NewUserClaims(userID, role, m.accessTTL)
	tkn := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := tkn.SignedString(m.secret)

	return signed, claims, err
}

// FromAuthorization reads "Authorization: Bearer <token>", falling back to the
// Authorization query parameter for browser WebSocket clients.
func FromAuthorization(r *http.Request) (string, error) {
	raw := r.Header.Get("Authorization")
	fromQuery := false
	if raw == "" {
		raw = r.URL.Query().Get("Authorization")
		fromQuery = true
	}
	if raw == "" {
		return "", ErrNoAuthHeader
	}

	token, found := strings.CutPrefix(raw, "Bearer ")
	if !found {
		if !fromQuery {
			return "", ErrBadAuthScheme
		}
		token = raw // some clients send just the token
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrEmptyToken
	}
	return token, nil
}

// ParseAndValidate verifies signature and standard claims.
func (m *Manager) ParseAndValidate(tokenString string) (*jwtlib.Token, *Claims, error) {
	// create parser with expected signing method
	parser := jwtlib.NewParser(
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(Issuer),
		jwtlib.WithExpirationRequired(),
	)

	// validate claims and signature
	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwtlib.Token) (any, error) {
		if t.Method != jwtlib.SigningMethodHS256 {
			return nil, ErrInvalidSigningAlgo
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, nil, err
	}

	// ensure token is valid
	if !token.Valid {
		return nil, nil, errors.New("invalid token")
	}

	return token, claims, nil
}

// RoleAllowed asserts the claims' role is one of the allowed.
func RoleAllowed(cl *Claims, allowed ...user.Role) error {
	if slices.Contains(allowed, cl.Role) {
		return nil
	}
	return ErrRoleForbidden
}

// Context wiring (used by middleware)
type ctxKey string

const claimsCtxKey ctxKey = "jwtClaims"

// InjectClaims adds JWT claims to the context.
func InjectClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, c)
}

// FromContext extracts JWT claims from the context.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsCtxKey).(*Claims)
	return c, ok
}
