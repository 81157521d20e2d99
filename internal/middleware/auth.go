package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// OperatorContextKey carries the authenticated operator claims.
	OperatorContextKey contextKey = "operator"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// OperatorClaims identifies the dispatcher operating the API. Tokens are
// minted by the external auth service; this middleware only validates them.
type OperatorClaims struct {
	OperatorID string
	Name       string
	Exp        int64
}

// AuthMiddleware validates bearer tokens on dispatch API requests.
type AuthMiddleware struct {
	secret []byte
}

// NewAuthMiddleware creates middleware verifying HS256 tokens signed with
// the shared secret.
func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

// Authenticate validates the Authorization header and adds operator claims
// to the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shouldSkipAuth(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		claims, err := m.ValidateToken(authHeader)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), OperatorContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ValidateToken verifies an HS256 token and returns the operator claims.
// A "Bearer " prefix is tolerated.
func (m *AuthMiddleware) ValidateToken(tokenString string) (*OperatorClaims, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	operatorID, ok := claims["operator_id"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}
	name, _ := claims["name"].(string)
	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}

	return &OperatorClaims{
		OperatorID: operatorID,
		Name:       name,
		Exp:        int64(exp),
	}, nil
}

// SignToken mints a short-lived HS256 token. Exists for tests and local
// tooling; production tokens come from the external auth service.
func (m *AuthMiddleware) SignToken(operatorID, name string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"operator_id": operatorID,
		"name":        name,
		"exp":         time.Now().Add(ttl).Unix(),
		"iat":         time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// GetOperatorFromContext extracts operator claims from request context.
func GetOperatorFromContext(ctx context.Context) (*OperatorClaims, bool) {
	claims, ok := ctx.Value(OperatorContextKey).(*OperatorClaims)
	return claims, ok
}

// shouldSkipAuth determines if authentication should be skipped for a path.
func shouldSkipAuth(path string) bool {
	skipPaths := []string{
		"/health",
	}
	for _, skipPath := range skipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}
	return false
}
