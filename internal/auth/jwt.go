// Package auth issues and validates the JWT access tokens the API uses for
// authentication. Claims carry the caller tuple the scope resolver needs;
// nothing else is trusted from the token.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/deskflow-io/deskflow/internal/models"
)

// Claims is the token payload. ClientID is present if and only if the role
// is CLIENT; the scope resolver rejects any other combination.
type Claims struct {
	UserID         int64  `json:"user_id"`
	OrganizationID int64  `json:"org_id"`
	Role           string `json:"role"`
	ClientID       *int64 `json:"client_id,omitempty"`
	jwt.RegisteredClaims
}

// JWTManager signs and parses access tokens with a shared HMAC secret.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTManager creates a token manager. ttl bounds the token lifetime.
func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	return &JWTManager{secret: []byte(secret), ttl: ttl}
}

// Issue signs an access token for the user.
func (m *JWTManager) Issue(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:         user.ID,
		OrganizationID: user.OrganizationID,
		Role:           string(user.Role),
		ClientID:       user.ClientID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token string and returns its claims.
func (m *JWTManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// Identity converts validated claims into the scope resolver's input. An
// unknown role string is passed through as-is; Resolve fails it closed.
func (c *Claims) Identity() (int64, int64, models.Role, *int64) {
	return c.UserID, c.OrganizationID, models.Role(c.Role), c.ClientID
}
