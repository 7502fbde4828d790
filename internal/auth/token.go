package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidBearer is returned for bearer tokens that fail signature or claim checks.
var ErrInvalidBearer = errors.New("invalid bearer token")

// GenerateSessionToken returns 32 random bytes hex-encoded.
func GenerateSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// TokenManager signs JWTs that wrap a server-side session for clients without a cookie jar.
type TokenManager struct {
	secret []byte
	issuer string
	now    func() time.Time
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// NewTokenManager creates a manager with the provided secret and issuer.
func NewTokenManager(secret, issuer string) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}
}

// Generate issues a signed JWT for session that expires together with it.
func (t *TokenManager) Generate(session SessionInfo) (string, error) {
	now := t.now()
	claims := sessionClaims{
		SessionID: session.Token,
		Role:      string(session.User.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   session.User.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse validates raw and returns the session token it carries.
func (t *TokenManager) Parse(raw string) (string, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidBearer, err)
	}
	if claims.SessionID == "" {
		return "", fmt.Errorf("%w: missing session id", ErrInvalidBearer)
	}
	return claims.SessionID, nil
}
