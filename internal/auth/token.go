package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/selfservice/internal/domain"
)

// TokenManager issues and validates signed access tokens. The signing
// key is injected once at construction and never regenerated.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewTokenManager builds a new manager around the process signing key.
func NewTokenManager(secret string, ttlMinutes int, logger *zap.Logger) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl:    time.Duration(ttlMinutes) * time.Minute,
		now:    time.Now,
		logger: logger,
	}
}

// Claims describes the token payload. The subject is the account email.
type Claims struct {
	Name  string        `json:"name"`
	Roles []domain.Role `json:"roles"`
	jwt.RegisteredClaims
}

// Mint builds and signs a token for the given account state.
func (tm *TokenManager) Mint(email, name string, roles []domain.Role) (string, time.Time, error) {
	now := tm.now()
	expiresAt := now.Add(tm.ttl)
	claims := &Claims{
		Name:  name,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseClaims verifies signature and expiry, returning the claims.
// Expiry is strict: a token is rejected once now >= expiresAt.
func (tm *TokenManager) ParseClaims(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// ParseSubject verifies the token and returns its subject (the email).
func (tm *TokenManager) ParseSubject(tokenStr string) (string, error) {
	claims, err := tm.ParseClaims(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// IsValid reports whether the token is well-formed, correctly signed and
// not yet expired. The reason for rejection is logged, never returned.
func (tm *TokenManager) IsValid(tokenStr string) bool {
	_, err := tm.ParseClaims(tokenStr)
	if err == nil {
		return true
	}

	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		tm.logger.Debug("token signature invalid")
	case errors.Is(err, jwt.ErrTokenMalformed):
		tm.logger.Debug("token malformed")
	case errors.Is(err, jwt.ErrTokenExpired):
		tm.logger.Debug("token expired")
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		tm.logger.Debug("token unverifiable")
	default:
		tm.logger.Debug("token rejected", zap.Error(err))
	}
	return false
}
