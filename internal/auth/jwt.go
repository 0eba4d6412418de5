package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin is the only role the admin API accepts.
const RoleAdmin = "admin"

// Config holds token signing and expiry configuration.
type Config struct {
	SigningKey  string
	Issuer      string
	Audience    string
	TokenExpiry time.Duration
}

// AdminClaims are the claims carried by an admin API token.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Predefined errors for token operations.
var (
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrSigningMethod  = errors.New("unexpected signing method")
	ErrNoSigningKey   = errors.New("token signing key is not configured")
)

// TokenService issues and validates HS256 admin tokens.
type TokenService struct {
	config Config
}

// NewTokenService creates a TokenService with the given configuration.
func NewTokenService(config Config) *TokenService {
	return &TokenService{config: config}
}

// GenerateToken creates a signed admin token for subject and returns it
// with its expiry time.
func (s *TokenService) GenerateToken(subject string) (string, time.Time, error) {
	if s.config.SigningKey == "" {
		return "", time.Time{}, ErrNoSigningKey
	}
	now := time.Now()
	expires := now.Add(s.config.TokenExpiry)
	claims := AdminClaims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.config.Issuer,
			Audience:  jwt.ClaimStrings{s.config.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.SigningKey))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign admin token: %w", err)
	}
	return signed, expires, nil
}

// ValidateToken parses and validates an admin token, checking signature,
// expiry, issuer, audience and role.
func (s *TokenService) ValidateToken(tokenString string) (*AdminClaims, error) {
	if s.config.SigningKey == "" {
		return nil, ErrNoSigningKey
	}
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	if s.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(s.config.Audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrSigningMethod
		}
		return []byte(s.config.SigningKey), nil
	}, opts...)
	if err != nil {
		return nil, classifyJWTError(err)
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid || claims.Role != RoleAdmin {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// classifyJWTError maps jwt library errors to package errors.
func classifyJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrSignatureInvalid):
		return ErrTokenInvalid
	case errors.Is(err, ErrSigningMethod):
		return ErrSigningMethod
	case errors.Is(err, jwt.ErrTokenInvalidIssuer), errors.Is(err, jwt.ErrTokenInvalidAudience):
		return ErrTokenInvalid
	}
	return fmt.Errorf("validate token: %w", err)
}
