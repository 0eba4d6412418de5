package api

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/sungwon/erasure-bridge/internal/auth"
	"github.com/sungwon/erasure-bridge/internal/logger"
	"github.com/sungwon/erasure-bridge/internal/metrics"
)

// loginRequest is the JSON body for POST /api/v1/auth/login.
type loginRequest struct {
	Password string `json:"password" validate:"required"`
}

// tokenResponse carries a freshly issued admin token.
type tokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginHandler handles POST /api/v1/auth/login.
// Exchanges the operator password for an admin token. Password login is
// disabled when passwordHash is empty. limiter may be nil.
func LoginHandler(tokens *auth.TokenService, passwordHash string, limiter *auth.LoginLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		if passwordHash == "" {
			respondError(w, http.StatusForbidden, "password login is disabled")
			return
		}

		var req loginRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		client := clientIP(r)
		if err := limiter.Check(r.Context(), client); err != nil {
			if errors.Is(err, auth.ErrLoginLocked) {
				respondError(w, http.StatusTooManyRequests, "too many login attempts, try again later")
				return
			}
			log.Warn().Err(err).Msg("login rate limit unavailable")
		}

		if err := auth.VerifyPassword(passwordHash, req.Password); err != nil {
			metrics.APIAuthFailuresTotal.Inc()
			if err := limiter.RecordFailure(r.Context(), client); err != nil {
				log.Warn().Err(err).Msg("failed to record login failure")
			}
			log.Warn().Str("client", client).Msg("admin login failed")
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		_ = limiter.Clear(r.Context(), client)

		token, expires, err := tokens.GenerateToken("admin")
		if err != nil {
			log.Error().Err(err).Msg("failed to issue admin token")
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		respondJSON(w, http.StatusOK, tokenResponse{
			Token:     token,
			TokenType: "Bearer",
			ExpiresAt: expires,
		})
	}
}

// clientIP returns the host part of the request's remote address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
