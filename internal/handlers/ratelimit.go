package handlers

import (
	"net"
	"net/http"
	"strings"

	"github.com/friendloop/backend/internal/apperr"
	"github.com/friendloop/backend/internal/middleware"
)

// clientIP extracts the caller address, preferring the first entry of
// X-Forwarded-For when a proxy sits in front of the server.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// WithRateLimit rejects requests exceeding the per-IP budget before the
// wrapped handler runs.
func WithRateLimit(limiter middleware.RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow(clientIP(r)) {
			respondError(w, r, apperr.New(http.StatusTooManyRequests, "Too many requests."))
			return
		}
		next(w, r)
	}
}
