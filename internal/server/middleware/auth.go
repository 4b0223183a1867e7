// Package middleware provides HTTP middleware for the pipeline API.
package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// callerKey is the context key for the authenticated caller label.
const callerKey ContextKey = "caller"

// KeyValidator maps an API key to a caller label.
type KeyValidator interface {
	ValidateKey(key string) (caller string, ok bool)
}

// StaticKeys accepts a fixed set of keys. The map value labels the caller in
// logs.
type StaticKeys map[string]string

// ValidateKey compares key against every configured key in constant time.
func (k StaticKeys) ValidateKey(key string) (string, bool) {
	caller, ok := "", false
	for candidate, label := range k {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(key)) == 1 {
			caller, ok = label, true
		}
	}
	return caller, ok
}

// APIKeyAuth rejects requests without a valid key. The key is read from
// "Authorization: Bearer <key>" or the X-API-Key header.
func APIKeyAuth(validator KeyValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := extractKey(r)
			if key == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			caller, ok := validator.ValidateKey(key)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), callerKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractKey(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		// Handle case-insensitive "Bearer" prefix
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return ""
		}
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

// Caller returns the caller label stored by APIKeyAuth, or "" for
// unauthenticated requests.
func Caller(r *http.Request) string {
	caller, _ := r.Context().Value(callerKey).(string)
	return caller
}
