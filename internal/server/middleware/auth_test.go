package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func protectedHandler(called *bool, caller *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		*caller = Caller(r)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAPIKeyAuth_ValidKey(t *testing.T) {
	keys := StaticKeys{"secret-key-123": "scheduler"}

	tests := []struct {
		name   string
		header string
		value  string
	}{
		{name: "bearer", header: "Authorization", value: "Bearer secret-key-123"},
		{name: "lowercase bearer", header: "Authorization", value: "bearer secret-key-123"},
		{name: "api key header", header: "X-API-Key", value: "secret-key-123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			var caller string
			handler := APIKeyAuth(keys)(protectedHandler(&called, &caller))

			req := httptest.NewRequest(http.MethodPost, "/run", nil)
			req.Header.Set(tt.header, tt.value)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.True(t, called, "handler should be called")
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "scheduler", caller)
		})
	}
}

func TestAPIKeyAuth_Rejected(t *testing.T) {
	keys := StaticKeys{"secret-key-123": "scheduler"}

	tests := []struct {
		name   string
		header string
		value  string
	}{
		{name: "missing header"},
		{name: "missing Bearer prefix", header: "Authorization", value: "secret-key-123"},
		{name: "empty token", header: "Authorization", value: "Bearer "},
		{name: "only Bearer", header: "Authorization", value: "Bearer"},
		{name: "wrong key", header: "Authorization", value: "Bearer nope"},
		{name: "wrong api key header", header: "X-API-Key", value: "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			var caller string
			handler := APIKeyAuth(keys)(protectedHandler(&called, &caller))

			req := httptest.NewRequest(http.MethodPost, "/run", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.False(t, called, "handler should not be called")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "Unauthorized")
		})
	}
}

func TestCaller_Unauthenticated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/runs", nil)
	assert.Empty(t, Caller(req))
}
