package http

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chatlink/chatlink-server/internal/auth"
	"github.com/chatlink/chatlink-server/internal/store"
	"github.com/chatlink/chatlink-server/internal/store/sqlite"
)

// createTestStore creates an in-memory SQLite store with the schema applied.
func createTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	return st
}

// createTestAuthService creates an auth service for testing.
func createTestAuthService(t *testing.T, st store.Store, jwtSecret string) *auth.Service {
	t.Helper()

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(jwtSecret),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}

	return auth.NewService(st, jwtConfig)
}

// doJSON issues a request against the test server. Empty token or body skips
// the corresponding header.
func (env *testEnv) doJSON(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	env.handler.ServeHTTP(resp, req)
	return resp
}
