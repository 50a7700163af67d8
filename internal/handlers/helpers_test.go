package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/savora/api/internal/platform/auth"
)

type stubTokenVerifier struct {
	claims map[string]*auth.Claims
}

func (s *stubTokenVerifier) VerifyToken(ctx context.Context, token string) (*auth.Claims, error) {
	if claims, ok := s.claims[token]; ok {
		return claims, nil
	}
	return nil, auth.ErrTokenInvalid
}

func newTestAuthenticator() *auth.Authenticator {
	return auth.NewAuthenticator(&stubTokenVerifier{claims: map[string]*auth.Claims{
		"user-token": {
			UID:    "user-1",
			Claims: map[string]any{"email": "user@example.com"},
		},
		"admin-token": {
			UID:    "admin-1",
			Claims: map[string]any{"role": "admin"},
		},
	}})
}

func doRequest(t *testing.T, handler http.Handler, method, path, token string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error string `json:"error"`
	}
	decodeJSON(t, rec, &payload)
	return payload.Error
}
