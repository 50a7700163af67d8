package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestRouterHealthz(t *testing.T) {
	router := NewRouter()

	rec := doRequest(t, router, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload struct {
		Status string `json:"status"`
	}
	decodeJSON(t, rec, &payload)
	if payload.Status != "ok" {
		t.Fatalf("unexpected status %q", payload.Status)
	}
}

func TestRouterReadyzRunsChecks(t *testing.T) {
	healthy := NewHealthHandlers(func(ctx context.Context) error { return nil })
	router := NewRouter(WithHealthHandlers(healthy))

	rec := doRequest(t, router, http.MethodGet, "/readyz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	failing := NewHealthHandlers(func(ctx context.Context) error { return errors.New("firestore down") })
	router = NewRouter(WithHealthHandlers(failing))

	rec = doRequest(t, router, http.MethodGet, "/readyz", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "not_ready" {
		t.Fatalf("unexpected error code %q", code)
	}
}

func TestRouterUnknownRouteReturnsJSONError(t *testing.T) {
	router := NewRouter()

	rec := doRequest(t, router, http.MethodGet, "/nope", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "route_not_found" {
		t.Fatalf("unexpected error code %q", code)
	}
}

func TestRouterUnconfiguredGroupReturnsNotImplemented(t *testing.T) {
	router := NewRouter()

	rec := doRequest(t, router, http.MethodGet, "/api/v1/cart", "", nil)
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "not_implemented" {
		t.Fatalf("unexpected error code %q", code)
	}
}
