package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hyperengineering/hasad/internal/coach"
	"github.com/hyperengineering/hasad/internal/snapshot"
	"github.com/hyperengineering/hasad/internal/store"
	"github.com/hyperengineering/hasad/internal/validation"
)

func TestProblem_JSONSerialization(t *testing.T) {
	p := Problem{
		Type:     "https://hasad.dev/errors/unauthorized",
		Title:    "Unauthorized",
		Status:   401,
		Detail:   "Missing or invalid API key",
		Instance: "/api/v1/users/alice/state",
	}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("failed to marshal Problem: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal Problem JSON: %v", err)
	}

	// Verify all RFC 7807 fields present
	for key, want := range map[string]interface{}{
		"type":     "https://hasad.dev/errors/unauthorized",
		"title":    "Unauthorized",
		"status":   float64(401),
		"detail":   "Missing or invalid API key",
		"instance": "/api/v1/users/alice/state",
	} {
		if decoded[key] != want {
			t.Errorf("%s = %v, want %v", key, decoded[key], want)
		}
	}
}

func TestWriteProblem_BodyFormat(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/users/alice/state", nil)

	WriteProblem(w, r, http.StatusUnauthorized, "Missing or invalid API key")

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %v, want application/problem+json", ct)
	}

	var p Problem
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to unmarshal response body: %v", err)
	}
	if p.Type != "https://hasad.dev/errors/unauthorized" {
		t.Errorf("type = %v, want https://hasad.dev/errors/unauthorized", p.Type)
	}
	if p.Title != "Unauthorized" {
		t.Errorf("title = %v, want Unauthorized", p.Title)
	}
	if p.Instance != "/api/v1/users/alice/state" {
		t.Errorf("instance = %v, want /api/v1/users/alice/state", p.Instance)
	}
}

func TestWriteProblem_TypeURIs(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusBadRequest, "https://hasad.dev/errors/bad-request"},
		{http.StatusNotFound, "https://hasad.dev/errors/not-found"},
		{http.StatusRequestEntityTooLarge, "https://hasad.dev/errors/too-large"},
		{http.StatusUnprocessableEntity, "https://hasad.dev/errors/validation-error"},
		{http.StatusTooManyRequests, "https://hasad.dev/errors/rate-limited"},
		{http.StatusBadGateway, "https://hasad.dev/errors/upstream"},
		{http.StatusServiceUnavailable, "https://hasad.dev/errors/service-unavailable"},
		{http.StatusTeapot, "https://hasad.dev/errors/unknown"},
		{http.StatusInternalServerError, "https://hasad.dev/errors/internal-error"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/x", nil)

			WriteProblem(w, r, tt.status, "detail")

			var p Problem
			if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
				t.Fatalf("failed to unmarshal: %v", err)
			}
			if p.Type != tt.want {
				t.Errorf("type = %v, want %v", p.Type, tt.want)
			}
			if p.Status != tt.status {
				t.Errorf("status = %d, want %d", p.Status, tt.status)
			}
		})
	}
}

// --- ProblemWithErrors Tests ---

func TestWriteProblemWithErrors_422(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPut, "/api/v1/users/alice/state", nil)

	errs := []validation.ValidationError{
		{Field: "habits[0].name", Message: "is required"},
		{Field: "sleepLogs[1].wakeTime", Message: "must be a clock time"},
	}
	WriteProblemWithErrors(w, r, "State contains invalid fields", errs)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}

	var p ProblemWithErrors
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if p.Type != "https://hasad.dev/errors/validation-error" {
		t.Errorf("type = %v", p.Type)
	}
	if len(p.Errors) != 2 || p.Errors[0].Field != "habits[0].name" {
		t.Errorf("errors = %+v", p.Errors)
	}
}

// --- MapStoreError Tests ---

func TestMapStoreError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{"not found", store.ErrNotFound, http.StatusNotFound, "Resource not found"},
		{"wrapped not found", fmt.Errorf("get: %w", store.ErrNotFound), http.StatusNotFound, "Resource not found"},
		{"invalid user", store.ErrInvalidUser, http.StatusBadRequest, "Invalid user ID"},
		{"coach", coach.ErrNotConfigured, http.StatusServiceUnavailable, "Coach is not configured"},
		{"export storage", fmt.Errorf("presign: %w", snapshot.ErrNotConfigured), http.StatusServiceUnavailable, "Export storage is not configured"},
		{"unknown", errors.New("some unknown error"), http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/v1/users/alice/state", nil)

			MapStoreError(w, r, tt.err)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			var p Problem
			if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
				t.Fatalf("failed to unmarshal: %v", err)
			}
			// Should not expose internal error details
			if p.Detail != tt.detail {
				t.Errorf("detail = %q, want %q", p.Detail, tt.detail)
			}
		})
	}
}
