package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hyperengineering/hasad/internal/coach"
	"github.com/hyperengineering/hasad/internal/snapshot"
	"github.com/hyperengineering/hasad/internal/store"
	"github.com/hyperengineering/hasad/internal/validation"
)

const problemTypeBase = "https://hasad.dev/errors/"

// problemSlugs names the problem type of every status the API emits.
// Anything else is reported as "unknown".
var problemSlugs = map[int]string{
	http.StatusBadRequest:            "bad-request",
	http.StatusUnauthorized:          "unauthorized",
	http.StatusNotFound:              "not-found",
	http.StatusRequestEntityTooLarge: "too-large",
	http.StatusUnprocessableEntity:   "validation-error",
	http.StatusTooManyRequests:       "rate-limited",
	http.StatusInternalServerError:   "internal-error",
	http.StatusBadGateway:            "upstream",
	http.StatusServiceUnavailable:    "service-unavailable",
}

// Problem is an RFC 7807 problem details body.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

// ProblemWithErrors carries the per-field failures of a rejected aggregate.
type ProblemWithErrors struct {
	Problem
	Errors []validation.ValidationError `json:"errors,omitempty"`
}

func newProblem(r *http.Request, status int, detail string) Problem {
	slug, ok := problemSlugs[status]
	if !ok {
		slug = "unknown"
	}
	title := http.StatusText(status)
	if status == http.StatusUnprocessableEntity {
		title = "Validation Error"
	}
	return Problem{
		Type:     problemTypeBase + slug,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	}
}

func encodeProblem(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// WriteProblem writes a problem details response.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	encodeProblem(w, status, newProblem(r, status, detail))
}

// WriteProblemWithErrors writes a 422 listing every invalid field.
func WriteProblemWithErrors(w http.ResponseWriter, r *http.Request, detail string, errs []validation.ValidationError) {
	encodeProblem(w, http.StatusUnprocessableEntity, ProblemWithErrors{
		Problem: newProblem(r, http.StatusUnprocessableEntity, detail),
		Errors:  errs,
	})
}

// MapStoreError converts store, coach and export errors to problem
// responses. Unknown errors become a bare 500.
func MapStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		WriteProblem(w, r, http.StatusNotFound, "Resource not found")
	case errors.Is(err, store.ErrInvalidUser):
		WriteProblem(w, r, http.StatusBadRequest, "Invalid user ID")
	case errors.Is(err, coach.ErrNotConfigured):
		WriteProblem(w, r, http.StatusServiceUnavailable, "Coach is not configured")
	case errors.Is(err, snapshot.ErrNotConfigured):
		WriteProblem(w, r, http.StatusServiceUnavailable, "Export storage is not configured")
	default:
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
}
