package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hyperengineering/hasad/internal/coach"
	"github.com/hyperengineering/hasad/internal/dates"
	"github.com/hyperengineering/hasad/internal/snapshot"
	"github.com/hyperengineering/hasad/internal/state"
	"github.com/hyperengineering/hasad/internal/store"
	"github.com/hyperengineering/hasad/internal/types"
	"github.com/hyperengineering/hasad/internal/validation"
)

// MaxStateBodyBytes bounds a PUT state body.
const MaxStateBodyBytes = 8 << 20

// MaxPromptLength bounds a coach prompt.
const MaxPromptLength = 4000

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Users   int64  `json:"users"`
}

// CoachRequest is the body of POST /coach.
type CoachRequest struct {
	Prompt string `json:"prompt,omitempty"`
}

// CoachResponse is the body returned by POST /coach.
type CoachResponse struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

// ExportResponse is the body of GET /export.
type ExportResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ExportLinker issues download links for a user's latest uploaded export.
type ExportLinker interface {
	PresignedURL(ctx context.Context, userID string) (string, time.Time, error)
}

// Handler implements the API handlers
type Handler struct {
	store   store.Store
	coach   coach.Coach
	exports ExportLinker
	apiKey  string
	version string
	now     func() time.Time
}

// NewHandler creates a new Handler. A nil coach disables the coach endpoint.
func NewHandler(s store.Store, c coach.Coach, apiKey, version string) *Handler {
	if c == nil {
		c = coach.Noop{}
	}
	return &Handler{
		store:   s,
		coach:   c,
		apiKey:  apiKey,
		version: version,
		now:     time.Now,
	}
}

// WithExports enables GET /export backed by l.
func (h *Handler) WithExports(l ExportLinker) *Handler {
	h.exports = l
	return h
}

func (h *Handler) today() dates.Key {
	return dates.Today(h.now)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Health returns the health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		slog.Error("health stats failed", "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: h.version,
		Users:   stats.Users,
	})
}

// loadState returns the stored aggregate, or today's defaults for a user
// that has never written.
func (h *Handler) loadState(r *http.Request) (types.State, error) {
	today := h.today()
	s, err := h.store.GetState(r.Context(), UserIDFromContext(r.Context()), today)
	if errors.Is(err, store.ErrNotFound) {
		return types.NewState(today), nil
	}
	if err != nil {
		return types.State{}, err
	}
	return *s, nil
}

// GetState handles GET /api/v1/users/{userID}/state
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	s, err := h.loadState(r)
	if err != nil {
		slog.Error("get state failed", "user_id", UserIDFromContext(r.Context()), "error", err)
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// PutState handles PUT /api/v1/users/{userID}/state. The body replaces the
// whole aggregate: entries absent from it are deleted.
func (h *Handler) PutState(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxStateBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteProblem(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("State body exceeds %d bytes", tooLarge.Limit))
			return
		}
		WriteProblem(w, r, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var s types.State
	if err := json.Unmarshal(body, &s); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	if errs := validation.ValidateState(s); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "State contains invalid fields", errs)
		return
	}

	result, err := h.store.ReplaceState(r.Context(), userID, s)
	if err != nil {
		slog.Error("replace state failed", "user_id", userID, "error", err)
		MapStoreError(w, r, err)
		return
	}

	slog.Info("state replaced",
		"component", "api",
		"action", "put_state",
		"user_id", userID,
		"upserted", result.Upserted,
		"deleted", result.Deleted,
	)
	writeJSON(w, http.StatusOK, result)
}

// DeleteUser handles DELETE /api/v1/users/{userID}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	if err := h.store.DeleteUser(r.Context(), userID); err != nil {
		MapStoreError(w, r, err)
		return
	}
	slog.Info("user deleted", "component", "api", "action", "delete_user", "user_id", userID)
	w.WriteHeader(http.StatusNoContent)
}

// Export handles GET /api/v1/users/{userID}/export with a short-lived
// download link for the latest export uploaded by the export worker.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	if h.exports == nil {
		MapStoreError(w, r, snapshot.ErrNotConfigured)
		return
	}

	userID := UserIDFromContext(r.Context())
	if _, err := h.store.GetState(r.Context(), userID, h.today()); err != nil {
		MapStoreError(w, r, err)
		return
	}

	link, expiresAt, err := h.exports.PresignedURL(r.Context(), userID)
	switch {
	case errors.Is(err, snapshot.ErrNotConfigured):
		MapStoreError(w, r, err)
		return
	case err != nil:
		slog.Error("presign export failed", "user_id", userID, "error", err)
		WriteProblem(w, r, http.StatusBadGateway, "Export storage is unavailable")
		return
	}

	writeJSON(w, http.StatusOK, ExportResponse{URL: link, ExpiresAt: expiresAt})
}

// summaryDate reads the optional ?date= query parameter.
func (h *Handler) summaryDate(r *http.Request) (dates.Key, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return h.today(), nil
	}
	return dates.ParseKey(raw)
}

// Summary handles GET /api/v1/users/{userID}/summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	day, err := h.summaryDate(r)
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, "Invalid date: must be YYYY-MM-DD")
		return
	}

	s, err := h.loadState(r)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state.Summarize(s, day))
}

// Coach handles POST /api/v1/users/{userID}/coach
func (h *Handler) Coach(w http.ResponseWriter, r *http.Request) {
	var req CoachRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(io.LimitReader(r.Body, MaxPromptLength*4)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
			return
		}
	}

	c := &validation.Collector{}
	validation.ValidateText(c, "prompt", req.Prompt, MaxPromptLength, false)
	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", c.Errors())
		return
	}

	s, err := h.loadState(r)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	text, err := h.coach.Advise(r.Context(), coach.Request{
		State:   s,
		Summary: state.Summarize(s, h.today()),
		Prompt:  req.Prompt,
	})
	if err != nil {
		if errors.Is(err, coach.ErrNotConfigured) {
			MapStoreError(w, r, err)
			return
		}
		slog.Error("coach advise failed",
			"user_id", UserIDFromContext(r.Context()),
			"model", h.coach.ModelName(),
			"error", err,
		)
		WriteProblem(w, r, http.StatusBadGateway, "Coach is unavailable")
		return
	}

	writeJSON(w, http.StatusOK, CoachResponse{Text: text, Model: h.coach.ModelName()})
}
