package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hyperengineering/hasad/internal/store"
)

// userIDContextKey is the context key for the validated user ID.
type userIDContextKey struct{}

// WithUserID returns a new context with the user ID attached.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDContextKey{}, id)
}

// UserIDFromContext extracts the user ID from the context.
// Returns an empty string if not present.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDContextKey{}).(string)
	return id
}

// UserMiddleware validates the {userID} URL parameter and attaches it to the
// request context. Invalid IDs get a 400 Problem Details response.
func UserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "userID")
		if err := store.ValidateUserID(id); err != nil {
			WriteProblem(w, r, http.StatusBadRequest, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
	})
}
