package http

import (
	"context"
	"net/http"
	"strconv"

	"expensehub/internal/core"
	"expensehub/internal/store"
)

type actorContextKey struct{}

// withActor resolves the X-Actor-ID header against the store and injects
// the actor into the request context. Identity verification happens
// upstream; an absent or unknown id is rejected here, never defaulted.
func withActor(actors store.ActorStore, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("X-Actor-ID")
		if raw == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing X-Actor-ID header"})
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 1 {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid X-Actor-ID header"})
			return
		}

		actor, err := actors.GetActor(r.Context(), id)
		if err != nil {
			if core.IsNotFound(err) {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unknown actor"})
				return
			}
			writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), actorContextKey{}, actor)
		next(w, r.WithContext(ctx))
	}
}

// actorFrom returns the actor resolved by withActor.
func actorFrom(r *http.Request) core.Actor {
	actor, _ := r.Context().Value(actorContextKey{}).(core.Actor)
	return actor
}
