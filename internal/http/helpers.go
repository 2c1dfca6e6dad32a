package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"expensehub/internal/core"
	applog "expensehub/internal/log"
)

type errorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			slog.Error("Failed to encode response", "error", err)
		}
	}
}

// writeError maps domain errors onto HTTP statuses in one place. Handlers
// never pick status codes themselves.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notFound     *core.NotFoundError
		unauthorized *core.UnauthorizedError
		invalidTrans *core.InvalidTransitionError
		conflict     *core.ConflictError
		invalidInput *core.InvalidInputError
	)

	switch {
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error: err.Error(),
			Details: map[string]string{
				"entity": notFound.Entity,
				"id":     strconv.FormatInt(notFound.ID, 10),
			},
		})
	case errors.As(err, &unauthorized):
		writeJSON(w, http.StatusForbidden, errorResponse{
			Error: err.Error(),
			Details: map[string]string{
				"actor_id": strconv.FormatInt(unauthorized.ActorID, 10),
				"role":     string(unauthorized.Role),
				"action":   unauthorized.Action,
			},
		})
	case errors.As(err, &invalidTrans):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error: err.Error(),
			Details: map[string]string{
				"expense_id": strconv.FormatInt(invalidTrans.ExpenseID, 10),
				"from":       string(invalidTrans.From),
				"to":         string(invalidTrans.To),
			},
		})
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error: err.Error(),
			Details: map[string]string{
				"expense_id": strconv.FormatInt(conflict.ExpenseID, 10),
				"expected":   string(conflict.Expected),
			},
		})
	case errors.As(err, &invalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: err.Error(),
			Details: map[string]string{
				"field":  invalidInput.Field,
				"reason": invalidInput.Reason,
			},
		})
	case errors.Is(err, core.ErrInvalidAmount), errors.Is(err, core.ErrEmptyDescription):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Unhandled error",
			applog.FieldError, err.Error(),
			applog.FieldPath, r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &core.InvalidInputError{Field: "body", Reason: err.Error()}
	}
	return nil
}

// pathID parses the {id} path value of the request.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, &core.InvalidInputError{Field: "id", Reason: "must be a positive integer"}
	}
	return id, nil
}

// queryDate parses a YYYY-MM-DD query parameter, or returns fallback when
// absent.
func queryDate(r *http.Request, key string, fallback core.Date) (core.Date, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		return core.Date{}, &core.InvalidInputError{Field: key, Reason: "must be YYYY-MM-DD"}
	}
	return d, nil
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, &core.InvalidInputError{Field: key, Reason: "must be a positive integer"}
	}
	return n, nil
}
