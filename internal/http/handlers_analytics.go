package http

import (
	"net/http"
	"time"

	"expensehub/internal/core"
)

// handleAnalyticsSummary aggregates the caller's visible expenses over a
// date range, defaulting to the current month.
func (s *Server) handleAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	now := core.DateOf(time.Now())
	defaultFrom := core.NewDate(now.Year(), int(now.Month()), 1)

	from, err := queryDate(r, "from", defaultFrom)
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := queryDate(r, "to", now)
	if err != nil {
		writeError(w, r, err)
		return
	}

	actor := actorFrom(r)
	summary, err := s.analytics.Aggregate(r.Context(), actor.ID, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryResponse(summary))
}
