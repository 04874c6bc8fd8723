package calculator

import (
	"net/http"

	"gpa-calculator/internal/visitor"
	"gpa-calculator/internal/visits"
)

type VisitsResponse struct {
	Count int64 `json:"count"`
}

// VisitsHandler records a visit for the caller and returns their count. It
// expects visitor.Middleware in front of it.
func VisitsHandler(tracker *visits.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := visitor.FromContext(r.Context())
		writeJSON(w, http.StatusOK, VisitsResponse{Count: tracker.Visit(r.Context(), id)})
	}
}
