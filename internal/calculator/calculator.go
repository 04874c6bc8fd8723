package calculator

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"gpa-calculator/internal/gpa"
)

// Text accepts either a JSON string or a bare JSON number, so clients may
// send "gpa": 3.5 as well as "gpa": "3.5". Null decodes as empty.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*t = Text(n.String())
	return nil
}

type CourseInput struct {
	Name    string `json:"name"`
	GPA     Text   `json:"gpa"`
	Credits Text   `json:"credits"`
}

type CalculateRequest struct {
	Courses []CourseInput `json:"courses"`
}

type CalculateResponse struct {
	GPA                string  `json:"gpa"`
	Value              float64 `json:"value"`
	TotalQualityPoints float64 `json:"total_quality_points"`
	TotalCreditHours   float64 `json:"total_credit_hours"`
}

type ErrorResponse struct {
	Error       string `json:"error"`
	Kind        string `json:"kind"`
	CourseIndex *int   `json:"course_index,omitempty"`
	CourseID    string `json:"course_id,omitempty"`
	Detail      string `json:"detail"`
}

func newCalculateResponse(res gpa.Result) *CalculateResponse {
	return &CalculateResponse{
		GPA:                res.Text,
		Value:              res.GPA,
		TotalQualityPoints: res.QualityPoints,
		TotalCreditHours:   res.CreditHours,
	}
}

func newErrorResponse(verr *gpa.ValidationError) *ErrorResponse {
	resp := &ErrorResponse{
		Error:    verr.Message(),
		Kind:     verr.Kind.String(),
		CourseID: verr.CourseID,
		Detail:   verr.Error(),
	}
	if verr.Index >= 0 {
		idx := verr.Index
		resp.CourseIndex = &idx
	}
	return resp
}

// CalculateHandler computes a GPA from the courses in the request body
// without keeping any state.
func CalculateHandler(logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CalculateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		entries := make([]gpa.CourseEntry, len(req.Courses))
		for i, c := range req.Courses {
			entries[i] = gpa.CourseEntry{Name: c.Name, GPAText: string(c.GPA), CreditsText: string(c.Credits)}
		}

		res, err := gpa.Compute(entries)
		writeOutcome(w, logger, res, err)
	}
}

func writeOutcome(w http.ResponseWriter, logger log.Logger, res gpa.Result, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, newCalculateResponse(res))
		return
	}
	verr, ok := gpa.AsValidationError(err)
	if !ok {
		level.Error(logger).Log("msg", "gpa calculation failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	level.Debug(logger).Log("msg", "gpa rejected", "kind", verr.Kind, "detail", verr.Error())
	writeJSON(w, http.StatusUnprocessableEntity, newErrorResponse(verr))
}

// writeJSON encodes v before touching the response, so an unencodable value
// becomes a 500 instead of a status line with an empty body.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
