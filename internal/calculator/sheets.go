package calculator

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"gpa-calculator/internal/course"
	"gpa-calculator/internal/gpa"
)

type SheetResponse struct {
	ID      string             `json:"id"`
	Courses []gpa.CourseEntry  `json:"courses"`
	Result  *CalculateResponse `json:"result,omitempty"`
	Error   *ErrorResponse     `json:"error,omitempty"`
}

type PatchCourseRequest struct {
	Name    *string `json:"name"`
	GPA     *Text   `json:"gpa"`
	Credits *Text   `json:"credits"`
}

func (p PatchCourseRequest) patch() course.Patch {
	out := course.Patch{Name: p.Name}
	if p.GPA != nil {
		s := string(*p.GPA)
		out.GPA = &s
	}
	if p.Credits != nil {
		s := string(*p.Credits)
		out.Credits = &s
	}
	return out
}

// SheetHandler serves editable course sheets kept in memory.
type SheetHandler struct {
	store  *course.Store
	logger log.Logger
}

func NewSheetHandler(store *course.Store, logger log.Logger) *SheetHandler {
	return &SheetHandler{store: store, logger: logger}
}

func newSheetResponse(s *course.Sheet) *SheetResponse {
	resp := &SheetResponse{ID: s.ID, Courses: s.Courses()}
	last, ok := s.Last()
	if !ok {
		return resp
	}
	if last.Err == nil {
		resp.Result = newCalculateResponse(last.Result)
	} else if verr, ok := gpa.AsValidationError(last.Err); ok {
		resp.Error = newErrorResponse(verr)
	}
	return resp
}

func (h *SheetHandler) Create(w http.ResponseWriter, r *http.Request) {
	sheet := h.store.Create()
	level.Debug(h.logger).Log("msg", "sheet created", "sheet", sheet.ID)
	writeJSON(w, http.StatusCreated, newSheetResponse(sheet))
}

func (h *SheetHandler) Get(w http.ResponseWriter, r *http.Request) {
	sheet, ok := h.sheet(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSheetResponse(sheet))
}

func (h *SheetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.PathValue("id")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SheetHandler) AddCourse(w http.ResponseWriter, r *http.Request) {
	sheet, ok := h.sheet(w, r)
	if !ok {
		return
	}
	entry := sheet.Add()
	writeJSON(w, http.StatusCreated, entry)
}

func (h *SheetHandler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	sheet, ok := h.sheet(w, r)
	if !ok {
		return
	}
	var req PatchCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if _, err := sheet.Update(r.PathValue("courseID"), req.patch()); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSheetResponse(sheet))
}

func (h *SheetHandler) RemoveCourse(w http.ResponseWriter, r *http.Request) {
	sheet, ok := h.sheet(w, r)
	if !ok {
		return
	}
	if err := sheet.Remove(r.PathValue("courseID")); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSheetResponse(sheet))
}

func (h *SheetHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	sheet, ok := h.sheet(w, r)
	if !ok {
		return
	}
	res, err := sheet.Calculate()
	writeOutcome(w, h.logger, res, err)
}

func (h *SheetHandler) sheet(w http.ResponseWriter, r *http.Request) (*course.Sheet, bool) {
	sheet, err := h.store.Get(r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return nil, false
	}
	return sheet, true
}

func (h *SheetHandler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, course.ErrSheetNotFound), errors.Is(err, course.ErrCourseNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, course.ErrLastCourse):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		level.Error(h.logger).Log("msg", "sheet request failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
