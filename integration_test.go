package main_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-kit/log"
	"gorm.io/gorm"

	"gpa-calculator/internal/calculator"
	"gpa-calculator/internal/course"
	"gpa-calculator/internal/storage"
	"gpa-calculator/internal/visitor"
	"gpa-calculator/internal/visits"
)

func SetupServer(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()

	db, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("failed to create in-memory db: %v", err)
	}
	t.Cleanup(func() { storage.Close(db) })

	logger := log.NewNopLogger()
	handler := calculator.NewRouter(calculator.Deps{
		Store:   course.NewStore(),
		Tracker: visits.NewTracker(visits.NewLocalCounter(db), logger),
		Issuer:  visitor.NewIssuer("integration-secret", time.Hour),
		Logger:  logger,
	})
	return handler, db
}

func request(t *testing.T, handler http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestIntegration_FullFlow(t *testing.T) {
	handler, _ := SetupServer(t)

	w := request(t, handler, http.MethodGet, "/api/v1/visits", "")
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("visits failed: status %d", w.Result().StatusCode)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected visitor cookie, got %d cookies", len(cookies))
	}

	w = request(t, handler, http.MethodPost, "/api/v1/sheets", "")
	if w.Result().StatusCode != http.StatusCreated {
		t.Fatalf("create sheet failed: status %d", w.Result().StatusCode)
	}
	var sheet calculator.SheetResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&sheet); err != nil {
		t.Fatalf("failed to decode sheet: %v", err)
	}
	base := "/api/v1/sheets/" + sheet.ID

	w = request(t, handler, http.MethodPatch, base+"/courses/"+sheet.Courses[0].ID, `{"name":"Calculus","gpa":"3.7","credits":"4"}`)
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("patch failed: status %d", w.Result().StatusCode)
	}

	w = request(t, handler, http.MethodPost, base+"/courses", "")
	var added struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(w.Result().Body).Decode(&added); err != nil {
		t.Fatalf("failed to decode course: %v", err)
	}
	request(t, handler, http.MethodPatch, base+"/courses/"+added.ID, `{"gpa":"3.0","credits":"3"}`)

	w = request(t, handler, http.MethodPost, base+"/calculate", "")
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("calculate failed: status %d", w.Result().StatusCode)
	}
	var calcResp struct {
		GPA string `json:"gpa"`
	}
	if err := json.NewDecoder(w.Result().Body).Decode(&calcResp); err != nil {
		t.Fatalf("failed to decode calculate response: %v", err)
	}

	// (3.7*4 + 3.0*3) / 7 = 23.8 / 7 = 3.4
	expected := "3.40"
	if calcResp.GPA != expected {
		t.Fatalf("expected result %s, got %s", expected, calcResp.GPA)
	}

	w = request(t, handler, http.MethodGet, "/api/v1/visits", "", cookies...)
	var visitsResp struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(w.Result().Body).Decode(&visitsResp); err != nil {
		t.Fatalf("failed to decode visits: %v", err)
	}
	if visitsResp.Count != 2 {
		t.Fatalf("expected second visit, got %d", visitsResp.Count)
	}
}

func TestIntegration_StatelessCalculate(t *testing.T) {
	handler, _ := SetupServer(t)

	w := request(t, handler, http.MethodPost, "/api/v1/gpa", `{"courses":[{"gpa":"4.0","credits":"3"}]}`)
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("calculate failed: status %d", w.Result().StatusCode)
	}
	var resp struct {
		GPA string `json:"gpa"`
	}
	if err := json.NewDecoder(w.Result().Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.GPA != "4.00" {
		t.Fatalf("expected 4.00, got %s", resp.GPA)
	}
}

func TestIntegration_VisitorsCountedSeparately(t *testing.T) {
	handler, db := SetupServer(t)

	for i := 0; i < 3; i++ {
		w := request(t, handler, http.MethodGet, "/api/v1/visits", "")
		if w.Result().StatusCode != http.StatusOK {
			t.Fatalf("visits failed: status %d", w.Result().StatusCode)
		}
	}

	var rows int64
	if err := db.Table("visits").Count(&rows).Error; err != nil {
		t.Fatalf("failed to count visitors: %v", err)
	}
	if rows != 3 {
		t.Fatalf("expected 3 distinct visitors, got %d", rows)
	}
}

func TestIntegration_RejectsInvalidCourse(t *testing.T) {
	handler, _ := SetupServer(t)

	w := request(t, handler, http.MethodPost, "/api/v1/gpa", `{"courses":[{"gpa":"abc","credits":"3"}]}`)
	if w.Result().StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for invalid gpa, got %d", w.Result().StatusCode)
	}
}
