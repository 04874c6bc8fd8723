package calculator

import (
	"net/http"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"gpa-calculator/internal/course"
	"gpa-calculator/internal/visitor"
	"gpa-calculator/internal/visits"
)

type Deps struct {
	Store   *course.Store
	Tracker *visits.Tracker
	Issuer  *visitor.Issuer
	Logger  log.Logger
}

func NewRouter(d Deps) http.Handler {
	sheets := NewSheetHandler(d.Store, d.Logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Handle("POST /api/v1/gpa", CalculateHandler(d.Logger))

	mux.HandleFunc("POST /api/v1/sheets", sheets.Create)
	mux.HandleFunc("GET /api/v1/sheets/{id}", sheets.Get)
	mux.HandleFunc("DELETE /api/v1/sheets/{id}", sheets.Delete)
	mux.HandleFunc("POST /api/v1/sheets/{id}/courses", sheets.AddCourse)
	mux.HandleFunc("PATCH /api/v1/sheets/{id}/courses/{courseID}", sheets.UpdateCourse)
	mux.HandleFunc("DELETE /api/v1/sheets/{id}/courses/{courseID}", sheets.RemoveCourse)
	mux.HandleFunc("POST /api/v1/sheets/{id}/calculate", sheets.Calculate)

	mux.Handle("GET /api/v1/visits", visitor.Middleware(d.Issuer, d.Logger, VisitsHandler(d.Tracker)))

	return logRequests(d.Logger, mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(logger log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		level.Info(logger).Log(
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"took", time.Since(start),
		)
	})
}
