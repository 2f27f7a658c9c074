// Package httpapi exposes areas, tasks, the urgency feed and the calendar as a JSON API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"campina-tasks/internal/auth"
	"campina-tasks/internal/calendar"
	"campina-tasks/internal/deadline"
	"campina-tasks/internal/repository"
	"campina-tasks/internal/service"
)

// Deps bundles everything the API needs.
type Deps struct {
	Areas         *service.AreaService
	Tasks         *service.TaskService
	Issuer        *auth.Issuer
	Credentials   auth.Credentials
	LookaheadDays int
	Now           func() time.Time
	Version       string
}

// Server serves the JSON API.
type Server struct {
	deps      Deps
	startedAt time.Time
	mux       *http.ServeMux
}

func NewServer(deps Deps) *Server {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	s := &Server{deps: deps, startedAt: deps.Now(), mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)

	s.mux.Handle("GET /api/areas", s.authMiddleware(http.HandlerFunc(s.listAreas)))

	s.mux.Handle("GET /api/tasks", s.authMiddleware(http.HandlerFunc(s.listTasks)))
	s.mux.Handle("POST /api/tasks", s.authMiddleware(http.HandlerFunc(s.createTasks)))
	s.mux.Handle("GET /api/tasks/grouped", s.authMiddleware(http.HandlerFunc(s.groupedTasks)))
	s.mux.Handle("GET /api/tasks/{id}", s.authMiddleware(http.HandlerFunc(s.getTask)))
	s.mux.Handle("PATCH /api/tasks/{id}", s.authMiddleware(http.HandlerFunc(s.updateTask)))
	s.mux.Handle("DELETE /api/tasks/{id}", s.authMiddleware(http.HandlerFunc(s.deleteTask)))

	s.mux.Handle("GET /api/urgent", s.authMiddleware(http.HandlerFunc(s.listUrgent)))
	s.mux.Handle("GET /api/calendar", s.authMiddleware(http.HandlerFunc(s.showCalendar)))
}

// Handler returns the routed API with request ids attached.
func (s *Server) Handler() http.Handler {
	return requestIDMiddleware(s.mux)
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps a service error onto an HTTP status.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation   service.ValidationError
		invalidMonth calendar.InvalidMonthError
		invalidDate  deadline.InvalidDateError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &invalidMonth), errors.As(err, &invalidDate):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not found")
	default:
		log.Printf("[error] %s %s request_id=%s: %v", r.Method, r.URL.Path, RequestID(r.Context()), err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

type ctxKey int

const (
	ctxKeySubject ctxKey = iota
	ctxKeyRequestID
)

// Subject returns the authenticated user of a request, if any.
func Subject(ctx context.Context) string {
	subject, _ := ctx.Value(ctxKeySubject).(string)
	return subject
}

// RequestID returns the id assigned to a request, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// authMiddleware enforces bearer token authentication on wrapped handlers.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeJSONError(w, http.StatusUnauthorized, "missing or invalid Authorization header")
			return
		}
		claims, err := s.deps.Issuer.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, err.Error())
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeySubject, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestIDMiddleware tags every request with an id, echoes it in X-Request-ID and logs
// the outcome.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := time.Now()
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, id)))
		log.Printf("[info] http %s %s status=%d duration=%s request_id=%s",
			r.Method, r.URL.Path, rec.status, time.Since(started).Round(time.Millisecond), id)
	})
}
