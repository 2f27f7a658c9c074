package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"campina-tasks/internal/auth"
	"campina-tasks/internal/calendar"
	"campina-tasks/internal/deadline"
	"campina-tasks/internal/model"
	"campina-tasks/internal/service"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.deps.Credentials.Check(req.Username, req.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeJSONError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeServiceError(w, r, err)
		return
	}

	token, expires, err := s.deps.Issuer.Issue(req.Username)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expires})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.deps.Version,
		"uptime":  s.deps.Now().Sub(s.startedAt).Round(time.Second).String(),
	})
}

func (s *Server) listAreas(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.deps.Areas.Summaries(r.Context(), s.deps.Now())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// areaFilter parses the optional area_id query parameter. Zero means no filter.
func areaFilter(r *http.Request) (uint, error) {
	raw := r.URL.Query().Get("area_id")
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, service.ValidationError{Field: "area_id", Reason: "must be a positive integer"}
	}
	return uint(id), nil
}

func (s *Server) loadTasks(r *http.Request) ([]model.Task, error) {
	areaID, err := areaFilter(r)
	if err != nil {
		return nil, err
	}
	if areaID == 0 {
		return s.deps.Tasks.List(r.Context())
	}
	return s.deps.Tasks.ListByArea(r.Context(), areaID)
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.loadTasks(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) groupedTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.loadTasks(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	groups := service.GroupByPriority(tasks)
	if groups == nil {
		groups = []service.PriorityGroup{}
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) createTasks(w http.ResponseWriter, r *http.Request) {
	var input service.TaskInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	created, err := s.deps.Tasks.Create(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func taskID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, service.ValidationError{Field: "id", Reason: "must be a positive integer"}
	}
	return uint(id), nil
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	task, err := s.deps.Tasks.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

type updateTaskRequest struct {
	Status   *model.Status `json:"status"`
	Deadline *string       `json:"deadline"`
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Status == nil && req.Deadline == nil {
		writeJSONError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	task, err := s.deps.Tasks.Update(r.Context(), id, service.TaskUpdate{Status: req.Status, Deadline: req.Deadline})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.deps.Tasks.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type urgentItem struct {
	Task    model.Task `json:"task"`
	Urgency string     `json:"urgency"`
}

func (s *Server) listUrgent(w http.ResponseWriter, r *http.Request) {
	days := s.deps.LookaheadDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeServiceError(w, r, service.ValidationError{Field: "days", Reason: "must be a non-negative integer"})
			return
		}
		days = n
	}
	tasks, err := s.loadTasks(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// Tasks with unreadable deadlines are left out of the feed.
	urgent, _ := deadline.Urgent(tasks, s.deps.Now(), days)
	items := make([]urgentItem, 0, len(urgent))
	for _, item := range urgent {
		items = append(items, urgentItem{Task: item.Task, Urgency: item.Urgency.String()})
	}
	writeJSON(w, http.StatusOK, items)
}

type calendarResponse struct {
	Key      string         `json:"key"`
	Prev     string         `json:"prev"`
	Next     string         `json:"next"`
	Selected string         `json:"selected,omitempty"`
	Month    calendar.Month `json:"month"`
	Weeks    [][7]int       `json:"weeks"`
	Tasks    []model.Task   `json:"selected_tasks"`
}

func (s *Server) showCalendar(w http.ResponseWriter, r *http.Request) {
	now := s.deps.Now()
	view := calendar.NewView(now)
	if key := r.URL.Query().Get("month"); key != "" {
		parsed, err := calendar.ParseMonth(key)
		if err != nil {
			writeServiceError(w, r, service.ValidationError{Field: "month", Reason: "must look like YYYY-MM"})
			return
		}
		view = parsed
	}
	if selected := r.URL.Query().Get("selected"); selected != "" {
		if _, err := deadline.ParseDate(selected); err != nil {
			writeServiceError(w, r, service.ValidationError{Field: "selected", Reason: err.Error()})
			return
		}
		view = view.Select(selected)
	}

	page, err := s.deps.Tasks.Calendar(r.Context(), view, now)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	selectedTasks := page.Selected
	if selectedTasks == nil {
		selectedTasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, calendarResponse{
		Key:      view.Key(),
		Prev:     view.Prev().Key(),
		Next:     view.Next().Key(),
		Selected: view.Selected,
		Month:    page.Month,
		Weeks:    page.Month.Weeks(),
		Tasks:    selectedTasks,
	})
}
