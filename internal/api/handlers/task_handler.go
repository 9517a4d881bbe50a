package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/isdelr/taskdeck-be/internal/api/respond"
	"github.com/isdelr/taskdeck-be/internal/auth"
	"github.com/isdelr/taskdeck-be/internal/models"
	"github.com/isdelr/taskdeck-be/internal/services"
	"github.com/rs/zerolog/log"
)

const (
	maxTitleLen       = 100
	maxDescriptionLen = 500
)

// TaskHandler handles HTTP requests for the task CRUD surface. Every route
// it serves sits behind the authorization gate, so the caller identity is
// always on the request context.
type TaskHandler struct {
	service  services.TaskServiceProvider
	validate *validator.Validate
	debug    bool
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(service services.TaskServiceProvider, debug bool) *TaskHandler {
	return &TaskHandler{service: service, validate: validator.New(), debug: debug}
}

// CreateTaskPayload defines the structure for task creation requests.
type CreateTaskPayload struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     string `json:"dueDate"`
}

// List handles GET /todos with optional completed/priority filters and
// page/limit pagination.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := h.callerID(w, r)
	if ownerID == "" {
		return
	}

	q := r.URL.Query()
	var errs []respond.FieldError

	page := 1
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, respond.FieldError{Field: "page", Message: "must be an integer"})
		} else {
			page = n
		}
	}

	limit := models.DefaultPageLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, respond.FieldError{Field: "limit", Message: "must be an integer"})
		} else {
			limit = n
		}
	}

	var filter models.TaskFilter
	if raw := q.Get("completed"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, respond.FieldError{Field: "completed", Message: "must be true or false"})
		} else {
			filter.Completed = &b
		}
	}
	if raw := q.Get("priority"); raw != "" {
		p := models.Priority(raw)
		if !p.Valid() {
			errs = append(errs, respond.FieldError{Field: "priority", Message: "must be one of low, medium, high"})
		} else {
			filter.Priority = &p
		}
	}

	if len(errs) > 0 {
		respond.Invalid(w, errs)
		return
	}

	page = models.ClampPage(page)
	limit = models.ClampLimit(limit)

	tasks, total, err := h.service.List(r.Context(), ownerID, filter, page, limit)
	if err != nil {
		log.Error().Err(err).Str("user_id", ownerID).Msg("Failed to list tasks")
		h.serverError(w, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	pages := (total + limit - 1) / limit

	respond.OK(w, http.StatusOK, "Tasks retrieved", map[string]interface{}{
		"todos": tasks,
		"total": total,
		"page":  page,
		"limit": limit,
		"pages": pages,
	})
}

// Get handles GET /todos/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID := h.callerID(w, r)
	if ownerID == "" {
		return
	}
	id := chi.URLParam(r, "id")

	task, err := h.service.Get(r.Context(), id, ownerID)
	if err != nil {
		h.taskError(w, err, ownerID, id, "Failed to get task")
		return
	}
	respond.OK(w, http.StatusOK, "Task retrieved", task)
}

// Create handles POST /todos.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID := h.callerID(w, r)
	if ownerID == "" {
		return
	}

	var payload CreateTaskPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respond.Fail(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}

	errs := h.createErrors(payload)

	var due *time.Time
	if payload.DueDate != "" {
		t, err := parseDueDate(payload.DueDate)
		if err != nil {
			errs = append(errs, respond.FieldError{Field: "dueDate", Message: "must be an RFC 3339 timestamp or YYYY-MM-DD date"})
		} else {
			due = t
		}
	}

	if len(errs) > 0 {
		respond.Invalid(w, errs)
		return
	}

	task, err := h.service.Create(r.Context(), ownerID, models.TaskInput{
		Title:       payload.Title,
		Description: payload.Description,
		Priority:    models.Priority(payload.Priority),
		DueDate:     due,
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", ownerID).Msg("Failed to create task")
		h.serverError(w, err)
		return
	}

	respond.OK(w, http.StatusCreated, "Task created", task)
}

// Update handles PUT /todos/{id}. Semantics are partial: only keys present
// in the body change the task, and an explicit null on dueDate or
// description clears the field. The body is decoded key-by-key so "absent"
// and "null" stay distinguishable.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID := h.callerID(w, r)
	if ownerID == "" {
		return
	}
	id := chi.URLParam(r, "id")

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		respond.Fail(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}

	patch, errs := buildPatch(raw)
	if len(errs) > 0 {
		respond.Invalid(w, errs)
		return
	}

	task, err := h.service.Update(r.Context(), id, ownerID, patch)
	if err != nil {
		h.taskError(w, err, ownerID, id, "Failed to update task")
		return
	}
	respond.OK(w, http.StatusOK, "Task updated", task)
}

// Delete handles DELETE /todos/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID := h.callerID(w, r)
	if ownerID == "" {
		return
	}
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id, ownerID); err != nil {
		h.taskError(w, err, ownerID, id, "Failed to delete task")
		return
	}
	respond.OK(w, http.StatusOK, "Task deleted", nil)
}

// buildPatch converts the raw body keys into a TaskPatch, validating each
// present field.
func buildPatch(raw map[string]json.RawMessage) (models.TaskPatch, []respond.FieldError) {
	var patch models.TaskPatch
	var errs []respond.FieldError

	if msg, ok := raw["title"]; ok {
		var title *string
		if err := json.Unmarshal(msg, &title); err != nil || title == nil {
			errs = append(errs, respond.FieldError{Field: "title", Message: "must be a string"})
		} else if *title == "" || len(*title) > maxTitleLen {
			errs = append(errs, respond.FieldError{Field: "title", Message: "must be between 1 and 100 characters"})
		} else {
			patch.Title = title
		}
	}

	if msg, ok := raw["description"]; ok {
		var desc *string
		if err := json.Unmarshal(msg, &desc); err != nil {
			errs = append(errs, respond.FieldError{Field: "description", Message: "must be a string or null"})
		} else if desc == nil {
			patch.ClearDescription = true
		} else if len(*desc) > maxDescriptionLen {
			errs = append(errs, respond.FieldError{Field: "description", Message: "must be at most 500 characters"})
		} else {
			patch.Description = desc
		}
	}

	if msg, ok := raw["completed"]; ok {
		var completed *bool
		if err := json.Unmarshal(msg, &completed); err != nil || completed == nil {
			errs = append(errs, respond.FieldError{Field: "completed", Message: "must be true or false"})
		} else {
			patch.Completed = completed
		}
	}

	if msg, ok := raw["priority"]; ok {
		var prio *string
		if err := json.Unmarshal(msg, &prio); err != nil || prio == nil {
			errs = append(errs, respond.FieldError{Field: "priority", Message: "must be one of low, medium, high"})
		} else {
			p := models.Priority(*prio)
			if !p.Valid() {
				errs = append(errs, respond.FieldError{Field: "priority", Message: "must be one of low, medium, high"})
			} else {
				patch.Priority = &p
			}
		}
	}

	if msg, ok := raw["dueDate"]; ok {
		var due *string
		if err := json.Unmarshal(msg, &due); err != nil {
			errs = append(errs, respond.FieldError{Field: "dueDate", Message: "must be a date string or null"})
		} else if due == nil {
			patch.ClearDueDate = true
		} else {
			t, err := parseDueDate(*due)
			if err != nil {
				errs = append(errs, respond.FieldError{Field: "dueDate", Message: "must be an RFC 3339 timestamp or YYYY-MM-DD date"})
			} else {
				patch.DueDate = t
			}
		}
	}

	return patch, errs
}

func parseDueDate(s string) (*time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// callerID pulls the authenticated user from the context. The gate always
// sets it; an empty result means the route was wired without the middleware.
func (h *TaskHandler) callerID(w http.ResponseWriter, r *http.Request) string {
	id, ok := auth.UserID(r.Context())
	if !ok {
		log.Error().Str("path", r.URL.Path).Msg("Task route reached without resolved identity")
		respond.Fail(w, http.StatusInternalServerError, "Something went wrong", "")
		return ""
	}
	return id
}

func (h *TaskHandler) taskError(w http.ResponseWriter, err error, ownerID, taskID, msg string) {
	if errors.Is(err, services.ErrTaskNotFound) {
		respond.Fail(w, http.StatusNotFound, "Task not found", "")
		return
	}
	log.Error().Err(err).Str("user_id", ownerID).Str("task_id", taskID).Msg(msg)
	h.serverError(w, err)
}

func (h *TaskHandler) serverError(w http.ResponseWriter, err error) {
	detail := ""
	if h.debug {
		detail = err.Error()
	}
	respond.Fail(w, http.StatusInternalServerError, "Something went wrong", detail)
}

func (h *TaskHandler) createErrors(payload CreateTaskPayload) []respond.FieldError {
	err := h.validate.Struct(payload)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []respond.FieldError{{Field: "", Message: "invalid input"}}
	}

	out := make([]respond.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch field {
		case "Title":
			field = "title"
		case "Description":
			field = "description"
		case "Priority":
			field = "priority"
		case "DueDate":
			field = "dueDate"
		}
		msg := "is invalid"
		switch fe.Tag() {
		case "required":
			msg = "is required"
		case "max":
			msg = "must be at most " + fe.Param() + " characters"
		case "oneof":
			msg = "must be one of low, medium, high"
		}
		out = append(out, respond.FieldError{Field: field, Message: msg})
	}
	return out
}
