package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/taskdeck-be/internal/auth"
	"github.com/isdelr/taskdeck-be/internal/config"
	"github.com/isdelr/taskdeck-be/internal/database"
	"github.com/isdelr/taskdeck-be/internal/services"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	db, err := database.New("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		JWTSecret:     "test-secret",
		TokenTTL:      time.Hour,
		StoreTimeout:  5 * time.Second,
		AllowedOrigin: "http://localhost:3000",
		AppEnv:        "test",
	}
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	userService := services.NewUserService(db, cfg.StoreTimeout)
	taskService := services.NewTaskService(db, cfg.StoreTimeout)
	return NewRouter(cfg, db, tokens, userService, taskService)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func do(t *testing.T, router http.Handler, method, path, token, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: non-envelope body %q: %v", method, path, rec.Body.String(), err)
	}
	return rec.Code, env
}

func signup(t *testing.T, router http.Handler, username, email string) string {
	t.Helper()
	code, env := do(t, router, http.MethodPost, "/api/auth/signup", "",
		`{"username":"`+username+`","email":"`+email+`","password":"Secret123"}`)
	if code != http.StatusCreated {
		t.Fatalf("signup %s: expected 201, got %d (%s)", username, code, env.Message)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		t.Fatalf("signup %s: missing token in response", username)
	}
	return data.Token
}

type taskBody struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
}

func decodeTask(t *testing.T, env envelope) taskBody {
	t.Helper()
	var task taskBody
	if err := json.Unmarshal(env.Data, &task); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	return task
}

func TestScenario_SignupCreateListDelete(t *testing.T) {
	router := newTestRouter(t)

	token := signup(t, router, "alice", "a@x.com")

	// Create with defaults.
	code, env := do(t, router, http.MethodPost, "/api/todos", token, `{"title":"buy milk"}`)
	if code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", code)
	}
	task := decodeTask(t, env)
	if task.Priority != "medium" || task.Completed {
		t.Fatalf("expected defaults medium/false, got %+v", task)
	}

	// List sees exactly one.
	code, env = do(t, router, http.MethodGet, "/api/todos?page=1&limit=10", token, "")
	if code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", code)
	}
	var listData struct {
		Todos []taskBody `json:"todos"`
		Total int        `json:"total"`
		Page  int        `json:"page"`
		Limit int        `json:"limit"`
		Pages int        `json:"pages"`
	}
	if err := json.Unmarshal(env.Data, &listData); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if listData.Total != 1 || len(listData.Todos) != 1 || listData.Pages != 1 {
		t.Fatalf("unexpected list: %+v", listData)
	}

	// Delete, then the id is gone.
	code, _ = do(t, router, http.MethodDelete, "/api/todos/"+task.ID, token, "")
	if code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", code)
	}
	code, _ = do(t, router, http.MethodGet, "/api/todos/"+task.ID, token, "")
	if code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", code)
	}
}

func TestScenario_OwnershipHiddenAs404(t *testing.T) {
	router := newTestRouter(t)

	aliceToken := signup(t, router, "alice", "a@x.com")
	bobToken := signup(t, router, "bob", "b@x.com")

	code, env := do(t, router, http.MethodPost, "/api/todos", aliceToken, `{"title":"private"}`)
	if code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", code)
	}
	task := decodeTask(t, env)

	// Bob sees 404 (not 403) for Alice's real task id, on every verb.
	for _, probe := range []struct{ method, body string }{
		{http.MethodGet, ""},
		{http.MethodPut, `{"completed":true}`},
		{http.MethodDelete, ""},
	} {
		code, _ = do(t, router, probe.method, "/api/todos/"+task.ID, bobToken, probe.body)
		if code != http.StatusNotFound {
			t.Fatalf("%s as non-owner: expected 404, got %d", probe.method, code)
		}
	}
}

func TestScenario_PartialUpdateAndClear(t *testing.T) {
	router := newTestRouter(t)
	token := signup(t, router, "alice", "a@x.com")

	code, env := do(t, router, http.MethodPost, "/api/todos", token,
		`{"title":"report","description":"numbers","priority":"high","dueDate":"2026-09-15T12:00:00Z"}`)
	if code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", code)
	}
	task := decodeTask(t, env)

	// Only completed changes.
	code, env = do(t, router, http.MethodPut, "/api/todos/"+task.ID, token, `{"completed":true}`)
	if code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", code)
	}
	updated := decodeTask(t, env)
	if !updated.Completed || updated.Title != "report" || updated.Description != "numbers" ||
		updated.Priority != "high" || updated.DueDate == nil {
		t.Fatalf("partial update touched other fields: %+v", updated)
	}

	// Explicit null clears the due date.
	code, env = do(t, router, http.MethodPut, "/api/todos/"+task.ID, token, `{"dueDate":null}`)
	if code != http.StatusOK {
		t.Fatalf("clear: expected 200, got %d", code)
	}
	cleared := decodeTask(t, env)
	if cleared.DueDate != nil {
		t.Fatalf("expected cleared due date, got %v", cleared.DueDate)
	}
	if cleared.Title != "report" {
		t.Fatalf("clear touched other fields: %+v", cleared)
	}
}

func TestScenario_AuthFailures(t *testing.T) {
	router := newTestRouter(t)
	signup(t, router, "alice", "a@x.com")

	// Wrong password and missing token produce the same generic 401.
	code, env := do(t, router, http.MethodPost, "/api/auth/login", "",
		`{"email":"a@x.com","password":"wrong-password"}`)
	if code != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d", code)
	}
	wrongPwMsg := env.Message

	code, env = do(t, router, http.MethodGet, "/api/todos", "", "")
	if code != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", code)
	}
	if env.Message != wrongPwMsg {
		t.Fatalf("401 messages differ: %q vs %q", env.Message, wrongPwMsg)
	}

	// A successful login returns a usable token.
	code, env = do(t, router, http.MethodPost, "/api/auth/login", "",
		`{"email":"a@x.com","password":"Secret123"}`)
	if code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", code)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		t.Fatal("login response missing token")
	}
	code, _ = do(t, router, http.MethodGet, "/api/todos", data.Token, "")
	if code != http.StatusOK {
		t.Fatalf("list with login token: expected 200, got %d", code)
	}
}

func TestScenario_DuplicateSignupConflict(t *testing.T) {
	router := newTestRouter(t)
	signup(t, router, "alice", "a@x.com")

	code, env := do(t, router, http.MethodPost, "/api/auth/signup", "",
		`{"username":"alice2","email":"a@x.com","password":"Secret123"}`)
	if code != http.StatusConflict {
		t.Fatalf("duplicate email: expected 409, got %d", code)
	}
	if env.Success {
		t.Fatal("duplicate signup must not report success")
	}
}

func TestScenario_ValidationErrors(t *testing.T) {
	router := newTestRouter(t)
	token := signup(t, router, "alice", "a@x.com")

	// Signup with bad fields reports each one.
	code, env := do(t, router, http.MethodPost, "/api/auth/signup", "",
		`{"username":"a!","email":"nope","password":"short"}`)
	if code != http.StatusBadRequest {
		t.Fatalf("bad signup: expected 400, got %d", code)
	}
	if len(env.Errors) != 3 {
		t.Fatalf("expected 3 field errors, got %+v", env.Errors)
	}

	// Task creation requires a title.
	code, env = do(t, router, http.MethodPost, "/api/todos", token, `{"description":"no title"}`)
	if code != http.StatusBadRequest {
		t.Fatalf("missing title: expected 400, got %d", code)
	}
	if len(env.Errors) == 0 || env.Errors[0].Field != "title" {
		t.Fatalf("expected a title field error, got %+v", env.Errors)
	}

	// Bad query values are rejected, not silently ignored.
	code, _ = do(t, router, http.MethodGet, "/api/todos?completed=maybe", token, "")
	if code != http.StatusBadRequest {
		t.Fatalf("bad completed filter: expected 400, got %d", code)
	}
}

func TestHealth_NoAuthRequired(t *testing.T) {
	router := newTestRouter(t)

	code, env := do(t, router, http.MethodGet, "/api/health", "", "")
	if code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", code)
	}
	if !env.Success {
		t.Fatal("health must report success")
	}
}
