package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/doafter-api/internal/config"
	"github.com/phrazzld/doafter-api/internal/platform/sqlstore"
	"github.com/phrazzld/doafter-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testServer drives the full router against a migrated in-memory database.
type testServer struct {
	t       *testing.T
	app     *application
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:                   8080,
			LogLevel:               "error",
			Environment:            config.EnvTest,
			ReadTimeoutSeconds:     5,
			WriteTimeoutSeconds:    5,
			ShutdownTimeoutSeconds: 5,
		},
		Database: config.DatabaseConfig{Driver: config.DriverSQLite, URL: ":memory:"},
		Auth: config.AuthConfig{
			JWTSecret:            "router-test-secret-that-is-32-chars!",
			TokenLifetimeMinutes: 60,
			BCryptCost:           12,
		},
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	app, err := newApplication(cfg, logger, testdb.Open(t), sqlstore.SQLite)
	require.NoError(t, err)

	return &testServer{t: t, app: app, handler: app.setupRouter()}
}

func (s *testServer) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	}
	return rec, decoded
}

// register creates an account and returns its token and user ID.
func (s *testServer) register(username string) (string, string) {
	s.t.Helper()
	rec, body := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret123",
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	user := body["user"].(map[string]interface{})
	return body["token"].(string), user["id"].(string)
}

func (s *testServer) createTodo(token string, payload map[string]interface{}) map[string]interface{} {
	s.t.Helper()
	rec, body := s.do(http.MethodPost, "/api/todos", token, payload)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return body["todo"].(map[string]interface{})
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	token, userID := s.register("alice")
	assert.NotEmpty(t, token)

	t.Run("duplicate username or email conflicts", func(t *testing.T) {
		rec, body := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
			"username": "alice", "email": "other@example.com", "password": "secret123",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "Username already exists", body["error"])

		rec, body = s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
			"username": "alice2", "email": "ALICE@example.com", "password": "secret123",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "Email already exists", body["error"])
	})

	t.Run("username cannot take another user's email", func(t *testing.T) {
		rec, _ := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
			"username": "alice@example.com", "email": "mallory@example.com", "password": "secret123",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec, body := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
			"username": "alice@example.com", "password": "secret123",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, userID, body["user"].(map[string]interface{})["id"])
	})

	t.Run("registration never returns the password", func(t *testing.T) {
		rec, _ := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
			"username": "carol", "email": "carol@example.com", "password": "secret123",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.NotContains(t, rec.Body.String(), "secret123")
		assert.NotContains(t, rec.Body.String(), "$2a$")
	})

	t.Run("login by username or email", func(t *testing.T) {
		for _, identifier := range []string{"alice", "alice@example.com"} {
			rec, body := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
				"username": identifier, "password": "secret123",
			})
			require.Equal(t, http.StatusOK, rec.Code, identifier)
			assert.NotEmpty(t, body["token"])
			assert.NotEmpty(t, body["expiresAt"])
		}
	})

	t.Run("bad credentials", func(t *testing.T) {
		rec, body := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
			"username": "alice", "password": "wrong-password",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid username or password", body["error"])

		rec, _ = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
			"username": "nobody", "password": "secret123",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("me", func(t *testing.T) {
		rec, body := s.do(http.MethodGet, "/api/auth/me", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		user := body["user"].(map[string]interface{})
		assert.Equal(t, userID, user["id"])
		assert.Equal(t, "alice", user["username"])

		rec, body = s.do(http.MethodGet, "/api/auth/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Authorization header required", body["error"])

		rec, body = s.do(http.MethodGet, "/api/auth/me", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid token", body["error"])
	})

	t.Run("change password", func(t *testing.T) {
		rec, body := s.do(http.MethodPut, "/api/auth/change-password", token, map[string]string{
			"currentPassword": "wrong", "newPassword": "newsecret456",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Current password is incorrect", body["error"])

		rec, _ = s.do(http.MethodPut, "/api/auth/change-password", token, map[string]string{
			"currentPassword": "secret123", "newPassword": "newsecret456",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		rec, _ = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
			"username": "alice", "password": "newsecret456",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("update profile", func(t *testing.T) {
		rec, body := s.do(http.MethodPut, "/api/auth/profile", token, map[string]interface{}{
			"firstName": "Alice", "lastName": "Liddell",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		user := body["user"].(map[string]interface{})
		assert.Equal(t, "Alice", user["firstName"])

		rec, _ = s.do(http.MethodPut, "/api/auth/profile", token, map[string]interface{}{
			"email": "carol@example.com",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestTokenForDeletedUserIsRejected(t *testing.T) {
	s := newTestServer(t)
	token, userID := s.register("dave")

	require.NoError(t, s.app.userStore.Delete(t.Context(), uuid.MustParse(userID)))

	rec, body := s.do(http.MethodGet, "/api/todos", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token", body["error"])
}

func TestTodoRoundTrip(t *testing.T) {
	s := newTestServer(t)
	token, userID := s.register("alice")

	created := s.createTodo(token, map[string]interface{}{"title": "Buy milk", "priority": "high"})
	id := created["id"].(string)

	rec, body := s.do(http.MethodGet, "/api/todos/"+id, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	todo := body["todo"].(map[string]interface{})
	assert.Equal(t, "Buy milk", todo["title"])
	assert.Equal(t, "high", todo["priority"])
	assert.Equal(t, false, todo["completed"])
	assert.Equal(t, "", todo["description"])
	assert.Equal(t, userID, todo["userId"])

	rec, body = s.do(http.MethodPut, "/api/todos/"+id, token, map[string]interface{}{
		"completed": true, "dueDate": "2025-05-01",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	todo = body["todo"].(map[string]interface{})
	assert.Equal(t, true, todo["completed"])
	assert.Equal(t, "Buy milk", todo["title"])
	assert.Equal(t, "2025-05-01T00:00:00Z", todo["dueDate"])

	rec, body = s.do(http.MethodPut, "/api/todos/"+id, token, map[string]interface{}{"dueDate": nil})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, body["todo"].(map[string]interface{})["dueDate"])

	rec, _ = s.do(http.MethodPut, "/api/todos/"+id, token, map[string]interface{}{"title": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = s.do(http.MethodPut, "/api/todos/"+id, token, map[string]interface{}{"priority": "LOW"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "low", body["todo"].(map[string]interface{})["priority"])

	upper := s.createTodo(token, map[string]interface{}{"title": "Shout", "priority": "HIGH"})
	assert.Equal(t, "high", upper["priority"])

	rec, _ = s.do(http.MethodDelete, "/api/todos/"+id, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = s.do(http.MethodGet, "/api/todos/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Todo not found", body["error"])
}

func TestCreateTodoValidation(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register("alice")

	rec, body := s.do(http.MethodPost, "/api/todos", token, map[string]interface{}{
		"title": "", "priority": "urgent",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Validation failed", body["error"])
	assert.Len(t, body["details"], 2)
}

func TestOwnershipIsolation(t *testing.T) {
	s := newTestServer(t)
	aliceToken, _ := s.register("alice")
	bobToken, _ := s.register("bob")

	todo := s.createTodo(aliceToken, map[string]interface{}{"title": "Private"})
	path := "/api/todos/" + todo["id"].(string)

	rec, _ := s.do(http.MethodGet, path, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(http.MethodPut, path, bobToken, map[string]interface{}{"title": "Mine now"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(http.MethodDelete, path, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body := s.do(http.MethodGet, "/api/todos", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["todos"])

	rec, body = s.do(http.MethodGet, path, aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Private", body["todo"].(map[string]interface{})["title"])
}

func TestListFiltersAndPagination(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register("alice")

	s.createTodo(token, map[string]interface{}{"title": "Learn PostgreSQL", "priority": "high"})
	s.createTodo(token, map[string]interface{}{"title": "Read docs", "description": "the postgres manual"})
	s.createTodo(token, map[string]interface{}{"title": "Walk dog", "priority": "low"})

	t.Run("newest first with pagination envelope", func(t *testing.T) {
		rec, body := s.do(http.MethodGet, "/api/todos?limit=2", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		todos := body["todos"].([]interface{})
		require.Len(t, todos, 2)
		assert.Equal(t, "Walk dog", todos[0].(map[string]interface{})["title"])
		assert.Equal(t, "Read docs", todos[1].(map[string]interface{})["title"])

		pagination := body["pagination"].(map[string]interface{})
		assert.Equal(t, float64(3), pagination["total"])
		assert.Equal(t, float64(1), pagination["page"])
		assert.Equal(t, float64(2), pagination["limit"])
		assert.Equal(t, float64(2), pagination["totalPages"])
	})

	t.Run("case-insensitive search over title and description", func(t *testing.T) {
		rec, body := s.do(http.MethodGet, "/api/todos?search=Postgre", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, body["todos"], 2)
	})

	t.Run("priority filter", func(t *testing.T) {
		rec, body := s.do(http.MethodGet, "/api/todos?priority=low", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, body["todos"], 1)
	})

	t.Run("page past the end", func(t *testing.T) {
		rec, body := s.do(http.MethodGet, "/api/todos?page=5", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []interface{}{}, body["todos"])
	})

	t.Run("invalid pagination", func(t *testing.T) {
		rec, _ := s.do(http.MethodGet, "/api/todos?page=0", token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		rec, _ = s.do(http.MethodGet, "/api/todos?limit=-1", token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		rec, _ = s.do(http.MethodGet, "/api/todos?page=922337203685477581&limit=100", token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestBatchAndStats(t *testing.T) {
	s := newTestServer(t)
	aliceToken, _ := s.register("alice")
	bobToken, _ := s.register("bob")

	a1 := s.createTodo(aliceToken, map[string]interface{}{"title": "one", "priority": "high"})
	a2 := s.createTodo(aliceToken, map[string]interface{}{"title": "two"})
	s.createTodo(aliceToken, map[string]interface{}{"title": "three", "priority": "low"})
	b1 := s.createTodo(bobToken, map[string]interface{}{"title": "bob's"})

	rec, body := s.do(http.MethodPatch, "/api/todos/batch", aliceToken, map[string]interface{}{
		"action": "complete",
		"ids":    []string{a1["id"].(string), a2["id"].(string), b1["id"].(string)},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(2), body["affected"])

	rec, body = s.do(http.MethodGet, "/api/todos/"+b1["id"].(string), bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["todo"].(map[string]interface{})["completed"])

	rec, body = s.do(http.MethodGet, "/api/todos/stats/summary", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), body["total"])
	assert.Equal(t, float64(2), body["completed"])
	assert.Equal(t, float64(1), body["pending"])
	assert.Equal(t, float64(67), body["completionRate"])
	assert.Equal(t, map[string]interface{}{"low": float64(1), "medium": float64(1), "high": float64(1)}, body["priorityStats"])

	rec, _ = s.do(http.MethodPatch, "/api/todos/batch", aliceToken, map[string]interface{}{
		"action": "archive", "ids": []string{a1["id"].(string)},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = s.do(http.MethodPatch, "/api/todos/batch", aliceToken, map[string]interface{}{
		"action": "delete", "ids": []string{a1["id"].(string), b1["id"].(string)},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["affected"])

	rec, body = s.do(http.MethodGet, "/api/todos/stats/summary", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["total"])
	assert.Equal(t, float64(0), body["completionRate"])
}

func TestEmptyStats(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register("alice")

	rec, body := s.do(http.MethodGet, "/api/todos/stats/summary", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["total"])
	assert.Equal(t, float64(0), body["completionRate"])
}

func TestMalformedTodoIDIsNotFound(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register("alice")

	rec, body := s.do(http.MethodGet, "/api/todos/12345", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Todo not found", body["error"])
}

func TestServiceRoutes(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, Version, body["version"])
	assert.Equal(t, false, body["authenticated"])

	token, _ := s.register("alice")
	_, body = s.do(http.MethodGet, "/", token, nil)
	assert.Equal(t, true, body["authenticated"])

	rec, body = s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	rec, body = s.do(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", body["error"])
	assert.NotEmpty(t, body["traceId"])
}

func TestCORS(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"http://localhost:5173", true},
		{"http://127.0.0.1", true},
		{"http://192.168.1.20:3000", true},
		{"http://10.0.0.7:8080", true},
		{"http://172.20.1.1", true},
		{"http://172.32.1.1", false},
		{"https://evil.example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/todos", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			req.Header.Set("Access-Control-Request-Headers", "Authorization")
			rec := httptest.NewRecorder()

			s.handler.ServeHTTP(rec, req)

			if tt.allowed {
				assert.Equal(t, tt.origin, rec.Header().Get("Access-Control-Allow-Origin"))
				assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
			} else {
				assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}
