package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"todo-service.com/todo-service/internal/constants"
	middleware "todo-service.com/todo-service/internal/http/middlewares"
	"todo-service.com/todo-service/internal/logging"
	"todo-service.com/todo-service/internal/profiles"
	repository "todo-service.com/todo-service/internal/repositories"
	"todo-service.com/todo-service/internal/services"
	"todo-service.com/todo-service/pkg/resources"
)

type server struct {
	e      *echo.Echo
	tokens *middleware.TokenManager
}

func setupServer(t *testing.T, rateLimit int) server {
	t.Helper()
	return setupServerWithCache(t, rateLimit, nil)
}

func setupServerWithCache(t *testing.T, rateLimit int, cacheState func() string) server {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repository.Migrate(db))

	log := logging.Discard()
	store := repository.NewStore(db)
	catRepo := repository.NewCategoryRepository(store)
	taskRepo := repository.NewTaskRepository(store)
	tasks := services.NewTaskService(store, taskRepo, catRepo, profiles.DefaultDirectory(), services.DefaultPaging(), log)
	categories := services.NewCategoryService(store, catRepo, taskRepo, tasks, services.DefaultPaging(), log)

	tokens := middleware.NewTokenManager(middleware.TokenConfig{Secret: "test-secret", Issuer: "todo-test", TTL: time.Hour})
	e := echo.New()
	Register(e, NewHandler(categories, tasks, sqlDB.PingContext, cacheState), tokens, rateLimit, log)

	return server{e: e, tokens: tokens}
}

func (s server) do(t *testing.T, method, target, body string, role constants.Role) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if role != "" {
		token, err := s.tokens.Issue("adriBana", role)
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func taskBody(t *testing.T, in resources.TaskResource) string {
	t.Helper()
	raw, err := json.Marshal(in)
	require.NoError(t, err)
	return string(raw)
}

func TestHealthIsPublic(t *testing.T) {
	s := setupServer(t, 100)
	rec := s.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestHealthReportsProfileCacheState(t *testing.T) {
	s := setupServerWithCache(t, 100, func() string { return "open" })
	rec := s.do(t, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]string](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "open", body["profileCache"])

	plain := setupServer(t, 100).do(t, http.MethodGet, "/healthz", "", "")
	assert.NotContains(t, decode[map[string]string](t, plain), "profileCache")
}

func TestAuthenticationAndRoles(t *testing.T) {
	s := setupServer(t, 100)

	rec := s.do(t, http.MethodGet, "/category", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/category", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer not-a-token")
	bad := httptest.NewRecorder()
	s.e.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusUnauthorized, bad.Code)

	rec = s.do(t, http.MethodPost, "/category", `{"name":"Electronics"}`, constants.RoleUser)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/category", `{"name":"Electronics"}`, constants.RoleAdmin)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/category/Electronics", "", constants.RoleUser)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCategoryLifecycle(t *testing.T) {
	s := setupServer(t, 100)

	rec := s.do(t, http.MethodPost, "/category", `{"name":"Electronics","description":"gadgets"}`, constants.RoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	created := decode[resources.CategoryResource](t, rec)

	rec = s.do(t, http.MethodPost, "/category", `{"name":"Electronics"}`, constants.RoleAdmin)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, http.StatusConflict, decode[ErrorResponse](t, rec).Status)

	s.do(t, http.MethodPost, "/category", `{"name":"Books"}`, constants.RoleAdmin)

	rec = s.do(t, http.MethodGet, "/category", `[{"key":"name","operation":"LIKE","value":"elec"}]`, constants.RoleUser)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[resources.Page[resources.CategoryResource]](t, rec)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Electronics", page.Items[0].Name)

	q := url.Values{"criteria": {`[{"key":"shade","operation":"=","value":"red"}]`}}
	rec = s.do(t, http.MethodGet, "/category?"+q.Encode(), "", constants.RoleUser)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/category/updateDetails", `{"id":"`+created.ID+`","name":"Gadgets"}`, constants.RoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPut, "/category/deleteCategory/"+created.ID, "", constants.RoleAdmin)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/category/id/"+created.ID+"/history", "", constants.RoleUser)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]resources.VersionResource](t, rec)
	require.Len(t, history, 3)
	assert.Equal(t, string(constants.CategoryDeleted), history[0].Status)

	rec = s.do(t, http.MethodGet, "/category/Gadgets", "", constants.RoleUser)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaskLifecycle(t *testing.T) {
	s := setupServer(t, 100)
	s.do(t, http.MethodPost, "/category", `{"name":"Electronics"}`, constants.RoleAdmin)
	s.do(t, http.MethodPost, "/category", `{"name":"Books"}`, constants.RoleAdmin)

	rec := s.do(t, http.MethodPost, "/task", taskBody(t, resources.TaskResource{
		Name:         "fix radio",
		Deadline:     time.Now().Add(-24 * time.Hour),
		ReportedBy:   "adriBana",
		CategoryName: "Electronics",
	}), constants.RoleUser)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Details, "Deadline cannot be in the past")

	rec = s.do(t, http.MethodPost, "/task", taskBody(t, resources.TaskResource{
		Name:         "fix radio",
		Deadline:     time.Now().Add(48 * time.Hour),
		AssignedTo:   "mareNowa",
		ReportedBy:   "adriBana",
		CategoryName: "Electronics",
	}), constants.RoleUser)
	require.Equal(t, http.StatusOK, rec.Code)
	task := decode[resources.TaskResource](t, rec)
	assert.Equal(t, "Marek Nowak", task.AssignedToName)
	assert.Equal(t, string(constants.TaskCreated), task.Status)

	rec = s.do(t, http.MethodPut, "/task/updateStatus/"+task.ID+"?taskStatus=IN_PROGRESS", "", constants.RoleUser)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "IN_PROGRESS", decode[resources.TaskResource](t, rec).Status)

	rec = s.do(t, http.MethodPut, "/task/updateCategory/"+task.ID+"?categoryName=Books", "", constants.RoleUser)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPut, "/task/updateCategory/"+task.ID+"?categoryName=Books", "", constants.RoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Books", decode[resources.TaskResource](t, rec).CategoryName)

	rec = s.do(t, http.MethodGet, "/task?sortBy=name", `[{"key":"category.name","operation":"=","value":"Books"}]`, constants.RoleUser)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[resources.Page[resources.TaskResource]](t, rec)
	assert.Equal(t, int64(1), page.TotalElements)

	rec = s.do(t, http.MethodGet, "/task/"+task.ID+"/history", "", constants.RoleUser)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]resources.VersionResource](t, rec)
	require.Len(t, history, 3)

	asOf := url.Values{"asOf": {history[2].ValidFrom.Format(time.RFC3339Nano)}}
	rec = s.do(t, http.MethodGet, "/task/"+task.ID+"?"+asOf.Encode(), "", constants.RoleUser)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Electronics", decode[resources.TaskResource](t, rec).CategoryName)

	rec = s.do(t, http.MethodPut, "/task/deleteTask/"+task.ID, "", constants.RoleAdmin)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/task/"+task.ID, "", constants.RoleUser)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimitPerCaller(t *testing.T) {
	s := setupServer(t, 2)

	for i := 0; i < 2; i++ {
		rec := s.do(t, http.MethodGet, "/task", "", constants.RoleUser)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec := s.do(t, http.MethodGet, "/task", "", constants.RoleUser)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
