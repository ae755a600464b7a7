package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"expense-tracker/internal/auth"
	"expense-tracker/internal/config"
	"expense-tracker/internal/domain"
	"expense-tracker/internal/expense"
	"expense-tracker/internal/middleware"
	"expense-tracker/internal/storage"
	"expense-tracker/internal/storage/sqlite"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

type testEnv struct {
	router *gin.Engine
	tokens *auth.TokenService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, sqlite.Migrate(context.Background(), db))
	store := sqlite.NewStorage(db)
	t.Cleanup(store.Close)

	tokens := auth.NewTokenService(&config.Config{JWTSecret: "secret", SessionTTL: time.Hour})
	mw := middleware.NewAuthMiddleware(tokens, "session")
	eh := NewExpenseHandler(expense.NewService(store))
	ah := NewAuthHandler(tokens, "session", false)

	r := gin.New()
	r.POST("/api/login", ah.Login)
	r.GET("/api/logout", ah.Logout)
	api := r.Group("/api", mw.RequireAuth())
	api.GET("/auth/user", ah.User)
	api.GET("/expenses", eh.List)
	api.POST("/expenses", eh.Create)
	api.GET("/expenses/:id", eh.Get)
	api.DELETE("/expenses/:id", eh.Delete)
	api.GET("/stats", eh.Stats)
	api.GET("/categories", eh.Categories)

	return &testEnv{router: r, tokens: tokens}
}

func (e *testEnv) do(t *testing.T, owner, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if owner != "" {
		tok, err := e.tokens.GenerateToken(auth.Principal{ID: owner})
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) create(t *testing.T, owner, body string) domain.Expense {
	t.Helper()
	w := e.do(t, owner, http.MethodPost, "/api/expenses", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var out domain.Expense
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Message
}

func TestCreateExpense(t *testing.T) {
	env := newTestEnv(t)
	e := env.create(t, "alice", `{"title":"Coffee","amount":2.5,"category":"Food","date":"2025-01-15T09:00:00Z"}`)

	assert.Equal(t, int64(3), e.Amount)
	assert.Equal(t, "alice", e.UserID)
	assert.Equal(t, "Food", e.Category)
	assert.Nil(t, e.Description)
	assert.True(t, e.Date.Equal(time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)))

	e = env.create(t, "alice", `{"title":"Tea","amount":10,"category":"Food","date":"2025-01-15"}`)
	assert.True(t, e.Date.Equal(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)), "date %v", e.Date)
}

func TestCreateAcceptsStringAmount(t *testing.T) {
	env := newTestEnv(t)
	e := env.create(t, "alice", `{"title":"Rent","amount":"1200","category":"Housing","description":"March"}`)
	assert.Equal(t, int64(1200), e.Amount)
	require.NotNil(t, e.Description)
	assert.Equal(t, "March", *e.Description)
	assert.WithinDuration(t, time.Now(), e.Date, time.Minute)
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
		want []string
	}{
		{"zero amount", `{"title":"X","amount":0,"category":"Food"}`, []string{"Amount must be positive"}},
		{"blank title", `{"title":"  ","amount":10,"category":"Food"}`, []string{"Title is required"}},
		{"unknown category", `{"title":"X","amount":10,"category":"Pets"}`, []string{"Category must be one of"}},
		{"empty object", `{}`, []string{"Title is required", "Amount must be positive", "Category is required"}},
		{"empty body", ``, []string{"Title is required"}},
		{"non-numeric amount", `{"title":"X","amount":"ten","category":"Food"}`, []string{"Amount must be a number"}},
		{"bad date", `{"title":"X","amount":10,"category":"Food","date":"yesterday"}`, []string{"Date must be a valid date"}},
		{"malformed json", `{"title":`, []string{"Invalid JSON"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, "alice", http.MethodPost, "/api/expenses", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			msg := message(t, w)
			for _, part := range tt.want {
				assert.Contains(t, msg, part)
			}
		})
	}

	w := env.do(t, "alice", http.MethodGet, "/api/expenses", "")
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/api/expenses", "/api/stats", "/api/auth/user", "/api/categories"} {
		w := env.do(t, "", http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.JSONEq(t, `{"message":"Unauthorized"}`, w.Body.String())
	}
}

func TestListFiltersAndOwnership(t *testing.T) {
	env := newTestEnv(t)
	env.create(t, "alice", `{"title":"Lunch","amount":100,"category":"Food","date":"2025-01-10T12:00:00Z"}`)
	env.create(t, "alice", `{"title":"Flight","amount":5000,"category":"Travel","date":"2025-01-20T12:00:00Z"}`)
	env.create(t, "alice", `{"title":"Snack","amount":20,"category":"Food","date":"2025-02-01T12:00:00Z"}`)
	env.create(t, "bob", `{"title":"Bob's","amount":1,"category":"Food","date":"2025-01-10T12:00:00Z"}`)

	var list []domain.Expense
	w := env.do(t, "alice", http.MethodGet, "/api/expenses", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 3)
	assert.Equal(t, "Snack", list[0].Title)
	assert.Equal(t, "Lunch", list[2].Title)

	w = env.do(t, "alice", http.MethodGet, "/api/expenses?month=1&year=2025&category=Food", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Lunch", list[0].Title)

	// unparseable and zero values are ignored
	w = env.do(t, "alice", http.MethodGet, "/api/expenses?month=abc&year=0", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 3)

	w = env.do(t, "alice", http.MethodGet, "/api/expenses?month=1.0&year=2025", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Flight", list[0].Title)

	w = env.do(t, "alice", http.MethodGet, "/api/expenses?month=1.5", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 3, "fractional month is ignored")

	w = env.do(t, "alice", http.MethodGet, "/api/expenses?month=13", "")
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestGetExpense(t *testing.T) {
	env := newTestEnv(t)
	e := env.create(t, "alice", `{"title":"Lunch","amount":100,"category":"Food"}`)

	w := env.do(t, "alice", http.MethodGet, fmt.Sprintf("/api/expenses/%d", e.ID), "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "bob", http.MethodGet, fmt.Sprintf("/api/expenses/%d", e.ID), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Expense not found", message(t, w))

	w = env.do(t, "alice", http.MethodGet, "/api/expenses/abc", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteExpense(t *testing.T) {
	env := newTestEnv(t)
	e := env.create(t, "alice", `{"title":"Lunch","amount":100,"category":"Food"}`)
	path := fmt.Sprintf("/api/expenses/%d", e.ID)

	w := env.do(t, "bob", http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, "alice", http.MethodGet, path, "")
	assert.Equal(t, http.StatusOK, w.Code, "foreign delete must not remove the row")

	w = env.do(t, "alice", http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	w = env.do(t, "alice", http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, "alice", http.MethodDelete, "/api/expenses/999999", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, "alice", http.MethodDelete, "/api/expenses/abc", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Expense not found", message(t, w))
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	env.create(t, "alice", `{"title":"Lunch","amount":100,"category":"Food","date":"2025-01-02T08:00:00Z"}`)
	env.create(t, "alice", `{"title":"Dinner","amount":50,"category":"Food","date":"2025-01-02T20:00:00Z"}`)
	env.create(t, "alice", `{"title":"Power","amount":200,"category":"Bills","date":"2025-01-03T08:00:00Z"}`)
	env.create(t, "alice", `{"title":"Old","amount":7,"category":"Other","date":"2024-06-01T08:00:00Z"}`)

	w := env.do(t, "alice", http.MethodGet, "/api/stats?month=1&year=2025", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got domain.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, int64(350), got.Total)
	assert.Equal(t, []domain.CategoryTotal{
		{Category: "Bills", Amount: 200, Count: 1},
		{Category: "Food", Amount: 150, Count: 2},
	}, got.ByCategory)
	assert.Equal(t, []domain.DayTotal{
		{Date: "2025-01-02", Amount: 150},
		{Date: "2025-01-03", Amount: 200},
	}, got.MonthlyTrend)
	require.Len(t, got.Recent, 3)
	assert.Equal(t, "Power", got.Recent[0].Title)

	w = env.do(t, "carol", http.MethodGet, "/api/stats", "")
	assert.JSONEq(t, `{"total":0,"byCategory":[],"recent":[],"monthlyTrend":[]}`, w.Body.String())
}

func TestCategories(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, "alice", http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Categories []string `json:"categories"`
		Default    string   `json:"default"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, domain.Categories, body.Categories)
	assert.Equal(t, "Other", body.Default)
}

func TestLoginUserLogout(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "", http.MethodPost, "/api/login", `{"id":"alice","name":"Alice","email":"alice@example.com"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"alice","name":"Alice","email":"alice@example.com"}`, w.Body.String())

	w = env.do(t, "", http.MethodGet, "/api/logout", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	cleared := w.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.True(t, cleared[0].MaxAge < 0)
}

func TestLoginValidation(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "", http.MethodPost, "/api/login", `{"id":"  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ID is required", message(t, w))

	w = env.do(t, "", http.MethodPost, "/api/login", `{"id":"a","email":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email is invalid", message(t, w))
}

func TestPersistenceMessage(t *testing.T) {
	missing := fmt.Errorf("list: %w", fmt.Errorf("%w: relation missing", storage.ErrTableMissing))
	assert.Equal(t, "Database table not found. Please run migrations to create the expenses table.",
		persistenceMessage(missing, "fallback"))

	down := fmt.Errorf("%w: dial tcp", storage.ErrUnavailable)
	assert.Equal(t, "Database connection failed. Please check your DATABASE_URL environment variable.",
		persistenceMessage(down, "fallback"))

	assert.Equal(t, "fallback", persistenceMessage(errors.New("boom"), "fallback"))
}

func TestStorageFailureIs500(t *testing.T) {
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	store := sqlite.NewStorage(db)
	t.Cleanup(store.Close)

	eh := NewExpenseHandler(expense.NewService(store))
	r := gin.New()
	r.GET("/api/expenses", eh.List)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/expenses", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Database table not found. Please run migrations to create the expenses table.", message(t, w))
}
