package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgeteer/internal/events"
	"budgeteer/internal/expenses"
	"budgeteer/internal/logger"
	"budgeteer/internal/middleware"
	"budgeteer/internal/services"
	"budgeteer/internal/testutil"
)

const testSecret = "router-test-secret"

const expenseBody = `[
	{"description":"Food","items":[{"name":"Bread","price":2.5,"qty":2,"created_at":"2024-05-03T10:00:00Z"}]},
	{"description":"Travel","items":[{"name":"Train","price":30,"quantity":1,"created_at":"2024-05-04T10:00:00Z"}]}
]`

type testServer struct {
	router *gin.Engine
	token  string
	userID string
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	expenseAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(expenseBody))
	}))
	t.Cleanup(expenseAPI.Close)

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	log := logger.Nop()
	store := services.NewCategoryStore(db)
	fetcher := expenses.NewHTTPClient([]string{expenseAPI.URL}, time.Second, log)

	router := NewRouter(Deps{
		JWTSecret:  testSecret,
		Log:        log,
		Categories: services.NewCategoryService(store, fetcher, events.NopPublisher{}, log),
		Budgets:    services.NewBudgetService(db, store, events.NopPublisher{}, log),
		Audit:      services.NewAuditService(db, log),
	})

	userID := testutil.NewUserID()
	token, err := middleware.GenerateAccessToken(userID, "", testSecret, time.Hour)
	require.NoError(t, err)

	return &testServer{router: router, token: token, userID: userID}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1/"+s.userID+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s := setupServer(t)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestRouter_RequiresMatchingUser(t *testing.T) {
	s := setupServer(t)

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/"+s.userID+"/categories", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("other user's path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/someone-else/categories", nil)
		req.Header.Set("Authorization", "Bearer "+s.token)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestRouter_CategoryAndBudgetFlow(t *testing.T) {
	s := setupServer(t)

	// Creating "Food" discovers "Travel" from the expense service.
	w := s.do(t, http.MethodPost, "/categories/create", map[string]string{"name": "Food"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	foodID, _ := created["category_id"].(string)
	require.NotEmpty(t, foodID)
	assert.Equal(t, []any{"Travel"}, created["discovered"])
	items, _ := created["items"].([]any)
	require.Len(t, items, 1)

	w = s.do(t, http.MethodPost, "/categories/create", map[string]string{"name": "Food"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodGet, "/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Food", list[0]["name"])
	assert.Equal(t, "Travel", list[1]["name"])

	// Budget for May 2024 on Food: 2 × 2.50 spent.
	w = s.do(t, http.MethodPost, "/budgets/upsert", map[string]any{"month": "2024-05", "category_id": foodID, "limit": 20})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	upserted := decode(t, w)
	budgetID, _ := upserted["budget_id"].(string)
	require.NotEmpty(t, budgetID)
	assert.Equal(t, "Budget created successfully", upserted["message"])

	w = s.do(t, http.MethodPost, "/budgets/upsert", map[string]any{"month": "2024-05", "category_id": foodID, "limit": 25})
	require.Equal(t, http.StatusOK, w.Code)
	again := decode(t, w)
	assert.Equal(t, budgetID, again["budget_id"])
	assert.Equal(t, "Budget updated successfully", again["message"])

	w = s.do(t, http.MethodGet, "/budgets/"+budgetID+"/progress", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	progress := decode(t, w)
	assert.Equal(t, 5.0, progress["spent"])
	assert.Equal(t, 20.0, progress["remaining"])
	assert.Equal(t, 20.0, progress["percentage"])

	w = s.do(t, http.MethodGet, "/budgets?month=2024-05", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode(t, w)
	assert.Equal(t, 1.0, page["total_items"])

	w = s.do(t, http.MethodGet, "/budgets?month=May", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/categories/"+foodID+"/update", map[string]string{"name": "Groceries"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/categories/"+foodID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Groceries", decode(t, w)["name"])

	w = s.do(t, http.MethodDelete, "/budgets/"+budgetID+"/delete", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/budgets/"+budgetID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodDelete, "/categories/"+foodID+"/delete", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/categories/"+foodID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	s := setupServer(t)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/v1/"+s.userID+"/categories", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), middleware.RequestIDHeader)
}
