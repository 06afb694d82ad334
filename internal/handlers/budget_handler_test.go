package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/logger"
	"budgeteer/internal/middleware"
	"budgeteer/internal/models"
	"budgeteer/internal/pagination"
	"budgeteer/internal/services"
)

// --- mock budget service ---

type mockBudgetService struct {
	upsertBudgetFn      func(ctx context.Context, userID string, input services.BudgetInput) (*services.BudgetUpsert, error)
	getUserBudgetsFn    func(ctx context.Context, userID, month string, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error)
	getBudgetByIDFn     func(ctx context.Context, userID, budgetID string) (*models.Budget, error)
	updateBudgetFn      func(ctx context.Context, userID, budgetID string, input services.BudgetInput) (*models.Budget, error)
	deleteBudgetFn      func(ctx context.Context, userID, budgetID string) error
	getBudgetProgressFn func(ctx context.Context, userID, budgetID string) (*services.BudgetProgress, error)
}

func (m *mockBudgetService) UpsertBudget(ctx context.Context, userID string, input services.BudgetInput) (*services.BudgetUpsert, error) {
	if m.upsertBudgetFn != nil {
		return m.upsertBudgetFn(ctx, userID, input)
	}
	return &services.BudgetUpsert{Budget: &models.Budget{}}, nil
}

func (m *mockBudgetService) GetUserBudgets(ctx context.Context, userID, month string, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
	if m.getUserBudgetsFn != nil {
		return m.getUserBudgetsFn(ctx, userID, month, page)
	}
	page.Defaults()
	resp := pagination.NewPageResponse([]models.Budget{}, page, 0)
	return &resp, nil
}

func (m *mockBudgetService) GetBudgetByID(ctx context.Context, userID, budgetID string) (*models.Budget, error) {
	if m.getBudgetByIDFn != nil {
		return m.getBudgetByIDFn(ctx, userID, budgetID)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) UpdateBudget(ctx context.Context, userID, budgetID string, input services.BudgetInput) (*models.Budget, error) {
	if m.updateBudgetFn != nil {
		return m.updateBudgetFn(ctx, userID, budgetID, input)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) DeleteBudget(ctx context.Context, userID, budgetID string) error {
	if m.deleteBudgetFn != nil {
		return m.deleteBudgetFn(ctx, userID, budgetID)
	}
	return nil
}

func (m *mockBudgetService) GetBudgetProgress(ctx context.Context, userID, budgetID string) (*services.BudgetProgress, error) {
	if m.getBudgetProgressFn != nil {
		return m.getBudgetProgressFn(ctx, userID, budgetID)
	}
	return &services.BudgetProgress{}, nil
}

var _ services.BudgetServicer = (*mockBudgetService)(nil)

func setupBudgetRouter(handler *BudgetHandler) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler(logger.Nop()))
	auth := r.Group("/:user_id", injectUserID("u1"))
	auth.POST("/budgets/upsert", handler.UpsertBudget)
	auth.GET("/budgets", handler.GetBudgets)
	auth.GET("/budgets/:budget_id", handler.GetBudget)
	auth.GET("/budgets/:budget_id/progress", handler.GetBudgetProgress)
	auth.PUT("/budgets/:budget_id/update", handler.UpdateBudget)
	auth.DELETE("/budgets/:budget_id/delete", handler.DeleteBudget)
	return r
}

func TestBudgetHandler_UpsertBudget(t *testing.T) {
	t.Run("returns 200 on create", func(t *testing.T) {
		var got services.BudgetInput
		svc := &mockBudgetService{
			upsertBudgetFn: func(_ context.Context, _ string, input services.BudgetInput) (*services.BudgetUpsert, error) {
				got = input
				return &services.BudgetUpsert{Budget: &models.Budget{Base: models.Base{ID: "b1"}}, Created: true}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupBudgetRouter(NewBudgetHandler(svc, audit))

		rec := doRequest(r, "POST", "/u1/budgets/upsert", `{"month":"2024-05","category_id":"c1","limit":250.75}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["message"] != "Budget created successfully" || result["budget_id"] != "b1" {
			t.Errorf("unexpected body: %v", result)
		}
		if got.Month != "2024-05" || got.CategoryID != "c1" || !got.Limit.Equal(decimal.RequireFromString("250.75")) {
			t.Errorf("unexpected input: %+v", got)
		}
		if actions := audit.actions(); len(actions) != 1 || actions[0] != "CREATE_BUDGET" {
			t.Errorf("expected CREATE_BUDGET audit, got %v", actions)
		}
	})

	t.Run("returns 200 on update", func(t *testing.T) {
		svc := &mockBudgetService{
			upsertBudgetFn: func(_ context.Context, _ string, _ services.BudgetInput) (*services.BudgetUpsert, error) {
				return &services.BudgetUpsert{Budget: &models.Budget{Base: models.Base{ID: "b1"}}}, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/u1/budgets/upsert", `{"month":"2024-05","category_id":"c1","limit":"300"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if parseJSON(t, rec)["message"] != "Budget updated successfully" {
			t.Errorf("unexpected body %s", rec.Body.String())
		}
	})

	t.Run("returns 400 on missing category", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/u1/budgets/upsert", `{"month":"2024-05","category_id":"  ","limit":10}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on validation error", func(t *testing.T) {
		svc := &mockBudgetService{
			upsertBudgetFn: func(_ context.Context, _ string, _ services.BudgetInput) (*services.BudgetUpsert, error) {
				return nil, apperrors.ErrInvalidLimit
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/u1/budgets/upsert", `{"month":"2024-05","category_id":"c1","limit":0}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "VALIDATION_ERROR")
	})

	t.Run("returns 404 on unknown category", func(t *testing.T) {
		svc := &mockBudgetService{
			upsertBudgetFn: func(_ context.Context, _ string, _ services.BudgetInput) (*services.BudgetUpsert, error) {
				return nil, apperrors.ErrCategoryNotFound
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/u1/budgets/upsert", `{"month":"2024-05","category_id":"c9","limit":5}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestBudgetHandler_GetBudgets(t *testing.T) {
	t.Run("returns 200 with paginated budgets", func(t *testing.T) {
		var gotMonth string
		var gotPage pagination.PageRequest
		svc := &mockBudgetService{
			getUserBudgetsFn: func(_ context.Context, _, month string, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
				gotMonth, gotPage = month, page
				resp := pagination.NewPageResponse([]models.Budget{
					{Base: models.Base{ID: "b1"}, Month: "2024-05", CategoryID: "c1", Limit: decimal.NewFromInt(100)},
				}, pagination.PageRequest{Page: 2, PageSize: 1}, 2)
				return &resp, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/u1/budgets?month=2024-05&page=2&page_size=1", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotMonth != "2024-05" || gotPage.Page != 2 || gotPage.PageSize != 1 {
			t.Errorf("unexpected query: %q %+v", gotMonth, gotPage)
		}
		result := parseJSON(t, rec)
		data := result["data"].([]interface{})
		first := data[0].(map[string]interface{})
		if first["budget_id"] != "b1" || first["limit"].(float64) != 100 {
			t.Errorf("unexpected budget encoding: %v", first)
		}
		if result["total_pages"].(float64) != 2 {
			t.Errorf("expected 2 pages, got %v", result["total_pages"])
		}
	})

	t.Run("returns 400 on bad month", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/u1/budgets?month=2024-13", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		assertErrorCode(t, result, "VALIDATION_ERROR")
		if msg := result["error"].(map[string]interface{})["message"]; msg != "month must be in YYYY-MM format" {
			t.Errorf("unexpected message %v", msg)
		}
	})

	t.Run("returns 400 on bad page size", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/u1/budgets?page_size=1000", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}

func TestBudgetHandler_UpdateBudget(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		var gotID string
		svc := &mockBudgetService{
			updateBudgetFn: func(_ context.Context, _, budgetID string, _ services.BudgetInput) (*models.Budget, error) {
				gotID = budgetID
				return &models.Budget{Base: models.Base{ID: budgetID}}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupBudgetRouter(NewBudgetHandler(svc, audit))

		rec := doRequest(r, "PUT", "/u1/budgets/b1/update", `{"month":"2024-06","category_id":"c1","limit":5}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotID != "b1" || parseJSON(t, rec)["message"] != "Budget updated successfully" {
			t.Errorf("unexpected result: %s", rec.Body.String())
		}
		if actions := audit.actions(); len(actions) != 1 || actions[0] != "UPDATE_BUDGET" {
			t.Errorf("expected UPDATE_BUDGET audit, got %v", actions)
		}
	})

	t.Run("returns 404 when missing", func(t *testing.T) {
		svc := &mockBudgetService{
			updateBudgetFn: func(_ context.Context, _, _ string, _ services.BudgetInput) (*models.Budget, error) {
				return nil, apperrors.ErrBudgetNotFound
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/u1/budgets/b1/update", `{"month":"2024-06","category_id":"c1","limit":5}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "BUDGET_NOT_FOUND")
	})
}

func TestBudgetHandler_DeleteBudget(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAuditService{}))

		rec := doRequest(r, "DELETE", "/u1/budgets/b1/delete", "")

		if rec.Code != http.StatusOK || parseJSON(t, rec)["message"] != "Budget deleted successfully" {
			t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 404 when missing", func(t *testing.T) {
		svc := &mockBudgetService{
			deleteBudgetFn: func(_ context.Context, _, _ string) error { return apperrors.ErrBudgetNotFound },
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "DELETE", "/u1/budgets/b1/delete", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestBudgetHandler_GetBudgetProgress(t *testing.T) {
	svc := &mockBudgetService{
		getBudgetProgressFn: func(_ context.Context, _, budgetID string) (*services.BudgetProgress, error) {
			return &services.BudgetProgress{
				BudgetID:   budgetID,
				Month:      "2024-05",
				Limit:      decimal.NewFromInt(100),
				Spent:      decimal.NewFromInt(25),
				Remaining:  decimal.NewFromInt(75),
				Percentage: 25,
			}, nil
		},
	}
	r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}))

	rec := doRequest(r, "GET", "/u1/budgets/b1/progress", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	result := parseJSON(t, rec)
	if result["spent"].(float64) != 25 || result["remaining"].(float64) != 75 || result["percentage"].(float64) != 25 {
		t.Errorf("unexpected progress: %v", result)
	}
}

func TestBudgetHandler_GetBudget(t *testing.T) {
	svc := &mockBudgetService{
		getBudgetByIDFn: func(_ context.Context, _, _ string) (*models.Budget, error) {
			return nil, apperrors.ErrBudgetNotFound
		},
	}
	r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}))

	rec := doRequest(r, "GET", "/u1/budgets/b9", "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	assertErrorCode(t, parseJSON(t, rec), "BUDGET_NOT_FOUND")
}
