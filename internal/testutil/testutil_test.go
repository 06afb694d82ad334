package testutil_test

import (
	"testing"
	"time"

	"budgeteer/internal/errors"
	"budgeteer/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	var count int64
	for _, table := range []string{"categories", "budgets", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDB_Isolated(t *testing.T) {
	first := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, first)
	second := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, second)

	testutil.CreateTestCategory(t, first, "u1", "Food")

	var count int64
	if err := second.Table("categories").Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected an empty second database, got %d rows", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	userID := testutil.NewUserID()
	if userID == testutil.NewUserID() {
		t.Fatal("expected unique user IDs")
	}

	item := testutil.NewItem("i1", "bread", 3, 2, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	category := testutil.CreateTestCategory(t, db, userID, "Food", item)
	if category.ID == "" {
		t.Fatal("category should have an ID")
	}
	if len(category.Items) != 1 || category.Items[0].CreatedAt != "2024-05-01T00:00:00Z" {
		t.Errorf("unexpected items: %+v", category.Items)
	}

	budget := testutil.CreateTestBudget(t, db, userID, category.ID, "2024-05")
	if budget.Limit.String() != "100" {
		t.Errorf("expected limit 100, got %s", budget.Limit)
	}
}

func TestAssertAppError(t *testing.T) {
	testutil.AssertAppError(t, errors.ErrCategoryNotFound, "CATEGORY_NOT_FOUND")
	testutil.AssertAppError(t, errors.Wrap(errors.ErrInternalServer, errors.ErrNotFound), "INTERNAL_ERROR")

	got := testutil.AssertAppError(t, errors.WithMessage(errors.ErrValidation, "bad month"), "VALIDATION_ERROR")
	if got.Message != "bad month" {
		t.Errorf("expected the matched error back, got %q", got.Message)
	}
}

func TestAssertSentinel(t *testing.T) {
	testutil.AssertSentinel(t, errors.Wrap(errors.ErrInvalidMonth, errors.ErrNotFound), errors.ErrInvalidMonth)
	testutil.AssertSentinel(t, errors.ErrDuplicateBudget, errors.ErrDuplicateBudget)
}
