package models

import "github.com/shopspring/decimal"

// Budget is a monthly spending limit for one of the user's categories.
type Budget struct {
	Base
	UserID     string          `gorm:"not null;uniqueIndex:idx_budgets_user_month_category,where:deleted_at IS NULL" json:"user_id"`
	Month      string          `gorm:"size:7;not null;uniqueIndex:idx_budgets_user_month_category,where:deleted_at IS NULL" json:"month"`
	CategoryID string          `gorm:"not null;uniqueIndex:idx_budgets_user_month_category,where:deleted_at IS NULL" json:"category_id"`
	Limit      decimal.Decimal `gorm:"column:limit_amount;type:numeric(12,2);not null" json:"limit"`
}
