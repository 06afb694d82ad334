package models

// Category is a named grouping of spending items owned by one user.
// (user_id, name) is unique among live rows; the partial index lets a
// soft-deleted name be reused.
type Category struct {
	Base
	UserID string   `gorm:"not null;uniqueIndex:idx_categories_user_name,where:deleted_at IS NULL" json:"user_id"`
	Name   string   `gorm:"not null;uniqueIndex:idx_categories_user_name,where:deleted_at IS NULL" json:"name"`
	Items  ItemList `gorm:"type:jsonb;not null" json:"items"`
}
