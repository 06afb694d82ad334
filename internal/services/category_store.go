package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/models"
	"budgeteer/internal/uuid"
)

// gormCategoryStore is the GORM-backed CategoryStore.
type gormCategoryStore struct {
	db *gorm.DB
}

// NewCategoryStore creates a CategoryStore backed by db. The database must be
// opened with TranslateError so unique violations surface as gorm.ErrDuplicatedKey.
func NewCategoryStore(db *gorm.DB) CategoryStore {
	return &gormCategoryStore{db: db}
}

func (s *gormCategoryStore) FindByName(ctx context.Context, userID, name string) (*models.Category, error) {
	var category models.Category
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND name = ?", userID, name).
		Take(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

func (s *gormCategoryStore) FindByID(ctx context.Context, userID, categoryID string) (*models.Category, error) {
	if !uuid.IsValid(categoryID) {
		return nil, nil
	}
	var category models.Category
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", categoryID, userID).
		Take(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

func (s *gormCategoryStore) Insert(ctx context.Context, category *models.Category) error {
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Wrap(apperrors.ErrDuplicateCategoryName, err)
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *gormCategoryStore) InsertMany(ctx context.Context, categories []models.Category) ([]models.Category, error) {
	if len(categories) == 0 {
		return []models.Category{}, nil
	}
	db := s.db.WithContext(ctx)
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&categories)
	if result.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if int(result.RowsAffected) == len(categories) {
		return categories, nil
	}

	// Skipped rows keep the IDs assigned before the insert; only rows that
	// landed can be found by them.
	ids := make([]string, 0, len(categories))
	for _, c := range categories {
		ids = append(ids, c.ID)
	}
	var landedIDs []string
	err := db.Model(&models.Category{}).
		Where("user_id = ? AND id IN ?", categories[0].UserID, ids).
		Pluck("id", &landedIDs).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	landed := make(map[string]bool, len(landedIDs))
	for _, id := range landedIDs {
		landed[id] = true
	}

	written := make([]models.Category, 0, len(landedIDs))
	for _, c := range categories {
		if landed[c.ID] {
			written = append(written, c)
		}
	}
	return written, nil
}

func (s *gormCategoryStore) UpdateItems(ctx context.Context, userID, categoryID string, items models.ItemList, updatedAt time.Time) error {
	if items == nil {
		items = models.ItemList{}
	}
	err := s.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("id = ? AND user_id = ?", categoryID, userID).
		Updates(map[string]interface{}{
			"items":      items,
			"updated_at": updatedAt,
		}).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *gormCategoryStore) ListByUser(ctx context.Context, userID string) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}

func (s *gormCategoryStore) Rename(ctx context.Context, userID, categoryID, name string, updatedAt time.Time) (bool, error) {
	if !uuid.IsValid(categoryID) {
		return false, nil
	}
	result := s.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("id = ? AND user_id = ?", categoryID, userID).
		Updates(map[string]interface{}{
			"name":       name,
			"updated_at": updatedAt,
		})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return false, apperrors.Wrap(apperrors.ErrDuplicateCategoryName, result.Error)
		}
		return false, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *gormCategoryStore) Delete(ctx context.Context, userID, categoryID string) (bool, error) {
	if !uuid.IsValid(categoryID) {
		return false, nil
	}
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", categoryID, userID).
		Delete(&models.Category{})
	if result.Error != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	return result.RowsAffected > 0, nil
}
