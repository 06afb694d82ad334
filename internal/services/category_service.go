package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/events"
	"budgeteer/internal/logger"
	"budgeteer/internal/models"
)

// categoryService reconciles the user's categories with the expense service.
type categoryService struct {
	store     CategoryStore
	expenses  ExpenseFetcher
	publisher events.Publisher
	log       *zap.SugaredLogger
	now       func() time.Time
}

// CategoryOption customizes a categoryService.
type CategoryOption func(*categoryService)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) CategoryOption {
	return func(s *categoryService) { s.now = now }
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(
	store CategoryStore,
	fetcher ExpenseFetcher,
	publisher events.Publisher,
	log *zap.SugaredLogger,
	opts ...CategoryOption,
) CategoryServicer {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	s := &categoryService{
		store:     store,
		expenses:  fetcher,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCategory creates a category named name. Its items come from the last
// expense whose description equals the name. Expense descriptions that name
// no category yet become categories of their own.
//
// The existence check and the insert are separate statements; two concurrent
// creates of the same name are settled by the unique index, and the loser
// gets ErrDuplicateCategoryName. Discovered categories are written after the
// requested one and are not rolled back if that write fails. A staged name
// that another request created in the meantime is skipped and not reported.
func (s *categoryService) CreateCategory(ctx context.Context, userID, name string) (*CategoryCreation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.ErrEmptyCategoryName
	}

	existing, err := s.store.FindByName(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.ErrDuplicateCategoryName
	}

	list := s.expenses.FetchExpenses(ctx, userID)

	current, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]bool, len(current))
	for _, c := range current {
		names[c.Name] = true
	}

	now := s.now().UTC()
	plan := planCreation(name, names, list, now)

	category := &models.Category{
		Base:   models.Base{CreatedAt: now, UpdatedAt: now},
		UserID: userID,
		Name:   name,
		Items:  plan.items,
	}
	if err := s.store.Insert(ctx, category); err != nil {
		return nil, err
	}

	discovered := make([]string, 0, len(plan.staged))
	if len(plan.staged) > 0 {
		batch := make([]models.Category, 0, len(plan.staged))
		for _, staged := range plan.staged {
			batch = append(batch, models.Category{
				Base:   models.Base{CreatedAt: now, UpdatedAt: now},
				UserID: userID,
				Name:   staged.name,
				Items:  staged.items,
			})
		}
		written, err := s.store.InsertMany(ctx, batch)
		if err != nil {
			return nil, err
		}
		if len(written) < len(batch) {
			logger.FromContext(ctx, s.log).Infow("some discovered categories already existed",
				"user_id", userID, "staged", len(batch), "inserted", len(written))
		}
		for i := range written {
			discovered = append(discovered, written[i].Name)
			s.publish(ctx, events.CategoryDiscovered, userID, written[i].ID, written[i].Name)
		}
	}

	s.publish(ctx, events.CategoryCreated, userID, category.ID, category.Name)
	logger.FromContext(ctx, s.log).Infow("category created",
		"user_id", userID,
		"category_id", category.ID,
		"items", len(category.Items),
		"discovered", len(discovered),
	)

	return &CategoryCreation{
		CategoryID: category.ID,
		Name:       category.Name,
		Items:      category.Items,
		Discovered: discovered,
	}, nil
}

// GetUserCategories lists the user's categories ordered by name. Categories
// with no items are backfilled from expenses whose description matches the
// category name; every matching expense contributes its items.
func (s *categoryService) GetUserCategories(ctx context.Context, userID string) ([]models.Category, error) {
	list := s.expenses.FetchExpenses(ctx, userID)
	now := s.now().UTC()
	grouped := groupByDescription(list, now)

	categories, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range categories {
		c := &categories[i]
		if len(c.Items) > 0 {
			continue
		}
		items, ok := grouped[c.Name]
		if !ok {
			if c.Items == nil {
				c.Items = models.ItemList{}
			}
			continue
		}
		if items == nil {
			items = models.ItemList{}
		}
		if err := s.store.UpdateItems(ctx, userID, c.ID, items, now); err != nil {
			return nil, err
		}
		c.Items = items
		c.UpdatedAt = now
		s.publish(ctx, events.CategoryBackfilled, userID, c.ID, c.Name)
		logger.FromContext(ctx, s.log).Debugw("category backfilled",
			"user_id", userID, "category_id", c.ID, "items", len(items))
	}

	return categories, nil
}

// GetCategoryByID retrieves a category by ID for a specific user.
func (s *categoryService) GetCategoryByID(ctx context.Context, userID, categoryID string) (*models.Category, error) {
	category, err := s.store.FindByID(ctx, userID, categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, apperrors.ErrCategoryNotFound
	}
	return category, nil
}

// UpdateCategory renames a category. Items are left alone.
func (s *categoryService) UpdateCategory(ctx context.Context, userID, categoryID, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.ErrEmptyCategoryName
	}

	clash, err := s.store.FindByName(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	if clash != nil && clash.ID != categoryID {
		return nil, apperrors.ErrDuplicateCategoryName
	}

	found, err := s.store.Rename(ctx, userID, categoryID, name, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperrors.ErrCategoryNotFound
	}
	return s.GetCategoryByID(ctx, userID, categoryID)
}

// DeleteCategory soft-deletes a category, freeing its name for reuse.
func (s *categoryService) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	found, err := s.store.Delete(ctx, userID, categoryID)
	if err != nil {
		return err
	}
	if !found {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}

// publish sends an event. Delivery failures are logged and otherwise ignored.
func (s *categoryService) publish(ctx context.Context, eventType, userID, resourceID, name string) {
	event := events.Event{
		Type:       eventType,
		UserID:     userID,
		ResourceID: resourceID,
		Name:       name,
		RequestID:  logger.RequestID(ctx),
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.FromContext(ctx, s.log).Warnw("failed to publish event",
			"type", eventType, "resource_id", resourceID, "error", err)
	}
}
