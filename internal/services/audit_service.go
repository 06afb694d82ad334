package services

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"budgeteer/internal/logger"
	"budgeteer/internal/models"
)

// auditService handles audit log recording.
type auditService struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB, log *zap.SugaredLogger) AuditServicer {
	if log == nil {
		log = logger.Nop()
	}
	return &auditService{db: db, log: log}
}

// Log records an audit event. Errors are logged but never propagate
// to avoid disrupting the main operation.
func (s *auditService) Log(ctx context.Context, userID, action, resourceType, resourceID, ipAddress string, changes map[string]any) {
	log := logger.FromContext(ctx, s.log)

	var changesJSON string
	if changes != nil {
		data, err := json.Marshal(changes)
		if err != nil {
			log.Errorw("failed to marshal audit log changes", "error", err, "action", action)
			changesJSON = "{}"
		} else {
			changesJSON = string(data)
		}
	}

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		RequestID:    logger.RequestID(ctx),
		Changes:      changesJSON,
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		log.Errorw("failed to create audit log entry",
			"error", err,
			"user_id", userID,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
		return
	}

	log.Infow("audit",
		"user_id", userID,
		"action", action,
		"resource_type", resourceType,
		"resource_id", resourceID,
	)
}
