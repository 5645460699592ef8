// Package activity records what users do on the platform and serves the activity feeds.
package activity

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/store"
)

// Recorder is the write side used by other packages.
type Recorder interface {
	Log(ctx context.Context, userID, action, resourceType, resourceID string, metadata map[string]interface{})
}

// Logger writes activity entries. Failures are logged and never reach the caller.
type Logger struct {
	store  store.Activities
	logger *zap.Logger
}

// NewLogger creates an activity logger.
func NewLogger(s store.Activities, logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{store: s, logger: logger}
}

// Log records one entry.
func (l *Logger) Log(ctx context.Context, userID, action, resourceType, resourceID string, metadata map[string]interface{}) {
	a := &models.UserActivity{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			l.logger.Warn("activity metadata not encodable", zap.String("action", action), zap.Error(err))
		} else {
			a.Metadata = raw
		}
	}
	if err := l.store.Create(ctx, a); err != nil {
		l.logger.Error("record activity",
			zap.String("user_id", userID),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
