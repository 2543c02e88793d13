package audit

import (
	"encoding/json"

	"business-directory-backend/db/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Sink receives audit events from the pipeline. Fire-and-forget: a sink
// failure must never fail the operation that produced the event.
type Sink interface {
	Record(eventType string, subjectID *uuid.UUID, actorID string, details map[string]interface{})
}

// DBSink writes audit events to the audit_logs table asynchronously.
type DBSink struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewDBSink(db *gorm.DB, logger *zap.Logger) *DBSink {
	return &DBSink{db: db, logger: logger}
}

func (s *DBSink) Record(eventType string, subjectID *uuid.UUID, actorID string, details map[string]interface{}) {
	payload, err := json.Marshal(details)
	if err != nil {
		s.logger.Warn("Failed to marshal audit details", zap.String("event_type", eventType), zap.Error(err))
		payload = []byte("{}")
	}

	entry := models.AuditLog{
		ID:        uuid.New(),
		EventType: eventType,
		SubjectID: subjectID,
		ActorID:   actorID,
		Details:   payload,
	}

	go func() {
		if err := s.db.Create(&entry).Error; err != nil {
			s.logger.Warn("Failed to persist audit event",
				zap.String("event_type", eventType),
				zap.Error(err),
			)
		}
	}()
}

// NopSink discards events. Used in tests and anywhere auditing is not wired.
type NopSink struct{}

func (NopSink) Record(string, *uuid.UUID, string, map[string]interface{}) {}
