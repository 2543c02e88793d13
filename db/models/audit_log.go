package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditLog is written by the default audit sink. The pipeline treats audit
// persistence as fire-and-forget; a failed write never fails the operation
// that produced it.
type AuditLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;" json:"id"`
	EventType string         `gorm:"index" json:"event_type"`
	SubjectID *uuid.UUID     `gorm:"type:uuid;index" json:"subject_id"`
	ActorID   string         `json:"actor_id"`
	Details   datatypes.JSON `json:"details"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
}
