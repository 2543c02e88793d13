package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ImportJobStatus string

const (
	ImportJobPending    ImportJobStatus = "PENDING"
	ImportJobProcessing ImportJobStatus = "PROCESSING"
	ImportJobCompleted  ImportJobStatus = "COMPLETED"
	ImportJobFailed     ImportJobStatus = "FAILED"
	ImportJobCancelled  ImportJobStatus = "CANCELLED"
)

// Terminal reports whether the status can never change again.
func (s ImportJobStatus) Terminal() bool {
	return s == ImportJobCompleted || s == ImportJobFailed || s == ImportJobCancelled
}

// ImportRowError is one rejected row. Stored on the job as JSON so the full
// outcome of an import survives restarts and is pollable after completion.
type ImportRowError struct {
	RowIndex int               `json:"row_index"`
	Field    string            `json:"field,omitempty"`
	Message  string            `json:"message"`
	RowData  map[string]string `json:"row_data,omitempty"`
}

type DuplicateConfidence string

const (
	HighConfidence   DuplicateConfidence = "HIGH"
	MediumConfidence DuplicateConfidence = "MEDIUM"
)

// ImportRowDuplicate is one row flagged as colliding with an existing or
// in-batch record.
type ImportRowDuplicate struct {
	RowIndex   int                 `json:"row_index"`
	Reason     string              `json:"reason"`
	MatchedID  uuid.UUID           `json:"matched_business_id"`
	Confidence DuplicateConfidence `json:"confidence"`
	Persisted  bool                `json:"persisted"` // false when scope=global skipped the row
	RowData    map[string]string   `json:"row_data,omitempty"`
}

// ImportJob is the durable record of one bulk ingestion run. The orchestrator
// is stateless between saves; this row is the single source of truth for what
// happened.
type ImportJob struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key;" json:"id"`
	SourceFile string          `json:"source_file"`
	Status     ImportJobStatus `gorm:"index" json:"status"`
	DryRun     bool            `json:"dry_run"`

	TotalRows      int `json:"total_rows"`
	ProcessedRows  int `json:"processed_rows"`
	SuccessCount   int `json:"success_count"`
	ErrorCount     int `json:"error_count"`
	WarningCount   int `json:"warning_count"`
	DuplicateCount int `json:"duplicate_count"`

	Progress   int  `json:"progress"` // 0..100
	ETASeconds *int `json:"eta_seconds"`

	Errors     datatypes.JSON `json:"errors"`
	Warnings   datatypes.JSON `json:"warnings"`
	Duplicates datatypes.JSON `json:"duplicates"`
	Preview    datatypes.JSON `json:"preview,omitempty"`

	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ImportPreview is the non-durable payload returned for preview-only
// submissions and stored on the job for dry runs.
type ImportPreview struct {
	Headers         []string          `json:"headers"`
	SampleRows      [][]string        `json:"sample_rows"`
	FieldMapping    map[string]string `json:"field_mapping"`
	Recommendations []string          `json:"recommendations"`
	Issues          []ImportRowError  `json:"issues,omitempty"`
	TotalRows       int               `json:"total_rows"`
}
