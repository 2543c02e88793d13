package services

import "strings"

type DedupeScope string

const (
	// GlobalScope skips duplicate rows entirely.
	GlobalScope DedupeScope = "global"
	// ImportOnlyScope flags duplicates but still persists them.
	ImportOnlyScope DedupeScope = "import_only"
)

func ParseDedupeScope(s string) DedupeScope {
	if strings.ToLower(strings.TrimSpace(s)) == "import_only" {
		return ImportOnlyScope
	}
	return GlobalScope
}

const (
	defaultBatchSize   = 100
	maxBatchSize       = 1000
	defaultMaxErrors   = 500
	defaultPreviewRows = 10
)

// ImportConfig is the per-submission configuration for one import run.
type ImportConfig struct {
	DryRun                bool
	PreviewOnly           bool
	SkipValidation        bool
	StrictValidation      bool
	DedupeMode            MatchMode
	DedupeScope           DedupeScope
	FieldMappingOverrides map[string]string
	BatchSize             int
	MaxErrors             int
	PreviewRows           int
	PhonePattern          string
}

// Normalize clamps out-of-range values to the documented bounds.
func (c *ImportConfig) Normalize() {
	if c.BatchSize < 1 || c.BatchSize > maxBatchSize {
		c.BatchSize = defaultBatchSize
	}
	if c.MaxErrors < 1 {
		c.MaxErrors = defaultMaxErrors
	}
	if c.PreviewRows < 1 {
		c.PreviewRows = defaultPreviewRows
	}
	if c.DedupeMode == "" {
		c.DedupeMode = NoMatch
	}
	if c.DedupeScope == "" {
		c.DedupeScope = GlobalScope
	}
}
