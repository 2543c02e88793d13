package services

import (
	"errors"
	"fmt"
	"strings"

	"business-directory-backend/audit"
	"business-directory-backend/db/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type MergeStrategy string

const (
	KeepPrimaryStrategy MergeStrategy = "keep_primary"
	MergeDataStrategy   MergeStrategy = "merge_data"
	ManualStrategy      MergeStrategy = "manual"
)

func ParseMergeStrategy(s string) (MergeStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "keep_primary", "keep-primary":
		return KeepPrimaryStrategy, nil
	case "merge_data", "merge-data":
		return MergeDataStrategy, nil
	case "manual":
		return ManualStrategy, nil
	default:
		return "", fmt.Errorf("unknown merge strategy %q", s)
	}
}

var ErrInvalidMergeRequest = errors.New("invalid merge request")

// backfillableFields are the attributes merge_data may copy from a duplicate
// onto the primary when the primary's value is empty. Name is excluded; the
// primary always keeps its own.
var backfillableFields = []string{
	"email", "phone", "website", "address", "suburb",
	"postcode", "category", "bio", "abn", "abn_status",
}

type MergeRequest struct {
	PrimaryID    uuid.UUID
	DuplicateIDs []uuid.UUID
	Strategy     MergeStrategy
	Reason       string
}

// MergeResult records what the merge did, for the caller and the audit trail.
type MergeResult struct {
	PrimaryID            uuid.UUID     `json:"primary_id"`
	MergedIDs            []uuid.UUID   `json:"merged_ids"`
	FieldsBackfilled     []string      `json:"fields_backfilled"`
	InquiriesTransferred int64         `json:"inquiries_transferred"`
	ClaimsTransferred    int64         `json:"claims_transferred"`
	Strategy             MergeStrategy `json:"strategy"`
	Reason               string        `json:"reason,omitempty"`
}

// MergeTx is the transactional view of the record store a merge runs inside.
type MergeTx interface {
	GetBusinessByID(id uuid.UUID) (*models.Business, error)
	SaveBusiness(b *models.Business) error
	ReassignInquiries(fromID, toID uuid.UUID) (int64, error)
	ReassignOwnershipClaims(fromID, toID uuid.UUID) (int64, error)
}

// MergeStore opens a transaction; returning an error from fn rolls everything
// back.
type MergeStore interface {
	InMergeTransaction(fn func(tx MergeTx) error) error
}

// MergeEngine consolidates operator-confirmed duplicate groups. All effects
// of one merge happen inside a single transaction: either every duplicate is
// absorbed or none is.
type MergeEngine struct {
	store   MergeStore
	auditor audit.Sink
	logger  *zap.Logger
}

func NewMergeEngine(store MergeStore, auditor audit.Sink, logger *zap.Logger) *MergeEngine {
	if auditor == nil {
		auditor = audit.NopSink{}
	}
	return &MergeEngine{store: store, auditor: auditor, logger: logger}
}

func (e *MergeEngine) Merge(req MergeRequest, actorID string) (*MergeResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	result := &MergeResult{
		PrimaryID: req.PrimaryID,
		Strategy:  req.Strategy,
		Reason:    req.Reason,
	}

	err := e.store.InMergeTransaction(func(tx MergeTx) error {
		primary, err := tx.GetBusinessByID(req.PrimaryID)
		if err != nil {
			return fmt.Errorf("primary record: %w", err)
		}

		// Resolve every duplicate up front so a missing id aborts before any
		// mutation happens.
		duplicates := make([]*models.Business, 0, len(req.DuplicateIDs))
		for _, id := range req.DuplicateIDs {
			dup, err := tx.GetBusinessByID(id)
			if err != nil {
				return fmt.Errorf("duplicate record: %w", err)
			}
			duplicates = append(duplicates, dup)
		}

		backfilled := make(map[string]struct{})
		for _, dup := range duplicates {
			if req.Strategy == MergeDataStrategy {
				for _, field := range backfillableFields {
					if primary.Attribute(field) == "" && dup.Attribute(field) != "" {
						primary.SetAttribute(field, dup.Attribute(field))
						backfilled[field] = struct{}{}
					}
				}
			}

			inquiries, err := tx.ReassignInquiries(dup.ID, primary.ID)
			if err != nil {
				return fmt.Errorf("reassign inquiries from %s: %w", dup.ID, err)
			}
			claims, err := tx.ReassignOwnershipClaims(dup.ID, primary.ID)
			if err != nil {
				return fmt.Errorf("reassign ownership claims from %s: %w", dup.ID, err)
			}
			result.InquiriesTransferred += inquiries
			result.ClaimsTransferred += claims

			// Archived, never deleted: flag the back-reference and reject.
			primaryID := primary.ID
			dup.DuplicateOf = &primaryID
			dup.ApprovalStatus = models.RejectedApproval
			if err := tx.SaveBusiness(dup); err != nil {
				return fmt.Errorf("archive duplicate %s: %w", dup.ID, err)
			}
			result.MergedIDs = append(result.MergedIDs, dup.ID)
		}

		for field := range backfilled {
			result.FieldsBackfilled = append(result.FieldsBackfilled, field)
		}

		return tx.SaveBusiness(primary)
	})
	if err != nil {
		return nil, err
	}

	e.auditor.Record("businesses.merged", &req.PrimaryID, actorID, map[string]interface{}{
		"merged_ids":        result.MergedIDs,
		"strategy":          string(req.Strategy),
		"reason":            req.Reason,
		"fields_backfilled": result.FieldsBackfilled,
	})

	e.logger.Info("Merged duplicate businesses",
		zap.String("primary_id", req.PrimaryID.String()),
		zap.Int("merged", len(result.MergedIDs)),
		zap.Int64("inquiries_transferred", result.InquiriesTransferred),
		zap.Int64("claims_transferred", result.ClaimsTransferred),
	)

	return result, nil
}

func validateRequest(req MergeRequest) error {
	if req.PrimaryID == uuid.Nil {
		return fmt.Errorf("%w: primary id is required", ErrInvalidMergeRequest)
	}
	if len(req.DuplicateIDs) == 0 {
		return fmt.Errorf("%w: at least one duplicate id is required", ErrInvalidMergeRequest)
	}
	switch req.Strategy {
	case KeepPrimaryStrategy, MergeDataStrategy, ManualStrategy:
	default:
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidMergeRequest, req.Strategy)
	}
	for _, id := range req.DuplicateIDs {
		if id == req.PrimaryID {
			return fmt.Errorf("%w: primary id cannot appear in the duplicate list", ErrInvalidMergeRequest)
		}
	}
	return nil
}
