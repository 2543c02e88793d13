package models

import (
	"time"

	"github.com/google/uuid"
)

type ApprovalStatus string

const (
	PendingApproval  ApprovalStatus = "PENDING"
	ApprovedApproval ApprovalStatus = "APPROVED"
	RejectedApproval ApprovalStatus = "REJECTED"
)

type BusinessSource string

const (
	ManualSource BusinessSource = "MANUAL"
	ImportSource BusinessSource = "BULK_IMPORT"
	ClaimSource  BusinessSource = "OWNER_CLAIM"
)

// Business is the core directory entity. Contact identifiers (phone, email,
// abn) are indexed because the duplicate matcher looks records up by them.
type Business struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	Name      string    `gorm:"not null;index" json:"name"`
	Email     *string   `gorm:"index" json:"email"`
	Phone     *string   `gorm:"index" json:"phone"`
	Website   *string   `json:"website"`
	Address   *string   `json:"address"`
	Suburb    *string   `gorm:"index" json:"suburb"`
	Postcode  *string   `json:"postcode"`
	Category  *string   `gorm:"index" json:"category"`
	Bio       *string   `json:"bio"`
	ABN       *string   `gorm:"column:abn;index" json:"abn"`
	ABNStatus *string   `gorm:"column:abn_status" json:"abn_status"`

	Source         BusinessSource `gorm:"default:MANUAL" json:"source"`
	ApprovalStatus ApprovalStatus `gorm:"default:PENDING" json:"approval_status"`

	// Set by the merge engine when this record is absorbed into another.
	// Absorbed records are archived, never deleted.
	DuplicateOf *uuid.UUID `gorm:"type:uuid;index" json:"duplicate_of"`

	// Relationships
	Inquiries       []Inquiry        `gorm:"foreignKey:BusinessID" json:"inquiries,omitempty"`
	OwnershipClaims []OwnershipClaim `gorm:"foreignKey:BusinessID" json:"ownership_claims,omitempty"`

	// Metadata
	CreatedBy string    `json:"created_by"` // Staff email who created record
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Inquiry is an inbound customer message directed at a business. Reassigned
// to the surviving record when businesses are merged.
type Inquiry struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	BusinessID uuid.UUID `gorm:"type:uuid;not null;index" json:"business_id"`
	SenderName string    `json:"sender_name"`
	Email      string    `json:"email"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "PENDING"
	ClaimApproved ClaimStatus = "APPROVED"
	ClaimRejected ClaimStatus = "REJECTED"
)

// OwnershipClaim records a request from an operator of a business to take
// over its listing.
type OwnershipClaim struct {
	ID         uuid.UUID   `gorm:"type:uuid;primary_key;" json:"id"`
	BusinessID uuid.UUID   `gorm:"type:uuid;not null;index" json:"business_id"`
	ClaimantID uuid.UUID   `gorm:"type:uuid;not null" json:"claimant_id"`
	Status     ClaimStatus `gorm:"default:PENDING" json:"status"`
	CreatedAt  time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// Attribute returns the value of a canonical import attribute by name, with
// nil pointers flattened to "".
func (b *Business) Attribute(field string) string {
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}

	switch field {
	case "name":
		return b.Name
	case "email":
		return deref(b.Email)
	case "phone":
		return deref(b.Phone)
	case "website":
		return deref(b.Website)
	case "address":
		return deref(b.Address)
	case "suburb":
		return deref(b.Suburb)
	case "postcode":
		return deref(b.Postcode)
	case "category":
		return deref(b.Category)
	case "bio":
		return deref(b.Bio)
	case "abn":
		return deref(b.ABN)
	case "abn_status":
		return deref(b.ABNStatus)
	default:
		return ""
	}
}

// SetAttribute writes the value of a canonical import attribute. Used by the
// orchestrator when materialising a mapped row and by the merge engine when
// backfilling empty fields.
func (b *Business) SetAttribute(field, value string) {
	ptr := func(s string) *string { return &s }

	switch field {
	case "name":
		b.Name = value
	case "email":
		b.Email = ptr(value)
	case "phone":
		b.Phone = ptr(value)
	case "website":
		b.Website = ptr(value)
	case "address":
		b.Address = ptr(value)
	case "suburb":
		b.Suburb = ptr(value)
	case "postcode":
		b.Postcode = ptr(value)
	case "category":
		b.Category = ptr(value)
	case "bio":
		b.Bio = ptr(value)
	case "abn":
		b.ABN = ptr(value)
	case "abn_status":
		b.ABNStatus = ptr(value)
	}
}
