package repositories

import (
	"errors"
	"fmt"

	businesses_repositories "business-directory-backend/businesses/repositories"
	"business-directory-backend/db/models"
	"business-directory-backend/duplicates/services"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// mergeRepository backs the merge engine with a real GORM transaction. Every
// merge runs inside db.Transaction; returning an error rolls all of it back.
type mergeRepository struct {
	db *gorm.DB
}

func NewMergeRepository(db *gorm.DB) services.MergeStore {
	return &mergeRepository{db: db}
}

func (r *mergeRepository) InMergeTransaction(fn func(tx services.MergeTx) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&mergeTx{tx: tx})
	})
}

type mergeTx struct {
	tx *gorm.DB
}

func (t *mergeTx) GetBusinessByID(id uuid.UUID) (*models.Business, error) {
	var business models.Business
	err := t.tx.First(&business, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", businesses_repositories.ErrBusinessNotFound, id)
		}
		return nil, err
	}
	return &business, nil
}

func (t *mergeTx) SaveBusiness(b *models.Business) error {
	return t.tx.Save(b).Error
}

func (t *mergeTx) ReassignInquiries(fromID, toID uuid.UUID) (int64, error) {
	result := t.tx.Model(&models.Inquiry{}).
		Where("business_id = ?", fromID).
		Update("business_id", toID)
	return result.RowsAffected, result.Error
}

func (t *mergeTx) ReassignOwnershipClaims(fromID, toID uuid.UUID) (int64, error) {
	result := t.tx.Model(&models.OwnershipClaim{}).
		Where("business_id = ?", fromID).
		Update("business_id", toID)
	return result.RowsAffected, result.Error
}
