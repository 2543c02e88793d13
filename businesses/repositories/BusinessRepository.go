package repositories

import (
	"errors"
	"fmt"
	"strings"

	"business-directory-backend/db/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrBusinessNotFound = errors.New("business not found")

type BusinessRepository interface {
	CreateBusiness(business *models.Business) error
	GetBusinessByID(id uuid.UUID) (*models.Business, error)
	FindByExactIdentifier(field, value string) (*models.Business, error)
	FindLooseMatch(name, suburb string) (*models.Business, error)
	GetFilteredBusinesses(pageSize int, offset int, filters map[string]string) ([]models.Business, int64, error)
	GetBusinessesForDuplicateScan(filters map[string]string, limit int) ([]models.Business, error)
	GetAbsorbedBusinesses() ([]models.Business, error)
	UpdateMany(ids []uuid.UUID, patch map[string]interface{}) error
}

// matchableColumns whitelists the identifier columns the duplicate matcher
// may look records up by.
var matchableColumns = map[string]string{
	"phone": "phone",
	"email": "email",
	"abn":   "abn",
}

type businessRepository struct {
	db *gorm.DB
}

func NewBusinessRepository(db *gorm.DB) BusinessRepository {
	return &businessRepository{db: db}
}

func (r *businessRepository) CreateBusiness(business *models.Business) error {
	if business.ID == uuid.Nil {
		business.ID = uuid.New()
	}
	return r.db.Create(business).Error
}

func (r *businessRepository) GetBusinessByID(id uuid.UUID) (*models.Business, error) {
	var business models.Business
	err := r.db.First(&business, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrBusinessNotFound, id)
		}
		return nil, err
	}
	return &business, nil
}

// FindByExactIdentifier returns the first active business whose identifier
// column equals value. Absorbed duplicates are excluded so a merged record
// cannot keep flagging new rows.
func (r *businessRepository) FindByExactIdentifier(field, value string) (*models.Business, error) {
	column, ok := matchableColumns[field]
	if !ok {
		return nil, fmt.Errorf("field %q is not an identifier column", field)
	}

	var business models.Business
	err := r.db.
		Where(fmt.Sprintf("%s = ?", column), value).
		Where("duplicate_of IS NULL").
		First(&business).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &business, nil
}

// FindLooseMatch returns the first active business with a similar name
// (substring either way, case-insensitive) in exactly the given suburb.
func (r *businessRepository) FindLooseMatch(name, suburb string) (*models.Business, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	suburb = strings.TrimSpace(suburb)
	if name == "" || suburb == "" {
		return nil, nil
	}

	var business models.Business
	err := r.db.
		Where("(LOWER(name) LIKE ? OR ? LIKE '%' || LOWER(name) || '%')", "%"+name+"%", name).
		Where("LOWER(suburb) = LOWER(?)", suburb).
		Where("duplicate_of IS NULL").
		First(&business).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &business, nil
}

// GetFilteredBusinesses retrieves businesses with filtering and pagination
func (r *businessRepository) GetFilteredBusinesses(pageSize int, offset int, filters map[string]string) ([]models.Business, int64, error) {
	var businesses []models.Business
	var total int64

	db := r.db.Model(&models.Business{})

	for key, value := range filters {
		switch key {
		case "suburb":
			db = db.Where("LOWER(suburb) = LOWER(?)", value)
		case "category":
			db = db.Where("LOWER(category) = LOWER(?)", value)
		case "status":
			db = db.Where("approval_status = ?", strings.ToUpper(value))
		case "source":
			db = db.Where("source = ?", strings.ToUpper(value))
		case "search":
			db = db.Where("name ILIKE ?", "%"+value+"%")
		case "include_duplicates":
			// keep absorbed records in the result set
		}
	}
	if strings.ToLower(filters["include_duplicates"]) != "true" {
		db = db.Where("duplicate_of IS NULL")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Limit(pageSize).Offset(offset).Order("created_at DESC").Find(&businesses).Error; err != nil {
		return nil, 0, err
	}

	return businesses, total, nil
}

// GetBusinessesForDuplicateScan fetches the window of active businesses the
// group builder clusters over. Bounded because matching is pairwise.
func (r *businessRepository) GetBusinessesForDuplicateScan(filters map[string]string, limit int) ([]models.Business, error) {
	var businesses []models.Business

	db := r.db.Model(&models.Business{}).Where("duplicate_of IS NULL")
	if suburb := filters["suburb"]; suburb != "" {
		db = db.Where("LOWER(suburb) = LOWER(?)", suburb)
	}
	if category := filters["category"]; category != "" {
		db = db.Where("LOWER(category) = LOWER(?)", category)
	}

	err := db.Limit(limit).Order("created_at ASC").Find(&businesses).Error
	return businesses, err
}

// GetAbsorbedBusinesses returns records that were merged into another, for
// resolved duplicate-group listings.
func (r *businessRepository) GetAbsorbedBusinesses() ([]models.Business, error) {
	var businesses []models.Business
	err := r.db.Where("duplicate_of IS NOT NULL").Order("updated_at DESC").Find(&businesses).Error
	return businesses, err
}

func (r *businessRepository) UpdateMany(ids []uuid.UUID, patch map[string]interface{}) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&models.Business{}).Where("id IN ?", ids).Updates(patch).Error
}
