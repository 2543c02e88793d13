package repositories

import (
	"errors"
	"fmt"

	"business-directory-backend/db/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrJobNotFound = errors.New("import job not found")

type ImportJobRepository interface {
	CreateImportJob(job *models.ImportJob) error
	UpdateImportJob(job *models.ImportJob) error
	GetImportJobByID(id uuid.UUID) (*models.ImportJob, error)
	GetAllImportJobs() ([]models.ImportJob, error)
	GetFilteredImportJobs(pageSize int, offset int, filters map[string]string) ([]models.ImportJob, int64, error)
	LogEmailSent(entry *models.EmailLog) error
}

type importJobRepository struct {
	db *gorm.DB
}

func NewImportJobRepository(db *gorm.DB) ImportJobRepository {
	return &importJobRepository{db: db}
}

func (r *importJobRepository) CreateImportJob(job *models.ImportJob) error {
	return r.db.Create(job).Error
}

func (r *importJobRepository) UpdateImportJob(job *models.ImportJob) error {
	return r.db.Save(job).Error
}

func (r *importJobRepository) GetImportJobByID(id uuid.UUID) (*models.ImportJob, error) {
	var job models.ImportJob
	err := r.db.First(&job, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
		}
		return nil, err
	}
	return &job, nil
}

func (r *importJobRepository) GetAllImportJobs() ([]models.ImportJob, error) {
	var jobs []models.ImportJob
	err := r.db.Order("created_at DESC").Find(&jobs).Error
	return jobs, err
}

func (r *importJobRepository) LogEmailSent(entry *models.EmailLog) error {
	return r.db.Create(entry).Error
}

// GetFilteredImportJobs retrieves import jobs with filtering and pagination
func (r *importJobRepository) GetFilteredImportJobs(pageSize int, offset int, filters map[string]string) ([]models.ImportJob, int64, error) {
	var jobs []models.ImportJob
	var total int64

	db := r.db.Model(&models.ImportJob{})

	for key, value := range filters {
		switch key {
		case "status":
			db = db.Where("status = ?", value)
		case "created_by":
			db = db.Where("created_by ILIKE ?", "%"+value+"%")
		case "source_file":
			db = db.Where("source_file ILIKE ?", "%"+value+"%")
		case "start_date":
			db = db.Where("Date(created_at) >= ?", value)
		case "end_date":
			db = db.Where("Date(created_at) <= ?", value)
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Limit(pageSize).Offset(offset).Order("created_at DESC").Find(&jobs).Error; err != nil {
		return nil, 0, err
	}

	return jobs, total, nil
}
