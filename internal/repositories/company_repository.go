package repositories

import (
	"gorm.io/gorm"

	"jobbridge_backend/internal/models"
)

type CompanyRepository interface {
	Create(company *models.Company) error
	FindByID(id string) (*models.Company, error)
	FindByUserID(userID string) (*models.Company, error)
	UpdateStatus(id string, status models.CompanyStatus) error
}

type companyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{db: db}
}

func (r *companyRepository) Create(company *models.Company) error {
	return r.db.Create(company).Error
}

func (r *companyRepository) FindByID(id string) (*models.Company, error) {
	var company models.Company
	if err := r.db.First(&company, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) FindByUserID(userID string) (*models.Company, error) {
	var company models.Company
	if err := r.db.First(&company, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) UpdateStatus(id string, status models.CompanyStatus) error {
	return r.db.Model(&models.Company{}).
		Where("id = ?", id).
		Update("status", status).Error
}
