package repositories

import (
	"gorm.io/gorm"

	"jobbridge_backend/internal/models"
)

type StudentRepository interface {
	Create(student *models.Student) error
	FindByID(id string) (*models.Student, error)
	FindByUserID(userID string) (*models.Student, error)
	SetHired(id string) error
	// SetCurrentSubscription updates the subscription reference and the
	// derived tier together so the tier/reference invariant holds.
	SetCurrentSubscription(id string, subscriptionID *string, tier models.SubscriptionTier) error
	// ClearCurrentSubscription is the self-heal path for a dangling
	// subscription reference. Idempotent.
	ClearCurrentSubscription(id string) error
}

type studentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) Create(student *models.Student) error {
	return r.db.Create(student).Error
}

func (r *studentRepository) FindByID(id string) (*models.Student, error) {
	var student models.Student
	if err := r.db.First(&student, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepository) FindByUserID(userID string) (*models.Student, error) {
	var student models.Student
	if err := r.db.First(&student, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepository) SetHired(id string) error {
	return r.db.Model(&models.Student{}).
		Where("id = ?", id).
		Update("is_hired", true).Error
}

func (r *studentRepository) SetCurrentSubscription(id string, subscriptionID *string, tier models.SubscriptionTier) error {
	return r.db.Model(&models.Student{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_subscription_id": subscriptionID,
			"subscription_tier":       tier,
		}).Error
}

func (r *studentRepository) ClearCurrentSubscription(id string) error {
	return r.SetCurrentSubscription(id, nil, models.SubscriptionTierFree)
}
