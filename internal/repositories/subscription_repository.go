package repositories

import (
	"time"

	"gorm.io/gorm"

	"jobbridge_backend/internal/models"
)

type SubscriptionRepository interface {
	Create(sub *models.Subscription) error
	FindByID(id string) (*models.Subscription, error)
	FindByIDWithPlan(id string) (*models.Subscription, error)
	ListByStudent(studentID string) ([]models.Subscription, error)
	// MarkExpired flips active -> expired. Guarded so concurrent lazy
	// expiry writes are idempotent and expired never reverts.
	MarkExpired(id string) error
	Cancel(id string, at time.Time) error
	// ExpireLapsed is the periodic sweep: same idempotent write as the
	// lazy path, applied in bulk to subscriptions past their grace window.
	ExpireLapsed(before time.Time) (int64, error)
	// ListEndingBetween returns active subscriptions whose end date
	// falls inside the window, used for expiry reminders.
	ListEndingBetween(from, to time.Time) ([]models.Subscription, error)

	// Plan catalog
	CreatePlan(plan *models.SubscriptionPlan) error
	FindPlanByID(id string) (*models.SubscriptionPlan, error)
	ListActivePlans() ([]models.SubscriptionPlan, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(sub *models.Subscription) error {
	return r.db.Create(sub).Error
}

func (r *subscriptionRepository) FindByID(id string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.First(&sub, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) FindByIDWithPlan(id string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.Preload("Plan").First(&sub, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) ListByStudent(studentID string) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *subscriptionRepository) MarkExpired(id string) error {
	return r.db.Model(&models.Subscription{}).
		Where("id = ? AND status = ?", id, models.SubscriptionStatusActive).
		Update("status", models.SubscriptionStatusExpired).Error
}

func (r *subscriptionRepository) Cancel(id string, at time.Time) error {
	return r.db.Model(&models.Subscription{}).
		Where("id = ? AND status IN ?", id,
			[]models.SubscriptionStatus{models.SubscriptionStatusActive, models.SubscriptionStatusPending}).
		Updates(map[string]interface{}{
			"status":       models.SubscriptionStatusCancelled,
			"cancelled_at": at,
			"auto_renew":   false,
		}).Error
}

func (r *subscriptionRepository) ExpireLapsed(before time.Time) (int64, error) {
	result := r.db.Model(&models.Subscription{}).
		Where("status = ? AND end_date < ?", models.SubscriptionStatusActive, before).
		Update("status", models.SubscriptionStatusExpired)
	return result.RowsAffected, result.Error
}

func (r *subscriptionRepository) ListEndingBetween(from, to time.Time) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Where("status = ? AND end_date >= ? AND end_date < ?",
		models.SubscriptionStatusActive, from, to).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *subscriptionRepository) CreatePlan(plan *models.SubscriptionPlan) error {
	return r.db.Create(plan).Error
}

func (r *subscriptionRepository) FindPlanByID(id string) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	if err := r.db.First(&plan, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *subscriptionRepository) ListActivePlans() ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	err := r.db.Where("is_active = ?", true).
		Order("price ASC").
		Find(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}
