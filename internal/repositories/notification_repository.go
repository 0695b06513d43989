package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"jobbridge_backend/internal/models"
)

// ErrDuplicateNotification: the dedupe key already exists, meaning a
// replayed dispatch event. Callers treat this as an idempotent no-op.
var ErrDuplicateNotification = errors.New("notification already delivered")

type NotificationRepository interface {
	Create(n *models.Notification) error
	FindByID(id string) (*models.Notification, error)
	ListByRecipient(recipientID string, unreadOnly bool, limit, offset int) ([]models.Notification, error)
	CountUnread(recipientID string) (int64, error)
	MarkAsRead(recipientID, id string) (int64, error)
	MarkAllAsRead(recipientID string) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(n *models.Notification) error {
	if err := r.db.Create(n).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateNotification
		}
		return err
	}
	return nil
}

func (r *notificationRepository) FindByID(id string) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.First(&n, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) ListByRecipient(recipientID string, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	query := r.db.Where("recipient_id = ?", recipientID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}

	var notifications []models.Notification
	err := query.Order("created_at DESC").Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepository) CountUnread(recipientID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

func (r *notificationRepository) MarkAsRead(recipientID, id string) (int64, error) {
	now := time.Now()
	result := r.db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ? AND is_read = ?", id, recipientID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	return result.RowsAffected, result.Error
}

func (r *notificationRepository) MarkAllAsRead(recipientID string) (int64, error) {
	now := time.Now()
	result := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	return result.RowsAffected, result.Error
}
