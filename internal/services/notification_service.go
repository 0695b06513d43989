package services

import (
	"errors"

	"gorm.io/gorm"

	"jobbridge_backend/internal/repositories"
	"jobbridge_backend/internal/services/dto"
	"jobbridge_backend/pkg/apperrors"
)

// NotificationService is the read side of the notification store:
// listing and the isRead flip. Creation belongs to the dispatcher.
type NotificationService interface {
	ListForUser(userID string, unreadOnly bool, limit, offset int) (*dto.NotificationListResponse, error)
	MarkAsRead(userID, notificationID string) error
	MarkAllAsRead(userID string) (int64, error)
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
}

func NewNotificationService(notificationRepo repositories.NotificationRepository) NotificationService {
	return &notificationService{notificationRepo: notificationRepo}
}

func (s *notificationService) ListForUser(userID string, unreadOnly bool, limit, offset int) (*dto.NotificationListResponse, error) {
	notifications, err := s.notificationRepo.ListByRecipient(userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, apperrors.ErrDatabase(err, "notification")
	}

	unread, err := s.notificationRepo.CountUnread(userID)
	if err != nil {
		return nil, apperrors.ErrDatabase(err, "notification")
	}

	resp := &dto.NotificationListResponse{
		Notifications: make([]dto.NotificationResponse, 0, len(notifications)),
		UnreadCount:   unread,
	}
	for _, n := range notifications {
		resp.Notifications = append(resp.Notifications, dto.NotificationResponse{
			ID:        n.ID,
			Type:      n.Type,
			Title:     n.Title,
			Message:   n.Message,
			Link:      n.Link,
			IsRead:    n.IsRead,
			ReadAt:    n.ReadAt,
			CreatedAt: n.CreatedAt,
		})
	}
	return resp, nil
}

func (s *notificationService) MarkAsRead(userID, notificationID string) error {
	affected, err := s.notificationRepo.MarkAsRead(userID, notificationID)
	if err != nil {
		return apperrors.ErrDatabase(err, "notification")
	}
	if affected == 0 {
		if _, findErr := s.notificationRepo.FindByID(notificationID); findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound(findErr, "notification", "Notification not found")
			}
			return apperrors.ErrDatabase(findErr, "notification")
		}
		// Row exists but is not this user's unread notification.
		return apperrors.ErrConflict("notification", "Notification already read or not yours")
	}
	return nil
}

func (s *notificationService) MarkAllAsRead(userID string) (int64, error) {
	affected, err := s.notificationRepo.MarkAllAsRead(userID)
	if err != nil {
		return 0, apperrors.ErrDatabase(err, "notification")
	}
	return affected, nil
}
