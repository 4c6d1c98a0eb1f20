package database

import (
	"context"
	"errors"

	"runny/backend/internal/models"
	"runny/backend/internal/service"

	"gorm.io/gorm"
)

// CreateNotification appends a notification to the receiver's inbox.
func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	return s.db.WithContext(ctx).Create(n).Error
}

// NotificationByID loads a single notification.
func (s *Store) NotificationByID(ctx context.Context, id uint) (*models.Notification, error) {
	var n models.Notification
	if err := s.db.WithContext(ctx).First(&n, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// NotificationsByReceiver returns a page of the receiver's notifications,
// newest first, plus the total count.
func (s *Store) NotificationsByReceiver(ctx context.Context, receiverID uint, page, limit int) ([]models.Notification, int64, error) {
	query := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("receiver_id = ?", receiverID)

	var totalItems int64
	if err := query.Count(&totalItems).Error; err != nil {
		return nil, 0, err
	}

	var notifications []models.Notification
	offset := (page - 1) * limit
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&notifications).Error
	return notifications, totalItems, err
}

// UnreadCount counts the receiver's unread notifications.
func (s *Store) UnreadCount(ctx context.Context, receiverID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("receiver_id = ? AND read = ?", receiverID, false).
		Count(&count).Error
	return count, err
}

// MarkNotificationRead flips the read flag to true.
func (s *Store) MarkNotificationRead(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", id).
		Update("read", true).Error
}
