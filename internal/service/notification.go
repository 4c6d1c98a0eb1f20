package service

import (
	"context"
	"fmt"

	"runny/backend/internal/models"

	"go.uber.org/zap"
)

// NotificationStore is the persistence boundary of the fan-out service. The
// receiver's notifications form an append-only log: records are created once
// and only the Read flag is ever updated.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	NotificationByID(ctx context.Context, id uint) (*models.Notification, error)
	NotificationsByReceiver(ctx context.Context, receiverID uint, page, limit int) ([]models.Notification, int64, error)
	UnreadCount(ctx context.Context, receiverID uint) (int64, error)
	MarkNotificationRead(ctx context.Context, id uint) error
}

// Publisher pushes a just-persisted notification to the receiver's live
// subscribers. The hub satisfies this.
type Publisher interface {
	Publish(userID uint, eventType string, payload any)
}

// NotifyInput describes one fan-out. SenderName and SenderAvatarURL are the
// caller's snapshot of the sender's profile at transition time.
type NotifyInput struct {
	Type            models.NotificationType
	SenderID        uint
	ReceiverID      uint
	SenderName      string
	SenderAvatarURL string
	RequestID       *uint
	RunID           *uint
}

// NotificationService appends workflow notifications to user inboxes and
// tracks their read state.
type NotificationService struct {
	store NotificationStore
	pub   Publisher
	log   *zap.Logger
}

// NewNotificationService constructs the service with its dependencies injected.
func NewNotificationService(store NotificationStore, pub Publisher, log *zap.Logger) *NotificationService {
	return &NotificationService{store: store, pub: pub, log: log}
}

// Notify persists a notification for the receiver and pushes it to their
// live subscribers. The persisted record is the source of truth; the live
// push is best-effort.
func (s *NotificationService) Notify(ctx context.Context, in NotifyInput) error {
	if in.ReceiverID == 0 {
		return ErrInvalidRecipient
	}

	n := &models.Notification{
		Type:            in.Type,
		SenderID:        in.SenderID,
		ReceiverID:      in.ReceiverID,
		SenderName:      in.SenderName,
		SenderAvatarURL: in.SenderAvatarURL,
		Read:            false,
		RequestID:       in.RequestID,
		RunID:           in.RunID,
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}

	if s.pub != nil {
		s.pub.Publish(in.ReceiverID, "notification", n)
	}
	return nil
}

// List returns the receiver's notifications, newest first, with the total
// count for pagination.
func (s *NotificationService) List(ctx context.Context, receiverID uint, page, limit int) ([]models.Notification, int64, error) {
	return s.store.NotificationsByReceiver(ctx, receiverID, page, limit)
}

// UnreadCount returns how many of the receiver's notifications are unread.
func (s *NotificationService) UnreadCount(ctx context.Context, receiverID uint) (int64, error) {
	return s.store.UnreadCount(ctx, receiverID)
}

// MarkRead flips a notification's Read flag. Only the owner may flip it;
// marking an already-read notification again is a no-op.
func (s *NotificationService) MarkRead(ctx context.Context, receiverID, id uint) error {
	n, err := s.store.NotificationByID(ctx, id)
	if err != nil {
		return err
	}
	if n.ReceiverID != receiverID {
		return ErrNotFound
	}
	if n.Read {
		return nil
	}
	return s.store.MarkNotificationRead(ctx, id)
}
