package models

import "gorm.io/gorm"

// NotificationType identifies which workflow transition produced a notification.
type NotificationType string

const (
	NotificationFriendRequest       NotificationType = "friend_request"
	NotificationFriendAccepted      NotificationType = "friend_accepted"
	NotificationJoinRequest         NotificationType = "join_request"
	NotificationJoinRequestAccepted NotificationType = "join_request_accepted"
)

// Notification is a fan-out record appended to the receiver's inbox after a
// workflow transition. SenderName and SenderAvatarURL are a point-in-time
// snapshot of the sender's profile taken at creation; they are intentionally
// not kept in sync with later profile edits. Records are never deleted and
// only the Read flag ever changes after creation.
type Notification struct {
	gorm.Model
	Type            NotificationType `gorm:"size:30;not null;index"`
	SenderID        uint             `gorm:"not null"`
	ReceiverID      uint             `gorm:"not null;index"`
	SenderName      string           `gorm:"size:255"`
	SenderAvatarURL string           `gorm:"size:512"`
	Read            bool             `gorm:"not null;default:false;index"`

	// RequestID points back at the ConnectionRequest or JoinRequest row that
	// caused the notification, when there is one.
	RequestID *uint
	RunID     *uint
}
