package models

import "gorm.io/gorm"

// RequestStatus is the lifecycle state of a connection or join request.
type RequestStatus string

const (
	// StatusPending means the request has been sent and awaits a response.
	StatusPending RequestStatus = "pending"

	// StatusAccepted means the receiver accepted the request.
	StatusAccepted RequestStatus = "accepted"

	// StatusRejected means the receiver declined the request.
	StatusRejected RequestStatus = "rejected"

	// StatusCancelled means the sender withdrew the request before a response.
	StatusCancelled RequestStatus = "cancelled"
)

// Terminal reports whether the status can no longer change.
func (s RequestStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusCancelled
}

// ConnectionRequest represents a one-directional ask from one runner to
// connect with another. Requests are never deleted: they leave pending
// exactly once and keep their terminal status as history.
type ConnectionRequest struct {
	gorm.Model
	SenderID   uint          `gorm:"not null;index"`
	ReceiverID uint          `gorm:"not null;index"`
	Status     RequestStatus `gorm:"type:varchar(20);not null;default:'pending';index"`

	Sender   User `gorm:"foreignKey:SenderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Receiver User `gorm:"foreignKey:ReceiverID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
