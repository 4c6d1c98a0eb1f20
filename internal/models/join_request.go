package models

import "time"

// JoinRequest is a runner's ask to join a group run. It follows the same
// lifecycle as ConnectionRequest but is keyed by (run, requester) rather than
// a generated id, so a runner can have at most one request per run. UserName
// and UserAvatarURL are a snapshot of the requester's profile at creation.
type JoinRequest struct {
	RunID         uint          `gorm:"primaryKey"`
	UserID        uint          `gorm:"primaryKey"`
	Status        RequestStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	UserName      string        `gorm:"size:255"`
	UserAvatarURL string        `gorm:"size:512"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Run  Run  `gorm:"foreignKey:RunID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	User User `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
