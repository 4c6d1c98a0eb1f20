package models

import "time"

// Friendship is one direction of a symmetric connection between two users.
// Every connection is materialized as a mirrored pair of rows: (A,B) exists
// if and only if (B,A) exists. Both rows are always written and removed
// inside a single transaction, so the pair can never be observed half-applied.
// The primary key is a composite of (UserID, FriendID) to ensure uniqueness.
type Friendship struct {
	UserID    uint `gorm:"primaryKey"`
	FriendID  uint `gorm:"primaryKey"`
	CreatedAt time.Time

	User   User `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Friend User `gorm:"foreignKey:FriendID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
