package models

import "gorm.io/gorm"

// Message represents a direct chat message between two connected runners.
type Message struct {
	gorm.Model
	SenderID   uint   `gorm:"not null;index"`
	ReceiverID uint   `gorm:"not null;index"`
	Content    string `gorm:"not null"`
	Read       bool   `gorm:"not null;default:false"`

	Sender User `gorm:"foreignKey:SenderID"`
}
