package models

import "gorm.io/gorm"

// User represents a runner's account and profile.
type User struct {
	gorm.Model
	Name         string `gorm:"size:255;unique;not null"`
	Email        string `gorm:"size:255;unique;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Role         string `gorm:"size:50;not null;default:'user';index"`
	Bio          string
	AvatarURL    string      `gorm:"size:512"`
	Interests    []*Interest `gorm:"many2many:user_interests;"`

	// Last reported position, used by nearby-runner discovery.
	// Nil until the user shares a location.
	Latitude  *float64
	Longitude *float64
}
