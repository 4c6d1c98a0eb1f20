package models

import (
	"time"

	"gorm.io/gorm"
)

// Run represents a group run that other runners can ask to join.
type Run struct {
	gorm.Model
	HostID      uint   `gorm:"not null;index"`
	Title       string `gorm:"size:255;not null"`
	Description string
	Latitude    float64   `gorm:"not null"`
	Longitude   float64   `gorm:"not null"`
	StartsAt    time.Time `gorm:"not null;index"`
	MaxMembers  int       `gorm:"not null;default:10"`

	Host    User   `gorm:"foreignKey:HostID"`
	Members []User `gorm:"many2many:run_members;"`
}
