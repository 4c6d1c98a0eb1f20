package models

import "gorm.io/gorm"

// Interest represents a community interest tag (e.g., "Trail", "Marathon", "5K").
type Interest struct {
	gorm.Model
	Name string `gorm:"size:100;unique;not null"`
}
