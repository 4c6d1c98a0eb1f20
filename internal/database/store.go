package database

import (
	"context"
	"errors"

	"runny/backend/internal/models"
	"runny/backend/internal/service"

	"gorm.io/gorm"
)

// Store is the gorm-backed implementation of the service store interfaces.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// UserByID loads a user's profile.
func (s *Store) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
