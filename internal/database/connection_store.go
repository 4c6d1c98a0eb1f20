package database

import (
	"context"
	"errors"

	"runny/backend/internal/models"
	"runny/backend/internal/service"

	"gorm.io/gorm"
)

// CreateRequest persists a new connection request.
func (s *Store) CreateRequest(ctx context.Context, req *models.ConnectionRequest) error {
	return s.db.WithContext(ctx).Create(req).Error
}

// RequestByID loads a connection request by its id.
func (s *Store) RequestByID(ctx context.Context, id uint) (*models.ConnectionRequest, error) {
	var req models.ConnectionRequest
	if err := s.db.WithContext(ctx).First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, service.ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

// PendingRequest returns the pending request from sender to receiver, or
// (nil, nil) when none exists.
func (s *Store) PendingRequest(ctx context.Context, senderID, receiverID uint) (*models.ConnectionRequest, error) {
	var req models.ConnectionRequest
	err := s.db.WithContext(ctx).
		Where("sender_id = ? AND receiver_id = ? AND status = ?", senderID, receiverID, models.StatusPending).
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// PendingByReceiver lists the pending requests addressed to a user.
func (s *Store) PendingByReceiver(ctx context.Context, receiverID uint) ([]models.ConnectionRequest, error) {
	var reqs []models.ConnectionRequest
	err := s.db.WithContext(ctx).
		Where("receiver_id = ? AND status = ?", receiverID, models.StatusPending).
		Preload("Sender").
		Order("created_at DESC").
		Find(&reqs).Error
	return reqs, err
}

// PendingBySender lists the pending requests a user has sent.
func (s *Store) PendingBySender(ctx context.Context, senderID uint) ([]models.ConnectionRequest, error) {
	var reqs []models.ConnectionRequest
	err := s.db.WithContext(ctx).
		Where("sender_id = ? AND status = ?", senderID, models.StatusPending).
		Preload("Receiver").
		Order("created_at DESC").
		Find(&reqs).Error
	return reqs, err
}

// UpdateRequestStatus moves a request out of pending. Guarded so a request
// can never leave a terminal state.
func (s *Store) UpdateRequestStatus(ctx context.Context, id uint, status models.RequestStatus) error {
	result := s.db.WithContext(ctx).
		Model(&models.ConnectionRequest{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return service.ErrNotPending
	}
	return nil
}

// AcceptRequest marks the request accepted and writes both friendship rows
// in a single transaction, so the friend relation can never be half-applied.
func (s *Store) AcceptRequest(ctx context.Context, id, senderID, receiverID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ConnectionRequest{}).
			Where("id = ? AND status = ?", id, models.StatusPending).
			Update("status", models.StatusAccepted)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return service.ErrNotPending
		}

		if err := tx.Create(&models.Friendship{UserID: senderID, FriendID: receiverID}).Error; err != nil {
			return err
		}
		return tx.Create(&models.Friendship{UserID: receiverID, FriendID: senderID}).Error
	})
}

// AreFriends reports whether a friendship row exists from a to b. The
// mirrored row is maintained atomically, so one direction suffices.
func (s *Store) AreFriends(ctx context.Context, a, b uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Friendship{}).
		Where("user_id = ? AND friend_id = ?", a, b).
		Count(&count).Error
	return count > 0, err
}

// RemoveFriendship deletes both directions of a friendship in a single
// transaction. Removing rows that do not exist is a no-op.
func (s *Store) RemoveFriendship(ctx context.Context, a, b uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND friend_id = ?", a, b).
			Delete(&models.Friendship{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ? AND friend_id = ?", b, a).
			Delete(&models.Friendship{}).Error
	})
}
