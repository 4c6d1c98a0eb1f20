package database

import (
	"context"
	"errors"
	"time"

	"runny/backend/internal/models"
	"runny/backend/internal/service"

	"gorm.io/gorm"
)

// RunByID loads a run with its host and members.
func (s *Store) RunByID(ctx context.Context, id uint) (*models.Run, error) {
	var run models.Run
	err := s.db.WithContext(ctx).
		Preload("Host").
		Preload("Members").
		First(&run, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

// JoinRequestFor returns the join request for (run, user), or (nil, nil)
// when none exists.
func (s *Store) JoinRequestFor(ctx context.Context, runID, userID uint) (*models.JoinRequest, error) {
	var req models.JoinRequest
	err := s.db.WithContext(ctx).
		Where("run_id = ? AND user_id = ?", runID, userID).
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// CreateJoinRequest persists a new join request.
func (s *Store) CreateJoinRequest(ctx context.Context, req *models.JoinRequest) error {
	return s.db.WithContext(ctx).Create(req).Error
}

// ReopenJoinRequest returns a rejected or cancelled row to pending with a
// fresh profile snapshot and creation time. The status predicate keeps a
// concurrent accept from being overwritten.
func (s *Store) ReopenJoinRequest(ctx context.Context, req *models.JoinRequest) error {
	req.CreatedAt = time.Now()
	result := s.db.WithContext(ctx).
		Model(&models.JoinRequest{}).
		Where("run_id = ? AND user_id = ? AND status IN ?", req.RunID, req.UserID,
			[]models.RequestStatus{models.StatusRejected, models.StatusCancelled}).
		Updates(map[string]interface{}{
			"status":          models.StatusPending,
			"user_name":       req.UserName,
			"user_avatar_url": req.UserAvatarURL,
			"created_at":      req.CreatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return service.ErrDuplicateRequest
	}
	return nil
}

// PendingJoinRequests lists a run's open join requests, oldest first.
func (s *Store) PendingJoinRequests(ctx context.Context, runID uint) ([]models.JoinRequest, error) {
	var reqs []models.JoinRequest
	err := s.db.WithContext(ctx).
		Where("run_id = ? AND status = ?", runID, models.StatusPending).
		Order("created_at ASC").
		Find(&reqs).Error
	return reqs, err
}

// UpdateJoinRequestStatus moves a pending (run, user) join request to a new
// status. Guarded so a request can never leave a terminal state.
func (s *Store) UpdateJoinRequestStatus(ctx context.Context, runID, userID uint, status models.RequestStatus) error {
	result := s.db.WithContext(ctx).
		Model(&models.JoinRequest{}).
		Where("run_id = ? AND user_id = ? AND status = ?", runID, userID, models.StatusPending).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return service.ErrNotPending
	}
	return nil
}

// AcceptJoinRequest marks the request accepted and adds the membership row
// in a single transaction.
func (s *Store) AcceptJoinRequest(ctx context.Context, runID, userID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.JoinRequest{}).
			Where("run_id = ? AND user_id = ? AND status = ?", runID, userID, models.StatusPending).
			Update("status", models.StatusAccepted)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return service.ErrNotPending
		}

		run := models.Run{Model: gorm.Model{ID: runID}}
		return tx.Model(&run).Association("Members").Append(&models.User{Model: gorm.Model{ID: userID}})
	})
}

// RemoveMember drops the user's membership row.
func (s *Store) RemoveMember(ctx context.Context, runID, userID uint) error {
	run := models.Run{Model: gorm.Model{ID: runID}}
	return s.db.WithContext(ctx).
		Model(&run).
		Association("Members").
		Delete(&models.User{Model: gorm.Model{ID: userID}})
}

// TransferHost hands the run to a new host.
func (s *Store) TransferHost(ctx context.Context, runID, newHostID uint) error {
	return s.db.WithContext(ctx).
		Model(&models.Run{}).
		Where("id = ?", runID).
		Update("host_id", newHostID).Error
}

// DeleteRun removes an emptied run.
func (s *Store) DeleteRun(ctx context.Context, runID uint) error {
	return s.db.WithContext(ctx).Delete(&models.Run{}, runID).Error
}
