package service

import (
	"context"
	"fmt"

	"runny/backend/internal/models"

	"go.uber.org/zap"
)

// RunStore is the persistence boundary of the run join workflow.
// AcceptJoinRequest must apply the status change and the membership insert as
// a single transaction.
type RunStore interface {
	// RunByID returns the run with its members loaded.
	RunByID(ctx context.Context, id uint) (*models.Run, error)

	// JoinRequestFor returns the join request for (run, user), or (nil, nil)
	// when none exists.
	JoinRequestFor(ctx context.Context, runID, userID uint) (*models.JoinRequest, error)
	CreateJoinRequest(ctx context.Context, req *models.JoinRequest) error

	// ReopenJoinRequest returns a rejected or cancelled (run, user) row to
	// pending, refreshing its profile snapshot and creation time from req.
	// Guarded: a row that is pending or accepted must not be reopened.
	ReopenJoinRequest(ctx context.Context, req *models.JoinRequest) error

	PendingJoinRequests(ctx context.Context, runID uint) ([]models.JoinRequest, error)

	// UpdateJoinRequestStatus moves a pending request to a new status. Guarded
	// so a request can never leave a terminal state.
	UpdateJoinRequestStatus(ctx context.Context, runID, userID uint, status models.RequestStatus) error

	// AcceptJoinRequest marks the request accepted and adds the member
	// atomically.
	AcceptJoinRequest(ctx context.Context, runID, userID uint) error

	RemoveMember(ctx context.Context, runID, userID uint) error
	TransferHost(ctx context.Context, runID, newHostID uint) error
	DeleteRun(ctx context.Context, runID uint) error
}

// RunService owns the join-request workflow for group runs. It mirrors the
// connection workflow: a runner asks, the host decides, and each transition
// fans out a notification.
type RunService struct {
	store    RunStore
	users    UserStore
	notifier *NotificationService
	log      *zap.Logger
}

// NewRunService constructs the service with its dependencies injected.
func NewRunService(store RunStore, users UserStore, notifier *NotificationService, log *zap.Logger) *RunService {
	return &RunService{
		store:    store,
		users:    users,
		notifier: notifier,
		log:      log,
	}
}

// RequestJoin creates a pending join request for (run, user) and notifies
// the host. A runner can have at most one request per run; a rejected or
// cancelled earlier request does not block a new ask.
func (s *RunService) RequestJoin(ctx context.Context, runID, userID uint) (*models.JoinRequest, error) {
	run, err := s.store.RunByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.HostID == userID {
		return nil, ErrSelfRequest
	}
	for _, m := range run.Members {
		if m.ID == userID {
			return nil, ErrAlreadyMember
		}
	}
	if len(run.Members) >= run.MaxMembers {
		return nil, ErrRunFull
	}

	existing, err := s.store.JoinRequestFor(ctx, runID, userID)
	if err != nil {
		return nil, fmt.Errorf("checking join request: %w", err)
	}
	if existing != nil {
		switch existing.Status {
		case models.StatusPending:
			return nil, ErrDuplicateRequest
		case models.StatusAccepted:
			return nil, ErrAlreadyMember
		}
	}

	user, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading requester profile: %w", err)
	}

	req := &models.JoinRequest{
		RunID:         runID,
		UserID:        userID,
		Status:        models.StatusPending,
		UserName:      user.Name,
		UserAvatarURL: user.AvatarURL,
	}
	if existing != nil {
		// Re-ask after a rejection or cancellation reuses the (run, user)
		// row rather than growing history per ask; the row is refreshed with
		// the requester's current snapshot and the re-ask time.
		if err := s.store.ReopenJoinRequest(ctx, req); err != nil {
			return nil, fmt.Errorf("reopening join request: %w", err)
		}
	} else if err := s.store.CreateJoinRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("creating join request: %w", err)
	}

	rID := runID
	if err := s.notifier.Notify(ctx, NotifyInput{
		Type:            models.NotificationJoinRequest,
		SenderID:        userID,
		ReceiverID:      run.HostID,
		SenderName:      user.Name,
		SenderAvatarURL: user.AvatarURL,
		RunID:           &rID,
	}); err != nil {
		s.log.Warn("join_request fan-out failed",
			zap.Uint("run_id", runID),
			zap.Uint("user_id", userID),
			zap.Error(err))
	}

	return req, nil
}

// PendingRequests returns a run's open join requests. Host only.
func (s *RunService) PendingRequests(ctx context.Context, hostID, runID uint) ([]models.JoinRequest, error) {
	run, err := s.store.RunByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.HostID != hostID {
		return nil, ErrNotHost
	}
	return s.store.PendingJoinRequests(ctx, runID)
}

// RespondToJoin applies the host's decision to a pending join request.
// Accepting commits the status change and the new membership atomically,
// then notifies the requester; a failed commit produces no notification.
// Rejecting commits the status change alone.
func (s *RunService) RespondToJoin(ctx context.Context, hostID, runID, userID uint, action RespondAction) error {
	if action != RespondAccept && action != RespondReject {
		return ErrInvalidAction
	}

	run, err := s.store.RunByID(ctx, runID)
	if err != nil {
		return err
	}
	if run.HostID != hostID {
		return ErrNotHost
	}

	req, err := s.store.JoinRequestFor(ctx, runID, userID)
	if err != nil {
		return fmt.Errorf("finding join request: %w", err)
	}
	if req == nil {
		return ErrRequestNotFound
	}
	if req.Status.Terminal() {
		return ErrNotPending
	}

	if action == RespondReject {
		return s.store.UpdateJoinRequestStatus(ctx, runID, userID, models.StatusRejected)
	}

	if len(run.Members) >= run.MaxMembers {
		return ErrRunFull
	}
	if err := s.store.AcceptJoinRequest(ctx, runID, userID); err != nil {
		return fmt.Errorf("accepting join request: %w", err)
	}

	host, err := s.users.UserByID(ctx, hostID)
	if err != nil {
		s.log.Warn("host profile read failed after accept",
			zap.Uint("run_id", runID),
			zap.Error(err))
		return nil
	}

	rID := runID
	if err := s.notifier.Notify(ctx, NotifyInput{
		Type:            models.NotificationJoinRequestAccepted,
		SenderID:        hostID,
		ReceiverID:      userID,
		SenderName:      host.Name,
		SenderAvatarURL: host.AvatarURL,
		RunID:           &rID,
	}); err != nil {
		s.log.Warn("join_request_accepted fan-out failed",
			zap.Uint("run_id", runID),
			zap.Uint("user_id", userID),
			zap.Error(err))
	}

	return nil
}

// Leave removes the user from the run. An emptied run is deleted; when the
// host leaves a run that still has members, the longest-standing remaining
// member becomes the new host.
func (s *RunService) Leave(ctx context.Context, runID, userID uint) error {
	run, err := s.store.RunByID(ctx, runID)
	if err != nil {
		return err
	}

	isMember := false
	for _, m := range run.Members {
		if m.ID == userID {
			isMember = true
			break
		}
	}
	if !isMember {
		return ErrNotFound
	}

	if err := s.store.RemoveMember(ctx, runID, userID); err != nil {
		return fmt.Errorf("removing member: %w", err)
	}

	if len(run.Members) == 1 {
		return s.store.DeleteRun(ctx, runID)
	}

	if run.HostID == userID {
		for _, m := range run.Members {
			if m.ID != userID {
				if err := s.store.TransferHost(ctx, runID, m.ID); err != nil {
					return fmt.Errorf("transferring host: %w", err)
				}
				break
			}
		}
	}
	return nil
}
