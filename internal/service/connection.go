package service

import (
	"context"
	"fmt"

	"runny/backend/internal/models"

	"go.uber.org/zap"
)

// ConnectionStatus is the derived relationship between two users, recomputed
// on demand and never stored.
type ConnectionStatus string

const (
	// ConnectionNone means no friendship and no pending request sent by self.
	ConnectionNone ConnectionStatus = "none"

	// ConnectionPending means self has a pending request toward the other
	// user. A pending request *received* from the other user is deliberately
	// not reported here; it surfaces through ListRequests instead.
	ConnectionPending ConnectionStatus = "pending"

	// ConnectionConnected means the two users are friends.
	ConnectionConnected ConnectionStatus = "connected"
)

// RespondAction is the receiver's decision on a pending request.
type RespondAction string

const (
	RespondAccept RespondAction = "accept"
	RespondReject RespondAction = "reject"
)

// UserStore provides the profile reads the workflows need for denormalized
// notification snapshots.
type UserStore interface {
	UserByID(ctx context.Context, id uint) (*models.User, error)
}

// ConnectionStore is the persistence boundary of the connection workflow.
// AcceptRequest and RemoveFriendship must apply their row mutations as a
// single transaction; a failure must leave every row untouched.
type ConnectionStore interface {
	CreateRequest(ctx context.Context, req *models.ConnectionRequest) error
	RequestByID(ctx context.Context, id uint) (*models.ConnectionRequest, error)

	// PendingRequest returns the pending request from sender to receiver, or
	// (nil, nil) when none exists.
	PendingRequest(ctx context.Context, senderID, receiverID uint) (*models.ConnectionRequest, error)
	PendingByReceiver(ctx context.Context, receiverID uint) ([]models.ConnectionRequest, error)
	PendingBySender(ctx context.Context, senderID uint) ([]models.ConnectionRequest, error)
	UpdateRequestStatus(ctx context.Context, id uint, status models.RequestStatus) error

	// AcceptRequest marks the request accepted and inserts both friendship
	// rows atomically.
	AcceptRequest(ctx context.Context, id, senderID, receiverID uint) error

	AreFriends(ctx context.Context, a, b uint) (bool, error)

	// RemoveFriendship deletes both friendship rows atomically. Removing a
	// relation that does not exist is a no-op.
	RemoveFriendship(ctx context.Context, a, b uint) error
}

// ConnectionService owns the connection-request state machine between two
// users and announces each transition through the notification service.
type ConnectionService struct {
	store    ConnectionStore
	users    UserStore
	notifier *NotificationService
	log      *zap.Logger
}

// NewConnectionService constructs the service with its dependencies injected.
func NewConnectionService(store ConnectionStore, users UserStore, notifier *NotificationService, log *zap.Logger) *ConnectionService {
	return &ConnectionService{
		store:    store,
		users:    users,
		notifier: notifier,
		log:      log,
	}
}

// SendRequest creates a pending request from sender to receiver and fans out
// a friend_request notification. At most one pending request may exist for
// an ordered (sender, receiver) pair; duplicates are rejected up front.
func (s *ConnectionService) SendRequest(ctx context.Context, senderID, receiverID uint) (*models.ConnectionRequest, error) {
	if senderID == receiverID {
		return nil, ErrSelfRequest
	}

	connected, err := s.store.AreFriends(ctx, senderID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("checking friendship: %w", err)
	}
	if connected {
		return nil, ErrAlreadyConnected
	}

	existing, err := s.store.PendingRequest(ctx, senderID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("checking pending request: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateRequest
	}

	// Snapshot the sender's profile before writing anything, so a failed
	// read never leaves a request without its notification fields.
	sender, err := s.users.UserByID(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("loading sender profile: %w", err)
	}

	req := &models.ConnectionRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     models.StatusPending,
	}
	if err := s.store.CreateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	reqID := req.ID
	if err := s.notifier.Notify(ctx, NotifyInput{
		Type:            models.NotificationFriendRequest,
		SenderID:        senderID,
		ReceiverID:      receiverID,
		SenderName:      sender.Name,
		SenderAvatarURL: sender.AvatarURL,
		RequestID:       &reqID,
	}); err != nil {
		// The request itself is committed; the receiver still sees it in
		// their pending list even without the notification.
		s.log.Warn("friend_request fan-out failed",
			zap.Uint("request_id", req.ID),
			zap.Error(err))
	}

	return req, nil
}

// RespondToRequest applies the receiver's decision to a pending request.
// Accepting commits the status change and both friendship rows as one
// transaction, and only after that commit fans out a single friend_accepted
// notification to the original sender. Rejecting commits the status change
// alone, with no notification.
func (s *ConnectionService) RespondToRequest(ctx context.Context, receiverID, requestID uint, action RespondAction) error {
	if action != RespondAccept && action != RespondReject {
		return ErrInvalidAction
	}

	req, err := s.store.RequestByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req.ReceiverID != receiverID {
		return ErrNotReceiver
	}
	if req.Status.Terminal() {
		return ErrNotPending
	}

	if action == RespondReject {
		return s.store.UpdateRequestStatus(ctx, req.ID, models.StatusRejected)
	}

	if err := s.store.AcceptRequest(ctx, req.ID, req.SenderID, req.ReceiverID); err != nil {
		// The transaction did not commit: no status change, no friendship
		// rows, and no notification.
		return fmt.Errorf("accepting request: %w", err)
	}

	responder, err := s.users.UserByID(ctx, receiverID)
	if err != nil {
		// The accept is committed; surfacing the snapshot failure would
		// suggest otherwise, so log and move on.
		s.log.Warn("responder profile read failed after accept",
			zap.Uint("request_id", req.ID),
			zap.Error(err))
		return nil
	}

	reqID := req.ID
	if err := s.notifier.Notify(ctx, NotifyInput{
		Type:            models.NotificationFriendAccepted,
		SenderID:        receiverID,
		ReceiverID:      req.SenderID,
		SenderName:      responder.Name,
		SenderAvatarURL: responder.AvatarURL,
		RequestID:       &reqID,
	}); err != nil {
		s.log.Warn("friend_accepted fan-out failed",
			zap.Uint("request_id", req.ID),
			zap.Error(err))
	}

	return nil
}

// CancelRequest withdraws the pending request from sender to receiver.
// Silently a no-op when no such request exists.
func (s *ConnectionService) CancelRequest(ctx context.Context, senderID, receiverID uint) error {
	req, err := s.store.PendingRequest(ctx, senderID, receiverID)
	if err != nil {
		return fmt.Errorf("finding pending request: %w", err)
	}
	if req == nil {
		return nil
	}
	return s.store.UpdateRequestStatus(ctx, req.ID, models.StatusCancelled)
}

// RemoveConnection deletes the friendship between two users. Idempotent:
// removing a connection that does not exist is not an error.
func (s *ConnectionService) RemoveConnection(ctx context.Context, a, b uint) error {
	return s.store.RemoveFriendship(ctx, a, b)
}

// QueryStatus derives the connection status from self's point of view.
// Friendship wins over any stale request in either direction.
func (s *ConnectionService) QueryStatus(ctx context.Context, selfID, otherID uint) (ConnectionStatus, error) {
	connected, err := s.store.AreFriends(ctx, selfID, otherID)
	if err != nil {
		return ConnectionNone, fmt.Errorf("checking friendship: %w", err)
	}
	if connected {
		return ConnectionConnected, nil
	}

	req, err := s.store.PendingRequest(ctx, selfID, otherID)
	if err != nil {
		return ConnectionNone, fmt.Errorf("checking pending request: %w", err)
	}
	if req != nil {
		return ConnectionPending, nil
	}
	return ConnectionNone, nil
}

// ListRequests returns self's pending requests, received and sent. The two
// lists come from independent queries; callers must not assume they reflect
// the same instant.
func (s *ConnectionService) ListRequests(ctx context.Context, selfID uint) (received, sent []models.ConnectionRequest, err error) {
	received, err = s.store.PendingByReceiver(ctx, selfID)
	if err != nil {
		return nil, nil, fmt.Errorf("listing received requests: %w", err)
	}
	sent, err = s.store.PendingBySender(ctx, selfID)
	if err != nil {
		return nil, nil, fmt.Errorf("listing sent requests: %w", err)
	}
	return received, sent, nil
}
