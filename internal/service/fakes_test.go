package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"runny/backend/internal/models"

	"gorm.io/gorm"
)

// errInjected stands in for an arbitrary store failure in tests.
var errInjected = errors.New("injected store failure")

// fakeStore is an in-memory stand-in for the gorm store. It implements
// every store interface the services need so a single instance can back a
// whole wired-together service graph in tests. failAccept and friends let
// tests inject failures at the transactional steps.
type fakeStore struct {
	mu sync.Mutex

	nextRequestID      uint
	nextNotificationID uint

	users         map[uint]*models.User
	requests      map[uint]*models.ConnectionRequest
	friends       map[[2]uint]bool
	notifications []*models.Notification

	runs     map[uint]*models.Run
	members  map[uint][]uint
	joinReqs map[[2]uint]*models.JoinRequest

	failAccept             bool
	failAcceptJoin         bool
	failCreateNotification bool
	failUserRead           bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[uint]*models.User),
		requests: make(map[uint]*models.ConnectionRequest),
		friends:  make(map[[2]uint]bool),
		runs:     make(map[uint]*models.Run),
		members:  make(map[uint][]uint),
		joinReqs: make(map[[2]uint]*models.JoinRequest),
	}
}

func (f *fakeStore) addUser(id uint, name, avatarURL string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id] = &models.User{
		Model:     gorm.Model{ID: id},
		Name:      name,
		AvatarURL: avatarURL,
	}
}

func (f *fakeStore) addRun(id, hostID uint, maxMembers int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[id] = &models.Run{
		Model:      gorm.Model{ID: id},
		HostID:     hostID,
		Title:      "morning run",
		MaxMembers: maxMembers,
	}
	f.members[id] = []uint{hostID}
}

// --- UserStore ---

func (f *fakeStore) UserByID(_ context.Context, id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUserRead {
		return nil, errInjected
	}
	user, ok := f.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *user
	return &copied, nil
}

// --- ConnectionStore ---

func (f *fakeStore) CreateRequest(_ context.Context, req *models.ConnectionRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextRequestID++
	req.ID = f.nextRequestID
	req.CreatedAt = time.Now()
	copied := *req
	f.requests[req.ID] = &copied
	return nil
}

func (f *fakeStore) RequestByID(_ context.Context, id uint) (*models.ConnectionRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	copied := *req
	return &copied, nil
}

func (f *fakeStore) PendingRequest(_ context.Context, senderID, receiverID uint) (*models.ConnectionRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range f.requests {
		if req.SenderID == senderID && req.ReceiverID == receiverID && req.Status == models.StatusPending {
			copied := *req
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) PendingByReceiver(_ context.Context, receiverID uint) ([]models.ConnectionRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ConnectionRequest
	for _, req := range f.requests {
		if req.ReceiverID == receiverID && req.Status == models.StatusPending {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (f *fakeStore) PendingBySender(_ context.Context, senderID uint) ([]models.ConnectionRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ConnectionRequest
	for _, req := range f.requests {
		if req.SenderID == senderID && req.Status == models.StatusPending {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateRequestStatus(_ context.Context, id uint, status models.RequestStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok || req.Status != models.StatusPending {
		return ErrNotPending
	}
	req.Status = status
	return nil
}

func (f *fakeStore) AcceptRequest(_ context.Context, id, senderID, receiverID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAccept {
		// Simulated transaction rollback: nothing changes.
		return errInjected
	}
	req, ok := f.requests[id]
	if !ok || req.Status != models.StatusPending {
		return ErrNotPending
	}
	req.Status = models.StatusAccepted
	f.friends[[2]uint{senderID, receiverID}] = true
	f.friends[[2]uint{receiverID, senderID}] = true
	return nil
}

func (f *fakeStore) AreFriends(_ context.Context, a, b uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.friends[[2]uint{a, b}], nil
}

func (f *fakeStore) RemoveFriendship(_ context.Context, a, b uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.friends, [2]uint{a, b})
	delete(f.friends, [2]uint{b, a})
	return nil
}

// --- NotificationStore ---

func (f *fakeStore) CreateNotification(_ context.Context, n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreateNotification {
		return errInjected
	}
	f.nextNotificationID++
	n.ID = f.nextNotificationID
	n.CreatedAt = time.Now()
	copied := *n
	f.notifications = append(f.notifications, &copied)
	return nil
}

func (f *fakeStore) NotificationByID(_ context.Context, id uint) (*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.notifications {
		if n.ID == id {
			copied := *n
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) NotificationsByReceiver(_ context.Context, receiverID uint, page, limit int) ([]models.Notification, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []models.Notification
	// Newest first: walk the append-only log backwards.
	for i := len(f.notifications) - 1; i >= 0; i-- {
		if f.notifications[i].ReceiverID == receiverID {
			all = append(all, *f.notifications[i])
		}
	}
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (f *fakeStore) UnreadCount(_ context.Context, receiverID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, n := range f.notifications {
		if n.ReceiverID == receiverID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) MarkNotificationRead(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.notifications {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return ErrNotFound
}

// notificationsOf returns the receiver's notifications of one type, oldest first.
func (f *fakeStore) notificationsOf(receiverID uint, typ models.NotificationType) []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Notification
	for _, n := range f.notifications {
		if n.ReceiverID == receiverID && n.Type == typ {
			out = append(out, *n)
		}
	}
	return out
}

// --- RunStore ---

func (f *fakeStore) RunByID(_ context.Context, id uint) (*models.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *run
	copied.Members = nil
	for _, memberID := range f.members[id] {
		if user, ok := f.users[memberID]; ok {
			copied.Members = append(copied.Members, *user)
		} else {
			copied.Members = append(copied.Members, models.User{Model: gorm.Model{ID: memberID}})
		}
	}
	return &copied, nil
}

func (f *fakeStore) JoinRequestFor(_ context.Context, runID, userID uint) (*models.JoinRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.joinReqs[[2]uint{runID, userID}]
	if !ok {
		return nil, nil
	}
	copied := *req
	return &copied, nil
}

func (f *fakeStore) CreateJoinRequest(_ context.Context, req *models.JoinRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	req.CreatedAt = time.Now()
	copied := *req
	f.joinReqs[[2]uint{req.RunID, req.UserID}] = &copied
	return nil
}

func (f *fakeStore) PendingJoinRequests(_ context.Context, runID uint) ([]models.JoinRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.JoinRequest
	for _, req := range f.joinReqs {
		if req.RunID == runID && req.Status == models.StatusPending {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (f *fakeStore) ReopenJoinRequest(_ context.Context, req *models.JoinRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.joinReqs[[2]uint{req.RunID, req.UserID}]
	if !ok || (stored.Status != models.StatusRejected && stored.Status != models.StatusCancelled) {
		return ErrDuplicateRequest
	}
	req.CreatedAt = time.Now()
	stored.Status = models.StatusPending
	stored.UserName = req.UserName
	stored.UserAvatarURL = req.UserAvatarURL
	stored.CreatedAt = req.CreatedAt
	return nil
}

func (f *fakeStore) UpdateJoinRequestStatus(_ context.Context, runID, userID uint, status models.RequestStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.joinReqs[[2]uint{runID, userID}]
	if !ok {
		return ErrRequestNotFound
	}
	if req.Status != models.StatusPending {
		return ErrNotPending
	}
	req.Status = status
	return nil
}

func (f *fakeStore) AcceptJoinRequest(_ context.Context, runID, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAcceptJoin {
		return errInjected
	}
	req, ok := f.joinReqs[[2]uint{runID, userID}]
	if !ok || req.Status != models.StatusPending {
		return ErrNotPending
	}
	req.Status = models.StatusAccepted
	f.members[runID] = append(f.members[runID], userID)
	return nil
}

func (f *fakeStore) RemoveMember(_ context.Context, runID, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	remaining := f.members[runID][:0]
	for _, memberID := range f.members[runID] {
		if memberID != userID {
			remaining = append(remaining, memberID)
		}
	}
	f.members[runID] = remaining
	return nil
}

func (f *fakeStore) TransferHost(_ context.Context, runID, newHostID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[runID]
	if !ok {
		return ErrNotFound
	}
	run.HostID = newHostID
	return nil
}

func (f *fakeStore) DeleteRun(_ context.Context, runID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.runs, runID)
	delete(f.members, runID)
	return nil
}

// fakePublisher records hub publishes.
type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	UserID    uint
	EventType string
	Payload   any
}

func (p *fakePublisher) Publish(userID uint, eventType string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{UserID: userID, EventType: eventType, Payload: payload})
}
