package service

import (
	"context"
	"testing"

	"runny/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	alice = uint(1)
	bob   = uint(2)
	carol = uint(3)
)

func newConnectionFixture(t *testing.T) (*ConnectionService, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	store.addUser(alice, "alice", "https://img.example/alice.png")
	store.addUser(bob, "bob", "https://img.example/bob.png")
	store.addUser(carol, "carol", "")

	notifier := NewNotificationService(store, nil, zap.NewNop())
	svc := NewConnectionService(store, store, notifier, zap.NewNop())
	return svc, store
}

func TestSendRequestCreatesPendingAndNotifies(t *testing.T) {
	svc, store := newConnectionFixture(t)
	ctx := context.Background()

	req, err := svc.SendRequest(ctx, alice, bob)
	require.NoError(t, err)
	require.NotZero(t, req.ID)
	assert.Equal(t, models.StatusPending, req.Status)

	notifications := store.notificationsOf(bob, models.NotificationFriendRequest)
	require.Len(t, notifications, 1)
	assert.Equal(t, alice, notifications[0].SenderID)
	assert.Equal(t, "alice", notifications[0].SenderName)
	assert.Equal(t, "https://img.example/alice.png", notifications[0].SenderAvatarURL)
	assert.False(t, notifications[0].Read)
	require.NotNil(t, notifications[0].RequestID)
	assert.Equal(t, req.ID, *notifications[0].RequestID)
}

func TestSendRequestToSelf(t *testing.T) {
	svc, _ := newConnectionFixture(t)

	_, err := svc.SendRequest(context.Background(), alice, alice)
	assert.ErrorIs(t, err, ErrSelfRequest)
}

func TestSendRequestDuplicate(t *testing.T) {
	svc, store := newConnectionFixture(t)
	ctx := context.Background()

	_, err := svc.SendRequest(ctx, alice, bob)
	require.NoError(t, err)

	_, err = svc.SendRequest(ctx, alice, bob)
	assert.ErrorIs(t, err, ErrDuplicateRequest)

	// Never two simultaneous pending requests for the same ordered pair.
	pending, err := store.PendingByReceiver(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestSendRequestWhenAlreadyConnected(t *testing.T) {
	svc, store := newConnectionFixture(t)
	ctx := context.Background()

	store.friends[[2]uint{alice, bob}] = true
	store.friends[[2]uint{bob, alice}] = true

	_, err := svc.SendRequest(ctx, alice, bob)
	assert.ErrorIs(t, err, ErrAlreadyConnected)
}

func TestAcceptCreatesSymmetricFriendship(t *testing.T) {
	svc, store := newConnectionFixture(t)
	ctx := context.Background()

	req, err := svc.SendRequest(ctx, alice, bob)
	require.NoError(t, err)

	received, _, err := svc.ListRequests(ctx, bob)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, alice, received[0].SenderID)
	assert.Equal(t, models.StatusPending, received[0].Status)

	require.NoError(t, svc.RespondToRequest(ctx, bob, req.ID, RespondAccept))

	// Friendship must hold in both directions, never one without the other.
	ab, err := store.AreFriends(ctx, alice, bob)
	require.NoError(t, err)
	ba, err := store.AreFriends(ctx, bob, alice)
	require.NoError(t, err)
	assert.True(t, ab)
	assert.True(t, ba)

	stored, err := store.RequestByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, stored.Status)

	// Exactly one friend_accepted notification, addressed to the original
	// sender, from the responder.
	notifications := store.notificationsOf(alice, models.NotificationFriendAccepted)
	require.Len(t, notifications, 1)
	assert.Equal(t, bob, notifications[0].SenderID)
	assert.Equal(t, "bob", notifications[0].SenderName)
}

func TestAcceptFailureLeavesStateUntouched(t *testing.T) {
	svc, store := newConnectionFixture(t)
	ctx := context.Background()

	req, err := svc.SendRequest(ctx, alice, bob)
	require.NoError(t, err)

	store.failAccept = true
	err = svc.RespondToRequest(ctx, bob, req.ID, RespondAccept)
	require.Error(t, err)

	// Neither side of the friendship may be applied.
	ab, _ := store.AreFriends(ctx, alice, bob)
	ba, _ := store.AreFriends(ctx, bob, alice)
	assert.False(t, ab)
	assert.False(t, ba)

	// The request is still pending and no friend_accepted was fanned out.
	stored, err := store.RequestByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Empty(t, store.notificationsOf(alice, models.NotificationFriendAccepted))
}

func TestAcceptTwice(t *testing.T) {
	svc, store := newConnectionFixture(t)
	ctx := context.Background()

	req, err := svc.SendRequest(ctx, alice, bob)
	require.NoError(t, err)

	require.NoError(t, svc.RespondToRequest(ctx, bob, req.ID, RespondAccept))
	err = svc.RespondToRequest(ctx, bob, req.ID, RespondAccept)
	assert.ErrorIs(t, err, ErrNotPending)

	// Still exactly one notification for the single successful accept.
	assert.Len(t, store.notificationsOf(alice, models.NotificationFriendAccepted), 1)
}

func TestAcceptSurvivesSnapshotReadFailure(t *testing.T) {
	svc, store := newConnectionFixture(t)
	ctx := context.Background()

	req, err := svc.SendRequest(ctx, alice, bob)
	require.NoError(t, err)

	// The accept is committed before the responder's profile is read for the
	// notification snapshot; a failed read must not unwind it.
	store.failUserRead = true
	require.NoError(t, svc.RespondToRequest(ctx, bob, req.ID, RespondAccept))

	ab, _ := store.AreFriends(ctx, alice, bob)
	assert.True(t, ab)
	assert.Empty(t, store.notificationsOf(alice, models.NotificationFriendAccepted))
}

func TestRejectCommitsStatusAlone(t *testing.T) {
	svc, store := newConnectionFixture(t)
	ctx := context.Background()

	req, err := svc.SendRequest(ctx, alice, bob)
	require.NoError(t, err)

	require.NoError(t, svc.RespondToRequest(ctx, bob, req.ID, RespondReject))

	stored, err := store.RequestByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, stored.Status)

	ab, _ := store.AreFriends(ctx, alice, bob)
	assert.False(t, ab)
	assert.Empty(t, store.notificationsOf(alice, models.NotificationFriendAccepted))
}

func TestRespondUnknownAction(t *testing.T) {
	svc, store := newConnectionFixture(t)
	ctx := context.Background()

	req, err := svc.SendRequest(ctx, alice, bob)
	require.NoError(t, err)

	err = svc.RespondToRequest(ctx, bob, req.ID, RespondAction("approve"))
	assert.ErrorIs(t, err, ErrInvalidAction)

	stored, err := store.RequestByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)

	ab, _ := store.AreFriends(ctx, alice, bob)
	assert.False(t, ab)
}

func TestRespondNotReceiver(t *testing.T) {
	svc, _ := newConnectionFixture(t)
	ctx := context.Background()

	req, err := svc.SendRequest(ctx, alice, bob)
	require.NoError(t, err)

	err = svc.RespondToRequest(ctx, carol, req.ID, RespondAccept)
	assert.ErrorIs(t, err, ErrNotReceiver)
}

func TestCancelRequest(t *testing.T) {
	svc, store := newConnectionFixture(t)
	ctx := context.Background()

	req, err := svc.SendRequest(ctx, alice, bob)
	require.NoError(t, err)

	require.NoError(t, svc.CancelRequest(ctx, alice, bob))

	stored, err := store.RequestByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, stored.Status)

	status, err := svc.QueryStatus(ctx, alice, bob)
	require.NoError(t, err)
	assert.Equal(t, ConnectionNone, status)

	received, _, err := svc.ListRequests(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, received)
}

func TestCancelWithoutPendingIsNoop(t *testing.T) {
	svc, _ := newConnectionFixture(t)

	assert.NoError(t, svc.CancelRequest(context.Background(), alice, bob))
}

func TestRemoveConnectionIdempotent(t *testing.T) {
	svc, store := newConnectionFixture(t)
	ctx := context.Background()

	req, err := svc.SendRequest(ctx, alice, bob)
	require.NoError(t, err)
	require.NoError(t, svc.RespondToRequest(ctx, bob, req.ID, RespondAccept))

	require.NoError(t, svc.RemoveConnection(ctx, alice, bob))
	require.NoError(t, svc.RemoveConnection(ctx, alice, bob))

	ab, _ := store.AreFriends(ctx, alice, bob)
	ba, _ := store.AreFriends(ctx, bob, alice)
	assert.False(t, ab)
	assert.False(t, ba)
}

func TestQueryStatusConnectedWinsOverStalePending(t *testing.T) {
	svc, store := newConnectionFixture(t)
	ctx := context.Background()

	// A stale pending request alongside an established friendship.
	_, err := svc.SendRequest(ctx, alice, bob)
	require.NoError(t, err)
	store.friends[[2]uint{alice, bob}] = true
	store.friends[[2]uint{bob, alice}] = true

	status, err := svc.QueryStatus(ctx, alice, bob)
	require.NoError(t, err)
	assert.Equal(t, ConnectionConnected, status)
}

func TestQueryStatusIsDirectional(t *testing.T) {
	svc, _ := newConnectionFixture(t)
	ctx := context.Background()

	_, err := svc.SendRequest(ctx, alice, bob)
	require.NoError(t, err)

	// The sender sees pending; the receiver sees none. Received requests
	// surface through ListRequests instead.
	status, err := svc.QueryStatus(ctx, alice, bob)
	require.NoError(t, err)
	assert.Equal(t, ConnectionPending, status)

	status, err = svc.QueryStatus(ctx, bob, alice)
	require.NoError(t, err)
	assert.Equal(t, ConnectionNone, status)
}

func TestListRequestsSplitsByDirection(t *testing.T) {
	svc, _ := newConnectionFixture(t)
	ctx := context.Background()

	_, err := svc.SendRequest(ctx, alice, bob)
	require.NoError(t, err)
	_, err = svc.SendRequest(ctx, bob, carol)
	require.NoError(t, err)

	received, sent, err := svc.ListRequests(ctx, bob)
	require.NoError(t, err)
	require.Len(t, received, 1)
	require.Len(t, sent, 1)
	assert.Equal(t, alice, received[0].SenderID)
	assert.Equal(t, carol, sent[0].ReceiverID)
}

func TestSendRequestSucceedsWhenFanoutFails(t *testing.T) {
	svc, store := newConnectionFixture(t)
	ctx := context.Background()

	store.failCreateNotification = true
	req, err := svc.SendRequest(ctx, alice, bob)
	require.NoError(t, err)

	// The request itself is committed even though the fan-out failed.
	stored, err := store.RequestByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Empty(t, store.notificationsOf(bob, models.NotificationFriendRequest))
}
