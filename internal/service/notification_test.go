package service

import (
	"context"
	"testing"

	"runny/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNotifyRejectsEmptyRecipient(t *testing.T) {
	store := newFakeStore()
	svc := NewNotificationService(store, nil, zap.NewNop())

	err := svc.Notify(context.Background(), NotifyInput{
		Type:     models.NotificationFriendRequest,
		SenderID: alice,
	})
	assert.ErrorIs(t, err, ErrInvalidRecipient)

	// Nothing may be written before validation.
	assert.Empty(t, store.notifications)
}

func TestNotifyPersistsUnreadAndPublishes(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := NewNotificationService(store, pub, zap.NewNop())

	err := svc.Notify(context.Background(), NotifyInput{
		Type:       models.NotificationFriendRequest,
		SenderID:   alice,
		ReceiverID: bob,
		SenderName: "alice",
	})
	require.NoError(t, err)

	require.Len(t, store.notifications, 1)
	assert.False(t, store.notifications[0].Read)

	require.Len(t, pub.events, 1)
	assert.Equal(t, bob, pub.events[0].UserID)
	assert.Equal(t, "notification", pub.events[0].EventType)
}

func TestListNewestFirst(t *testing.T) {
	store := newFakeStore()
	svc := NewNotificationService(store, nil, zap.NewNop())
	ctx := context.Background()

	types := []models.NotificationType{
		models.NotificationFriendRequest,
		models.NotificationFriendAccepted,
		models.NotificationJoinRequest,
	}
	for _, typ := range types {
		require.NoError(t, svc.Notify(ctx, NotifyInput{Type: typ, SenderID: alice, ReceiverID: bob}))
	}

	notifications, total, err := svc.List(ctx, bob, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, notifications, 3)
	assert.Equal(t, models.NotificationJoinRequest, notifications[0].Type)
	assert.Equal(t, models.NotificationFriendRequest, notifications[2].Type)
}

func TestListPaginates(t *testing.T) {
	store := newFakeStore()
	svc := NewNotificationService(store, nil, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Notify(ctx, NotifyInput{
			Type:       models.NotificationFriendRequest,
			SenderID:   alice,
			ReceiverID: bob,
		}))
	}

	page1, total, err := svc.List(ctx, bob, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, page1, 2)

	page3, _, err := svc.List(ctx, bob, 3, 2)
	require.NoError(t, err)
	assert.Len(t, page3, 1)
}

func TestUnreadCountAndMarkRead(t *testing.T) {
	store := newFakeStore()
	svc := NewNotificationService(store, nil, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.Notify(ctx, NotifyInput{Type: models.NotificationFriendRequest, SenderID: alice, ReceiverID: bob}))
	require.NoError(t, svc.Notify(ctx, NotifyInput{Type: models.NotificationFriendAccepted, SenderID: carol, ReceiverID: bob}))

	count, err := svc.UnreadCount(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, svc.MarkRead(ctx, bob, store.notifications[0].ID))

	count, err = svc.UnreadCount(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Marking an already-read notification again is a no-op.
	require.NoError(t, svc.MarkRead(ctx, bob, store.notifications[0].ID))
	count, err = svc.UnreadCount(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMarkReadOwnerOnly(t *testing.T) {
	store := newFakeStore()
	svc := NewNotificationService(store, nil, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.Notify(ctx, NotifyInput{Type: models.NotificationFriendRequest, SenderID: alice, ReceiverID: bob}))

	err := svc.MarkRead(ctx, carol, store.notifications[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, store.notifications[0].Read)
}
