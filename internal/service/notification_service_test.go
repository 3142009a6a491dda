package service

import (
	"context"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"risk-assessment/internal/apperr"
	"risk-assessment/internal/config"
	"risk-assessment/internal/metrics"
	"risk-assessment/internal/models"
	"risk-assessment/internal/notification"
)

func newTestNotificationService(store *memNotifications) *NotificationService {
	return NewNotificationService(store, notification.NewRouter(newMemStudies()), config.NotificationConfig{ListLimit: 50})
}

func TestNotificationService_Notify(t *testing.T) {
	store := &memNotifications{}
	s := newTestNotificationService(store)
	ctx := context.Background()
	before := promtest.ToFloat64(metrics.NotificationsCreated.WithLabelValues("SD Created", "PI"))

	n := s.Notify(ctx, notification.Event{Kind: notification.EventSave, AssessmentID: 1, StudyID: 4, Actor: sd})
	require.NotNil(t, n)
	assert.NotZero(t, n.ID)
	assert.Equal(t, models.ActionSDCreated, n.Action)
	assert.False(t, n.ReadStatus)
	assert.Equal(t, before+1, promtest.ToFloat64(metrics.NotificationsCreated.WithLabelValues("SD Created", "PI")))

	store.createErr = assert.AnError
	assert.Nil(t, s.Notify(ctx, notification.Event{Kind: notification.EventApprove, AssessmentID: 1, StudyID: 4, Actor: sd}))
	assert.Len(t, store.all(), 1)
}

func TestNotificationService_ReadState(t *testing.T) {
	store := &memNotifications{}
	s := newTestNotificationService(store)
	ctx := context.Background()

	for _, kind := range []notification.EventKind{notification.EventApprove, notification.EventReject} {
		require.NotNil(t, s.Notify(ctx, notification.Event{Kind: kind, AssessmentID: 1, StudyID: 4, Actor: sd, Reason: "r"}))
	}
	require.NotNil(t, s.Notify(ctx, notification.Event{Kind: notification.EventSave, AssessmentID: 1, StudyID: 4, Actor: pi}))

	count, err := s.UnreadCount(ctx, models.RolePI)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	list, err := s.List(ctx, models.RolePI, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, 2, list.UnreadCount)
	assert.Equal(t, models.ActionRejected, list.Notifications[0].Action)

	t.Run("mark read is idempotent", func(t *testing.T) {
		id := list.Notifications[0].ID
		before := promtest.ToFloat64(metrics.NotificationsMarkedRead.WithLabelValues("single"))

		require.NoError(t, s.MarkRead(ctx, id))
		require.NoError(t, s.MarkRead(ctx, id))

		assert.Equal(t, before+1, promtest.ToFloat64(metrics.NotificationsMarkedRead.WithLabelValues("single")))
		count, err := s.UnreadCount(ctx, models.RolePI)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("unknown id", func(t *testing.T) {
		assert.ErrorIs(t, s.MarkRead(ctx, 999), apperr.ErrNotFound)
	})

	t.Run("filter by read state", func(t *testing.T) {
		unread := false
		list, err := s.List(ctx, models.RolePI, &unread)
		require.NoError(t, err)
		require.Len(t, list.Notifications, 1)
		assert.Equal(t, models.ActionApproved, list.Notifications[0].Action)
	})

	t.Run("mark all read", func(t *testing.T) {
		n, err := s.MarkAllRead(ctx, models.RolePI)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		count, err := s.UnreadCount(ctx, models.RolePI)
		require.NoError(t, err)
		assert.Zero(t, count)

		// the other role is untouched
		count, err = s.UnreadCount(ctx, models.RoleSD)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		n, err = s.MarkAllRead(ctx, models.RolePI)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("list count matches listed studies", func(t *testing.T) {
		store := &memNotifications{inactive: map[uint]bool{9: true}}
		s := newTestNotificationService(store)
		require.NotNil(t, s.Notify(ctx, notification.Event{Kind: notification.EventReject, AssessmentID: 1, StudyID: 4, Actor: sd, Reason: "r"}))
		require.NotNil(t, s.Notify(ctx, notification.Event{Kind: notification.EventReject, AssessmentID: 2, StudyID: 9, Actor: sd, Reason: "r"}))

		list, err := s.List(ctx, models.RolePI, nil)
		require.NoError(t, err)
		require.Len(t, list.Notifications, 1)
		assert.Equal(t, 1, list.UnreadCount)

		count, err := s.UnreadCount(ctx, models.RolePI)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("empty list", func(t *testing.T) {
		list, err := newTestNotificationService(&memNotifications{}).List(ctx, models.RoleSD, nil)
		require.NoError(t, err)
		assert.NotNil(t, list.Notifications)
		assert.Zero(t, list.Total)
	})
}
