package service

import (
	"context"
	"log/slog"

	"risk-assessment/internal/config"
	"risk-assessment/internal/metrics"
	"risk-assessment/internal/models"
	"risk-assessment/internal/notification"
	"risk-assessment/internal/repository"
)

// NotificationStore persists notifications and their read state
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	MarkRead(ctx context.Context, id uint) (bool, error)
	MarkAllRead(ctx context.Context, target models.Role) (int64, error)
	UnreadCount(ctx context.Context, target models.Role) (int, error)
	VisibleUnreadCount(ctx context.Context, target models.Role) (int, error)
	List(ctx context.Context, f repository.NotificationFilter) ([]models.NotificationWithStudy, error)
}

// NotificationList is one page of notifications for a role
type NotificationList struct {
	Notifications []models.NotificationWithStudy `json:"notifications"`
	UnreadCount   int                            `json:"unread_count"`
	Total         int                            `json:"total"`
}

// NotificationService routes lifecycle events to notifications and tracks their read state
type NotificationService struct {
	store     NotificationStore
	router    *notification.Router
	listLimit int
}

// NewNotificationService creates a new notification service
func NewNotificationService(store NotificationStore, router *notification.Router, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		store:     store,
		router:    router,
		listLimit: cfg.ListLimit,
	}
}

// Notify builds and stores the notification for an event. Failures are logged
// and counted but never returned, the triggering operation has already committed.
func (s *NotificationService) Notify(ctx context.Context, e notification.Event) *models.Notification {
	n := s.router.Route(ctx, e)

	if err := s.store.Create(ctx, &n); err != nil {
		metrics.NotificationFailures.WithLabelValues("persist").Inc()
		slog.Error("Failed to store notification",
			"assessment_id", e.AssessmentID,
			"action", n.Action,
			"target", n.TargetUserType,
			"error", err,
		)
		return nil
	}

	metrics.NotificationsCreated.WithLabelValues(string(n.Action), string(n.TargetUserType)).Inc()
	slog.Info("Notification created",
		"notification_id", n.ID,
		"assessment_id", n.AssessmentID,
		"action", n.Action,
		"target", n.TargetUserType,
	)
	return &n
}

// List returns the newest notifications of a role plus the unread count of the
// same listing, which leaves out inactive studies. A nil readStatus returns read
// and unread notifications.
func (s *NotificationService) List(ctx context.Context, target models.Role, readStatus *bool) (*NotificationList, error) {
	items, err := s.store.List(ctx, repository.NotificationFilter{
		Target:     target,
		ReadStatus: readStatus,
		Limit:      s.listLimit,
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.NotificationWithStudy{}
	}

	unread, err := s.store.VisibleUnreadCount(ctx, target)
	if err != nil {
		return nil, err
	}

	return &NotificationList{
		Notifications: items,
		UnreadCount:   unread,
		Total:         len(items),
	}, nil
}

// MarkRead marks one notification as read. Marking a read notification again succeeds.
func (s *NotificationService) MarkRead(ctx context.Context, id uint) error {
	changed, err := s.store.MarkRead(ctx, id)
	if err != nil {
		return err
	}
	if changed {
		metrics.NotificationsMarkedRead.WithLabelValues("single").Inc()
	}
	return nil
}

// MarkAllRead marks every unread notification of a role as read, across all studies
func (s *NotificationService) MarkAllRead(ctx context.Context, target models.Role) (int64, error) {
	n, err := s.store.MarkAllRead(ctx, target)
	if err != nil {
		return 0, err
	}
	metrics.NotificationsMarkedRead.WithLabelValues("all").Add(float64(n))
	slog.Info("Notifications marked as read", "target", target, "count", n)
	return n, nil
}

// UnreadCount counts the unread notifications of a role across all studies
func (s *NotificationService) UnreadCount(ctx context.Context, target models.Role) (int, error) {
	return s.store.UnreadCount(ctx, target)
}
