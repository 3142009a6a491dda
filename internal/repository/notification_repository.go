package repository

import (
	"context"
	"fmt"
	"time"

	"risk-assessment/internal/apperr"
	"risk-assessment/internal/models"
)

// NotificationFilter selects notifications for a recipient role
type NotificationFilter struct {
	Target     models.Role
	ReadStatus *bool
	Limit      int
}

// NotificationRepository handles assessment_notifications database operations
type NotificationRepository struct {
	db Querier
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db Querier) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create appends a notification
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO assessment_notifications (
			assessment_id, study_id, action, action_by_name, action_by_email,
			reason, comments, target_user_type, action_date, read_status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false, $10)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		n.AssessmentID,
		n.StudyID,
		n.Action,
		n.ActionByName,
		n.ActionByEmail,
		n.Reason,
		n.Comments,
		n.TargetUserType,
		n.ActionDate,
		now,
	).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", dbError("create notification", err))
	}

	n.ReadStatus = false
	n.CreatedAt = now
	return nil
}

// MarkRead flips one notification to read. It reports whether the row changed;
// an already read notification is not an error.
func (r *NotificationRepository) MarkRead(ctx context.Context, id uint) (bool, error) {
	query := `
		WITH target AS (
			SELECT id, read_status FROM assessment_notifications WHERE id = $1 FOR UPDATE
		), flipped AS (
			UPDATE assessment_notifications n
			SET read_status = true, updated_at = $2
			FROM target t
			WHERE n.id = t.id AND NOT t.read_status
			RETURNING n.id
		)
		SELECT (SELECT COUNT(*) FROM target), (SELECT COUNT(*) FROM flipped)
	`

	var found, flipped int
	if err := r.db.QueryRowContext(ctx, query, id, time.Now()).Scan(&found, &flipped); err != nil {
		return false, fmt.Errorf("failed to mark notification as read: %w", dbError("mark notification read", err))
	}
	if found == 0 {
		return false, apperr.NotFound("notification", id)
	}

	return flipped > 0, nil
}

// MarkAllRead flips every unread notification of a role system-wide and returns how many changed
func (r *NotificationRepository) MarkAllRead(ctx context.Context, target models.Role) (int64, error) {
	query := `
		UPDATE assessment_notifications
		SET read_status = true, updated_at = $1
		WHERE target_user_type = $2 AND read_status = false
	`

	result, err := r.db.ExecContext(ctx, query, time.Now(), target)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", dbError("mark all read", err))
	}

	return result.RowsAffected()
}

// UnreadCount counts unread notifications of a role across all studies
func (r *NotificationRepository) UnreadCount(ctx context.Context, target models.Role) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assessment_notifications WHERE target_user_type = $1 AND read_status = false`,
		target,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", dbError("unread count", err))
	}

	return count, nil
}

// VisibleUnreadCount counts unread notifications of a role over the same
// study join as List, so notifications of inactive studies are left out.
func (r *NotificationRepository) VisibleUnreadCount(ctx context.Context, target models.Role) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM assessment_notifications n
		JOIN studies s ON s.id = n.study_id
		WHERE n.target_user_type = $1
		  AND s.status != $2
		  AND n.read_status = false
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, target, models.StudyStatusInactive).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count visible unread notifications: %w", dbError("visible unread count", err))
	}

	return count, nil
}

// List returns the newest notifications of a role joined with their study.
// Notifications of inactive studies are left out.
func (r *NotificationRepository) List(ctx context.Context, f NotificationFilter) ([]models.NotificationWithStudy, error) {
	query := `
		SELECT n.id, n.assessment_id, n.study_id, n.action, n.action_by_name, n.action_by_email,
			n.reason, n.comments, n.target_user_type, n.action_date, n.read_status,
			n.created_at, n.updated_at,
			s.site, s.sponsor, s.protocol, s.status,
			s.principal_investigator, s.principal_investigator_email,
			s.site_director, s.site_director_email
		FROM assessment_notifications n
		JOIN studies s ON s.id = n.study_id
		WHERE n.target_user_type = $1
		  AND s.status != $2
		  AND ($3::boolean IS NULL OR n.read_status = $3)
		ORDER BY n.action_date DESC, n.id DESC
		LIMIT $4
	`

	rows, err := r.db.QueryContext(ctx, query, f.Target, models.StudyStatusInactive, f.ReadStatus, f.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", dbError("list notifications", err))
	}
	defer rows.Close()

	var out []models.NotificationWithStudy
	for rows.Next() {
		var n models.NotificationWithStudy
		if err := rows.Scan(
			&n.ID,
			&n.AssessmentID,
			&n.StudyID,
			&n.Action,
			&n.ActionByName,
			&n.ActionByEmail,
			&n.Reason,
			&n.Comments,
			&n.TargetUserType,
			&n.ActionDate,
			&n.ReadStatus,
			&n.CreatedAt,
			&n.UpdatedAt,
			&n.Study.Site,
			&n.Study.Sponsor,
			&n.Study.Protocol,
			&n.Study.Status,
			&n.Study.PrincipalInvestigator,
			&n.Study.PrincipalInvestigatorEmail,
			&n.Study.SiteDirector,
			&n.Study.SiteDirectorEmail,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, n)
	}

	return out, rows.Err()
}
