// Package notification decides who is told about an assessment lifecycle event.
package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"risk-assessment/internal/metrics"
	"risk-assessment/internal/models"
)

// StudyRoleResolver resolves the role a user holds for a study
type StudyRoleResolver interface {
	ResolveRole(ctx context.Context, studyID uint, email string) (models.Role, error)
}

// EventKind is the lifecycle event that triggers a notification
type EventKind int

const (
	EventSave EventKind = iota
	EventApprove
	EventReject
)

// Event is one lifecycle event on an assessment
type Event struct {
	Kind         EventKind
	AssessmentID uint
	StudyID      uint
	Actor        models.Actor
	// Reason and Comments are passed through for decisions
	Reason   string
	Comments *string
}

type template struct {
	reason   string
	comments string
}

var saveTemplates = map[models.NotificationAction]template{
	models.ActionInitialSave: {
		reason:   "Assessment saved by Principal Investigator",
		comments: "Assessment data saved successfully by PI",
	},
	models.ActionSDCreated: {
		reason:   "Assessment created by Study Director",
		comments: "Study Director has created an assessment that requires your review",
	},
}

// Router builds notifications. It never persists anything.
type Router struct {
	roles StudyRoleResolver
	now   func() time.Time
}

// NewRouter creates a router resolving roles through roles
func NewRouter(roles StudyRoleResolver) *Router {
	return &Router{roles: roles, now: time.Now}
}

// WithClock replaces the clock used for action dates
func (r *Router) WithClock(now func() time.Time) *Router {
	r.now = now
	return r
}

// Route builds the notification for any event kind.
// An unknown kind is a programming error and panics.
func (r *Router) Route(ctx context.Context, e Event) models.Notification {
	switch e.Kind {
	case EventSave:
		return r.ForSave(ctx, e)
	case EventApprove:
		return r.ForDecision(models.ActionApproved, e)
	case EventReject:
		return r.ForDecision(models.ActionRejected, e)
	default:
		panic(fmt.Sprintf("notification: unknown event kind %d", e.Kind))
	}
}

// ForSave resolves the actor's role for the study and targets the other role.
// An inconclusive or failed lookup falls back to PI.
func (r *Router) ForSave(ctx context.Context, e Event) models.Notification {
	role := r.actorRole(ctx, e)

	action := models.ActionInitialSave
	if role == models.RoleSD {
		action = models.ActionSDCreated
	}

	tpl := saveTemplates[action]
	comments := tpl.comments
	return r.build(e, action, role.Complement(), tpl.reason, &comments)
}

// ForDecision builds the PI-targeted notification for an SD decision.
// Only Approved and Rejected are decisions; anything else panics.
func (r *Router) ForDecision(action models.NotificationAction, e Event) models.Notification {
	switch action {
	case models.ActionApproved, models.ActionRejected:
	default:
		panic(fmt.Sprintf("notification: %q is not a decision", action))
	}
	return r.build(e, action, TargetFor(action), e.Reason, e.Comments)
}

func (r *Router) actorRole(ctx context.Context, e Event) models.Role {
	if r.roles == nil {
		return models.RolePI
	}

	role, err := r.roles.ResolveRole(ctx, e.StudyID, e.Actor.Email)
	if err != nil {
		metrics.NotificationFailures.WithLabelValues("lookup").Inc()
		slog.Warn("Role lookup failed, falling back to PI",
			"study_id", e.StudyID,
			"assessment_id", e.AssessmentID,
			"error", err,
		)
		return models.RolePI
	}
	if role != models.RolePI && role != models.RoleSD {
		slog.Info("Actor has no role for study, falling back to PI",
			"study_id", e.StudyID,
			"assessment_id", e.AssessmentID,
		)
		return models.RolePI
	}
	return role
}

func (r *Router) build(e Event, action models.NotificationAction, target models.Role, reason string, comments *string) models.Notification {
	return models.Notification{
		AssessmentID:   e.AssessmentID,
		StudyID:        e.StudyID,
		Action:         action,
		ActionByName:   e.Actor.Name,
		ActionByEmail:  e.Actor.Email,
		Reason:         reason,
		Comments:       comments,
		TargetUserType: target,
		ActionDate:     r.now(),
		ReadStatus:     false,
	}
}

// TargetFor returns the role that is told about an action.
// An unknown action panics.
func TargetFor(action models.NotificationAction) models.Role {
	switch action {
	case models.ActionInitialSave:
		return models.RoleSD
	case models.ActionSDCreated, models.ActionApproved, models.ActionRejected:
		return models.RolePI
	default:
		panic(fmt.Sprintf("notification: unknown action %q", action))
	}
}
