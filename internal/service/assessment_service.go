package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"risk-assessment/internal/apperr"
	"risk-assessment/internal/assessmentid"
	"risk-assessment/internal/audit"
	"risk-assessment/internal/models"
	"risk-assessment/internal/notification"
	"risk-assessment/internal/repository"
	"risk-assessment/internal/risk"
	"risk-assessment/pkg/validator"
)

// StudyStore reads studies and their PI/SD assignment
type StudyStore interface {
	GetByID(ctx context.Context, id uint) (*models.Study, error)
	ListForUser(ctx context.Context, email string) ([]repository.StudyAssignment, error)
	ResolveRole(ctx context.Context, studyID uint, email string) (models.Role, error)
}

// RiskFactorStore reads the risk factor catalogue
type RiskFactorStore interface {
	ExistingActive(ctx context.Context, ids []uint) (map[uint]bool, error)
	ListActive(ctx context.Context) ([]models.RiskFactor, error)
}

// RiskInput is the rating of one risk factor. Score and level are never accepted.
type RiskInput struct {
	RiskFactorID      uint    `json:"risk_factor_id" validate:"required" example:"3"`
	Severity          int     `json:"severity" example:"2"`
	Likelihood        int     `json:"likelihood" example:"3"`
	MitigationActions *string `json:"mitigation_actions,omitempty"`
	CustomNotes       *string `json:"custom_notes,omitempty"`
}

// SaveAssessmentInput is the body of a save, draft or submit request
type SaveAssessmentInput struct {
	StudyID            uint        `json:"study_id" validate:"required" example:"4"`
	AssessmentDate     string      `json:"assessment_date,omitempty" example:"2025-02-20"`
	NextReviewDate     *string     `json:"next_review_date,omitempty" example:"2025-08-20"`
	MonitoringSchedule *string     `json:"monitoring_schedule,omitempty" example:"Monthly"`
	Comments           *string     `json:"comments,omitempty"`
	RiskScores         []RiskInput `json:"risk_scores" validate:"dive"`
}

// DecisionInput is the body of an approve or reject request
type DecisionInput struct {
	Reason   string  `json:"reason" example:"Mitigation plan is complete"`
	Comments *string `json:"comments,omitempty"`
}

// SaveResult describes the outcome of a save
type SaveResult struct {
	Assessment   *models.Assessment             `json:"assessment"`
	RiskScores   []models.RiskRecordWithDerived `json:"risk_scores"`
	Created      bool                           `json:"created"`
	AuditEntries int                            `json:"audit_entries"`
	Notification *models.Notification           `json:"notification,omitempty"`
}

// DecisionResult describes the outcome of an approve or reject
type DecisionResult struct {
	Assessment   *models.Assessment   `json:"assessment"`
	Approval     *models.Approval     `json:"approval"`
	Notification *models.Notification `json:"notification,omitempty"`
}

// AssessmentDetail is an assessment with its risk records and decision history
type AssessmentDetail struct {
	Assessment *models.Assessment             `json:"assessment"`
	RiskScores []models.RiskRecordWithDerived `json:"risk_scores"`
	Approvals  []models.Approval              `json:"approvals"`
}

// EditPermission tells whether a user may edit the assessment of a study
type EditPermission struct {
	StudyID   uint          `json:"study_id"`
	CanEdit   bool          `json:"can_edit"`
	UserEmail string        `json:"user_email"`
	UserType  models.Role   `json:"user_type"`
	Reason    string        `json:"reason"`
	Study     *models.Study `json:"study"`
}

// AssessmentService runs the assessment lifecycle: save, submit, approve and reject.
// Audit entries and notifications are written after the primary change commits
// and never fail it.
type AssessmentService struct {
	assessments   repository.AssessmentStore
	studies       StudyStore
	factors       RiskFactorStore
	audits        *AuditService
	notifications *NotificationService
	now           func() time.Time
}

// NewAssessmentService creates a new assessment service
func NewAssessmentService(
	assessments repository.AssessmentStore,
	studies StudyStore,
	factors RiskFactorStore,
	audits *AuditService,
	notifications *NotificationService,
) *AssessmentService {
	return &AssessmentService{
		assessments:   assessments,
		studies:       studies,
		factors:       factors,
		audits:        audits,
		notifications: notifications,
		now:           time.Now,
	}
}

// Save stores a complete assessment. An existing assessment moves to Pending Review
// and loses its decision history. The counterpart role is notified.
func (s *AssessmentService) Save(ctx context.Context, in SaveAssessmentInput, actor models.Actor) (*SaveResult, error) {
	return s.save(ctx, in, actor, false)
}

// SaveDraft stores a partial assessment. It stays In Progress and nobody is notified.
func (s *AssessmentService) SaveDraft(ctx context.Context, in SaveAssessmentInput, actor models.Actor) (*SaveResult, error) {
	return s.save(ctx, in, actor, true)
}

// Submit saves the assessment and marks it Completed
func (s *AssessmentService) Submit(ctx context.Context, in SaveAssessmentInput, actor models.Actor) (*SaveResult, error) {
	res, err := s.save(ctx, in, actor, false)
	if err != nil {
		return nil, err
	}

	if err := s.assessments.UpdateStatus(ctx, res.Assessment.ID, models.StatusCompleted, actor); err != nil {
		return nil, err
	}
	res.Assessment.Status = models.StatusCompleted
	res.Assessment.UpdatedByName = actor.Name
	res.Assessment.UpdatedByEmail = actor.Email

	slog.Info("Assessment submitted",
		"assessment_id", res.Assessment.ID,
		"assessment_code", res.Assessment.AssessmentCode,
		"user", actor.Email,
	)
	return res, nil
}

func (s *AssessmentService) save(ctx context.Context, in SaveAssessmentInput, actor models.Actor, draft bool) (*SaveResult, error) {
	if err := validator.ValidateStruct(&in); err != nil {
		return nil, apperr.Validation("%v", err)
	}

	date, err := s.assessmentDate(in.AssessmentDate, draft)
	if err != nil {
		return nil, err
	}
	var nextReview *time.Time
	if in.NextReviewDate != nil && strings.TrimSpace(*in.NextReviewDate) != "" {
		d, err := assessmentid.ParseDate(*in.NextReviewDate)
		if err != nil {
			return nil, err
		}
		nextReview = &d
	}

	if err := validateRatings(in.RiskScores); err != nil {
		return nil, err
	}

	study, err := s.studies.GetByID(ctx, in.StudyID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Validation("study %d does not exist", in.StudyID)
	}
	if err != nil {
		return nil, err
	}

	if err := s.checkRiskFactors(ctx, in.RiskScores); err != nil {
		return nil, err
	}

	res := &SaveResult{}
	var changes []audit.Change

	err = s.assessments.InTx(ctx, func(tx repository.AssessmentStore) error {
		a, err := tx.LockByStudyID(ctx, study.ID)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			code, err := assessmentid.NewGenerator(tx).Generate(ctx, *study, date)
			if err != nil {
				return err
			}
			a = &models.Assessment{
				StudyID:          study.ID,
				AssessmentCode:   code,
				AssessmentDate:   date,
				Status:           models.StatusInProgress,
				ConductedByName:  actor.Name,
				ConductedByEmail: actor.Email,
				UpdatedByName:    actor.Name,
				UpdatedByEmail:   actor.Email,
			}
			if err := tx.Create(ctx, a); err != nil {
				return err
			}
			res.Created = true
		case err != nil:
			return err
		}

		for _, r := range in.RiskScores {
			rec := models.RiskRecord{
				AssessmentID:      a.ID,
				RiskFactorID:      r.RiskFactorID,
				Severity:          r.Severity,
				Likelihood:        r.Likelihood,
				MitigationActions: r.MitigationActions,
				CustomNotes:       r.CustomNotes,
			}

			old, err := tx.GetRiskRecordForUpdate(ctx, a.ID, r.RiskFactorID)
			if err != nil {
				return err
			}
			if err := tx.UpsertRiskRecord(ctx, rec, risk.Derive(rec)); err != nil {
				return err
			}

			op := audit.OpInsert
			if old != nil {
				op = audit.OpUpdate
			}
			changes = append(changes, audit.Change{Op: op, Old: old, New: &rec, Actor: actor})
		}

		records, err := tx.ListRiskRecords(ctx, a.ID)
		if err != nil {
			return err
		}
		res.RiskScores = records

		if in.AssessmentDate != "" || !draft {
			a.AssessmentDate = date
		}
		a.NextReviewDate = nextReview
		a.MonitoringSchedule = in.MonitoringSchedule
		a.Comments = in.Comments
		a.UpdatedByName = actor.Name
		a.UpdatedByEmail = actor.Email
		setOverall(a, records)

		switch {
		case draft:
			a.Status = models.StatusInProgress
		case !res.Created:
			a.Status = models.StatusPendingReview
			n, err := tx.Approvals().DeleteByAssessment(ctx, a.ID)
			if err != nil {
				return err
			}
			if n > 0 {
				slog.Info("Decision history reset", "assessment_id", a.ID, "removed", n)
			}
		}

		if err := tx.UpdateHeader(ctx, a); err != nil {
			return err
		}
		res.Assessment = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Assessment saved",
		"assessment_id", res.Assessment.ID,
		"assessment_code", res.Assessment.AssessmentCode,
		"created", res.Created,
		"draft", draft,
		"risk_scores", len(in.RiskScores),
		"user", actor.Email,
	)

	n, err := s.audits.Record(ctx, changes)
	if err != nil {
		slog.Error("Failed to record audit trail",
			"assessment_id", res.Assessment.ID,
			"changes", len(changes),
			"error", err,
		)
	}
	res.AuditEntries = n

	if !draft {
		res.Notification = s.notifications.Notify(ctx, notification.Event{
			Kind:         notification.EventSave,
			AssessmentID: res.Assessment.ID,
			StudyID:      res.Assessment.StudyID,
			Actor:        actor,
		})
	}

	return res, nil
}

// Approve records an SD approval and tells the PI
func (s *AssessmentService) Approve(ctx context.Context, assessmentID uint, in DecisionInput, actor models.Actor) (*DecisionResult, error) {
	return s.decide(ctx, assessmentID, in, actor, models.StatusApproved)
}

// Reject records an SD rejection and tells the PI. A reason is required.
func (s *AssessmentService) Reject(ctx context.Context, assessmentID uint, in DecisionInput, actor models.Actor) (*DecisionResult, error) {
	if err := validator.ValidateRequired("reason", in.Reason); err != nil {
		return nil, apperr.Validation("%v", err)
	}
	return s.decide(ctx, assessmentID, in, actor, models.StatusRejected)
}

func (s *AssessmentService) decide(ctx context.Context, assessmentID uint, in DecisionInput, actor models.Actor, status models.AssessmentStatus) (*DecisionResult, error) {
	res := &DecisionResult{}

	err := s.assessments.InTx(ctx, func(tx repository.AssessmentStore) error {
		a, err := tx.LockByID(ctx, assessmentID)
		if err != nil {
			return err
		}
		if !a.Status.Reviewable() {
			return apperr.InvalidStatus(string(a.Status))
		}

		if err := tx.UpdateStatus(ctx, a.ID, status, actor); err != nil {
			return err
		}
		a.Status = status
		a.UpdatedByName = actor.Name
		a.UpdatedByEmail = actor.Email

		approval := &models.Approval{
			AssessmentID:  a.ID,
			Action:        string(status),
			ActionByName:  actor.Name,
			ActionByEmail: actor.Email,
			Reason:        in.Reason,
			Comments:      in.Comments,
			ActionDate:    s.now(),
		}
		if err := tx.Approvals().Create(ctx, approval); err != nil {
			return err
		}

		res.Assessment = a
		res.Approval = approval
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Assessment decision recorded",
		"assessment_id", res.Assessment.ID,
		"decision", status,
		"user", actor.Email,
	)

	kind := notification.EventApprove
	if status == models.StatusRejected {
		kind = notification.EventReject
	}
	res.Notification = s.notifications.Notify(ctx, notification.Event{
		Kind:         kind,
		AssessmentID: res.Assessment.ID,
		StudyID:      res.Assessment.StudyID,
		Actor:        actor,
		Reason:       in.Reason,
		Comments:     in.Comments,
	})

	return res, nil
}

// Get returns an assessment with its risk records and decision history
func (s *AssessmentService) Get(ctx context.Context, assessmentID uint) (*AssessmentDetail, error) {
	a, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, a)
}

// GetByStudy returns the assessment of a study with its risk records and decision history
func (s *AssessmentService) GetByStudy(ctx context.Context, studyID uint) (*AssessmentDetail, error) {
	a, err := s.assessments.GetByStudyID(ctx, studyID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, a)
}

func (s *AssessmentService) detail(ctx context.Context, a *models.Assessment) (*AssessmentDetail, error) {
	records, err := s.assessments.ListRiskRecords(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	approvals, err := s.assessments.Approvals().ListByAssessment(ctx, a.ID)
	if err != nil {
		return nil, err
	}

	if records == nil {
		records = []models.RiskRecordWithDerived{}
	}
	if approvals == nil {
		approvals = []models.Approval{}
	}
	return &AssessmentDetail{Assessment: a, RiskScores: records, Approvals: approvals}, nil
}

// MyStudies returns the active studies where the actor is PI or SD
func (s *AssessmentService) MyStudies(ctx context.Context, actor models.Actor) ([]repository.StudyAssignment, error) {
	studies, err := s.studies.ListForUser(ctx, actor.Email)
	if err != nil {
		return nil, err
	}
	if studies == nil {
		studies = []repository.StudyAssignment{}
	}
	return studies, nil
}

// EditPermission reports whether the actor is PI or SD of an active study.
// Inactive and unknown studies are not found.
func (s *AssessmentService) EditPermission(ctx context.Context, studyID uint, actor models.Actor) (*EditPermission, error) {
	if strings.TrimSpace(actor.Email) == "" {
		return nil, apperr.ErrUnauthorized
	}

	study, err := s.studies.GetByID(ctx, studyID)
	if err != nil {
		return nil, err
	}
	if study.Status == models.StudyStatusInactive {
		return nil, apperr.NotFound("study", studyID)
	}

	role, err := s.studies.ResolveRole(ctx, studyID, actor.Email)
	if err != nil {
		return nil, err
	}

	p := &EditPermission{
		StudyID:   studyID,
		UserEmail: actor.Email,
		UserType:  role,
		Study:     study,
	}
	switch role {
	case models.RolePI:
		p.CanEdit = true
		p.Reason = "User is Principal Investigator"
	case models.RoleSD:
		p.CanEdit = true
		p.Reason = "User is Study Director"
	default:
		p.Reason = "User is not Principal Investigator or Study Director"
	}
	return p, nil
}

// RiskFactors returns the active risk factor catalogue
func (s *AssessmentService) RiskFactors(ctx context.Context) ([]models.RiskFactor, error) {
	factors, err := s.factors.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if factors == nil {
		factors = []models.RiskFactor{}
	}
	return factors, nil
}

func (s *AssessmentService) assessmentDate(raw string, draft bool) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		if !draft {
			return time.Time{}, apperr.Validation("assessment_date is required")
		}
		y, m, d := s.now().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return assessmentid.ParseDate(raw)
}

func (s *AssessmentService) checkRiskFactors(ctx context.Context, risks []RiskInput) error {
	if len(risks) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(risks))
	for _, r := range risks {
		ids = append(ids, r.RiskFactorID)
	}

	existing, err := s.factors.ExistingActive(ctx, ids)
	if err != nil {
		return err
	}

	var invalid []uint
	for _, id := range ids {
		if !existing[id] {
			invalid = append(invalid, id)
		}
	}
	if len(invalid) > 0 {
		return apperr.Validation("invalid risk factor ids: %v", invalid)
	}
	return nil
}

func validateRatings(risks []RiskInput) error {
	seen := make(map[uint]bool, len(risks))
	for i, r := range risks {
		if seen[r.RiskFactorID] {
			return apperr.Validation("risk_scores[%d]: risk factor %d appears more than once", i, r.RiskFactorID)
		}
		seen[r.RiskFactorID] = true

		if !risk.ValidRating(r.Severity) {
			return apperr.Validation("risk_scores[%d]: severity must be between %d and %d", i, risk.MinRating, risk.MaxRating)
		}
		if !risk.ValidRating(r.Likelihood) {
			return apperr.Validation("risk_scores[%d]: likelihood must be between %d and %d", i, risk.MinRating, risk.MaxRating)
		}
	}
	return nil
}

func setOverall(a *models.Assessment, records []models.RiskRecordWithDerived) {
	plain := make([]models.RiskRecord, len(records))
	for i, r := range records {
		plain[i] = r.RiskRecord
	}

	overall, ok := risk.Overall(plain)
	if !ok {
		a.OverallRiskScore = nil
		a.OverallRiskLevel = nil
		return
	}
	score := overall.RiskScore
	level := string(overall.RiskLevel)
	a.OverallRiskScore = &score
	a.OverallRiskLevel = &level
}

