package service

import (
	"context"
	"errors"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"risk-assessment/internal/apperr"
	"risk-assessment/internal/assessmentid"
	"risk-assessment/internal/metrics"
	"risk-assessment/internal/models"
)

func saveInput(risks ...RiskInput) SaveAssessmentInput {
	return SaveAssessmentInput{
		StudyID:        4,
		AssessmentDate: "2025-02-20",
		RiskScores:     risks,
	}
}

func TestSave_CreatesAssessment(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	res, err := h.svc.Save(ctx, saveInput(riskIn(1, 2, 2), riskIn(2, 4, 3)), pi)
	require.NoError(t, err)

	assert.True(t, res.Created)
	a := res.Assessment
	study, _ := h.studies.GetByID(ctx, 4)
	date := time.Date(2025, 2, 20, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, assessmentid.Prefix(*study, date)+"001", a.AssessmentCode)
	assert.Equal(t, models.StatusInProgress, a.Status)
	assert.Equal(t, piEmail, a.ConductedByEmail)

	// overall is the highest record
	require.NotNil(t, a.OverallRiskScore)
	assert.Equal(t, 12, *a.OverallRiskScore)
	assert.Equal(t, "High", *a.OverallRiskLevel)

	require.Len(t, res.RiskScores, 2)
	assert.Equal(t, derived(2, 2), res.RiskScores[0].DerivedRiskState)
	assert.Equal(t, derived(4, 3), res.RiskScores[1].DerivedRiskState)

	assert.Equal(t, 8, res.AuditEntries)
	assert.Len(t, h.audit.fields(a.ID), 8)

	require.NotNil(t, res.Notification)
	assert.Equal(t, models.ActionInitialSave, res.Notification.Action)
	assert.Equal(t, models.RoleSD, res.Notification.TargetUserType)
}

func TestSave_SecondAssessmentGetsNextSequence(t *testing.T) {
	h := newHarness()
	h.studies.studies[5] = models.Study{ID: 5, Site: "Flourish San Antonio", SponsorCode: "CFP", Protocol: "CIN110112"}

	first, err := h.svc.Save(context.Background(), saveInput(riskIn(1, 1, 1)), pi)
	require.NoError(t, err)

	in := saveInput(riskIn(1, 1, 1))
	in.StudyID = 5
	second, err := h.svc.Save(context.Background(), in, pi)
	require.NoError(t, err)

	assert.Equal(t, first.Assessment.AssessmentCode[:len(first.Assessment.AssessmentCode)-3]+"002",
		second.Assessment.AssessmentCode)
}

func TestSave_UpdateByStudyDirector(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	first, err := h.svc.Save(ctx, saveInput(riskIn(1, 2, 2)), pi)
	require.NoError(t, err)
	_, err = h.svc.Reject(ctx, first.Assessment.ID, DecisionInput{Reason: "Incomplete"}, sd)
	require.NoError(t, err)

	res, err := h.svc.Save(ctx, saveInput(riskIn(1, 2, 3)), sd)
	require.NoError(t, err)

	assert.False(t, res.Created)
	assert.Equal(t, first.Assessment.ID, res.Assessment.ID)
	assert.Equal(t, models.StatusPendingReview, res.Assessment.Status)
	assert.Equal(t, sdEmail, res.Assessment.UpdatedByEmail)

	// likelihood 2 to 3, score 4 to 6, level Low to Medium
	assert.Equal(t, 3, res.AuditEntries)
	fields := h.audit.fields(res.Assessment.ID)
	assert.Equal(t, []models.AuditField{models.FieldLikelihood, models.FieldRiskScore, models.FieldRiskLevel}, fields[len(fields)-3:])

	history, err := h.assessments.Approvals().ListByAssessment(ctx, res.Assessment.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	require.NotNil(t, res.Notification)
	assert.Equal(t, models.ActionSDCreated, res.Notification.Action)
	assert.Equal(t, models.RolePI, res.Notification.TargetUserType)
}

func TestSave_UnchangedRecordWritesNoAudit(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	in := saveInput(riskIn(1, 3, 3))
	in.RiskScores[0].MitigationActions = strPtr("Weekly calls")
	_, err := h.svc.Save(ctx, in, pi)
	require.NoError(t, err)

	res, err := h.svc.Save(ctx, in, pi)
	require.NoError(t, err)
	assert.Zero(t, res.AuditEntries)
}

func TestSaveDraft(t *testing.T) {
	h := newHarness()

	in := saveInput(riskIn(1, 2, 2))
	in.AssessmentDate = ""
	res, err := h.svc.SaveDraft(context.Background(), in, pi)
	require.NoError(t, err)

	assert.Equal(t, models.StatusInProgress, res.Assessment.Status)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), res.Assessment.AssessmentDate)
	assert.Nil(t, res.Notification)
	assert.Empty(t, h.notifications.all())
	assert.Equal(t, 4, res.AuditEntries)

	// a later draft keeps the status and still notifies nobody
	res, err = h.svc.SaveDraft(context.Background(), saveInput(riskIn(1, 5, 5)), pi)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, res.Assessment.Status)
	assert.Empty(t, h.notifications.all())
}

func TestSave_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   SaveAssessmentInput
	}{
		{"missing study", SaveAssessmentInput{AssessmentDate: "2025-02-20"}},
		{"unknown study", SaveAssessmentInput{StudyID: 99, AssessmentDate: "2025-02-20"}},
		{"missing date", SaveAssessmentInput{StudyID: 4}},
		{"bad date", SaveAssessmentInput{StudyID: 4, AssessmentDate: "20/02/2025"}},
		{"bad next review date", func() SaveAssessmentInput {
			in := saveInput()
			in.NextReviewDate = strPtr("soon")
			return in
		}()},
		{"severity too high", saveInput(riskIn(1, 6, 1))},
		{"likelihood zero", saveInput(riskIn(1, 1, 0))},
		{"missing risk factor", saveInput(riskIn(0, 1, 1))},
		{"unknown risk factor", saveInput(riskIn(42, 1, 1))},
		{"duplicate risk factor", saveInput(riskIn(1, 1, 1), riskIn(1, 2, 2))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			_, err := h.svc.Save(context.Background(), tt.in, pi)
			assert.ErrorIs(t, err, apperr.ErrValidation)
			assert.Empty(t, h.assessments.byID)
		})
	}
}

func TestSave_AuditFailureDoesNotFailSave(t *testing.T) {
	h := newHarness()
	h.audit.err = apperr.Unavailable("append audit entries", errors.New("connection refused"))
	before := promtest.ToFloat64(metrics.AuditWriteFailures)

	res, err := h.svc.Save(context.Background(), saveInput(riskIn(1, 2, 2)), pi)
	require.NoError(t, err)

	assert.Zero(t, res.AuditEntries)
	assert.NotNil(t, res.Notification)
	assert.Equal(t, before+1, promtest.ToFloat64(metrics.AuditWriteFailures))

	stored, err := h.assessments.GetByID(context.Background(), res.Assessment.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Assessment.AssessmentCode, stored.AssessmentCode)
}

func TestSave_NotificationFailureDoesNotFailSave(t *testing.T) {
	h := newHarness()
	h.notifications.createErr = errors.New("connection refused")
	before := promtest.ToFloat64(metrics.NotificationFailures.WithLabelValues("persist"))

	res, err := h.svc.Save(context.Background(), saveInput(riskIn(1, 2, 2)), pi)
	require.NoError(t, err)

	assert.Nil(t, res.Notification)
	assert.Equal(t, 4, res.AuditEntries)
	assert.Equal(t, before+1, promtest.ToFloat64(metrics.NotificationFailures.WithLabelValues("persist")))
}

func TestSave_RoleLookupFailureFallsBackToPI(t *testing.T) {
	h := newHarness()
	h.studies.err = apperr.Unavailable("resolve role", errors.New("timeout"))

	res, err := h.svc.Save(context.Background(), saveInput(riskIn(1, 2, 2)), sd)
	require.NoError(t, err)

	require.NotNil(t, res.Notification)
	assert.Equal(t, models.ActionInitialSave, res.Notification.Action)
	assert.Equal(t, models.RoleSD, res.Notification.TargetUserType)
}

func TestSubmit(t *testing.T) {
	h := newHarness()

	res, err := h.svc.Submit(context.Background(), saveInput(riskIn(1, 2, 2)), pi)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, res.Assessment.Status)

	stored, err := h.assessments.GetByID(context.Background(), res.Assessment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status)

	_, err = h.svc.Approve(context.Background(), res.Assessment.ID, DecisionInput{}, sd)
	assert.ErrorIs(t, err, apperr.ErrInvalidStatus)
}

func TestApprove(t *testing.T) {
	h := newHarness()
	a := h.assessments.put(4, models.StatusPendingReview)

	res, err := h.svc.Approve(context.Background(), a.ID, DecisionInput{Reason: "Looks complete"}, sd)
	require.NoError(t, err)

	assert.Equal(t, models.StatusApproved, res.Assessment.Status)
	assert.Equal(t, "Approved", res.Approval.Action)
	assert.Equal(t, sdEmail, res.Approval.ActionByEmail)

	require.NotNil(t, res.Notification)
	n := res.Notification
	assert.Equal(t, models.ActionApproved, n.Action)
	assert.Equal(t, models.RolePI, n.TargetUserType)
	assert.Equal(t, "Looks complete", n.Reason)
	assert.Nil(t, n.Comments)

	stored, _ := h.assessments.GetByID(context.Background(), a.ID)
	assert.Equal(t, models.StatusApproved, stored.Status)

	// a decided assessment cannot be decided again
	_, err = h.svc.Reject(context.Background(), a.ID, DecisionInput{Reason: "Changed my mind"}, sd)
	assert.ErrorIs(t, err, apperr.ErrInvalidStatus)
}

func TestReject(t *testing.T) {
	h := newHarness()
	a := h.assessments.put(4, models.StatusInProgress)

	_, err := h.svc.Reject(context.Background(), a.ID, DecisionInput{Reason: "   "}, sd)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	comments := "See section 3"
	res, err := h.svc.Reject(context.Background(), a.ID, DecisionInput{Reason: "Missing plan", Comments: &comments}, sd)
	require.NoError(t, err)

	assert.Equal(t, models.StatusRejected, res.Assessment.Status)
	require.NotNil(t, res.Notification)
	assert.Equal(t, models.ActionRejected, res.Notification.Action)
	assert.Equal(t, models.RolePI, res.Notification.TargetUserType)
	require.NotNil(t, res.Notification.Comments)
	assert.Equal(t, comments, *res.Notification.Comments)
}

func TestDecision_UnknownAssessment(t *testing.T) {
	h := newHarness()
	_, err := h.svc.Approve(context.Background(), 404, DecisionInput{}, sd)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetAndLookups(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	saved, err := h.svc.Save(ctx, saveInput(riskIn(3, 1, 2), riskIn(1, 2, 2)), pi)
	require.NoError(t, err)

	detail, err := h.svc.Get(ctx, saved.Assessment.ID)
	require.NoError(t, err)
	require.Len(t, detail.RiskScores, 2)
	assert.Equal(t, uint(1), detail.RiskScores[0].RiskFactorID)
	assert.NotNil(t, detail.Approvals)

	_, err = h.svc.Get(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	studies, err := h.svc.MyStudies(ctx, models.Actor{Email: "SD@flourish.test"})
	require.NoError(t, err)
	require.Len(t, studies, 1)
	assert.Equal(t, models.RoleSD, studies[0].Role)

	none, err := h.svc.MyStudies(ctx, models.Actor{Email: "nobody@flourish.test"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	factors, err := h.svc.RiskFactors(ctx)
	require.NoError(t, err)
	assert.Len(t, factors, 3)
}

func TestGetByStudy(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.svc.GetByStudy(ctx, 4)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	saved, err := h.svc.Save(ctx, saveInput(riskIn(1, 2, 2)), pi)
	require.NoError(t, err)
	_, err = h.svc.Reject(ctx, saved.Assessment.ID, DecisionInput{Reason: "Missing plan"}, sd)
	require.NoError(t, err)

	detail, err := h.svc.GetByStudy(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, saved.Assessment.ID, detail.Assessment.ID)
	require.Len(t, detail.RiskScores, 1)
	require.Len(t, detail.Approvals, 1)
	assert.Equal(t, "Missing plan", detail.Approvals[0].Reason)
}

func TestEditPermission(t *testing.T) {
	h := newHarness()
	h.studies.studies[5] = models.Study{ID: 5, Site: "Old Site", Status: models.StudyStatusInactive,
		PrincipalInvestigatorEmail: strPtr(piEmail)}
	ctx := context.Background()

	tests := []struct {
		name    string
		email   string
		canEdit bool
		role    models.Role
	}{
		{"principal investigator", piEmail, true, models.RolePI},
		{"study director, any case", "SD@Flourish.test", true, models.RoleSD},
		{"outsider", "nobody@flourish.test", false, models.RoleUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := h.svc.EditPermission(ctx, 4, models.Actor{Name: "User", Email: tt.email})
			require.NoError(t, err)
			assert.Equal(t, tt.canEdit, p.CanEdit)
			assert.Equal(t, tt.role, p.UserType)
			assert.NotEmpty(t, p.Reason)
			assert.Equal(t, uint(4), p.Study.ID)
		})
	}

	_, err := h.svc.EditPermission(ctx, 5, pi)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = h.svc.EditPermission(ctx, 99, pi)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = h.svc.EditPermission(ctx, 4, models.Actor{})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}
