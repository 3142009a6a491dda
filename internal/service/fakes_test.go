package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"risk-assessment/internal/apperr"
	"risk-assessment/internal/audit"
	"risk-assessment/internal/config"
	"risk-assessment/internal/models"
	"risk-assessment/internal/notification"
	"risk-assessment/internal/repository"
	"risk-assessment/internal/risk"
)

const (
	piEmail = "pi@flourish.test"
	sdEmail = "sd@flourish.test"
)

var (
	pi = models.Actor{Name: "Paula Investigator", Email: piEmail}
	sd = models.Actor{Name: "Sam Director", Email: sdEmail}
)

func strPtr(s string) *string { return &s }

// memAssessments is an in-memory AssessmentStore. InTx does not roll back.
type memAssessments struct {
	mu        sync.Mutex
	byID      map[uint]models.Assessment
	risks     map[[2]uint]models.RiskRecordWithDerived
	approvals []models.Approval
	nextID    uint
}

func newMemAssessments() *memAssessments {
	return &memAssessments{
		byID:  map[uint]models.Assessment{},
		risks: map[[2]uint]models.RiskRecordWithDerived{},
	}
}

func (m *memAssessments) InTx(_ context.Context, fn func(tx repository.AssessmentStore) error) error {
	return fn(m)
}

func (m *memAssessments) GetByID(_ context.Context, id uint) (*models.Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, apperr.NotFound("assessment", id)
	}
	return &a, nil
}

func (m *memAssessments) GetByStudyID(_ context.Context, studyID uint) (*models.Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.StudyID == studyID {
			return &a, nil
		}
	}
	return nil, apperr.NotFound("assessment for study", studyID)
}

func (m *memAssessments) LockByID(ctx context.Context, id uint) (*models.Assessment, error) {
	return m.GetByID(ctx, id)
}

func (m *memAssessments) LockByStudyID(ctx context.Context, studyID uint) (*models.Assessment, error) {
	return m.GetByStudyID(ctx, studyID)
}

func (m *memAssessments) Create(_ context.Context, a *models.Assessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	a.ID = m.nextID
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	m.byID[a.ID] = *a
	return nil
}

func (m *memAssessments) UpdateHeader(_ context.Context, a *models.Assessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[a.ID]; !ok {
		return apperr.NotFound("assessment", a.ID)
	}
	m.byID[a.ID] = *a
	return nil
}

func (m *memAssessments) UpdateStatus(_ context.Context, id uint, status models.AssessmentStatus, actor models.Actor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return apperr.NotFound("assessment", id)
	}
	a.Status = status
	a.UpdatedByName = actor.Name
	a.UpdatedByEmail = actor.Email
	m.byID[id] = a
	return nil
}

func (m *memAssessments) LastCodeWithPrefix(_ context.Context, prefix string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	last := ""
	for _, a := range m.byID {
		if strings.HasPrefix(a.AssessmentCode, prefix) && a.AssessmentCode > last {
			last = a.AssessmentCode
		}
	}
	return last, nil
}

func (m *memAssessments) GetRiskRecordForUpdate(_ context.Context, assessmentID, riskFactorID uint) (*models.RiskRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.risks[[2]uint{assessmentID, riskFactorID}]
	if !ok {
		return nil, nil
	}
	rec := r.RiskRecord
	return &rec, nil
}

func (m *memAssessments) UpsertRiskRecord(_ context.Context, rec models.RiskRecord, derived models.DerivedRiskState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.risks[[2]uint{rec.AssessmentID, rec.RiskFactorID}] = models.RiskRecordWithDerived{RiskRecord: rec, DerivedRiskState: derived}
	return nil
}

func (m *memAssessments) ListRiskRecords(_ context.Context, assessmentID uint) ([]models.RiskRecordWithDerived, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.RiskRecordWithDerived
	for k, r := range m.risks {
		if k[0] == assessmentID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RiskFactorID < out[j].RiskFactorID })
	return out, nil
}

func (m *memAssessments) Approvals() repository.ApprovalStore {
	return memApprovals{m}
}

// put seeds an assessment in the given status
func (m *memAssessments) put(studyID uint, status models.AssessmentStatus) *models.Assessment {
	a := &models.Assessment{StudyID: studyID, AssessmentCode: "SEED-001", Status: status}
	_ = m.Create(context.Background(), a)
	return a
}

type memApprovals struct{ m *memAssessments }

func (a memApprovals) Create(_ context.Context, ap *models.Approval) error {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	ap.ID = uint(len(a.m.approvals) + 1)
	a.m.approvals = append(a.m.approvals, *ap)
	return nil
}

func (a memApprovals) DeleteByAssessment(_ context.Context, assessmentID uint) (int64, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	var kept []models.Approval
	var n int64
	for _, ap := range a.m.approvals {
		if ap.AssessmentID == assessmentID {
			n++
			continue
		}
		kept = append(kept, ap)
	}
	a.m.approvals = kept
	return n, nil
}

func (a memApprovals) ListByAssessment(_ context.Context, assessmentID uint) ([]models.Approval, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	var out []models.Approval
	for i := len(a.m.approvals) - 1; i >= 0; i-- {
		if a.m.approvals[i].AssessmentID == assessmentID {
			out = append(out, a.m.approvals[i])
		}
	}
	return out, nil
}

// memStudies serves studies and resolves roles like the study repository
type memStudies struct {
	studies map[uint]models.Study
	err     error
}

func newMemStudies() *memStudies {
	return &memStudies{studies: map[uint]models.Study{
		4: {
			ID: 4, Site: "Flourish San Antonio", SponsorCode: "CFP", Protocol: "CIN110112", Status: "Active",
			PrincipalInvestigatorEmail: strPtr(piEmail),
			SiteDirectorEmail:          strPtr(sdEmail),
		},
	}}
}

func (s *memStudies) GetByID(_ context.Context, id uint) (*models.Study, error) {
	st, ok := s.studies[id]
	if !ok {
		return nil, apperr.NotFound("study", id)
	}
	return &st, nil
}

func (s *memStudies) ListForUser(_ context.Context, email string) ([]repository.StudyAssignment, error) {
	var out []repository.StudyAssignment
	for _, st := range s.studies {
		switch {
		case st.PrincipalInvestigatorEmail != nil && strings.EqualFold(*st.PrincipalInvestigatorEmail, email):
			out = append(out, repository.StudyAssignment{Study: st, Role: models.RolePI})
		case st.SiteDirectorEmail != nil && strings.EqualFold(*st.SiteDirectorEmail, email):
			out = append(out, repository.StudyAssignment{Study: st, Role: models.RoleSD})
		}
	}
	return out, nil
}

func (s *memStudies) ResolveRole(_ context.Context, studyID uint, email string) (models.Role, error) {
	if s.err != nil {
		return models.RoleUnknown, s.err
	}
	st, ok := s.studies[studyID]
	if !ok {
		return models.RoleUnknown, apperr.NotFound("study", studyID)
	}
	switch {
	case st.PrincipalInvestigatorEmail != nil && strings.EqualFold(*st.PrincipalInvestigatorEmail, email):
		return models.RolePI, nil
	case st.SiteDirectorEmail != nil && strings.EqualFold(*st.SiteDirectorEmail, email):
		return models.RoleSD, nil
	}
	return models.RoleUnknown, nil
}

// memFactors knows risk factors 1 to 3
type memFactors struct{}

func (memFactors) ExistingActive(_ context.Context, ids []uint) (map[uint]bool, error) {
	out := map[uint]bool{}
	for _, id := range ids {
		if id >= 1 && id <= 3 {
			out[id] = true
		}
	}
	return out, nil
}

func (memFactors) ListActive(_ context.Context) ([]models.RiskFactor, error) {
	return []models.RiskFactor{
		{ID: 1, Text: "Protocol complexity", IsActive: true},
		{ID: 2, Text: "Staff turnover", IsActive: true},
		{ID: 3, Text: "Recruitment risk", IsActive: true},
	}, nil
}

// memAudit records appended entries and filters
type memAudit struct {
	mu      sync.Mutex
	entries []models.AuditEntry
	filters []repository.AuditFilter
	err     error
}

func (m *memAudit) AppendAll(_ context.Context, entries []models.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *memAudit) Query(_ context.Context, f repository.AuditFilter) ([]models.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = append(m.filters, f)
	if m.err != nil {
		return nil, m.err
	}
	var out []models.AuditEntry
	for _, e := range m.entries {
		if e.AssessmentID != f.AssessmentID {
			continue
		}
		if f.Field != nil && e.FieldName != *f.Field {
			continue
		}
		if f.RiskFactorID != nil && e.RiskFactorID != *f.RiskFactorID {
			continue
		}
		if f.ChangedByEmail != "" && !strings.EqualFold(e.ChangedByEmail, f.ChangedByEmail) {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (m *memAudit) Summary(_ context.Context, assessmentID uint) (*models.AuditSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &models.AuditSummary{AssessmentID: assessmentID}
	for _, e := range m.entries {
		if e.AssessmentID == assessmentID {
			s.TotalChanges++
		}
	}
	return s, nil
}

func (m *memAudit) fields(assessmentID uint) []models.AuditField {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AuditField
	for _, e := range m.entries {
		if e.AssessmentID == assessmentID {
			out = append(out, e.FieldName)
		}
	}
	return out
}

// memNotifications is an in-memory NotificationStore
type memNotifications struct {
	mu        sync.Mutex
	items     []models.Notification
	createErr error
	// study IDs hidden from listings
	inactive map[uint]bool
}

func (m *memNotifications) Create(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	n.ID = uint(len(m.items) + 1)
	n.CreatedAt = time.Now()
	m.items = append(m.items, *n)
	return nil
}

func (m *memNotifications) MarkRead(_ context.Context, id uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			changed := !m.items[i].ReadStatus
			m.items[i].ReadStatus = true
			return changed, nil
		}
	}
	return false, apperr.NotFound("notification", id)
}

func (m *memNotifications) MarkAllRead(_ context.Context, target models.Role) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.items {
		if m.items[i].TargetUserType == target && !m.items[i].ReadStatus {
			m.items[i].ReadStatus = true
			n++
		}
	}
	return n, nil
}

func (m *memNotifications) UnreadCount(_ context.Context, target models.Role) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, it := range m.items {
		if it.TargetUserType == target && !it.ReadStatus {
			n++
		}
	}
	return n, nil
}

func (m *memNotifications) VisibleUnreadCount(_ context.Context, target models.Role) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, it := range m.items {
		if it.TargetUserType == target && !it.ReadStatus && !m.inactive[it.StudyID] {
			n++
		}
	}
	return n, nil
}

func (m *memNotifications) List(_ context.Context, f repository.NotificationFilter) ([]models.NotificationWithStudy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.NotificationWithStudy
	for i := len(m.items) - 1; i >= 0; i-- {
		it := m.items[i]
		if it.TargetUserType != f.Target || m.inactive[it.StudyID] {
			continue
		}
		if f.ReadStatus != nil && it.ReadStatus != *f.ReadStatus {
			continue
		}
		out = append(out, models.NotificationWithStudy{Notification: it})
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (m *memNotifications) all() []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Notification(nil), m.items...)
}

// harness wires the services over in-memory stores
type harness struct {
	assessments   *memAssessments
	studies       *memStudies
	audit         *memAudit
	notifications *memNotifications
	svc           *AssessmentService
}

func newHarness() *harness {
	h := &harness{
		assessments:   newMemAssessments(),
		studies:       newMemStudies(),
		audit:         &memAudit{},
		notifications: &memNotifications{},
	}
	audits := NewAuditService(h.audit, audit.NewAuditor(), config.AuditConfig{DefaultLimit: 100, MaxLimit: 1000})
	notes := NewNotificationService(h.notifications, notification.NewRouter(h.studies), config.NotificationConfig{ListLimit: 50})
	h.svc = NewAssessmentService(h.assessments, h.studies, memFactors{}, audits, notes)
	h.svc.now = func() time.Time { return time.Date(2025, 3, 1, 15, 4, 5, 0, time.UTC) }
	return h
}

func riskIn(rf uint, severity, likelihood int) RiskInput {
	return RiskInput{RiskFactorID: rf, Severity: severity, Likelihood: likelihood}
}

func derived(severity, likelihood int) models.DerivedRiskState {
	return risk.Derive(models.RiskRecord{Severity: severity, Likelihood: likelihood})
}
