package service

import (
	"context"
	"log/slog"
	"strings"

	"risk-assessment/internal/apperr"
	"risk-assessment/internal/audit"
	"risk-assessment/internal/config"
	"risk-assessment/internal/metrics"
	"risk-assessment/internal/models"
	"risk-assessment/internal/repository"
)

// AuditStore persists and reads the audit trail
type AuditStore interface {
	AppendAll(ctx context.Context, entries []models.AuditEntry) error
	Query(ctx context.Context, f repository.AuditFilter) ([]models.AuditEntry, error)
	Summary(ctx context.Context, assessmentID uint) (*models.AuditSummary, error)
}

// TrailQuery narrows a trail request
type TrailQuery struct {
	Field        *models.AuditField
	RiskFactorID *uint
	Limit        int
}

// AuditService records risk record changes and serves the audit trail
type AuditService struct {
	store        AuditStore
	auditor      *audit.Auditor
	defaultLimit int
	maxLimit     int
}

// NewAuditService creates a new audit service
func NewAuditService(store AuditStore, auditor *audit.Auditor, cfg config.AuditConfig) *AuditService {
	return &AuditService{
		store:        store,
		auditor:      auditor,
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxLimit,
	}
}

// Record derives the audit entries of all changes of one save and stores them
// together. It returns the number of entries written.
func (s *AuditService) Record(ctx context.Context, changes []audit.Change) (int, error) {
	var entries []models.AuditEntry
	for _, c := range changes {
		entries = append(entries, s.auditor.Audit(c)...)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	if err := s.store.AppendAll(ctx, entries); err != nil {
		metrics.AuditWriteFailures.Inc()
		return 0, err
	}

	for _, e := range entries {
		metrics.AuditEntriesWritten.WithLabelValues(string(e.FieldName)).Inc()
	}
	slog.Debug("Audit entries recorded",
		"assessment_id", entries[0].AssessmentID,
		"count", len(entries),
	)
	return len(entries), nil
}

// Trail returns the chronological audit trail of an assessment
func (s *AuditService) Trail(ctx context.Context, assessmentID uint, q TrailQuery) ([]models.AuditEntry, error) {
	return s.query(ctx, repository.AuditFilter{
		AssessmentID: assessmentID,
		Field:        q.Field,
		RiskFactorID: q.RiskFactorID,
		Limit:        q.Limit,
	})
}

// FieldChanges returns the entries of one field, optionally narrowed to a risk factor
func (s *AuditService) FieldChanges(ctx context.Context, assessmentID uint, field models.AuditField, riskFactorID *uint, limit int) ([]models.AuditEntry, error) {
	return s.query(ctx, repository.AuditFilter{
		AssessmentID: assessmentID,
		Field:        &field,
		RiskFactorID: riskFactorID,
		Limit:        limit,
	})
}

// UserChanges returns the entries made by one user, matched case-insensitively
func (s *AuditService) UserChanges(ctx context.Context, assessmentID uint, email string, limit int) ([]models.AuditEntry, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperr.Validation("email is required")
	}
	return s.query(ctx, repository.AuditFilter{
		AssessmentID:   assessmentID,
		ChangedByEmail: email,
		Limit:          limit,
	})
}

// RiskFactorChanges returns the entries of one risk factor
func (s *AuditService) RiskFactorChanges(ctx context.Context, assessmentID, riskFactorID uint, limit int) ([]models.AuditEntry, error) {
	return s.query(ctx, repository.AuditFilter{
		AssessmentID: assessmentID,
		RiskFactorID: &riskFactorID,
		Limit:        limit,
	})
}

// Summary aggregates the trail of an assessment
func (s *AuditService) Summary(ctx context.Context, assessmentID uint) (*models.AuditSummary, error) {
	return s.store.Summary(ctx, assessmentID)
}

func (s *AuditService) query(ctx context.Context, f repository.AuditFilter) ([]models.AuditEntry, error) {
	f.Limit = s.clampLimit(f.Limit)
	entries, err := s.store.Query(ctx, f)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}
	return entries, nil
}

func (s *AuditService) clampLimit(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	if s.maxLimit > 0 && limit > s.maxLimit {
		return s.maxLimit
	}
	return limit
}
