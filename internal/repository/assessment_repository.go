package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"risk-assessment/internal/apperr"
	"risk-assessment/internal/database"
	"risk-assessment/internal/models"
)

// AssessmentStore is the persistence surface of the assessment workflow.
// Methods called on the store passed to InTx share one transaction.
type AssessmentStore interface {
	InTx(ctx context.Context, fn func(tx AssessmentStore) error) error

	GetByID(ctx context.Context, id uint) (*models.Assessment, error)
	GetByStudyID(ctx context.Context, studyID uint) (*models.Assessment, error)
	LockByID(ctx context.Context, id uint) (*models.Assessment, error)
	LockByStudyID(ctx context.Context, studyID uint) (*models.Assessment, error)
	Create(ctx context.Context, a *models.Assessment) error
	UpdateHeader(ctx context.Context, a *models.Assessment) error
	UpdateStatus(ctx context.Context, id uint, status models.AssessmentStatus, actor models.Actor) error
	LastCodeWithPrefix(ctx context.Context, prefix string) (string, error)

	GetRiskRecordForUpdate(ctx context.Context, assessmentID, riskFactorID uint) (*models.RiskRecord, error)
	UpsertRiskRecord(ctx context.Context, rec models.RiskRecord, derived models.DerivedRiskState) error
	ListRiskRecords(ctx context.Context, assessmentID uint) ([]models.RiskRecordWithDerived, error)

	Approvals() ApprovalStore
}

// AssessmentRepository handles assessment and risk record database operations
type AssessmentRepository struct {
	db *sql.DB
	q  Querier
}

// NewAssessmentRepository creates a new assessment repository
func NewAssessmentRepository(db *sql.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db, q: db}
}

// InTx runs fn with a repository bound to a single transaction
func (r *AssessmentRepository) InTx(ctx context.Context, fn func(tx AssessmentStore) error) error {
	if _, ok := r.q.(*sql.Tx); ok {
		return fn(r)
	}
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(&AssessmentRepository{db: r.db, q: tx})
	})
}

// Approvals returns the approval repository on the same connection or transaction
func (r *AssessmentRepository) Approvals() ApprovalStore {
	return NewApprovalRepository(r.q)
}

const assessmentColumns = `
	id, study_id, assessment_code, assessment_date, next_review_date, monitoring_schedule,
	status, overall_risk_score, overall_risk_level, comments,
	conducted_by_name, conducted_by_email, updated_by_name, updated_by_email,
	created_at, updated_at`

func (r *AssessmentRepository) getOne(ctx context.Context, where string, arg any) (*models.Assessment, error) {
	query := `SELECT` + assessmentColumns + ` FROM assessments WHERE ` + where

	a := &models.Assessment{}
	err := r.q.QueryRowContext(ctx, query, arg).Scan(
		&a.ID,
		&a.StudyID,
		&a.AssessmentCode,
		&a.AssessmentDate,
		&a.NextReviewDate,
		&a.MonitoringSchedule,
		&a.Status,
		&a.OverallRiskScore,
		&a.OverallRiskLevel,
		&a.Comments,
		&a.ConductedByName,
		&a.ConductedByEmail,
		&a.UpdatedByName,
		&a.UpdatedByEmail,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("assessment", arg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", dbError("get assessment", err))
	}

	return a, nil
}

// GetByID retrieves an assessment by ID
func (r *AssessmentRepository) GetByID(ctx context.Context, id uint) (*models.Assessment, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByStudyID retrieves the assessment of a study
func (r *AssessmentRepository) GetByStudyID(ctx context.Context, studyID uint) (*models.Assessment, error) {
	return r.getOne(ctx, "study_id = $1", studyID)
}

// LockByID retrieves an assessment and locks its row until the transaction ends
func (r *AssessmentRepository) LockByID(ctx context.Context, id uint) (*models.Assessment, error) {
	return r.getOne(ctx, "id = $1 FOR UPDATE", id)
}

// LockByStudyID retrieves a study's assessment and locks its row
func (r *AssessmentRepository) LockByStudyID(ctx context.Context, studyID uint) (*models.Assessment, error) {
	return r.getOne(ctx, "study_id = $1 FOR UPDATE", studyID)
}

// Create inserts an assessment
func (r *AssessmentRepository) Create(ctx context.Context, a *models.Assessment) error {
	query := `
		INSERT INTO assessments (
			study_id, assessment_code, assessment_date, next_review_date, monitoring_schedule,
			status, overall_risk_score, overall_risk_level, comments,
			conducted_by_name, conducted_by_email, updated_by_name, updated_by_email,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
		RETURNING id
	`

	now := time.Now()
	err := r.q.QueryRowContext(ctx, query,
		a.StudyID,
		a.AssessmentCode,
		a.AssessmentDate,
		a.NextReviewDate,
		a.MonitoringSchedule,
		a.Status,
		a.OverallRiskScore,
		a.OverallRiskLevel,
		a.Comments,
		a.ConductedByName,
		a.ConductedByEmail,
		a.UpdatedByName,
		a.UpdatedByEmail,
		now,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to create assessment: %w", dbError("create assessment", err))
	}

	a.CreatedAt = now
	a.UpdatedAt = now
	return nil
}

// UpdateHeader writes the editable header fields, status and overall risk
func (r *AssessmentRepository) UpdateHeader(ctx context.Context, a *models.Assessment) error {
	query := `
		UPDATE assessments
		SET assessment_date = $1,
			next_review_date = $2,
			monitoring_schedule = $3,
			status = $4,
			overall_risk_score = $5,
			overall_risk_level = $6,
			comments = $7,
			updated_by_name = $8,
			updated_by_email = $9,
			updated_at = $10
		WHERE id = $11
	`

	now := time.Now()
	result, err := r.q.ExecContext(ctx, query,
		a.AssessmentDate,
		a.NextReviewDate,
		a.MonitoringSchedule,
		a.Status,
		a.OverallRiskScore,
		a.OverallRiskLevel,
		a.Comments,
		a.UpdatedByName,
		a.UpdatedByEmail,
		now,
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update assessment: %w", dbError("update assessment", err))
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperr.NotFound("assessment", a.ID)
	}

	a.UpdatedAt = now
	return nil
}

// UpdateStatus sets the lifecycle status and records who changed it
func (r *AssessmentRepository) UpdateStatus(ctx context.Context, id uint, status models.AssessmentStatus, actor models.Actor) error {
	query := `
		UPDATE assessments
		SET status = $1, updated_by_name = $2, updated_by_email = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := r.q.ExecContext(ctx, query, status, actor.Name, actor.Email, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update assessment status: %w", dbError("update assessment status", err))
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperr.NotFound("assessment", id)
	}

	return nil
}

// LastCodeWithPrefix returns the highest assessment code starting with prefix, or "" if none
func (r *AssessmentRepository) LastCodeWithPrefix(ctx context.Context, prefix string) (string, error) {
	query := `
		SELECT assessment_code
		FROM assessments
		WHERE assessment_code LIKE $1
		ORDER BY assessment_code DESC
		LIMIT 1
	`

	var code string
	err := r.q.QueryRowContext(ctx, query, escapeLike(prefix)+"%").Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get last assessment code: %w", dbError("last assessment code", err))
	}

	return code, nil
}

// GetRiskRecordForUpdate returns the stored record and locks it, or nil if absent
func (r *AssessmentRepository) GetRiskRecordForUpdate(ctx context.Context, assessmentID, riskFactorID uint) (*models.RiskRecord, error) {
	query := `
		SELECT assessment_id, risk_factor_id, severity, likelihood, mitigation_actions, custom_notes
		FROM assessment_risks
		WHERE assessment_id = $1 AND risk_factor_id = $2
		FOR UPDATE
	`

	rec := &models.RiskRecord{}
	err := r.q.QueryRowContext(ctx, query, assessmentID, riskFactorID).Scan(
		&rec.AssessmentID,
		&rec.RiskFactorID,
		&rec.Severity,
		&rec.Likelihood,
		&rec.MitigationActions,
		&rec.CustomNotes,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get risk record: %w", dbError("get risk record", err))
	}

	return rec, nil
}

// UpsertRiskRecord writes a risk record with its server side derived values
func (r *AssessmentRepository) UpsertRiskRecord(ctx context.Context, rec models.RiskRecord, derived models.DerivedRiskState) error {
	query := `
		INSERT INTO assessment_risks (
			assessment_id, risk_factor_id, severity, likelihood, risk_score, risk_level,
			mitigation_actions, custom_notes, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (assessment_id, risk_factor_id) DO UPDATE
		SET severity = EXCLUDED.severity,
			likelihood = EXCLUDED.likelihood,
			risk_score = EXCLUDED.risk_score,
			risk_level = EXCLUDED.risk_level,
			mitigation_actions = EXCLUDED.mitigation_actions,
			custom_notes = EXCLUDED.custom_notes,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.q.ExecContext(ctx, query,
		rec.AssessmentID,
		rec.RiskFactorID,
		rec.Severity,
		rec.Likelihood,
		derived.RiskScore,
		derived.RiskLevel,
		rec.MitigationActions,
		rec.CustomNotes,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save risk record: %w", dbError("save risk record", err))
	}

	return nil
}

// ListRiskRecords returns the risk records of an assessment ordered by risk factor
func (r *AssessmentRepository) ListRiskRecords(ctx context.Context, assessmentID uint) ([]models.RiskRecordWithDerived, error) {
	query := `
		SELECT assessment_id, risk_factor_id, severity, likelihood, risk_score, risk_level,
			mitigation_actions, custom_notes
		FROM assessment_risks
		WHERE assessment_id = $1
		ORDER BY risk_factor_id
	`

	rows, err := r.q.QueryContext(ctx, query, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list risk records: %w", dbError("list risk records", err))
	}
	defer rows.Close()

	var records []models.RiskRecordWithDerived
	for rows.Next() {
		var rec models.RiskRecordWithDerived
		if err := rows.Scan(
			&rec.AssessmentID,
			&rec.RiskFactorID,
			&rec.Severity,
			&rec.Likelihood,
			&rec.RiskScore,
			&rec.RiskLevel,
			&rec.MitigationActions,
			&rec.CustomNotes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan risk record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
