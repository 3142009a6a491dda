package repository

import (
	"context"
	"fmt"
	"time"

	"risk-assessment/internal/models"
)

// ApprovalStore persists the SD decision history of assessments
type ApprovalStore interface {
	Create(ctx context.Context, a *models.Approval) error
	DeleteByAssessment(ctx context.Context, assessmentID uint) (int64, error)
	ListByAssessment(ctx context.Context, assessmentID uint) ([]models.Approval, error)
}

// ApprovalRepository handles assessment_approvals database operations
type ApprovalRepository struct {
	db Querier
}

// NewApprovalRepository creates a new approval repository
func NewApprovalRepository(db Querier) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// Create appends a decision
func (r *ApprovalRepository) Create(ctx context.Context, a *models.Approval) error {
	query := `
		INSERT INTO assessment_approvals (assessment_id, action, action_by_name, action_by_email, reason, comments, action_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	if a.ActionDate.IsZero() {
		a.ActionDate = time.Now()
	}
	err := r.db.QueryRowContext(ctx, query,
		a.AssessmentID,
		a.Action,
		a.ActionByName,
		a.ActionByEmail,
		a.Reason,
		a.Comments,
		a.ActionDate,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to create approval: %w", dbError("create approval", err))
	}

	return nil
}

// DeleteByAssessment clears the decision history, used when an assessment is resubmitted
func (r *ApprovalRepository) DeleteByAssessment(ctx context.Context, assessmentID uint) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM assessment_approvals WHERE assessment_id = $1`, assessmentID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete approvals: %w", dbError("delete approvals", err))
	}
	return result.RowsAffected()
}

// ListByAssessment returns the decisions of an assessment, newest first
func (r *ApprovalRepository) ListByAssessment(ctx context.Context, assessmentID uint) ([]models.Approval, error) {
	query := `
		SELECT id, assessment_id, action, action_by_name, action_by_email, reason, comments, action_date
		FROM assessment_approvals
		WHERE assessment_id = $1
		ORDER BY action_date DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list approvals: %w", dbError("list approvals", err))
	}
	defer rows.Close()

	var approvals []models.Approval
	for rows.Next() {
		var a models.Approval
		if err := rows.Scan(
			&a.ID,
			&a.AssessmentID,
			&a.Action,
			&a.ActionByName,
			&a.ActionByEmail,
			&a.Reason,
			&a.Comments,
			&a.ActionDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan approval: %w", err)
		}
		approvals = append(approvals, a)
	}

	return approvals, rows.Err()
}
