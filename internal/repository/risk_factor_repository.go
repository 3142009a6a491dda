package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"risk-assessment/internal/models"
)

// RiskFactorRepository handles risk factor database operations
type RiskFactorRepository struct {
	db Querier
}

// NewRiskFactorRepository creates a new risk factor repository
func NewRiskFactorRepository(db Querier) *RiskFactorRepository {
	return &RiskFactorRepository{db: db}
}

// ExistingActive returns the subset of ids that name active risk factors
func (r *RiskFactorRepository) ExistingActive(ctx context.Context, ids []uint) (map[uint]bool, error) {
	existing := make(map[uint]bool, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	arg := make([]int64, len(ids))
	for i, id := range ids {
		arg[i] = int64(id)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM risk_factors WHERE id = ANY($1) AND is_active = true`,
		pq.Array(arg),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to check risk factors: %w", dbError("check risk factors", err))
	}
	defer rows.Close()

	for rows.Next() {
		var id uint
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan risk factor id: %w", err)
		}
		existing[id] = true
	}

	return existing, rows.Err()
}

// ListActive returns all active risk factors ordered by section
func (r *RiskFactorRepository) ListActive(ctx context.Context) ([]models.RiskFactor, error) {
	query := `
		SELECT id, assessment_section_id, risk_factor_text, risk_factor_code, is_active
		FROM risk_factors
		WHERE is_active = true
		ORDER BY assessment_section_id, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list risk factors: %w", dbError("list risk factors", err))
	}
	defer rows.Close()

	var factors []models.RiskFactor
	for rows.Next() {
		var rf models.RiskFactor
		if err := rows.Scan(&rf.ID, &rf.SectionID, &rf.Text, &rf.Code, &rf.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan risk factor: %w", err)
		}
		factors = append(factors, rf)
	}

	return factors, rows.Err()
}
