package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"risk-assessment/internal/database"
	"risk-assessment/internal/models"
)

// AuditFilter selects a slice of an assessment's audit trail
type AuditFilter struct {
	AssessmentID   uint
	Field          *models.AuditField
	RiskFactorID   *uint
	ChangedByEmail string
	Limit          int
}

// AuditTrailRepository handles assessment_audit_trail database operations.
// The table is append-only.
type AuditTrailRepository struct {
	db *sql.DB
}

// NewAuditTrailRepository creates a new audit trail repository
func NewAuditTrailRepository(db *sql.DB) *AuditTrailRepository {
	return &AuditTrailRepository{db: db}
}

// AppendAll inserts entries in one transaction. Either all are stored or none.
func (r *AuditTrailRepository) AppendAll(ctx context.Context, entries []models.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}

	query := `
		INSERT INTO assessment_audit_trail (
			assessment_id, risk_factor_id, field_name, old_value, new_value,
			changed_by_name, changed_by_email, change_reason, changed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	ids := make([]uint, len(entries))
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, e := range entries {
			if err := stmt.QueryRowContext(ctx,
				e.AssessmentID,
				e.RiskFactorID,
				e.FieldName,
				e.OldValue,
				e.NewValue,
				e.ChangedByName,
				e.ChangedByEmail,
				e.ChangeReason,
				e.ChangedAt,
			).Scan(&ids[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append audit entries: %w", dbError("append audit entries", err))
	}

	for i := range entries {
		entries[i].ID = ids[i]
	}
	return nil
}

// Query returns the newest matching entries up to the limit, in chronological order
func (r *AuditTrailRepository) Query(ctx context.Context, f AuditFilter) ([]models.AuditEntry, error) {
	conditions := []string{"at.assessment_id = $1"}
	args := []any{f.AssessmentID}

	if f.Field != nil {
		args = append(args, *f.Field)
		conditions = append(conditions, fmt.Sprintf("at.field_name = $%d", len(args)))
	}
	if f.RiskFactorID != nil {
		args = append(args, *f.RiskFactorID)
		conditions = append(conditions, fmt.Sprintf("at.risk_factor_id = $%d", len(args)))
	}
	if f.ChangedByEmail != "" {
		args = append(args, f.ChangedByEmail)
		conditions = append(conditions, fmt.Sprintf("LOWER(at.changed_by_email) = LOWER($%d)", len(args)))
	}

	// The limit keeps the newest entries; the outer query restores chronological order.
	limit := ""
	if f.Limit > 0 {
		args = append(args, f.Limit)
		limit = fmt.Sprintf("LIMIT $%d", len(args))
	}

	query := `
		SELECT t.id, t.assessment_id, t.risk_factor_id, t.risk_factor_text,
			t.field_name, t.old_value, t.new_value,
			t.changed_by_name, t.changed_by_email, t.change_reason, t.changed_at
		FROM (
			SELECT at.id, at.assessment_id, at.risk_factor_id,
				COALESCE(rf.risk_factor_text, 'Risk Factor ' || at.risk_factor_id) AS risk_factor_text,
				at.field_name, at.old_value, at.new_value,
				at.changed_by_name, at.changed_by_email, at.change_reason, at.changed_at
			FROM assessment_audit_trail at
			LEFT JOIN risk_factors rf ON rf.id = at.risk_factor_id
			WHERE ` + strings.Join(conditions, " AND ") + `
			ORDER BY at.changed_at DESC, at.id DESC
			` + limit + `
		) t
		ORDER BY t.changed_at ASC, t.id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit trail: %w", dbError("query audit trail", err))
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		var text string
		if err := rows.Scan(
			&e.ID,
			&e.AssessmentID,
			&e.RiskFactorID,
			&text,
			&e.FieldName,
			&e.OldValue,
			&e.NewValue,
			&e.ChangedByName,
			&e.ChangedByEmail,
			&e.ChangeReason,
			&e.ChangedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.RiskFactorText = &text
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Summary aggregates the audit trail of an assessment
func (r *AuditTrailRepository) Summary(ctx context.Context, assessmentID uint) (*models.AuditSummary, error) {
	summary := &models.AuditSummary{
		AssessmentID:   assessmentID,
		ChangesByField: []models.FieldCount{},
		ChangesByUser:  []models.UserCount{},
	}

	var latest sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MAX(changed_at) FROM assessment_audit_trail WHERE assessment_id = $1`,
		assessmentID,
	).Scan(&summary.TotalChanges, &latest)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize audit trail: %w", dbError("summarize audit trail", err))
	}
	if latest.Valid {
		t := latest.Time
		summary.LatestChange = &t
	}
	if summary.TotalChanges == 0 {
		return summary, nil
	}

	fieldRows, err := r.db.QueryContext(ctx, `
		SELECT field_name, COUNT(*)
		FROM assessment_audit_trail
		WHERE assessment_id = $1
		GROUP BY field_name
		ORDER BY COUNT(*) DESC, field_name`,
		assessmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count changes by field: %w", dbError("count changes by field", err))
	}
	defer fieldRows.Close()

	for fieldRows.Next() {
		var fc models.FieldCount
		if err := fieldRows.Scan(&fc.Field, &fc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan field count: %w", err)
		}
		summary.ChangesByField = append(summary.ChangesByField, fc)
	}
	if err := fieldRows.Err(); err != nil {
		return nil, err
	}

	userRows, err := r.db.QueryContext(ctx, `
		SELECT MAX(changed_by_name), LOWER(changed_by_email), COUNT(*)
		FROM assessment_audit_trail
		WHERE assessment_id = $1
		GROUP BY LOWER(changed_by_email)
		ORDER BY COUNT(*) DESC, LOWER(changed_by_email)`,
		assessmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count changes by user: %w", dbError("count changes by user", err))
	}
	defer userRows.Close()

	for userRows.Next() {
		var uc models.UserCount
		if err := userRows.Scan(&uc.Name, &uc.Email, &uc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan user count: %w", err)
		}
		summary.ChangesByUser = append(summary.ChangesByUser, uc)
	}

	return summary, userRows.Err()
}
