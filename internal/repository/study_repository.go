package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"risk-assessment/internal/apperr"
	"risk-assessment/internal/models"
)

// StudyAssignment is a study together with the caller's role in it
type StudyAssignment struct {
	models.Study
	Role models.Role `json:"user_type"`
}

// StudyRepository handles study database operations
type StudyRepository struct {
	db Querier
}

// NewStudyRepository creates a new study repository
func NewStudyRepository(db Querier) *StudyRepository {
	return &StudyRepository{db: db}
}

const studyColumns = `
	id, site, sponsor, sponsor_code, protocol, description, status,
	principal_investigator, principal_investigator_email,
	site_director, site_director_email, created_at`

func scanStudy(row interface{ Scan(...any) error }, s *models.Study) error {
	return row.Scan(
		&s.ID,
		&s.Site,
		&s.Sponsor,
		&s.SponsorCode,
		&s.Protocol,
		&s.Description,
		&s.Status,
		&s.PrincipalInvestigator,
		&s.PrincipalInvestigatorEmail,
		&s.SiteDirector,
		&s.SiteDirectorEmail,
		&s.CreatedAt,
	)
}

// GetByID retrieves a study by ID
func (r *StudyRepository) GetByID(ctx context.Context, id uint) (*models.Study, error) {
	query := `SELECT` + studyColumns + ` FROM studies WHERE id = $1`

	study := &models.Study{}
	err := scanStudy(r.db.QueryRowContext(ctx, query, id), study)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("study", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get study: %w", dbError("get study", err))
	}

	return study, nil
}

// ResolveRole returns the role the email holds for the study. Emails compare
// case-insensitively and PI wins when the same person holds both roles.
// A user holding neither role resolves to RoleUnknown.
func (r *StudyRepository) ResolveRole(ctx context.Context, studyID uint, email string) (models.Role, error) {
	query := `
		SELECT CASE
			WHEN LOWER(principal_investigator_email) = LOWER($2) THEN 'PI'
			WHEN LOWER(site_director_email) = LOWER($2) THEN 'SD'
			ELSE 'Unknown'
		END
		FROM studies
		WHERE id = $1
	`

	var role string
	err := r.db.QueryRowContext(ctx, query, studyID, email).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RoleUnknown, apperr.NotFound("study", studyID)
	}
	if err != nil {
		return models.RoleUnknown, fmt.Errorf("failed to resolve role: %w", dbError("resolve role", err))
	}

	return models.Role(role), nil
}

// ListForUser returns the active studies where the email is PI or SD
func (r *StudyRepository) ListForUser(ctx context.Context, email string) ([]StudyAssignment, error) {
	query := `SELECT` + studyColumns + `,
			CASE WHEN LOWER(principal_investigator_email) = LOWER($1) THEN 'PI' ELSE 'SD' END
		FROM studies
		WHERE status != $2
		  AND (LOWER(principal_investigator_email) = LOWER($1) OR LOWER(site_director_email) = LOWER($1))
		ORDER BY site, protocol, id
	`

	rows, err := r.db.QueryContext(ctx, query, email, models.StudyStatusInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to list studies: %w", dbError("list studies", err))
	}
	defer rows.Close()

	var out []StudyAssignment
	for rows.Next() {
		var a StudyAssignment
		var role string
		if err := rows.Scan(
			&a.ID, &a.Site, &a.Sponsor, &a.SponsorCode, &a.Protocol, &a.Description, &a.Status,
			&a.PrincipalInvestigator, &a.PrincipalInvestigatorEmail,
			&a.SiteDirector, &a.SiteDirectorEmail, &a.CreatedAt,
			&role,
		); err != nil {
			return nil, fmt.Errorf("failed to scan study: %w", err)
		}
		a.Role = models.Role(role)
		out = append(out, a)
	}

	return out, rows.Err()
}
