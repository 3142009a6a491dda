package testutil

import (
	"database/sql"
	"testing"

	"risk-assessment/internal/models"
)

// Fixtures holds seeded test data
type Fixtures struct {
	DB          *sql.DB
	Study       *models.Study
	OtherStudy  *models.Study
	RiskFactors []models.RiskFactor
}

// Names and emails of the seeded study roles
const (
	PIName  = "Paula Investigator"
	PIEmail = "pi@flourish.test"
	SDName  = "Sam Director"
	SDEmail = "sd@flourish.test"
)

// SetupFixtures seeds two studies and three active risk factors plus one inactive
func SetupFixtures(t *testing.T, db *sql.DB) *Fixtures {
	t.Helper()

	f := &Fixtures{DB: db}
	f.Study = CreateStudy(t, db, models.Study{
		Site:                       "Flourish San Antonio",
		Sponsor:                    "Cardio Pharma",
		SponsorCode:                "CFP",
		Protocol:                   "CIN110112",
		Status:                     "Active",
		PrincipalInvestigator:      strPtr(PIName),
		PrincipalInvestigatorEmail: strPtr(PIEmail),
		SiteDirector:               strPtr(SDName),
		SiteDirectorEmail:          strPtr(SDEmail),
	})
	f.OtherStudy = CreateStudy(t, db, models.Study{
		Site:     "Boston Clinic",
		Protocol: "ONC-77",
		Status:   models.StudyStatusInactive,
	})

	for _, text := range []string{"Protocol complexity", "Staff turnover", "Recruitment risk"} {
		f.RiskFactors = append(f.RiskFactors, CreateRiskFactor(t, db, text, true))
	}
	CreateRiskFactor(t, db, "Retired factor", false)

	return f
}

// CreateStudy inserts a study
func CreateStudy(t *testing.T, db *sql.DB, s models.Study) *models.Study {
	t.Helper()

	if s.Status == "" {
		s.Status = "Active"
	}
	err := db.QueryRow(`
		INSERT INTO studies (site, sponsor, sponsor_code, protocol, description, status,
			principal_investigator, principal_investigator_email, site_director, site_director_email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`,
		s.Site, s.Sponsor, s.SponsorCode, s.Protocol, s.Description, s.Status,
		s.PrincipalInvestigator, s.PrincipalInvestigatorEmail, s.SiteDirector, s.SiteDirectorEmail,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		t.Fatalf("Failed to create study: %v", err)
	}
	return &s
}

// CreateRiskFactor inserts a risk factor
func CreateRiskFactor(t *testing.T, db *sql.DB, text string, active bool) models.RiskFactor {
	t.Helper()

	rf := models.RiskFactor{SectionID: 1, Text: text, IsActive: active}
	err := db.QueryRow(`
		INSERT INTO risk_factors (assessment_section_id, risk_factor_text, is_active)
		VALUES ($1, $2, $3)
		RETURNING id`,
		rf.SectionID, rf.Text, rf.IsActive,
	).Scan(&rf.ID)
	if err != nil {
		t.Fatalf("Failed to create risk factor: %v", err)
	}
	return rf
}

func strPtr(s string) *string { return &s }
