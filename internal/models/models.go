package models

import (
	"strings"
	"time"
)

// Role is the lifecycle role a user holds for a specific study
type Role string

const (
	RolePI      Role = "PI"
	RoleSD      Role = "SD"
	RoleUnknown Role = "Unknown"
)

// ParseRole normalizes a user supplied role ("pi", "Sd", ...). Only PI and SD are accepted.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RolePI:
		return RolePI, true
	case RoleSD:
		return RoleSD, true
	default:
		return RoleUnknown, false
	}
}

// Complement returns the other party of the workflow. Unknown has no complement.
func (r Role) Complement() Role {
	switch r {
	case RolePI:
		return RoleSD
	case RoleSD:
		return RolePI
	default:
		return RoleUnknown
	}
}

// RiskLevel is the banded classification of a risk score
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "Low"
	RiskLevelMedium RiskLevel = "Medium"
	RiskLevelHigh   RiskLevel = "High"
)

// AuditField names the attribute an audit entry refers to
type AuditField string

const (
	FieldSeverity          AuditField = "Severity"
	FieldLikelihood        AuditField = "Likelihood"
	FieldRiskScore         AuditField = "Risk Score"
	FieldRiskLevel         AuditField = "Risk Level"
	FieldMitigationActions AuditField = "Mitigation Actions"
	FieldCustomNotes       AuditField = "Custom Notes"
)

// AuditFields lists every audited field in emission order
var AuditFields = []AuditField{
	FieldSeverity,
	FieldLikelihood,
	FieldRiskScore,
	FieldRiskLevel,
	FieldMitigationActions,
	FieldCustomNotes,
}

// ParseAuditField matches a field name case-insensitively
func ParseAuditField(s string) (AuditField, bool) {
	for _, f := range AuditFields {
		if strings.EqualFold(string(f), strings.TrimSpace(s)) {
			return f, true
		}
	}
	return "", false
}

// Actor identifies who performed a mutation
type Actor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RiskRecord is one row per (assessment, risk factor) pair
type RiskRecord struct {
	AssessmentID      uint    `json:"assessment_id" db:"assessment_id"`
	RiskFactorID      uint    `json:"risk_factor_id" db:"risk_factor_id"`
	Severity          int     `json:"severity" db:"severity"`
	Likelihood        int     `json:"likelihood" db:"likelihood"`
	MitigationActions *string `json:"mitigation_actions,omitempty" db:"mitigation_actions"`
	CustomNotes       *string `json:"custom_notes,omitempty" db:"custom_notes"`
}

// DerivedRiskState is computed from a RiskRecord and never accepted from callers
type DerivedRiskState struct {
	RiskScore int       `json:"risk_score"`
	RiskLevel RiskLevel `json:"risk_level"`
}

// RiskRecordWithDerived is a stored risk record together with its derived values
type RiskRecordWithDerived struct {
	RiskRecord
	DerivedRiskState
}

// AuditEntry is one immutable record of a single field change
type AuditEntry struct {
	ID             uint       `json:"id" db:"id"`
	AssessmentID   uint       `json:"assessment_id" db:"assessment_id"`
	RiskFactorID   uint       `json:"risk_factor_id" db:"risk_factor_id"`
	RiskFactorText *string    `json:"risk_factor,omitempty" db:"risk_factor_text"`
	FieldName      AuditField `json:"field" db:"field_name"`
	OldValue       *string    `json:"old_value" db:"old_value"`
	NewValue       *string    `json:"new_value" db:"new_value"`
	ChangedByName  string     `json:"changed_by" db:"changed_by_name"`
	ChangedByEmail string     `json:"changed_by_email" db:"changed_by_email"`
	ChangeReason   string     `json:"change_reason" db:"change_reason"`
	ChangedAt      time.Time  `json:"changed_at" db:"changed_at"`
}

// FieldCount is the number of audit entries for one field
type FieldCount struct {
	Field AuditField `json:"field"`
	Count int        `json:"count"`
}

// UserCount is the number of audit entries for one user
type UserCount struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Count int    `json:"count"`
}

// AuditSummary aggregates the audit trail of an assessment
type AuditSummary struct {
	AssessmentID   uint         `json:"assessment_id"`
	TotalChanges   int          `json:"total_changes"`
	ChangesByField []FieldCount `json:"changes_by_field"`
	ChangesByUser  []UserCount  `json:"changes_by_user"`
	LatestChange   *time.Time   `json:"latest_change,omitempty"`
}

// NotificationAction is the closed set of lifecycle events that produce notifications
type NotificationAction string

const (
	ActionInitialSave NotificationAction = "Initial Save"
	ActionSDCreated   NotificationAction = "SD Created"
	ActionApproved    NotificationAction = "Approved"
	ActionRejected    NotificationAction = "Rejected"
)

// Notification tells the target role that a lifecycle event happened
type Notification struct {
	ID             uint               `json:"id" db:"id"`
	AssessmentID   uint               `json:"assessment_id" db:"assessment_id"`
	StudyID        uint               `json:"study_id" db:"study_id"`
	Action         NotificationAction `json:"action" db:"action"`
	ActionByName   string             `json:"action_by_name" db:"action_by_name"`
	ActionByEmail  string             `json:"action_by_email" db:"action_by_email"`
	Reason         string             `json:"reason" db:"reason"`
	Comments       *string            `json:"comments" db:"comments"`
	TargetUserType Role               `json:"target_user_type" db:"target_user_type"`
	ActionDate     time.Time          `json:"action_date" db:"action_date"`
	ReadStatus     bool               `json:"read" db:"read_status"`
	CreatedAt      time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt      *time.Time         `json:"updated_at,omitempty" db:"updated_at"`
}

// NotificationWithStudy is a notification joined with the study it belongs to
type NotificationWithStudy struct {
	Notification
	Study StudyInfo `json:"study_info"`
}

// StudyInfo is the study projection shown alongside notifications
type StudyInfo struct {
	Site                       string  `json:"site"`
	Sponsor                    string  `json:"sponsor"`
	Protocol                   string  `json:"protocol"`
	Status                     string  `json:"study_status"`
	PrincipalInvestigator      *string `json:"pi_name,omitempty"`
	PrincipalInvestigatorEmail *string `json:"pi_email,omitempty"`
	SiteDirector               *string `json:"sd_name,omitempty"`
	SiteDirectorEmail          *string `json:"sd_email,omitempty"`
}

// Study is a clinical study at a site with its PI/SD assignment
type Study struct {
	ID                         uint      `json:"id" db:"id"`
	Site                       string    `json:"site" db:"site"`
	Sponsor                    string    `json:"sponsor" db:"sponsor"`
	SponsorCode                string    `json:"sponsor_code" db:"sponsor_code"`
	Protocol                   string    `json:"protocol" db:"protocol"`
	Description                string    `json:"description" db:"description"`
	Status                     string    `json:"status" db:"status"`
	PrincipalInvestigator      *string   `json:"principal_investigator,omitempty" db:"principal_investigator"`
	PrincipalInvestigatorEmail *string   `json:"principal_investigator_email,omitempty" db:"principal_investigator_email"`
	SiteDirector               *string   `json:"site_director,omitempty" db:"site_director"`
	SiteDirectorEmail          *string   `json:"site_director_email,omitempty" db:"site_director_email"`
	CreatedAt                  time.Time `json:"created_at" db:"created_at"`
}

// StudyStatusInactive marks studies hidden from notification listings
const StudyStatusInactive = "Inactive"

// AssessmentStatus is the lifecycle state of an assessment
type AssessmentStatus string

const (
	StatusInProgress    AssessmentStatus = "In Progress"
	StatusPendingReview AssessmentStatus = "Pending Review"
	StatusApproved      AssessmentStatus = "Approved"
	StatusRejected      AssessmentStatus = "Rejected"
	StatusCompleted     AssessmentStatus = "Completed"
)

// Reviewable reports whether an SD decision may be recorded in this state
func (s AssessmentStatus) Reviewable() bool {
	return s == StatusInProgress || s == StatusPendingReview
}

// Assessment is the risk assessment of a study
type Assessment struct {
	ID                 uint             `json:"id" db:"id"`
	StudyID            uint             `json:"study_id" db:"study_id"`
	AssessmentCode     string           `json:"assessment_id" db:"assessment_code"`
	AssessmentDate     time.Time        `json:"assessment_date" db:"assessment_date"`
	NextReviewDate     *time.Time       `json:"next_review_date,omitempty" db:"next_review_date"`
	MonitoringSchedule *string          `json:"monitoring_schedule,omitempty" db:"monitoring_schedule"`
	Status             AssessmentStatus `json:"status" db:"status"`
	OverallRiskScore   *int             `json:"overall_risk_score,omitempty" db:"overall_risk_score"`
	OverallRiskLevel   *string          `json:"overall_risk_level,omitempty" db:"overall_risk_level"`
	Comments           *string          `json:"comments,omitempty" db:"comments"`
	ConductedByName    string           `json:"conducted_by_name" db:"conducted_by_name"`
	ConductedByEmail   string           `json:"conducted_by_email" db:"conducted_by_email"`
	UpdatedByName      string           `json:"updated_by_name" db:"updated_by_name"`
	UpdatedByEmail     string           `json:"updated_by_email" db:"updated_by_email"`
	CreatedAt          time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at" db:"updated_at"`
}

// Approval is one entry of an assessment's decision history
type Approval struct {
	ID            uint      `json:"id" db:"id"`
	AssessmentID  uint      `json:"assessment_id" db:"assessment_id"`
	Action        string    `json:"action" db:"action"`
	ActionByName  string    `json:"action_by_name" db:"action_by_name"`
	ActionByEmail string    `json:"action_by_email" db:"action_by_email"`
	Reason        string    `json:"reason" db:"reason"`
	Comments      *string   `json:"comments,omitempty" db:"comments"`
	ActionDate    time.Time `json:"action_date" db:"action_date"`
}

// RiskFactor is a catalogued risk factor
type RiskFactor struct {
	ID        uint    `json:"id" db:"id"`
	SectionID uint    `json:"assessment_section_id" db:"assessment_section_id"`
	Text      string  `json:"risk_factor_text" db:"risk_factor_text"`
	Code      *string `json:"risk_factor_code,omitempty" db:"risk_factor_code"`
	IsActive  bool    `json:"is_active" db:"is_active"`
}
