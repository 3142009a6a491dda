package handlers

import (
	"context"
	"net/http"
	"strconv"

	"risk-assessment/internal/models"
	"risk-assessment/internal/service"
)

// AuditTrailReader reads the audit trail of assessments
type AuditTrailReader interface {
	Trail(ctx context.Context, assessmentID uint, q service.TrailQuery) ([]models.AuditEntry, error)
	FieldChanges(ctx context.Context, assessmentID uint, field models.AuditField, riskFactorID *uint, limit int) ([]models.AuditEntry, error)
	UserChanges(ctx context.Context, assessmentID uint, email string, limit int) ([]models.AuditEntry, error)
	RiskFactorChanges(ctx context.Context, assessmentID, riskFactorID uint, limit int) ([]models.AuditEntry, error)
	Summary(ctx context.Context, assessmentID uint) (*models.AuditSummary, error)
}

// AuditTrailResponse is a slice of the audit trail of one assessment
type AuditTrailResponse struct {
	AssessmentID uint                `json:"assessment_id"`
	Field        *models.AuditField  `json:"field,omitempty"`
	RiskFactorID *uint               `json:"risk_factor_id,omitempty"`
	UserEmail    string              `json:"user_email,omitempty"`
	AuditTrail   []models.AuditEntry `json:"audit_trail"`
	TotalRecords int                 `json:"total_records"`
}

// AuditHandler handles audit trail requests
type AuditHandler struct {
	audits AuditTrailReader
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(audits AuditTrailReader) *AuditHandler {
	return &AuditHandler{
		audits: audits,
	}
}

// GetAuditTrail returns the audit trail of an assessment
// @Summary Get audit trail
// @Description Chronological audit trail of an assessment, optionally filtered by field and risk factor
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param assessmentId path int true "Assessment ID"
// @Param field query string false "Field name (Severity, Likelihood, Risk Score, Risk Level, Mitigation Actions, Custom Notes)"
// @Param risk_factor_id query int false "Risk factor ID"
// @Param limit query int false "Maximum number of entries" default(100)
// @Success 200 {object} AuditTrailResponse
// @Failure 400 {object} map[string]string "Invalid parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /audit-trail/{assessmentId} [get]
func (h *AuditHandler) GetAuditTrail(w http.ResponseWriter, r *http.Request) {
	assessmentID, riskFactorID, limit, ok := h.commonParams(w, r)
	if !ok {
		return
	}

	var field *models.AuditField
	if raw := firstQuery(r, "field", "field_name"); raw != "" {
		f, ok := models.ParseAuditField(raw)
		if !ok {
			respondWithError(w, http.StatusBadRequest, "Unknown audit field: "+raw)
			return
		}
		field = &f
	}

	entries, err := h.audits.Trail(r.Context(), assessmentID, service.TrailQuery{
		Field:        field,
		RiskFactorID: riskFactorID,
		Limit:        limit,
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, AuditTrailResponse{
		AssessmentID: assessmentID,
		Field:        field,
		RiskFactorID: riskFactorID,
		AuditTrail:   entries,
		TotalRecords: len(entries),
	})
}

// GetSeverityChanges returns the severity changes of an assessment
// @Summary Get severity changes
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param assessmentId path int true "Assessment ID"
// @Param risk_factor_id query int false "Risk factor ID"
// @Success 200 {object} AuditTrailResponse
// @Failure 400 {object} map[string]string "Invalid parameters"
// @Router /audit-trail/{assessmentId}/severity-changes [get]
func (h *AuditHandler) GetSeverityChanges(w http.ResponseWriter, r *http.Request) {
	h.fieldChanges(w, r, models.FieldSeverity)
}

// GetRiskScoreChanges returns the risk score changes of an assessment
// @Summary Get risk score changes
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param assessmentId path int true "Assessment ID"
// @Param risk_factor_id query int false "Risk factor ID"
// @Success 200 {object} AuditTrailResponse
// @Failure 400 {object} map[string]string "Invalid parameters"
// @Router /audit-trail/{assessmentId}/risk-score-changes [get]
func (h *AuditHandler) GetRiskScoreChanges(w http.ResponseWriter, r *http.Request) {
	h.fieldChanges(w, r, models.FieldRiskScore)
}

// GetRiskLevelChanges returns the risk level changes of an assessment
// @Summary Get risk level changes
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param assessmentId path int true "Assessment ID"
// @Param risk_factor_id query int false "Risk factor ID"
// @Success 200 {object} AuditTrailResponse
// @Failure 400 {object} map[string]string "Invalid parameters"
// @Router /audit-trail/{assessmentId}/risk-level-changes [get]
func (h *AuditHandler) GetRiskLevelChanges(w http.ResponseWriter, r *http.Request) {
	h.fieldChanges(w, r, models.FieldRiskLevel)
}

func (h *AuditHandler) fieldChanges(w http.ResponseWriter, r *http.Request, field models.AuditField) {
	assessmentID, riskFactorID, limit, ok := h.commonParams(w, r)
	if !ok {
		return
	}

	entries, err := h.audits.FieldChanges(r.Context(), assessmentID, field, riskFactorID, limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, AuditTrailResponse{
		AssessmentID: assessmentID,
		Field:        &field,
		RiskFactorID: riskFactorID,
		AuditTrail:   entries,
		TotalRecords: len(entries),
	})
}

// GetUserChanges returns the changes made by one user
// @Summary Get changes by user
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param assessmentId path int true "Assessment ID"
// @Param email query string true "User email (case-insensitive)"
// @Success 200 {object} AuditTrailResponse
// @Failure 400 {object} map[string]string "Missing email"
// @Router /audit-trail/{assessmentId}/user-changes [get]
func (h *AuditHandler) GetUserChanges(w http.ResponseWriter, r *http.Request) {
	assessmentID, _, limit, ok := h.commonParams(w, r)
	if !ok {
		return
	}

	email := firstQuery(r, "email", "user_email")
	entries, err := h.audits.UserChanges(r.Context(), assessmentID, email, limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, AuditTrailResponse{
		AssessmentID: assessmentID,
		UserEmail:    email,
		AuditTrail:   entries,
		TotalRecords: len(entries),
	})
}

// GetRiskFactorChanges returns the audit trail of one risk factor
// @Summary Get risk factor audit trail
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param assessmentId path int true "Assessment ID"
// @Param riskFactorId path int true "Risk factor ID"
// @Success 200 {object} AuditTrailResponse
// @Failure 400 {object} map[string]string "Invalid parameters"
// @Router /audit-trail/{assessmentId}/risk-factor/{riskFactorId} [get]
func (h *AuditHandler) GetRiskFactorChanges(w http.ResponseWriter, r *http.Request) {
	assessmentID, _, limit, ok := h.commonParams(w, r)
	if !ok {
		return
	}

	riskFactorID, ok := pathID(r, "riskFactorId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRiskFactorID)
		return
	}

	entries, err := h.audits.RiskFactorChanges(r.Context(), assessmentID, riskFactorID, limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, AuditTrailResponse{
		AssessmentID: assessmentID,
		RiskFactorID: &riskFactorID,
		AuditTrail:   entries,
		TotalRecords: len(entries),
	})
}

// GetSummary returns aggregated audit statistics
// @Summary Get audit summary
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param assessmentId path int true "Assessment ID"
// @Success 200 {object} models.AuditSummary
// @Failure 400 {object} map[string]string "Invalid assessment ID"
// @Router /audit-trail/{assessmentId}/summary [get]
func (h *AuditHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	assessmentID, ok := pathID(r, "assessmentId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidAssessmentID)
		return
	}

	summary, err := h.audits.Summary(r.Context(), assessmentID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

// commonParams parses the assessment id, the optional risk_factor_id filter and the limit.
// It writes the error response itself.
func (h *AuditHandler) commonParams(w http.ResponseWriter, r *http.Request) (assessmentID uint, riskFactorID *uint, limit int, ok bool) {
	assessmentID, ok = pathID(r, "assessmentId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidAssessmentID)
		return 0, nil, 0, false
	}

	if raw := r.URL.Query().Get("risk_factor_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRiskFactorID)
			return 0, nil, 0, false
		}
		rf := uint(id)
		riskFactorID = &rf
	}

	limit, ok = queryLimit(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidLimit)
		return 0, nil, 0, false
	}
	return assessmentID, riskFactorID, limit, true
}

// firstQuery returns the first non-empty query parameter among names
func firstQuery(r *http.Request, names ...string) string {
	q := r.URL.Query()
	for _, name := range names {
		if v := q.Get(name); v != "" {
			return v
		}
	}
	return ""
}
