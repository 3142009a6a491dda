package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"risk-assessment/internal/middleware"
	"risk-assessment/internal/models"
	"risk-assessment/internal/repository"
	"risk-assessment/internal/service"
)

// AssessmentWorkflow is the assessment lifecycle used by AssessmentHandler
type AssessmentWorkflow interface {
	Save(ctx context.Context, in service.SaveAssessmentInput, actor models.Actor) (*service.SaveResult, error)
	SaveDraft(ctx context.Context, in service.SaveAssessmentInput, actor models.Actor) (*service.SaveResult, error)
	Submit(ctx context.Context, in service.SaveAssessmentInput, actor models.Actor) (*service.SaveResult, error)
	Approve(ctx context.Context, assessmentID uint, in service.DecisionInput, actor models.Actor) (*service.DecisionResult, error)
	Reject(ctx context.Context, assessmentID uint, in service.DecisionInput, actor models.Actor) (*service.DecisionResult, error)
	Get(ctx context.Context, assessmentID uint) (*service.AssessmentDetail, error)
	GetByStudy(ctx context.Context, studyID uint) (*service.AssessmentDetail, error)
	EditPermission(ctx context.Context, studyID uint, actor models.Actor) (*service.EditPermission, error)
	MyStudies(ctx context.Context, actor models.Actor) ([]repository.StudyAssignment, error)
	RiskFactors(ctx context.Context) ([]models.RiskFactor, error)
}

// AssessmentHandler handles assessment requests
type AssessmentHandler struct {
	assessments AssessmentWorkflow
}

// NewAssessmentHandler creates a new assessment handler
func NewAssessmentHandler(assessments AssessmentWorkflow) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments}
}

type saveFunc func(ctx context.Context, in service.SaveAssessmentInput, actor models.Actor) (*service.SaveResult, error)

// Save stores a complete assessment
// @Summary Save assessment
// @Description Create or update the assessment of a study. Score and level are computed server side. Changes are audited and the counterpart role is notified.
// @Tags Assessments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.SaveAssessmentInput true "Assessment"
// @Success 200 {object} service.SaveResult "Assessment updated"
// @Success 201 {object} service.SaveResult "Assessment created"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Concurrent modification"
// @Router /assessments/save [post]
func (h *AssessmentHandler) Save(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, h.assessments.Save)
}

// SaveDraft stores a partial assessment
// @Summary Save assessment draft
// @Description Store a partial assessment. The assessment stays In Progress and nobody is notified.
// @Tags Assessments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.SaveAssessmentInput true "Assessment draft"
// @Success 200 {object} service.SaveResult "Draft updated"
// @Success 201 {object} service.SaveResult "Draft created"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /assessments/draft [post]
func (h *AssessmentHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, h.assessments.SaveDraft)
}

// Submit saves the assessment and marks it completed
// @Summary Submit assessment
// @Description Save the assessment and mark it Completed
// @Tags Assessments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.SaveAssessmentInput true "Assessment"
// @Success 200 {object} service.SaveResult "Assessment submitted"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /assessments/submit [post]
func (h *AssessmentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, h.assessments.Submit)
}

func (h *AssessmentHandler) save(w http.ResponseWriter, r *http.Request, fn saveFunc) {
	actor, ok := middleware.GetActor(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req service.SaveAssessmentInput
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	res, err := fn(r.Context(), req, actor)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	code := http.StatusOK
	if res.Created {
		code = http.StatusCreated
	}
	respondWithJSON(w, code, res)
}

// Approve records an approval
// @Summary Approve assessment
// @Description Approve an assessment that is In Progress or Pending Review. The PI is notified.
// @Tags Assessments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assessment ID"
// @Param request body service.DecisionInput false "Decision"
// @Success 200 {object} service.DecisionResult
// @Failure 400 {object} map[string]string "Invalid request or status"
// @Failure 404 {object} map[string]string "Assessment not found"
// @Router /assessments/{id}/approve [post]
func (h *AssessmentHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.assessments.Approve)
}

// Reject records a rejection
// @Summary Reject assessment
// @Description Reject an assessment that is In Progress or Pending Review. A reason is required. The PI is notified.
// @Tags Assessments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assessment ID"
// @Param request body service.DecisionInput true "Decision"
// @Success 200 {object} service.DecisionResult
// @Failure 400 {object} map[string]string "Invalid request or status"
// @Failure 404 {object} map[string]string "Assessment not found"
// @Router /assessments/{id}/reject [post]
func (h *AssessmentHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.assessments.Reject)
}

func (h *AssessmentHandler) decide(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, assessmentID uint, in service.DecisionInput, actor models.Actor) (*service.DecisionResult, error),
) {
	actor, ok := middleware.GetActor(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidAssessmentID)
		return
	}

	// An approval may be sent without a body
	var req service.DecisionInput
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	res, err := fn(r.Context(), id, req, actor)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	slog.Debug("Decision recorded", "assessment_id", id, "status", res.Assessment.Status)
	respondWithJSON(w, http.StatusOK, res)
}

// Get returns an assessment with its risk records and decision history
// @Summary Get assessment
// @Tags Assessments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assessment ID"
// @Success 200 {object} service.AssessmentDetail
// @Failure 400 {object} map[string]string "Invalid assessment ID"
// @Failure 404 {object} map[string]string "Assessment not found"
// @Router /assessments/{id} [get]
func (h *AssessmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidAssessmentID)
		return
	}

	detail, err := h.assessments.Get(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, detail)
}

// GetByStudy returns the assessment of a study
// @Summary Get assessment by study
// @Tags Assessments
// @Produce json
// @Security BearerAuth
// @Param studyId path int true "Study ID"
// @Success 200 {object} service.AssessmentDetail
// @Failure 400 {object} map[string]string "Invalid study ID"
// @Failure 404 {object} map[string]string "Study has no assessment"
// @Router /assessments/by-study/{studyId} [get]
func (h *AssessmentHandler) GetByStudy(w http.ResponseWriter, r *http.Request) {
	studyID, ok := pathID(r, "studyId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidStudyID)
		return
	}

	detail, err := h.assessments.GetByStudy(r.Context(), studyID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, detail)
}

// EditPermission tells whether the caller may edit the assessment of a study
// @Summary Check assessment edit permission
// @Description Only the PI or SD of an active study may edit its assessment
// @Tags Studies
// @Produce json
// @Security BearerAuth
// @Param studyId path int true "Study ID"
// @Success 200 {object} service.EditPermission
// @Failure 400 {object} map[string]string "Invalid study ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Study not found or inactive"
// @Router /studies/{studyId}/edit-permission [get]
func (h *AssessmentHandler) EditPermission(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}
	studyID, ok := pathID(r, "studyId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidStudyID)
		return
	}

	perm, err := h.assessments.EditPermission(r.Context(), studyID, actor)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, perm)
}

// MyStudies lists the studies the caller is PI or SD of
// @Summary List my studies
// @Tags Studies
// @Produce json
// @Security BearerAuth
// @Success 200 {array} repository.StudyAssignment
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /studies/mine [get]
func (h *AssessmentHandler) MyStudies(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	studies, err := h.assessments.MyStudies(r.Context(), actor)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, studies)
}

// RiskFactors lists the active risk factors
// @Summary List risk factors
// @Tags Studies
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.RiskFactor
// @Router /risk-factors [get]
func (h *AssessmentHandler) RiskFactors(w http.ResponseWriter, r *http.Request) {
	factors, err := h.assessments.RiskFactors(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, factors)
}
