package handlers

// Common error message constants shared across handlers
const (
	ErrMsgInvalidRequestBody  = "Invalid request body"
	ErrMsgUnauthorized        = "Unauthorized"
	ErrMsgInvalidAssessmentID = "Invalid assessment ID"
	ErrMsgInvalidRiskFactorID = "Invalid risk factor ID"
	ErrMsgInvalidStudyID      = "Invalid study ID"
	ErrMsgInvalidNotification = "Invalid notification ID"
	ErrMsgInvalidUserType     = "user_type must be PI or SD"
	ErrMsgInvalidLimit        = "limit must be a non-negative integer"
	ErrMsgConflict            = "The assessment was modified concurrently, please retry"
	ErrMsgUnavailable         = "Service temporarily unavailable"
	ErrMsgInternal            = "Internal server error"
)

// API path constants
const (
	AssessmentAPIBasePath   = "/api/v1/assessments"
	AuditTrailAPIBasePath   = "/api/v1/audit-trail"
	StudyAPIBasePath        = "/api/v1/studies"
	NotificationAPIBasePath = "/api/v1/notifications"
)
