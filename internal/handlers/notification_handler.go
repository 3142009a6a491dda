package handlers

import (
	"context"
	"net/http"
	"strconv"

	"risk-assessment/internal/models"
	"risk-assessment/internal/service"
)

// NotificationInbox lists notifications and tracks their read state
type NotificationInbox interface {
	List(ctx context.Context, target models.Role, readStatus *bool) (*service.NotificationList, error)
	MarkRead(ctx context.Context, id uint) error
	MarkAllRead(ctx context.Context, target models.Role) (int64, error)
	UnreadCount(ctx context.Context, target models.Role) (int, error)
}

// MarkReadResponse confirms a single read-state change
type MarkReadResponse struct {
	ID      uint   `json:"id"`
	Message string `json:"message"`
}

// MarkAllReadResponse reports how many notifications were marked as read
type MarkAllReadResponse struct {
	UserType     models.Role `json:"user_type"`
	UpdatedCount int64       `json:"updated_count"`
}

// UnreadCountResponse is the number of unread notifications of a role
type UnreadCountResponse struct {
	UserType    models.Role `json:"user_type"`
	UnreadCount int         `json:"unread_count"`
}

// NotificationHandler handles notification requests
type NotificationHandler struct {
	notifications NotificationInbox
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifications NotificationInbox) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List returns the notifications addressed to a role
// @Summary List notifications
// @Description Notifications addressed to a role, newest first, with study information. Notifications of inactive studies are hidden and left out of unread_count.
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param user_type query string true "PI or SD"
// @Param read query bool false "Filter by read state"
// @Success 200 {object} service.NotificationList
// @Failure 400 {object} map[string]string "Invalid user type"
// @Router /notifications [get]
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	role, ok := userType(w, r)
	if !ok {
		return
	}

	var readStatus *bool
	if raw := r.URL.Query().Get("read"); raw != "" {
		read, err := strconv.ParseBool(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "read must be true or false")
			return
		}
		readStatus = &read
	}

	list, err := h.notifications.List(r.Context(), role, readStatus)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

// MarkRead marks one notification as read
// @Summary Mark notification as read
// @Description Idempotent, marking a read notification again succeeds
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} MarkReadResponse
// @Failure 400 {object} map[string]string "Invalid notification ID"
// @Failure 404 {object} map[string]string "Notification not found"
// @Router /notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidNotification)
		return
	}

	if err := h.notifications.MarkRead(r.Context(), id); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, MarkReadResponse{ID: id, Message: "Notification marked as read"})
}

// MarkAllRead marks every unread notification of a role as read
// @Summary Mark all notifications as read
// @Description Marks the unread notifications of a role as read across all studies
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param user_type query string true "PI or SD"
// @Success 200 {object} MarkAllReadResponse
// @Failure 400 {object} map[string]string "Invalid user type"
// @Router /notifications/mark-all-read [put]
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	role, ok := userType(w, r)
	if !ok {
		return
	}

	n, err := h.notifications.MarkAllRead(r.Context(), role)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, MarkAllReadResponse{UserType: role, UpdatedCount: n})
}

// UnreadCount returns the number of unread notifications of a role
// @Summary Count unread notifications
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param user_type query string true "PI or SD"
// @Success 200 {object} UnreadCountResponse
// @Failure 400 {object} map[string]string "Invalid user type"
// @Router /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	role, ok := userType(w, r)
	if !ok {
		return
	}

	n, err := h.notifications.UnreadCount(r.Context(), role)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, UnreadCountResponse{UserType: role, UnreadCount: n})
}

func userType(w http.ResponseWriter, r *http.Request) (models.Role, bool) {
	role, ok := models.ParseRole(r.URL.Query().Get("user_type"))
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidUserType)
	}
	return role, ok
}
