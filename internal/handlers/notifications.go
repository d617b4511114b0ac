package handlers

import (
	"net/http"

	"github.com/ukydev/machinery-dashboard/internal/db"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationHandler serves the caller's in-app notifications.
type NotificationHandler struct {
	notifications db.NotificationCollection
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifications db.NotificationCollection) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) userID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return primitive.NilObjectID, false
	}
	oid, err := db.ParseID(claims.UserID)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return primitive.NilObjectID, false
	}
	return oid, true
}

// List returns the caller's notifications, newest first. ?unread=true limits
// the result to unread ones.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	unreadOnly := r.URL.Query().Get("unread") == "true"

	notifications, err := h.notifications.FindNotificationsForUser(r.Context(), userID, unreadOnly)
	if err != nil {
		respondDBError(w, r, err, "Notification not found")
		return
	}
	respondJSON(w, http.StatusOK, notifications)
}

// UnreadCount returns {"count": n}.
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	count, err := h.notifications.CountUnread(r.Context(), userID)
	if err != nil {
		respondDBError(w, r, err, "Notification not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"count": count})
}

// MarkRead marks one of the caller's notifications as read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(r.Context(), r.PathValue("id"), userID); err != nil {
		respondDBError(w, r, err, "Notification not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// MarkAllRead marks every notification of the caller as read.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	updated, err := h.notifications.MarkAllRead(r.Context(), userID)
	if err != nil {
		respondDBError(w, r, err, "Notification not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}
