package handler

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"runny/backend/internal/hub"
	"runny/backend/internal/models"
	"runny/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// NotificationResponse describes one inbox entry.
type NotificationResponse struct {
	ID              uint                    `json:"id"`
	Type            models.NotificationType `json:"type"`
	SenderID        uint                    `json:"sender_id"`
	SenderName      string                  `json:"sender_name"`
	SenderAvatarURL string                  `json:"sender_avatar_url"`
	Read            bool                    `json:"read"`
	RequestID       *uint                   `json:"request_id,omitempty"`
	RunID           *uint                   `json:"run_id,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
}

func newNotificationResponse(n models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:              n.ID,
		Type:            n.Type,
		SenderID:        n.SenderID,
		SenderName:      n.SenderName,
		SenderAvatarURL: n.SenderAvatarURL,
		Read:            n.Read,
		RequestID:       n.RequestID,
		RunID:           n.RunID,
		CreatedAt:       n.CreatedAt,
	}
}

// endregion

// NotificationHandler serves the inbox and its live stream.
type NotificationHandler struct {
	svc *service.NotificationService
	hub *hub.Hub
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(svc *service.NotificationService, h *hub.Hub) *NotificationHandler {
	return &NotificationHandler{svc: svc, hub: h}
}

// List godoc
// @Summary      List notifications
// @Description  Returns the current user's notifications, newest first.
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        page  query  int  false  "Page number" default(1)
// @Param        limit query  int  false  "Items per page" default(10)
// @Success      200  {object}  PaginatedResponse[NotificationResponse]
// @Failure      401  {object}  ErrorResponse
// @Router       /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	page, limit := pageParams(c)

	notifications, totalItems, err := h.svc.List(c.Request.Context(), viewerID.(uint), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		responses = append(responses, newNotificationResponse(n))
	}

	c.JSON(http.StatusOK, NewPaginatedResponse(responses, totalItems, page, limit))
}

// UnreadCount godoc
// @Summary      Count unread notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]int64 "{"unread": 3}"
// @Failure      401  {object}  ErrorResponse
// @Router       /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	viewerID, _ := c.Get("userID")

	count, err := h.svc.UnreadCount(c.Request.Context(), viewerID.(uint))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// MarkRead godoc
// @Summary      Mark a notification as read
// @Description  Flips the read flag. Marking an already-read notification again is a no-op.
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Notification ID"
// @Success      200  {object}  map[string]string "{"message": "Marked as read"}"
// @Failure      404  {object}  ErrorResponse "Notification not found"
// @Router       /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification ID"})
		return
	}

	if err := h.svc.MarkRead(c.Request.Context(), viewerID.(uint), uint(id)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Marked as read"})
}

// Stream godoc
// @Summary      Live notification stream
// @Description  Server-sent events stream of the current user's notifications and messages. The subscription is torn down when the client disconnects.
// @Tags         notifications
// @Produce      text/event-stream
// @Security     BearerAuth
// @Success      200
// @Failure      401  {object}  ErrorResponse
// @Router       /notifications/stream [get]
func (h *NotificationHandler) Stream(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	userID := viewerID.(uint)

	client := h.hub.Subscribe(userID)
	defer h.hub.Unsubscribe(userID, client)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-client:
			if !ok {
				return false
			}
			c.SSEvent("message", string(msg))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
