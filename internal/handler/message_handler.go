package handler

import (
	"net/http"
	"strconv"
	"time"

	"runny/backend/internal/hub"
	"runny/backend/internal/models"
	"runny/backend/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// region --- DTOs ---

// MessageInput defines the body of a direct message.
type MessageInput struct {
	Content string `json:"content" binding:"required,max=2000"`
}

// MessageResponse describes one chat message.
type MessageResponse struct {
	ID         uint      `json:"id"`
	SenderID   uint      `json:"sender_id"`
	ReceiverID uint      `json:"receiver_id"`
	Content    string    `json:"content"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

func newMessageResponse(m models.Message) MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		Read:       m.Read,
		CreatedAt:  m.CreatedAt,
	}
}

// endregion

// MessageHandler serves direct chat between connected users.
type MessageHandler struct {
	db          *gorm.DB
	connections *service.ConnectionService
	hub         *hub.Hub
}

// NewMessageHandler constructs the handler.
func NewMessageHandler(db *gorm.DB, connections *service.ConnectionService, h *hub.Hub) *MessageHandler {
	return &MessageHandler{db: db, connections: connections, hub: h}
}

// SendMessage godoc
// @Summary      Send a direct message
// @Description  Sends a chat message to a connected user and pushes it to their live stream.
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int          true "Receiver User ID"
// @Param        input body MessageInput true "Message"
// @Success      201  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Users are not connected"
// @Router       /messages/{id} [post]
func (h *MessageHandler) SendMessage(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	receiverID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid receiver ID"})
		return
	}

	var input MessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Chat is restricted to connected users.
	status, err := h.connections.QueryStatus(c.Request.Context(), viewerID.(uint), uint(receiverID))
	if err != nil {
		respondError(c, err)
		return
	}
	if status != service.ConnectionConnected {
		respondError(c, service.ErrNotConnected)
		return
	}

	message := models.Message{
		SenderID:   viewerID.(uint),
		ReceiverID: uint(receiverID),
		Content:    input.Content,
	}
	if err := h.db.Create(&message).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	resp := newMessageResponse(message)
	h.hub.Publish(uint(receiverID), "message", resp)

	c.JSON(http.StatusCreated, resp)
}

// ListConversation godoc
// @Summary      Get a conversation
// @Description  Returns the message history with another user, oldest first, and marks the received messages as read.
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  int true  "Other User ID"
// @Param        page  query int false "Page number" default(1)
// @Param        limit query int false "Items per page" default(10)
// @Success      200  {object}  PaginatedResponse[MessageResponse]
// @Failure      400  {object}  ErrorResponse
// @Router       /messages/{id} [get]
func (h *MessageHandler) ListConversation(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	otherID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	page, limit := pageParams(c)

	query := h.db.Model(&models.Message{}).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			viewerID, otherID, otherID, viewerID)

	var totalItems int64
	if err := query.Count(&totalItems).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count messages"})
		return
	}

	var messages []models.Message
	err = query.Order("created_at ASC").Offset((page - 1) * limit).Limit(limit).Find(&messages).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve messages"})
		return
	}

	// Opening the conversation marks the other side's messages as read.
	h.db.Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND read = ?", otherID, viewerID, false).
		Update("read", true)

	responses := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		responses = append(responses, newMessageResponse(m))
	}

	c.JSON(http.StatusOK, NewPaginatedResponse(responses, totalItems, page, limit))
}
