package handler

import (
	"net/http"
	"strconv"
	"time"

	"runny/backend/internal/models"
	"runny/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// UserSummary is the short profile embedded in request and message payloads.
type UserSummary struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// ConnectionRequestResponse describes one connection request.
type ConnectionRequestResponse struct {
	ID         uint                 `json:"id"`
	SenderID   uint                 `json:"sender_id"`
	ReceiverID uint                 `json:"receiver_id"`
	Status     models.RequestStatus `json:"status"`
	CreatedAt  time.Time            `json:"created_at"`
	Sender     *UserSummary         `json:"sender,omitempty"`
	Receiver   *UserSummary         `json:"receiver,omitempty"`
}

// RequestListResponse groups a user's pending requests by direction.
type RequestListResponse struct {
	Received []ConnectionRequestResponse `json:"received"`
	Sent     []ConnectionRequestResponse `json:"sent"`
}

func newRequestResponse(req models.ConnectionRequest, withSender, withReceiver bool) ConnectionRequestResponse {
	resp := ConnectionRequestResponse{
		ID:         req.ID,
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Status:     req.Status,
		CreatedAt:  req.CreatedAt,
	}
	if withSender && req.Sender.ID != 0 {
		resp.Sender = &UserSummary{ID: req.Sender.ID, Name: req.Sender.Name, AvatarURL: req.Sender.AvatarURL}
	}
	if withReceiver && req.Receiver.ID != 0 {
		resp.Receiver = &UserSummary{ID: req.Receiver.ID, Name: req.Receiver.Name, AvatarURL: req.Receiver.AvatarURL}
	}
	return resp
}

// endregion

// ConnectionHandler serves the connection-request workflow.
type ConnectionHandler struct {
	svc *service.ConnectionService
}

// NewConnectionHandler constructs the handler.
func NewConnectionHandler(svc *service.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{svc: svc}
}

// SendRequest godoc
// @Summary      Send connection request
// @Description  Sends a connection request to another user and notifies them.
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Target User ID"
// @Success      201  {object}  ConnectionRequestResponse
// @Failure      400  {object}  ErrorResponse "Cannot request yourself"
// @Failure      409  {object}  ErrorResponse "Already connected or request already pending"
// @Router       /users/{id}/request [post]
func (h *ConnectionHandler) SendRequest(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	targetUserID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target user ID"})
		return
	}

	req, err := h.svc.SendRequest(c.Request.Context(), viewerID.(uint), uint(targetUserID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newRequestResponse(*req, false, false))
}

// AcceptRequest godoc
// @Summary      Accept connection request
// @Description  Accepts a pending request addressed to the current user. The two users become connected and the sender is notified.
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Request ID"
// @Success      200  {object}  map[string]string "{"message": "Request accepted"}"
// @Failure      403  {object}  ErrorResponse "Request addressed to someone else"
// @Failure      404  {object}  ErrorResponse "Request not found"
// @Failure      409  {object}  ErrorResponse "Request no longer pending"
// @Router       /connections/{id}/accept [post]
func (h *ConnectionHandler) AcceptRequest(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	if err := h.svc.RespondToRequest(c.Request.Context(), viewerID.(uint), uint(requestID), service.RespondAccept); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Request accepted"})
}

// DeclineRequest godoc
// @Summary      Decline connection request
// @Description  Declines a pending request addressed to the current user. No notification is sent.
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Request ID"
// @Success      200  {object}  map[string]string "{"message": "Request declined"}"
// @Failure      403  {object}  ErrorResponse "Request addressed to someone else"
// @Failure      404  {object}  ErrorResponse "Request not found"
// @Failure      409  {object}  ErrorResponse "Request no longer pending"
// @Router       /connections/{id}/decline [post]
func (h *ConnectionHandler) DeclineRequest(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	if err := h.svc.RespondToRequest(c.Request.Context(), viewerID.(uint), uint(requestID), service.RespondReject); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Request declined"})
}

// CancelRequest godoc
// @Summary      Cancel a sent connection request
// @Description  Withdraws the pending request the current user sent to the target. Succeeds even when no pending request exists.
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Target User ID"
// @Success      200  {object}  map[string]string "{"message": "Request cancelled"}"
// @Failure      400  {object}  ErrorResponse
// @Router       /users/{id}/cancel [post]
func (h *ConnectionHandler) CancelRequest(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	targetUserID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target user ID"})
		return
	}

	if err := h.svc.CancelRequest(c.Request.Context(), viewerID.(uint), uint(targetUserID)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Request cancelled"})
}

// RemoveConnection godoc
// @Summary      Remove a connection
// @Description  Disconnects the current user from the target. Removing a connection that does not exist is not an error.
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Target User ID"
// @Success      200  {object}  map[string]string "{"message": "Connection removed"}"
// @Failure      400  {object}  ErrorResponse
// @Router       /users/{id}/remove [post]
func (h *ConnectionHandler) RemoveConnection(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	targetUserID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target user ID"})
		return
	}

	if err := h.svc.RemoveConnection(c.Request.Context(), viewerID.(uint), uint(targetUserID)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Connection removed"})
}

// ListRequests godoc
// @Summary      List pending connection requests
// @Description  Returns the current user's pending requests, received and sent. The two lists come from independent queries.
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  RequestListResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /connections/requests [get]
func (h *ConnectionHandler) ListRequests(c *gin.Context) {
	viewerID, _ := c.Get("userID")

	received, sent, err := h.svc.ListRequests(c.Request.Context(), viewerID.(uint))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := RequestListResponse{
		Received: make([]ConnectionRequestResponse, 0, len(received)),
		Sent:     make([]ConnectionRequestResponse, 0, len(sent)),
	}
	for _, req := range received {
		resp.Received = append(resp.Received, newRequestResponse(req, true, false))
	}
	for _, req := range sent {
		resp.Sent = append(resp.Sent, newRequestResponse(req, false, true))
	}

	c.JSON(http.StatusOK, resp)
}
