package handler

import (
	"net/http"
	"strconv"
	"time"

	"runny/backend/internal/models"
	"runny/backend/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// region --- DTOs ---

// RunInput defines the fields for creating or updating a run.
type RunInput struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	Latitude    float64   `json:"latitude" binding:"required"`
	Longitude   float64   `json:"longitude" binding:"required"`
	StartsAt    time.Time `json:"starts_at" binding:"required"`
	MaxMembers  int       `json:"max_members" binding:"required,min=2,max=50"`
}

// RunResponse describes a run with its host and members.
type RunResponse struct {
	ID          uint          `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Latitude    float64       `json:"latitude"`
	Longitude   float64       `json:"longitude"`
	StartsAt    time.Time     `json:"starts_at"`
	MaxMembers  int           `json:"max_members"`
	Host        UserSummary   `json:"host"`
	Members     []UserSummary `json:"members"`
}

// JoinRequestResponse describes one pending join request for a run's host.
type JoinRequestResponse struct {
	RunID         uint                 `json:"run_id"`
	UserID        uint                 `json:"user_id"`
	UserName      string               `json:"user_name"`
	UserAvatarURL string               `json:"user_avatar_url"`
	Status        models.RequestStatus `json:"status"`
	CreatedAt     time.Time            `json:"created_at"`
}

func newRunResponse(run models.Run) RunResponse {
	members := make([]UserSummary, 0, len(run.Members))
	for _, m := range run.Members {
		members = append(members, UserSummary{ID: m.ID, Name: m.Name, AvatarURL: m.AvatarURL})
	}

	return RunResponse{
		ID:          run.ID,
		Title:       run.Title,
		Description: run.Description,
		Latitude:    run.Latitude,
		Longitude:   run.Longitude,
		StartsAt:    run.StartsAt,
		MaxMembers:  run.MaxMembers,
		Host:        UserSummary{ID: run.Host.ID, Name: run.Host.Name, AvatarURL: run.Host.AvatarURL},
		Members:     members,
	}
}

// endregion

// RunHandler serves group runs and their join workflow.
type RunHandler struct {
	db  *gorm.DB
	svc *service.RunService
}

// NewRunHandler constructs the handler.
func NewRunHandler(db *gorm.DB, svc *service.RunService) *RunHandler {
	return &RunHandler{db: db, svc: svc}
}

// CreateRun godoc
// @Summary      Create a new run
// @Description  Creates a run, making the creator the host and first member.
// @Tags         runs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body RunInput true "Run Info"
// @Success      201  {object}  RunResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /runs [post]
func (h *RunHandler) CreateRun(c *gin.Context) {
	userID, _ := c.Get("userID")

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var input RunInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	run := models.Run{
		HostID:      user.ID,
		Title:       input.Title,
		Description: input.Description,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		StartsAt:    input.StartsAt,
		MaxMembers:  input.MaxMembers,
	}

	// Use a transaction so the run never exists without its host as a member
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return err
		}
		return tx.Model(&run).Association("Members").Append(&user)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create run"})
		return
	}

	h.db.Preload("Host").Preload("Members").First(&run, run.ID)
	c.JSON(http.StatusCreated, newRunResponse(run))
}

// upcomingRunsQuery filters to upcoming runs that still have open spots.
func (h *RunHandler) upcomingRunsQuery() *gorm.DB {
	return h.db.Model(&models.Run{}).
		Where("starts_at > ?", time.Now()).
		Joins("LEFT JOIN run_members ON run_members.run_id = runs.id").
		Group("runs.id").
		Having("COUNT(run_members.user_id) < runs.max_members") // Filter out full runs
}

// countDistinctRuns totals the filtered runs on its own statement. Counting on
// the caller's chain would leave DISTINCT("runs"."id") behind as the select,
// stripping every other column from the listing query that follows.
func countDistinctRuns(query *gorm.DB) (int64, error) {
	var totalItems int64
	err := query.Session(&gorm.Session{}).Distinct("runs.id").Count(&totalItems).Error
	return totalItems, err
}

// SearchRuns godoc
// @Summary      Search for runs
// @Description  Gets a paginated list of upcoming runs with open spots, optionally near a position.
// @Tags         runs
// @Produce      json
// @Security     BearerAuth
// @Param        lat       query number false "Latitude to search around"
// @Param        lng       query number false "Longitude to search around"
// @Param        radius_km query number false "Radius in kilometers" default(10)
// @Param        page      query int    false "Page number" default(1)
// @Param        limit     query int    false "Items per page" default(10)
// @Success      200 {object} PaginatedResponse[RunResponse]
// @Router       /runs [get]
func (h *RunHandler) SearchRuns(c *gin.Context) {
	page, limit := pageParams(c)

	query := h.upcomingRunsQuery()

	latStr, lngStr := c.Query("lat"), c.Query("lng")
	if latStr != "" && lngStr != "" {
		lat, errLat := strconv.ParseFloat(latStr, 64)
		lng, errLng := strconv.ParseFloat(lngStr, 64)
		if errLat != nil || errLng != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lat/lng"})
			return
		}
		radiusKm, err := strconv.ParseFloat(c.DefaultQuery("radius_km", "10"), 64)
		if err != nil || radiusKm <= 0 || radiusKm > 200 {
			radiusKm = 10
		}
		latDelta := radiusKm / 111.0
		lngDelta := radiusKm / 111.0 / cosDeg(lat)
		query = query.
			Where("runs.latitude BETWEEN ? AND ?", lat-latDelta, lat+latDelta).
			Where("runs.longitude BETWEEN ? AND ?", lng-lngDelta, lng+lngDelta)
	}

	totalItems, err := countDistinctRuns(query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count runs"})
		return
	}

	var runs []models.Run
	err = query.
		Preload("Host").
		Preload("Members").
		Order("runs.starts_at ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve runs"})
		return
	}

	responses := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		responses = append(responses, newRunResponse(run))
	}

	c.JSON(http.StatusOK, NewPaginatedResponse(responses, totalItems, page, limit))
}

// GetRunByID godoc
// @Summary      Get a run by ID
// @Description  Gets full details for a single run.
// @Tags         runs
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Run ID"
// @Success      200 {object} RunResponse
// @Failure      404 {object} ErrorResponse "Run not found"
// @Router       /runs/{id} [get]
func (h *RunHandler) GetRunByID(c *gin.Context) {
	runID, _ := strconv.Atoi(c.Param("id"))

	var run models.Run
	if err := h.db.Preload("Host").Preload("Members").First(&run, runID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}

	c.JSON(http.StatusOK, newRunResponse(run))
}

// RequestJoin godoc
// @Summary      Ask to join a run
// @Description  Creates a pending join request and notifies the host.
// @Tags         runs
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Run ID"
// @Success      201 {object} JoinRequestResponse
// @Failure      404 {object} ErrorResponse "Run not found"
// @Failure      409 {object} ErrorResponse "Already a member, already asked, or run is full"
// @Router       /runs/{id}/join [post]
func (h *RunHandler) RequestJoin(c *gin.Context) {
	userID, _ := c.Get("userID")
	runID, _ := strconv.Atoi(c.Param("id"))

	req, err := h.svc.RequestJoin(c.Request.Context(), uint(runID), userID.(uint))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, JoinRequestResponse{
		RunID:         req.RunID,
		UserID:        req.UserID,
		UserName:      req.UserName,
		UserAvatarURL: req.UserAvatarURL,
		Status:        req.Status,
		CreatedAt:     req.CreatedAt,
	})
}

// ListJoinRequests godoc
// @Summary      List a run's pending join requests (Host only)
// @Tags         runs
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Run ID"
// @Success      200 {array} JoinRequestResponse
// @Failure      403 {object} ErrorResponse "Only the host can view join requests"
// @Failure      404 {object} ErrorResponse "Run not found"
// @Router       /runs/{id}/requests [get]
func (h *RunHandler) ListJoinRequests(c *gin.Context) {
	userID, _ := c.Get("userID")
	runID, _ := strconv.Atoi(c.Param("id"))

	reqs, err := h.svc.PendingRequests(c.Request.Context(), userID.(uint), uint(runID))
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]JoinRequestResponse, 0, len(reqs))
	for _, req := range reqs {
		responses = append(responses, JoinRequestResponse{
			RunID:         req.RunID,
			UserID:        req.UserID,
			UserName:      req.UserName,
			UserAvatarURL: req.UserAvatarURL,
			Status:        req.Status,
			CreatedAt:     req.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, responses)
}

// AcceptJoinRequest godoc
// @Summary      Accept a join request (Host only)
// @Description  Adds the requester to the run and notifies them.
// @Tags         runs
// @Produce      json
// @Security     BearerAuth
// @Param        id     path int true "Run ID"
// @Param        userID path int true "Requesting User ID"
// @Success      200 {object} map[string]string "{"message": "Request accepted"}"
// @Failure      403 {object} ErrorResponse "Only the host can respond"
// @Failure      404 {object} ErrorResponse "Run or request not found"
// @Failure      409 {object} ErrorResponse "Run is full or request no longer pending"
// @Router       /runs/{id}/requests/{userID}/accept [post]
func (h *RunHandler) AcceptJoinRequest(c *gin.Context) {
	hostID, _ := c.Get("userID")
	runID, _ := strconv.Atoi(c.Param("id"))
	requesterID, _ := strconv.Atoi(c.Param("userID"))

	if err := h.svc.RespondToJoin(c.Request.Context(), hostID.(uint), uint(runID), uint(requesterID), service.RespondAccept); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Request accepted"})
}

// DeclineJoinRequest godoc
// @Summary      Decline a join request (Host only)
// @Tags         runs
// @Produce      json
// @Security     BearerAuth
// @Param        id     path int true "Run ID"
// @Param        userID path int true "Requesting User ID"
// @Success      200 {object} map[string]string "{"message": "Request declined"}"
// @Failure      403 {object} ErrorResponse "Only the host can respond"
// @Failure      404 {object} ErrorResponse "Run or request not found"
// @Router       /runs/{id}/requests/{userID}/decline [post]
func (h *RunHandler) DeclineJoinRequest(c *gin.Context) {
	hostID, _ := c.Get("userID")
	runID, _ := strconv.Atoi(c.Param("id"))
	requesterID, _ := strconv.Atoi(c.Param("userID"))

	if err := h.svc.RespondToJoin(c.Request.Context(), hostID.(uint), uint(runID), uint(requesterID), service.RespondReject); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Request declined"})
}

// LeaveRun godoc
// @Summary      Leave a run
// @Description  Leaves the run. Handles host migration and deletes an emptied run.
// @Tags         runs
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Run ID"
// @Success      200 {object} map[string]string "{"message": "Left run successfully"}"
// @Failure      404 {object} ErrorResponse "Run not found or user is not a member"
// @Router       /runs/{id}/leave [post]
func (h *RunHandler) LeaveRun(c *gin.Context) {
	userID, _ := c.Get("userID")
	runID, _ := strconv.Atoi(c.Param("id"))

	if err := h.svc.Leave(c.Request.Context(), uint(runID), userID.(uint)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left run successfully"})
}
