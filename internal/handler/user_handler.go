package handler

import (
	"math"
	"net/http"
	"strconv"

	"runny/backend/internal/models"
	"runny/backend/internal/service"
	"runny/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// region --- DTOs ---

// RegisterInput defines the structure for user registration.
type RegisterInput struct {
	Name     string `json:"name" binding:"required" example:"trailrunner"`
	Email    string `json:"email" binding:"required,email" example:"runner@example.com"`
	Password string `json:"password" binding:"required,min=8" example:"password123"`
}

// LoginInput defines the structure for user login.
type LoginInput struct {
	Login    string `json:"login" binding:"required" example:"trailrunner"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// UpdateProfileInput defines the editable profile fields.
type UpdateProfileInput struct {
	Bio         *string  `json:"bio"`
	AvatarURL   *string  `json:"avatar_url"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	InterestIDs []uint   `json:"interest_ids"`
}

// PublicUserResponse defines the structure for a user's public profile.
type PublicUserResponse struct {
	ID               uint     `json:"id" example:"1"`
	Name             string   `json:"name" example:"trailrunner"`
	Bio              string   `json:"bio"`
	AvatarURL        string   `json:"avatar_url"`
	Interests        []string `json:"interests"`
	FriendsCount     int64    `json:"friends_count"`
	ConnectionStatus string   `json:"connection_status,omitempty"`
}

// PrivateUserResponse defines the structure for the authenticated user's own profile.
type PrivateUserResponse struct {
	ID           uint     `json:"id" example:"1"`
	Name         string   `json:"name" example:"trailrunner"`
	Email        string   `json:"email" example:"runner@example.com"`
	Bio          string   `json:"bio"`
	AvatarURL    string   `json:"avatar_url"`
	Interests    []string `json:"interests"`
	FriendsCount int64    `json:"friends_count"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
}

// endregion

// UserHandler serves account, profile, and discovery endpoints.
type UserHandler struct {
	db          *gorm.DB
	connections *service.ConnectionService
}

// NewUserHandler constructs the handler.
func NewUserHandler(db *gorm.DB, connections *service.ConnectionService) *UserHandler {
	return &UserHandler{db: db, connections: connections}
}

// region --- Auth Handlers ---

// Register godoc
// @Summary      Register a new user
// @Description  Creates a new user and returns an authentication token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body RegisterInput true "Registration Info"
// @Success      201  {object}  map[string]string "{"token": "..."}"
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existingUser models.User
	if err := h.db.Where("name = ? OR email = ?", input.Name, input.Email).First(&existingUser).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Name or email already exists"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := models.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
	}
	if err := h.db.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	token, err := jwt.GenerateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token})
}

// Login godoc
// @Summary      Log in a user
// @Description  Authenticates a user with name/email and password, and returns a new token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body LoginInput true "Login Info"
// @Success      200  {object}  map[string]string "{"token": "..."}"
// @Failure      400  {object}  ErrorResponse "Invalid input"
// @Failure      401  {object}  ErrorResponse "Invalid credentials"
// @Failure      404  {object}  ErrorResponse "User not found"
// @Router       /auth/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.Where("name = ? OR email = ?", input.Login, input.Login).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := jwt.GenerateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// endregion

// region --- Profile Handlers ---

// GetMe godoc
// @Summary      Get current user's info
// @Description  Retrieves the private profile for the currently authenticated user.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  PrivateUserResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	viewerID, _ := c.Get("userID")

	var user models.User
	if err := h.db.Preload("Interests").First(&user, viewerID.(uint)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, h.buildPrivateUserResponse(user))
}

// UpdateMe godoc
// @Summary      Update current user's profile
// @Description  Updates bio, avatar, location, and interests. Omitted fields are left unchanged.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body UpdateProfileInput true "Profile changes"
// @Success      200  {object}  PrivateUserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /users/me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	viewerID, _ := c.Get("userID")

	var user models.User
	if err := h.db.First(&user, viewerID.(uint)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Bio != nil {
		user.Bio = *input.Bio
	}
	if input.AvatarURL != nil {
		user.AvatarURL = *input.AvatarURL
	}
	if input.Latitude != nil {
		user.Latitude = input.Latitude
	}
	if input.Longitude != nil {
		user.Longitude = input.Longitude
	}

	if err := h.db.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	if input.InterestIDs != nil {
		var interests []*models.Interest
		if len(input.InterestIDs) > 0 {
			h.db.Find(&interests, input.InterestIDs)
		}
		if err := h.db.Model(&user).Association("Interests").Replace(interests); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update interests"})
			return
		}
	}

	h.db.Preload("Interests").First(&user, user.ID)
	c.JSON(http.StatusOK, h.buildPrivateUserResponse(user))
}

// GetUserByID godoc
// @Summary      Get user by ID
// @Description  Retrieves the public profile for a specific user, including the viewer's connection status.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  PublicUserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id} [get]
func (h *UserHandler) GetUserByID(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	targetUserID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	// If target is the same as viewer, redirect to /me
	if viewerID.(uint) == uint(targetUserID) {
		h.GetMe(c)
		return
	}

	var targetUser models.User
	if err := h.db.Preload("Interests").First(&targetUser, uint(targetUserID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, h.buildPublicUserResponse(c, targetUser, viewerID.(uint)))
}

// endregion

// region --- Discovery Handlers ---

// SearchUsers godoc
// @Summary      Search for users
// @Description  Searches for users by name with pagination.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        q     query     string  false  "Search query for name"
// @Param        page  query     int     false  "Page number" default(1)
// @Param        limit query     int     false  "Items per page" default(10)
// @Success      200   {object}  PaginatedResponse[PublicUserResponse]
// @Failure      401   {object}  ErrorResponse
// @Router       /users [get]
func (h *UserHandler) SearchUsers(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	searchQuery := c.Query("q")
	page, limit := pageParams(c)

	query := h.db.Model(&models.User{}).Where("id <> ?", viewerID)
	if searchQuery != "" {
		query = query.Where("name ILIKE ?", "%"+searchQuery+"%")
	}

	var totalItems int64
	if err := query.Count(&totalItems).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count users"})
		return
	}

	var users []models.User
	if err := query.Preload("Interests").Limit(limit).Offset((page - 1) * limit).Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
		return
	}

	responses := make([]PublicUserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, h.buildPublicUserResponse(c, user, viewerID.(uint)))
	}

	c.JSON(http.StatusOK, NewPaginatedResponse(responses, totalItems, page, limit))
}

// NearbyUsers godoc
// @Summary      Find nearby runners
// @Description  Lists runners who last reported a position inside the given radius, optionally filtered by interest.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        lat         query  number  true   "Latitude"
// @Param        lng         query  number  true   "Longitude"
// @Param        radius_km   query  number  false  "Radius in kilometers" default(5)
// @Param        interest_id query  int     false  "Filter by interest"
// @Success      200  {array}   PublicUserResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /users/nearby [get]
func (h *UserHandler) NearbyUsers(c *gin.Context) {
	viewerID, _ := c.Get("userID")

	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng query parameters are required"})
		return
	}

	radiusKm, err := strconv.ParseFloat(c.DefaultQuery("radius_km", "5"), 64)
	if err != nil || radiusKm <= 0 || radiusKm > 100 {
		radiusKm = 5
	}

	// Bounding-box prefilter: one degree of latitude is ~111km, one degree
	// of longitude shrinks with latitude. Good enough at city scale.
	latDelta := radiusKm / 111.0
	lngDelta := radiusKm / 111.0 / cosDeg(lat)

	query := h.db.Model(&models.User{}).
		Where("id <> ?", viewerID).
		Where("latitude BETWEEN ? AND ?", lat-latDelta, lat+latDelta).
		Where("longitude BETWEEN ? AND ?", lng-lngDelta, lng+lngDelta)

	if interestID := c.Query("interest_id"); interestID != "" {
		query = query.
			Joins("JOIN user_interests ON user_interests.user_id = users.id").
			Where("user_interests.interest_id = ?", interestID)
	}

	var users []models.User
	if err := query.Preload("Interests").Limit(100).Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
		return
	}

	responses := make([]PublicUserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, h.buildPublicUserResponse(c, user, viewerID.(uint)))
	}

	c.JSON(http.StatusOK, responses)
}

// endregion

// region --- Helpers ---

func (h *UserHandler) buildPublicUserResponse(c *gin.Context, targetUser models.User, viewerID uint) PublicUserResponse {
	var friendsCount int64
	h.db.Model(&models.Friendship{}).Where("user_id = ?", targetUser.ID).Count(&friendsCount)

	status, err := h.connections.QueryStatus(c.Request.Context(), viewerID, targetUser.ID)
	if err != nil {
		status = service.ConnectionNone
	}

	return PublicUserResponse{
		ID:               targetUser.ID,
		Name:             targetUser.Name,
		Bio:              targetUser.Bio,
		AvatarURL:        targetUser.AvatarURL,
		Interests:        interestNames(targetUser.Interests),
		FriendsCount:     friendsCount,
		ConnectionStatus: string(status),
	}
}

func (h *UserHandler) buildPrivateUserResponse(user models.User) PrivateUserResponse {
	var friendsCount int64
	h.db.Model(&models.Friendship{}).Where("user_id = ?", user.ID).Count(&friendsCount)

	return PrivateUserResponse{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		Bio:          user.Bio,
		AvatarURL:    user.AvatarURL,
		Interests:    interestNames(user.Interests),
		FriendsCount: friendsCount,
		Latitude:     user.Latitude,
		Longitude:    user.Longitude,
	}
}

func cosDeg(deg float64) float64 {
	c := math.Cos(deg * math.Pi / 180)
	if c < 0.01 {
		// Degenerate near the poles; clamp so the longitude window stays finite.
		return 0.01
	}
	return c
}

func interestNames(interests []*models.Interest) []string {
	names := make([]string, 0, len(interests))
	for _, i := range interests {
		if i != nil {
			names = append(names, i.Name)
		}
	}
	return names
}

// endregion
