package handler

import (
	"net/http"
	"strconv"
	"time"

	"runny/backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type InterestInput struct {
	Name string `json:"name" binding:"required"`
}

type InterestResponse struct {
	ID        uint      `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `json:"name"`
}

func newInterestResponse(interest models.Interest) InterestResponse {
	return InterestResponse{
		ID:        interest.ID,
		CreatedAt: interest.CreatedAt,
		UpdatedAt: interest.UpdatedAt,
		Name:      interest.Name,
	}
}

// InterestHandler serves the community interest tags.
type InterestHandler struct {
	db *gorm.DB
}

// NewInterestHandler constructs the handler.
func NewInterestHandler(db *gorm.DB) *InterestHandler {
	return &InterestHandler{db: db}
}

// List godoc
// @Summary      Get all interests
// @Description  Retrieves a list of all available interest tags.
// @Tags         interests
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   InterestResponse
// @Router       /interests [get]
func (h *InterestHandler) List(c *gin.Context) {
	var interests []models.Interest
	h.db.Order("name ASC").Find(&interests)

	response := make([]InterestResponse, 0, len(interests))
	for _, interest := range interests {
		response = append(response, newInterestResponse(interest))
	}
	c.JSON(http.StatusOK, response)
}

// Create godoc
// @Summary      Create a new interest
// @Tags         admin-interests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body InterestInput true "Interest Info"
// @Success      201  {object}  InterestResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Failure      409  {object}  ErrorResponse "Interest already exists"
// @Router       /admin/interests [post]
func (h *InterestHandler) Create(c *gin.Context) {
	var input InterestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	interest := models.Interest{Name: input.Name}
	if err := h.db.Create(&interest).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Interest already exists or another error occurred"})
		return
	}

	c.JSON(http.StatusCreated, newInterestResponse(interest))
}

// Update godoc
// @Summary      Update an interest
// @Tags         admin-interests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int           true "Interest ID"
// @Param        input body InterestInput true "New Interest Info"
// @Success      200  {object}  InterestResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Failure      404  {object}  ErrorResponse "Interest not found"
// @Router       /admin/interests/{id} [put]
func (h *InterestHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return
	}

	var input InterestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var interest models.Interest
	if err := h.db.First(&interest, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Interest not found"})
		return
	}

	h.db.Model(&interest).Update("name", input.Name)
	c.JSON(http.StatusOK, newInterestResponse(interest))
}

// Delete godoc
// @Summary      Delete an interest
// @Tags         admin-interests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Interest ID"
// @Success      200  {object}  map[string]string "{"message": "Interest deleted"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Failure      404  {object}  ErrorResponse "Interest not found"
// @Router       /admin/interests/{id} [delete]
func (h *InterestHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return
	}

	result := h.db.Delete(&models.Interest{}, id)
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Interest not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Interest deleted"})
}
