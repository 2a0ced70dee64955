package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "gala-giveaway-backend/internal/common/errors"
	"gala-giveaway-backend/internal/common/middleware"
	"gala-giveaway-backend/internal/features/profile/models"
	"gala-giveaway-backend/internal/features/profile/service"
)

type ProfileHandler struct {
	service *service.ProfileService
}

func NewProfileHandler(service *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		service: service,
	}
}

func (h *ProfileHandler) RegisterRoutes(router *gin.RouterGroup) {
	profiles := router.Group("/profiles")
	{
		profiles.POST("", h.register)
		profiles.GET("/me", h.me)
	}
}

func (h *ProfileHandler) register(c *gin.Context) {
	address, ok := middleware.CallerAddress(c)
	if !ok {
		middleware.AbortWithError(c, apperrors.New(apperrors.ErrCodeUnauthorized, "wallet signature required"))
		return
	}

	var req models.ProfileCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid profile payload"))
		return
	}

	profile, err := h.service.Register(c.Request.Context(), address, &req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, profile)
}

func (h *ProfileHandler) me(c *gin.Context) {
	address, ok := middleware.CallerAddress(c)
	if !ok {
		middleware.AbortWithError(c, apperrors.New(apperrors.ErrCodeUnauthorized, "wallet signature required"))
		return
	}

	profile, err := h.service.GetByAddress(c.Request.Context(), address)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
