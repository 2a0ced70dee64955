package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "gala-giveaway-backend/internal/common/errors"
	"gala-giveaway-backend/internal/common/middleware"
	"gala-giveaway-backend/internal/features/giveaway/models/dto"
	"gala-giveaway-backend/internal/features/giveaway/service"
)

type GiveawayHandler struct {
	service *service.GiveawayService
}

func NewGiveawayHandler(service *service.GiveawayService) *GiveawayHandler {
	return &GiveawayHandler{
		service: service,
	}
}

func (h *GiveawayHandler) RegisterRoutes(router *gin.RouterGroup) {
	giveaways := router.Group("/giveaways")
	{
		giveaways.POST("", h.create)
		giveaways.GET("/me", h.mine)
		giveaways.GET("/:id", h.get)
		giveaways.GET("/:id/winners", h.winners)
		giveaways.POST("/:id/signup", h.signup)
		giveaways.POST("/:id/claim", h.claim)
		giveaways.POST("/:id/cancel", h.cancel)
	}
	router.GET("/escrow/me", h.escrow)
}

func (h *GiveawayHandler) create(c *gin.Context) {
	address, ok := middleware.CallerAddress(c)
	if !ok {
		middleware.AbortWithError(c, apperrors.New(apperrors.ErrCodeUnauthorized, "wallet signature required"))
		return
	}

	var req dto.GiveawayCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid giveaway payload"))
		return
	}

	giveaway, err := h.service.CreateGiveaway(c.Request.Context(), address, &req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, giveaway)
}

func (h *GiveawayHandler) get(c *gin.Context) {
	giveaway, err := h.service.GetGiveaway(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, giveaway)
}

func (h *GiveawayHandler) mine(c *gin.Context) {
	address, ok := middleware.CallerAddress(c)
	if !ok {
		middleware.AbortWithError(c, apperrors.New(apperrors.ErrCodeUnauthorized, "wallet signature required"))
		return
	}

	giveaways, err := h.service.GetCreatorGiveaways(c.Request.Context(), address)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"giveaways": giveaways})
}

func (h *GiveawayHandler) winners(c *gin.Context) {
	winners, err := h.service.GetWinners(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"winners": winners})
}

func (h *GiveawayHandler) signup(c *gin.Context) {
	address, ok := middleware.CallerAddress(c)
	if !ok {
		middleware.AbortWithError(c, apperrors.New(apperrors.ErrCodeUnauthorized, "wallet signature required"))
		return
	}

	if err := h.service.Signup(c.Request.Context(), c.Param("id"), address); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *GiveawayHandler) claim(c *gin.Context) {
	address, ok := middleware.CallerAddress(c)
	if !ok {
		middleware.AbortWithError(c, apperrors.New(apperrors.ErrCodeUnauthorized, "wallet signature required"))
		return
	}

	// Body is optional: only burn-gated giveaways carry a proof.
	var req dto.ClaimRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.AbortWithError(c, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid claim payload"))
			return
		}
	}

	win, err := h.service.ClaimFCFS(c.Request.Context(), c.Param("id"), address, req.BurnProof)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, win)
}

func (h *GiveawayHandler) cancel(c *gin.Context) {
	address, ok := middleware.CallerAddress(c)
	if !ok {
		middleware.AbortWithError(c, apperrors.New(apperrors.ErrCodeUnauthorized, "wallet signature required"))
		return
	}

	giveaway, err := h.service.Cancel(c.Request.Context(), c.Param("id"), address)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, giveaway)
}

func (h *GiveawayHandler) escrow(c *gin.Context) {
	address, ok := middleware.CallerAddress(c)
	if !ok {
		middleware.AbortWithError(c, apperrors.New(apperrors.ErrCodeUnauthorized, "wallet signature required"))
		return
	}

	summary, err := h.service.EscrowSummary(c.Request.Context(), address)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
