package subscription

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/plantona/plantona-api/internal/handler"
	"github.com/plantona/plantona-api/internal/model"
	subscriptionService "github.com/plantona/plantona-api/internal/service/subscription"
)

// HeaderUserID is set by the upstream auth proxy; user session management is
// not this service's concern.
const HeaderUserID = "X-User-ID"

type Handler struct {
	svc subscriptionService.Service
}

func NewHandler(svc subscriptionService.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/subscriptions", h.Register)
	r.GET("/subscriptions", h.List)
	r.DELETE("/subscriptions", h.Unregister)
}

type registerRequest struct {
	Endpoint string                 `json:"endpoint" binding:"required"`
	Keys     model.SubscriptionKeys `json:"keys" binding:"required"`
}

func (h *Handler) Register(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid subscription payload: "+err.Error()))
		return
	}

	if err := h.svc.Register(c.Request.Context(), userID, req.Endpoint, req.Keys); err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to register subscription"))
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(nil))
}

func (h *Handler) List(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	subs, err := h.svc.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to list subscriptions"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(subs))
}

// Unregister removes all of the user's subscriptions, or a single one when an
// endpoint query parameter is given. Both forms succeed on zero rows.
func (h *Handler) Unregister(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	if endpoint := c.Query("endpoint"); endpoint != "" {
		if err := h.svc.RemoveEndpoint(c.Request.Context(), endpoint); err != nil {
			c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to remove subscription"))
			return
		}
		c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
		return
	}

	if err := h.svc.Unregister(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to remove subscriptions"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) userID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetHeader(HeaderUserID)
	if raw == "" {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing user header"))
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid user id"))
		return uuid.Nil, false
	}

	return id, true
}
