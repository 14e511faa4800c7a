package notification

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"

	"github.com/plantona/plantona-api/internal/handler"
	"github.com/plantona/plantona-api/internal/model"
	"github.com/plantona/plantona-api/pkg/logger"
)

const latestRunKey = "latest_run"

// Discoverer produces the candidate list for one run.
type Discoverer interface {
	DiscoverDueUsers(ctx context.Context, now time.Time) ([]model.EligibleUser, error)
}

// Dispatcher executes dispatch units and folds their outcomes.
type Dispatcher interface {
	DispatchAll(ctx context.Context, users []model.EligibleUser) model.RunReport
	DispatchOne(ctx context.Context, user model.EligibleUser) model.DispatchOutcome
}

type Handler struct {
	discovery Discoverer
	dispatch  Dispatcher
	runs      *gocache.Cache
	log       *logger.Logger
}

func NewHandler(discovery Discoverer, dispatch Dispatcher, log *logger.Logger) *Handler {
	return &Handler{
		discovery: discovery,
		dispatch:  dispatch,
		runs:      gocache.New(24*time.Hour, time.Hour),
		log:       log,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/notifications/run", h.Run)
	r.POST("/notifications/dispatch", h.Dispatch)
	r.GET("/notifications/runs/latest", h.LatestRun)
}

// Run is the scheduled trigger entry point: one discovery pass, then a fan-out
// of isolated per-user dispatch units. The response is the full run report.
func (h *Handler) Run(c *gin.Context) {
	now := time.Now()

	users, err := h.discovery.DiscoverDueUsers(c.Request.Context(), now)
	if err != nil {
		h.log.Error(err, "discovery failed, aborting run")
		c.JSON(http.StatusInternalServerError, model.RunReport{
			Success:   false,
			Message:   "discovery failed: " + err.Error(),
			Timestamp: now.UTC(),
		})
		return
	}

	report := h.dispatch.DispatchAll(c.Request.Context(), users)
	h.runs.Set(latestRunKey, report, gocache.DefaultExpiration)

	c.JSON(http.StatusOK, report)
}

// Dispatch processes a single user. It preserves the reference system's
// per-user invocation surface so an external scheduler can drive dispatch units
// itself; the in-process coordinator calls the service directly instead.
func (h *Handler) Dispatch(c *gin.Context) {
	var user model.EligibleUser
	if err := c.ShouldBindJSON(&user); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid dispatch payload: "+err.Error()))
		return
	}

	outcome := h.dispatch.DispatchOne(c.Request.Context(), user)
	c.JSON(http.StatusOK, outcome)
}

// LatestRun serves the most recent run report for operators.
func (h *Handler) LatestRun(c *gin.Context) {
	report, ok := h.runs.Get(latestRunKey)
	if !ok {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("no run recorded yet"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(report))
}
