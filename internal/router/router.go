package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/plantona/plantona-api/internal/middleware"
	"github.com/plantona/plantona-api/pkg/logger"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Config struct {
	CronSecret string
	RateLimit  rate.Limit
	RateBurst  int
}

type Router struct {
	engine *gin.Engine
}

// NewRouter wires the HTTP surface: the cron-authenticated pipeline endpoints,
// the subscription lifecycle endpoints, and the operational endpoints.
func NewRouter(notificationH Handler, subscriptionH Handler, cfg Config, log *logger.Logger) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(log))
	engine.Use(middleware.Recovery(log))

	if cfg.RateLimit > 0 {
		rl := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)
		engine.Use(rl.RateLimit())
	}

	engine.GET("/health/live", func(c *gin.Context) { c.Status(200) })
	engine.GET("/health/ready", func(c *gin.Context) { c.Status(200) })
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api/v1")

	pipeline := api.Group("", middleware.CronAuth(cfg.CronSecret))
	notificationH.RegisterRoutes(pipeline)

	subscriptionH.RegisterRoutes(api)

	return &Router{engine: engine}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
