package app

import (
	"net/http"

	"github.com/flowhook/core/internal/middleware"
	"github.com/flowhook/core/internal/modules/dispatch"
	"github.com/flowhook/core/internal/modules/flow"
	"github.com/flowhook/core/internal/modules/gateway/dedup"
	"github.com/flowhook/core/internal/modules/gateway/ingest"
	"github.com/flowhook/core/internal/modules/gateway/limiter"
	"github.com/flowhook/core/internal/modules/gateway/store"
	"github.com/flowhook/core/internal/modules/webhook"
	pkgredis "github.com/flowhook/core/internal/pkg/redis"
	"github.com/flowhook/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

const apiPrefix = "/api/v2"

func (a *App) registerRoutes(rc *pkgredis.Client) {
	r := a.router
	db := a.db
	authMW := middleware.Auth()

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	appInfo := gin.H{
		"name":    "flowhook-core",
		"version": "1.0.0",
	}

	queue := dispatch.NewQueue(rc)

	ingestSvc := ingest.NewService(
		store.NewConfigs(db),
		limiter.NewService(rc),
		dedup.NewService(rc),
		store.NewEvents(db),
		store.NewFlows(db),
		queue,
		store.NewDeadLetters(db),
		a.cfg.DispatchTimeout,
		a.logger,
	)

	api := r.Group(apiPrefix)

	api.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/info", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })

	// Public ingest endpoint; callers authenticate per config.
	ingest.NewHandler(ingestSvc, a.logger).RegisterRoutes(api)

	// Admin surfaces.
	webhook.NewHandler(webhook.NewService(db, queue)).RegisterRoutes(api, authMW)
	flow.NewHandler(flow.NewService(db)).RegisterRoutes(api, authMW)
}
