package controller

import (
	"github.com/gin-gonic/gin"

	"webterm/logging"
	"webterm/metrics"
	"webterm/middleware"
)

func SetupRoutes(r *gin.Engine, tc *TerminalController) {
	r.Use(logging.GinMiddleware())

	r.GET("/healthz", Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	{
		api.GET("/stats", tc.Stats)
	}

	r.GET("/terminal", middleware.User(), tc.StartTerminal)
}
