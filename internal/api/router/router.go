package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sirfoga/gamer/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		if deps.Database != nil {
			if err := deps.Database.HealthCheck(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"service": "gamer-api-service",
					"error":   err.Error(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "gamer-api-service",
		})
	})

	runHandler := handler.NewRunHandler(deps)

	v1 := r.Group("/api/v1")
	{
		runs := v1.Group("/runs")
		{
			// POST /api/v1/runs - Request a run over a config folder
			runs.POST("", runHandler.CreateRun)

			// GET /api/v1/runs - List runs with pagination
			runs.GET("", runHandler.ListRuns)

			// GET /api/v1/runs/:run_id - Get a run and its job outcomes
			runs.GET("/:run_id", runHandler.GetRun)
		}
	}

	return r
}
