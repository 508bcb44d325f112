package http

import (
	"github.com/gin-gonic/gin"
	"github.com/healthyfy/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/", handler.Root)
	router.GET("/health", handler.HealthCheck)

	user := router.Group("/user")
	{
		user.POST("/create", handler.CreateUser)
	}

	speech := router.Group("/speech")
	{
		speech.POST("/upload", handler.UploadSpeech)
	}

	food := router.Group("/food")
	{
		food.POST("/parse", handler.ParseFood)
		food.POST("/log", handler.LogFood)
		food.GET("/today", handler.TodayFood)
	}

	predict := router.Group("/predict")
	{
		predict.GET("/next", handler.PredictNext)
	}

	return router
}
