package routes

import (
	"github.com/gin-gonic/gin"

	"rosterchat/internal/app/controllers"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	askController *controllers.AskController,
	classController *controllers.ClassController,
	adminController *controllers.AdminController,
) {
	api := router.Group("/api")

	// --- Public routes ---
	api.GET("/ping", classController.Ping)
	api.POST("/ask", askController.Ask)
	api.GET("/rosters", classController.GetRosters)

	classes := api.Group("/classes")
	{
		classes.GET("/latest", classController.GetLatestClass)
		classes.GET("/history", classController.GetClassHistory)
	}

	// --- Admin routes ---
	admin := api.Group("/admin")
	{
		admin.POST("/ingest", adminController.StartIngest)
		admin.GET("/ingest/progress", adminController.GetIngestProgress)
		admin.POST("/clear", adminController.ClearStore)
	}
}
