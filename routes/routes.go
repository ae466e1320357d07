package routes

import (
	"github.com/Mzhdi/Nounou-sub000/controllers"
	"github.com/Mzhdi/Nounou-sub000/middlewares"
	"github.com/Mzhdi/Nounou-sub000/pkg/logger"
	"github.com/Mzhdi/Nounou-sub000/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func SetupRouter(db *gorm.DB, log *logger.Logger) *gin.Engine {
	catalog := services.NewCatalogService(db)
	calc := services.NewNutritionCalculator(catalog, log)
	goals := services.NewGoalService(db)
	summaries := services.NewSummaryService(db, goals, log)
	activity := services.NewActivityLogService(db, log)
	entries := services.NewEntryService(db, calc, summaries, activity, log)
	auth := services.NewAuthService(db)

	rek, err := services.NewRekognitionService(catalog)
	if err != nil {
		log.Warn("rekognition unavailable, image analysis disabled", "err", err)
	}

	authCtl := controllers.NewAuthController(auth)
	entryCtl := controllers.NewEntryController(entries, rek)
	summaryCtl := controllers.NewSummaryController(summaries)
	goalCtl := controllers.NewGoalController(goals, summaries)
	activityCtl := controllers.NewActivityLogController(activity)

	r := gin.Default()

	r.POST("/api/auth/register", authCtl.Register)
	r.POST("/api/auth/login", authCtl.Login)

	api := r.Group("/api")
	api.Use(middlewares.AuthMiddleware())
	{
		api.POST("/entries", entryCtl.CreateEntry)
		api.POST("/entries/image", entryCtl.CreateEntryFromImage)
		api.POST("/entries/quick-meal", entryCtl.QuickMeal)
		api.POST("/entries/batch", entryCtl.BatchEntries)
		api.GET("/entries", entryCtl.ListEntries)
		api.GET("/entries/:id", entryCtl.GetEntry)
		api.PUT("/entries/:id", entryCtl.UpdateEntry)
		api.DELETE("/entries/:id", entryCtl.DeleteEntry)
		api.POST("/entries/:id/restore", entryCtl.RestoreEntry)
		api.DELETE("/entries/:id/permanent", entryCtl.HardDeleteEntry)
		api.POST("/entries/:id/duplicate", entryCtl.DuplicateEntry)

		api.GET("/summary/daily", summaryCtl.GetDailySummary)
		api.GET("/summary/range", summaryCtl.GetRangeSummary)
		api.GET("/summary/top-items", summaryCtl.GetTopItems)
		api.GET("/summary/trends", summaryCtl.GetTrends)

		api.GET("/goals", goalCtl.GetGoals)
		api.PUT("/goals", goalCtl.UpdateGoals)

		api.GET("/activity", activityCtl.ListActivity)
	}

	return r
}
