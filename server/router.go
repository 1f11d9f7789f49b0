package server

import (
	"notesapi/config"
	"notesapi/handler"
	"notesapi/middleware"
	"notesapi/services"
	"notesapi/usecase"
	"notesapi/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps is everything the router needs from the wiring layer.
type Deps struct {
	Config       *config.Config
	NotesService *usecase.NotesService
	Health       *handler.HealthHandler
	Verifier     services.TokenVerifier
}

func SetupRouter(deps Deps) *gin.Engine {
	utils.InitValidator()

	router := gin.New()
	router.Use(
		middleware.RequestTracingMiddleware(),
		middleware.AccessLogMiddleware(),
		middleware.MetricsMiddleware(),
		// Recovery sits inside logging and metrics so panics are counted.
		middleware.EnhancedRecoveryMiddleware(),
		middleware.CORSMiddleware(deps.Config.Server.AllowedOrigins),
		middleware.RequestSizeLimiter(deps.Config.Server.MaxBodyBytes),
	)

	router.NoRoute(func(c *gin.Context) {
		utils.NotFound(c, "route not found")
	})

	notesService := deps.NotesService
	requireAuth := middleware.AuthMiddleware(deps.Verifier, deps.Config.Auth.Mode)

	notes := router.Group("/notes")
	{
		notes.GET("", func(c *gin.Context) {
			handler.ListNotesHandler(c, notesService)
		})
		notes.GET("/:id", middleware.ValidateNoteID(), func(c *gin.Context) {
			handler.GetNoteHandler(c, notesService)
		})

		notes.POST("", requireAuth, func(c *gin.Context) {
			handler.CreateNoteHandler(c, notesService)
		})
		notes.PUT("/:id", requireAuth, middleware.ValidateNoteID(), func(c *gin.Context) {
			handler.UpdateNoteHandler(c, notesService)
		})
		notes.DELETE("/:id", requireAuth, middleware.ValidateNoteID(), func(c *gin.Context) {
			handler.DeleteNoteHandler(c, notesService)
		})
	}

	health := router.Group("", middleware.NoStoreMiddleware())
	{
		health.GET("/health", deps.Health.Liveness)
		health.GET("/healthz", deps.Health.Readiness)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
