package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/notcelab/notce-backend/internal/config"
	"github.com/notcelab/notce-backend/internal/handler"
	"github.com/notcelab/notce-backend/internal/middleware"
	"github.com/notcelab/notce-backend/internal/response"
	"github.com/notcelab/notce-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Study     *handler.StudyHandler
	Case      *handler.CaseHandler
	Review    *handler.ReviewHandler
	Highlight *handler.HighlightHandler
	Memory    *handler.MemoryHandler
	Analytics *handler.AnalyticsHandler
	WS        *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiters: login brute-force protection and a tighter budget for
	// synchronous AI generation.
	authLimiter := middleware.NewRateLimiter(30, time.Minute)
	genLimiter := middleware.NewRateLimiter(10, time.Minute)

	// ─── 1. Auth Group ─────────────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)

		auth.POST("/logout", middleware.RequireJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireJWT(authService), handlers.Auth.Me)
		auth.PUT("/me", middleware.RequireJWT(authService), handlers.Auth.UpdateMe)
	}

	// ─── 2. Authenticated API (JWT + Single Device) ────────────────────
	api := router.Group("/api/v1")
	api.Use(
		middleware.RequireJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		// Study session lifecycle. Only the active session is readable;
		// per-ID access is always through an action.
		study := api.Group("/study/sessions")
		{
			study.POST("", handlers.Study.StartSession)
			study.GET("/active", handlers.Study.GetActiveSession)
			study.POST("/:session_id/submit", handlers.Study.SubmitAnswer)
			study.POST("/:session_id/next", handlers.Study.NextQuestion)
			study.POST("/:session_id/pivot", handlers.Study.PivotQuestion)
			study.POST("/:session_id/prefetch", handlers.Study.PrefetchNext)
			study.POST("/:session_id/save", handlers.Study.SaveProgress)
		}

		// Case study library. Case content is immutable after creation so
		// detail responses get a short client cache.
		cases := api.Group("/cases")
		{
			cases.GET("", handlers.Case.ListCases)
			cases.POST("/generate", genLimiter.Middleware(), handlers.Case.GenerateCase)
			cases.POST("/prefetch", handlers.Case.PrefetchCase)
			cases.GET("/:case_id", middleware.CacheControl(60), handlers.Case.GetCase)
		}

		// Case progress resume.
		api.GET("/case-sessions", handlers.Case.ResumeCase)
		api.POST("/case-sessions", handlers.Case.SaveCaseProgress)

		// Answer grading and AI review surfaces.
		answers := api.Group("/answers")
		{
			answers.POST("", handlers.Review.RecordAnswer)
			answers.POST("/rationale", genLimiter.Middleware(), handlers.Review.GetRationale)
			answers.POST("/evidence-link", genLimiter.Middleware(), handlers.Review.EvidenceLink)
		}

		// Vignette highlights.
		highlights := api.Group("/highlights")
		{
			highlights.POST("", handlers.Highlight.SaveHighlight)
			highlights.GET("", handlers.Highlight.ListHighlights)
			highlights.DELETE("/:highlight_id", handlers.Highlight.DeleteHighlight)
		}

		// Agent memory.
		memory := api.Group("/memory")
		{
			memory.POST("", handlers.Memory.StoreMemory)
			memory.GET("", handlers.Memory.ListMemories)
			memory.GET("/:key", handlers.Memory.GetMemory)
			memory.DELETE("/:key", handlers.Memory.DeleteMemory)
		}

		// Analytics.
		api.GET("/analytics/domains", handlers.Analytics.GetDomainStats)
	}

	// ─── 3. WebSocket Group (WS Auth via query token) ──────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/study/sessions/:session_id/stream", handlers.WS.StudySessionStream)
	}

	return router
}
