package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/patshala/patshala-backend/internal/config"
	"github.com/patshala/patshala-backend/internal/handler"
	"github.com/patshala/patshala-backend/internal/middleware"
	"github.com/patshala/patshala-backend/internal/response"
	"github.com/patshala/patshala-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth  *handler.AuthHandler
	Batch *handler.BatchHandler
	Order *handler.OrderHandler
	Token *handler.TokenHandler
	Exam  *handler.ExamHandler
	WS    *handler.WSHandler
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

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 0. Public Group (No Auth) ─────────────────────────────────────
	publicAPI := router.Group("/api/v1/public")
	{
		publicAPI.GET("/batches", handlers.Batch.ListBatches)
		publicAPI.GET("/batches/:batch_id", handlers.Batch.GetBatch)
	}

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated profile routes
		auth.POST("/logout", middleware.RequireJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Student Group (Student JWT) ────────────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(middleware.RequireStudentJWT(authService))
	{
		// Orders (payment claims)
		studentAPI.POST("/orders", handlers.Order.CreateOrder)
		studentAPI.GET("/orders", handlers.Order.ListOwnOrders)

		// Token redemption
		studentAPI.POST("/tokens/redeem", handlers.Token.RedeemToken)

		// Exams
		studentAPI.GET("/batches/:batch_id/exams", handlers.Exam.ListExams)
		studentAPI.GET("/exams/:exam_id/paper", handlers.Exam.GetPaper)
		studentAPI.POST("/exams/:exam_id/start", handlers.Exam.StartExam)
		studentAPI.POST("/exams/:exam_id/answer", handlers.Exam.SelectAnswer)
		studentAPI.GET("/exams/:exam_id/session", handlers.Exam.GetSessionState)
		studentAPI.POST("/exams/:exam_id/submit", handlers.Exam.SubmitExam)
		studentAPI.GET("/exams/:exam_id/solve-sheet", handlers.Exam.GetSolveSheet)
		studentAPI.GET("/results/last", handlers.Exam.GetLastResult)
	}

	// ─── 3. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(authService))
	{
		ws.GET("/student/exams/:exam_id/stream", handlers.WS.ExamCountdownStream)
	}

	// ─── 4. Admin Group (Admin JWT) ────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		adminAPI.GET("/orders", handlers.Order.ListOrders)
		adminAPI.GET("/orders/:order_id", handlers.Order.GetOrder)
		adminAPI.POST("/orders/:order_id/approve", handlers.Order.ApproveOrder)
		adminAPI.POST("/orders/:order_id/reject", handlers.Order.RejectOrder)
		adminAPI.GET("/exams/:exam_id/results", handlers.Exam.ListExamResults)
	}

	return router
}
