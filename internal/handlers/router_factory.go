package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"

	"codetech/internal/auth"
	"codetech/internal/config"
	"codetech/internal/middleware"
	"codetech/internal/observability"
	"codetech/internal/services"
)

// When adding a POST/PUT/PATCH endpoint, register its body schema in
// middleware.RouteSchemas and schemas/requests.yaml.

// RouterServices groups the services the HTTP handlers depend on
type RouterServices struct {
	Users       services.UserServiceInterface
	Content     services.ContentServiceInterface
	Progress    services.ProgressServiceInterface
	Stats       services.StatsServiceInterface
	Leaderboard services.LeaderboardServiceInterface
	Admin       services.AdminServiceInterface
	Goals       services.GoalServiceInterface
	Challenges  services.ChallengeServiceInterface
	Tokens      auth.TokenServiceInterface
}

// NewRouter creates the gin engine with all middleware and routes
func NewRouter(cfg *config.Config, svc RouterServices, schemas *middleware.SchemaLoader, logger *observability.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	}

	serviceName := cfg.OpenTelemetry.ServiceName

	router := gin.New()
	router.RedirectTrailingSlash = false

	router.Use(middleware.ErrorRecoveryMiddleware(logger))
	router.Use(middleware.RequestID())
	router.Use(observability.GinMiddleware(serviceName))
	router.Use(observability.SpanErrorMiddleware())
	router.Use(middleware.RequestLogger(logger))
	router.Use(cors.New(corsConfig(cfg.Server.CORSOrigins)))

	secureConfig := secure.DefaultConfig()
	secureConfig.SSLRedirect = false
	secureConfig.ContentSecurityPolicy = config.DefaultCSP
	router.Use(secure.New(secureConfig))

	router.Use(middleware.Authenticate(svc.Tokens, svc.Users))
	router.Use(middleware.RequestValidationMiddleware(schemas, logger))

	authHandler := NewAuthHandler(svc.Users, svc.Tokens, cfg, logger)
	contentHandler := NewContentHandler(svc.Content, svc.Progress, logger)
	userHandler := NewUserHandler(svc.Progress, svc.Stats, svc.Goals, svc.Challenges, logger)
	adminHandler := NewAdminHandler(svc.Admin, svc.Content, logger)
	publicHandler := NewPublicHandler(svc.Leaderboard, svc.Progress, serviceName, logger)
	routeListing := NewRouteListingHandler(serviceName)

	requireAuth := middleware.RequireAuth()
	optionalAuth := middleware.RejectInvalidToken()

	router.GET("/health", publicHandler.Health)
	router.GET("/leaderboard", publicHandler.GetLeaderboard)
	router.GET("/total-students", publicHandler.GetTotalStudents)

	router.POST("/signup", authHandler.Signup)
	router.POST("/login", authHandler.Login)
	router.GET("/me", requireAuth, authHandler.Me)

	router.GET("/subjects", contentHandler.ListSubjects)
	router.GET("/subjects/:id", contentHandler.GetSubject)

	quiz := router.Group("/quiz")
	{
		quiz.GET("/:id", contentHandler.GetQuiz)
		quiz.GET("/:id/review", requireAuth, contentHandler.ReviewQuiz)
		quiz.GET("/:id/:levelId", contentHandler.GetLevelQuizzes)
		quiz.POST("/:id/submit", optionalAuth, contentHandler.SubmitQuiz)
		quiz.POST("/:id/:levelId/submit", optionalAuth, contentHandler.SubmitLevelQuiz)
	}

	router.GET("/dashboard-data", optionalAuth, userHandler.GetDashboard)

	user := router.Group("/user", requireAuth)
	{
		user.GET("/subjects", userHandler.GetUserSubjects)
		user.POST("/subjects/:subjectId/levels/:levelId/complete", userHandler.CompleteLevel)
		user.GET("/activity", userHandler.GetActivity)
		user.GET("/stats", userHandler.GetStats)
		user.POST("/goals", userHandler.CreateGoal)
		user.GET("/goals", userHandler.ListGoals)
		user.POST("/challenge", userHandler.SendChallenge)
		user.GET("/challenges", userHandler.ListChallenges)
	}

	admin := router.Group("/admin", middleware.RequireAdmin())
	{
		admin.GET("/users", adminHandler.ListUsers)
		admin.GET("/user/:id/progress", adminHandler.GetUserProgress)
		admin.DELETE("/user/:id", adminHandler.DeleteUser)
		admin.POST("/create-admin", adminHandler.CreateAdmin)
		admin.POST("/repair-user-stats", adminHandler.RepairUserStats)
		admin.POST("/reset-user-progress/:id", adminHandler.ResetUserProgress)
		admin.POST("/cleanup-null-activity", adminHandler.CleanupNullActivity)
		admin.POST("/initialize-quiz-progress", adminHandler.InitializeQuizProgress)
		admin.POST("/add-subject", adminHandler.AddSubject)
		admin.POST("/add-level", adminHandler.AddLevel)
	}

	router.GET("/", routeListing.GetRouteListing)
	routeListing.CollectRoutes(router)

	return router
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With", middleware.RequestIDHeader}
	c.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	c.ExposeHeaders = []string{middleware.RequestIDHeader}
	for _, o := range origins {
		if o == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}
