package api

import (
	"alcyxob/fitness-challenges/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RouteConfig carries the settings SetupRoutes needs from the app config.
type RouteConfig struct {
	JWTSecret   string
	JWTIssuer   string
	RateLimiter *RateLimiter // optional
	MetricsPath string       // empty disables /metrics
	Metrics     http.Handler
}

func SetupRoutes(
	router *gin.Engine,
	cfg RouteConfig,
	challengeService service.ChallengeService,
	evidenceService service.EvidenceService,
) {
	challengeHandler := NewChallengeHandler(challengeService)
	partHandler := NewPartHandler(challengeService, evidenceService)

	router.Use(MetricsMiddleware())

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if cfg.MetricsPath != "" && cfg.Metrics != nil {
		router.GET(cfg.MetricsPath, gin.WrapH(cfg.Metrics))
	}

	protected := router.Group("/api/v1")
	if cfg.RateLimiter != nil {
		protected.Use(cfg.RateLimiter.Middleware())
	}
	protected.Use(AuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer))
	{
		challengeGroup := protected.Group("/challenges")
		{
			challengeGroup.POST("", challengeHandler.CreateChallenge)
			challengeGroup.GET("/:id", challengeHandler.GetDetails)
			challengeGroup.DELETE("/:id", challengeHandler.DeleteChallenge)
			challengeGroup.POST("/:id/open", challengeHandler.OpenChallenge)
			challengeGroup.POST("/:id/close", challengeHandler.CloseChallenge)
			challengeGroup.POST("/:id/invite", challengeHandler.Invite)
			challengeGroup.POST("/:id/accept", challengeHandler.Accept)
			challengeGroup.POST("/:id/leave", challengeHandler.Leave)

			challengeGroup.GET("/:id/creator", challengeHandler.GetCreator)
			challengeGroup.GET("/:id/open", challengeHandler.IsOpen)
			challengeGroup.GET("/:id/points", challengeHandler.GetPoints)
			challengeGroup.GET("/:id/parts", challengeHandler.GetParts)
			challengeGroup.GET("/:id/participants", challengeHandler.GetParticipants)
			challengeGroup.GET("/:id/invitees", challengeHandler.GetInvitees)
			challengeGroup.GET("/:id/completers", challengeHandler.GetCompleters)
			challengeGroup.GET("/:id/users/:userId", challengeHandler.GetUserFlags)
			challengeGroup.GET("/:id/groups/:groupId/creator", challengeHandler.IsGroupCreator)
		}

		partGroup := protected.Group("/parts/:partId")
		{
			partGroup.POST("/complete", partHandler.CompletePart)
			partGroup.POST("/verification-requests", partHandler.CreateVerificationRequest)
			partGroup.POST("/verify", partHandler.Verify)
			partGroup.POST("/evidence-upload-url", partHandler.EvidenceUploadURL)

			partGroup.GET("/points", partHandler.GetPoints)
			partGroup.GET("/challenge", partHandler.GetChallenge)
			partGroup.GET("/users/:userId/completed", partHandler.IsCompleted)
		}

		protected.GET("/users/:userId/challenges", challengeHandler.GetChallengesForUser)
		protected.GET("/me/challenges", challengeHandler.GetMyChallenges)
		protected.GET("/me/verification-requests", partHandler.GetMyVerificationRequests)
		protected.GET("/verification-requests/:id/evidence-url", partHandler.GetEvidenceURL)
	}
}
