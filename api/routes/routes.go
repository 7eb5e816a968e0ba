package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/meue/rewards-backend/internal/config"
	"github.com/meue/rewards-backend/internal/handlers"
	"github.com/meue/rewards-backend/internal/middleware"
)

// HandlerDependencies bundles the handlers the router mounts
type HandlerDependencies struct {
	AuthHandler   *handlers.AuthHandler
	RaffleHandler *handlers.RaffleHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps HandlerDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})

		public.POST("/auth/login", deps.AuthHandler.Login)

		// Read-only public surface plus the entry-flow append
		public.GET("/raffles", deps.RaffleHandler.PublicRaffles)
		public.POST("/raffles/:id/entries", deps.RaffleHandler.EnterRaffle)
	}

	// Admin control surface: the only externally triggered mutation path
	admin := router.Group("/api/v1/admin")
	admin.Use(middleware.JWTAuthMiddleware(cfg))
	{
		raffles := admin.Group("/raffles")
		{
			raffles.GET("", deps.RaffleHandler.ListRaffles)
			raffles.GET("/:id", deps.RaffleHandler.GetRaffleByID)
			raffles.POST("", deps.RaffleHandler.CreateRaffle)
			raffles.POST("/from-offer/:offerId", deps.RaffleHandler.CreateFromOffer)
			raffles.POST("/:id/draw", deps.RaffleHandler.ExecuteDraw)
			raffles.PATCH("/:id/visibility", deps.RaffleHandler.ForceVisibility)
			raffles.DELETE("/:id", deps.RaffleHandler.DeleteRaffle)
		}
	}

	return router
}
