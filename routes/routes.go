package routes

import (
	"github.com/gin-gonic/gin"

	config "github.com/sourcecrowd/crowdfund-go/config"
	controllers "github.com/sourcecrowd/crowdfund-go/controllers"
	middleware "github.com/sourcecrowd/crowdfund-go/middleware"
)

func SetupRoutes(r *gin.Engine, cfg *config.Config) {
	r.GET("/healthz", controllers.Health(cfg))

	// public
	r.POST("/auth/signup", controllers.Signup(cfg))
	r.POST("/auth/login", controllers.Login(cfg))

	campaigns := r.Group("/campaign")
	{
		campaigns.GET("/all", controllers.ListCampaigns(cfg))
		campaigns.GET("/:id", controllers.GetCampaign(cfg))
		campaigns.POST("/create", controllers.CreateCampaign(cfg))
		campaigns.POST("/update/:id", controllers.ContributeToCampaign(cfg))
	}

	// protected
	auth := middleware.AuthMiddleware(cfg)

	r.GET("/auth/me", auth, controllers.Me(cfg))
	r.POST("/campaign/:id/image", auth, controllers.UploadCampaignImage(cfg))

	users := r.Group("/users")
	users.Use(auth)
	{
		users.POST("/payment-methods", controllers.AddPaymentMethod(cfg))
	}
}
