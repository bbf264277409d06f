package routes

import (
	"github.com/gin-gonic/gin"

	config "github.com/SebiosJade/Boluntik-sub002/config"
	controllers "github.com/SebiosJade/Boluntik-sub002/controllers"
	middleware "github.com/SebiosJade/Boluntik-sub002/middleware"
	models "github.com/SebiosJade/Boluntik-sub002/models"
)

func SetupRoutes(r *gin.Engine, cfg *config.Config) {
	auth := middleware.AuthMiddleware(cfg)

	// Campaigns
	campaigns := r.Group("/campaigns")
	{
		campaigns.GET("", controllers.ListCampaigns(cfg))
		campaigns.GET("/mine", auth, controllers.MyCampaigns(cfg))
		campaigns.GET("/donations/mine", auth, controllers.MyDonations(cfg))
		campaigns.GET("/:id", controllers.GetCampaign(cfg))
		campaigns.POST("", auth, controllers.CreateCampaign(cfg))
		campaigns.PATCH("/:id", auth, controllers.UpdateCampaign(cfg))
		campaigns.DELETE("/:id", auth, controllers.DeleteCampaign(cfg))

		// Guests may donate; signed-in donors get their account attached.
		campaigns.POST("/:id/donations", middleware.OptionalAuth(cfg), controllers.SubmitDonation(cfg))
	}

	// Admin: donation review, settlement, payment settings
	admin := r.Group("/admin")
	admin.Use(auth, middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/donations", controllers.ListAllDonations(cfg))
		admin.PATCH("/campaigns/:id/donations/:donationId", controllers.ReviewDonation(cfg))
		admin.POST("/campaigns/:id/disburse", controllers.DisburseCampaign(cfg))
		admin.POST("/campaigns/complete-expired", controllers.CompleteExpiredCampaigns(cfg))
		admin.GET("/payment-settings", controllers.GetPaymentSettings(cfg))
		admin.PUT("/payment-settings", controllers.UpdatePaymentSettings(cfg))
	}

	notifs := r.Group("/notifications")
	notifs.Use(auth)
	{
		notifs.GET("", controllers.ListNotifications(cfg))
		notifs.PATCH("/:id/read", controllers.MarkNotificationRead(cfg))
	}
}
