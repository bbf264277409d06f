package main

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	config "github.com/SebiosJade/Boluntik-sub002/config"
	controllers "github.com/SebiosJade/Boluntik-sub002/controllers"
	middleware "github.com/SebiosJade/Boluntik-sub002/middleware"
	routes "github.com/SebiosJade/Boluntik-sub002/routes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	defer cfg.Close()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(cfg.Logger))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", "If-None-Match")
	r.Use(cors.New(corsCfg))

	routes.SetupRoutes(r, cfg)

	// Campaigns past their due date are also swept on a schedule, not only
	// when an admin asks for it.
	if cfg.SweepInterval > 0 {
		go runSweeper(cfg)
	}

	cfg.Logger.Info("server starting", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		cfg.Logger.Fatal("server stopped", zap.Error(err))
	}
}

func runSweeper(cfg *config.Config) {
	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		completed, failed, err := controllers.SweepExpiredCampaigns(ctx, cfg)
		cancel()
		if err != nil {
			cfg.Logger.Error("scheduled expiry sweep failed", zap.Error(err))
			continue
		}
		if completed > 0 || failed > 0 {
			cfg.Logger.Info("expiry sweep finished",
				zap.Int("completed", completed),
				zap.Int("failed", failed),
			)
		}
	}
}
