package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"steg/config"
)

// NewRouter builds the API routes around h.
func NewRouter(h *StegoHandler, cfg config.ServerConfig, log zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowOrigins
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", RequestIDHeader}
	corsConfig.ExposeHeaders = []string{
		"X-Stego-PSNR", "X-Stego-Low-Quality", "X-Stego-Capacity", "X-Stego-Digest", "X-Stego-Format",
		RequestIDHeader, "Content-Disposition",
	}
	router.Use(cors.New(corsConfig))

	// API Routes
	api := router.Group("/api/v1")
	{
		api.GET("/health", h.HealthCheck)

		stego := api.Group("/stego")
		{
			stego.POST("/capacity", h.Capacity)
			stego.POST("/conceal", h.ConcealMessage)
			stego.POST("/reveal", h.RevealMessage)
		}
	}

	return router
}
