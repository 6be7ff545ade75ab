package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	DefaultTenant  string
	RateLimitRPS   float64
	RateLimitBurst int
	Logger         *slog.Logger
}

func NewRouter(cfg RouterConfig, handler *GatewayHandler) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery(), CORS(), RequestID(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := r.Group("/api", Tenant(cfg.DefaultTenant), RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	{
		whatsappGroup := apiGroup.Group("/whatsapp")
		{
			whatsappGroup.GET("/contacts", handler.GetContacts)
			whatsappGroup.GET("/contacts/:id/messages", handler.GetMessages)
			whatsappGroup.POST("/contacts/:id/messages", handler.SendMessage)
			whatsappGroup.GET("/status", handler.GetStatus)
			whatsappGroup.GET("/status/ws", handler.StatusStream)
			whatsappGroup.POST("/disconnect", handler.Disconnect)
			whatsappGroup.GET("/candidates", handler.Candidates)
		}
	}
	return r
}
