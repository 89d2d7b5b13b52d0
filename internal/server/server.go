package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/handler"
	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/protocol"
	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/scheduler"
)

type Server struct {
	router *gin.Engine
	logger *zap.Logger
}

func NewServer(runner *scheduler.Runner, machine *protocol.Machine, logger *zap.Logger) *Server {
	router := gin.Default()

	s := &Server{
		router: router,
		logger: logger,
	}

	engagementHandler := handler.NewEngagementHandler(runner, machine, logger)

	// Ping route for health check
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.POST("/engagement/run", engagementHandler.RunTrigger)
		api.POST("/protocols/advance-day", engagementHandler.AdvanceDays)
	}

	return s
}

func (s *Server) Run(addr string) {
	s.logger.Info("Server starting", zap.String("addr", addr))
	if err := s.router.Run(addr); err != nil {
		s.logger.Fatal("Server failed to start", zap.Error(err))
	}
}
