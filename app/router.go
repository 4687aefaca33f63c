// Package app wires shared HTTP routes for both local and Lambda execution.
package app

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the shared HTTP router for both local and Lambda execution.
func NewRouter(s *Service) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(s.Log))
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}))

	router.GET("/health", Health)
	router.POST("/evaluate", s.EvaluatePosition)
	router.POST("/bot-move", s.GetBotMove)
	router.POST("/jobs", s.CreateSearchJob)
	router.GET("/jobs/:jobid", GetJobStatus)

	return router
}
