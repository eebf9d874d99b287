package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/proofnote/internal/middleware"
)

type RouterDeps struct {
	Notes            *NoteHandler
	JWTSecret        []byte
	AnalyzeRateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))

	authGroup.POST("/notes", deps.Notes.Create)
	authGroup.GET("/notes/:id", deps.Notes.Get)

	authGroup.POST("/notes/:id/corrections", middleware.RateLimit(deps.AnalyzeRateLimit), deps.Notes.Analyze)
	authGroup.GET("/notes/:id/corrections/status", deps.Notes.Status)
	authGroup.POST("/notes/:id/corrections/cancel", deps.Notes.Cancel)
	authGroup.POST("/notes/:id/corrections/apply", deps.Notes.Apply)

	authGroup.GET("/notes/:id/backup", deps.Notes.Backup)
	authGroup.POST("/notes/:id/backup/restore", deps.Notes.Restore)
}
