package session

import "github.com/gin-gonic/gin"

func RegisterPublicRoutes(r *gin.RouterGroup, handler *Handler) {
	r.GET("/sessions", handler.List)
	r.GET("/coaches/:id/calendar.ics", handler.Calendar)
}

func RegisterAdminRoutes(r *gin.RouterGroup, handler *Handler) {
	sessions := r.Group("/sessions")
	{
		sessions.POST("", handler.Create)
		sessions.PUT("/:id", handler.Update)
		sessions.PATCH("/:id/complete", handler.Complete)
		sessions.DELETE("/:id", handler.Delete)
	}
}
