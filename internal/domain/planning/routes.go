package planning

import "github.com/gin-gonic/gin"

func RegisterRoutes(r gin.IRouter, handler *Handler) {
	r.GET("/ws/planning", handler.Serve)
}
