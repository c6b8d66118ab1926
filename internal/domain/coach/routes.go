package coach

import "github.com/gin-gonic/gin"

func RegisterPublicRoutes(r *gin.RouterGroup, handler *Handler) {
	r.GET("/coaches", handler.List)
}

func RegisterAuthRoutes(r *gin.RouterGroup, handler *Handler) {
	r.GET("/coaches/:id/availability", handler.GetAvailability)
}

func RegisterAdminRoutes(r *gin.RouterGroup, handler *Handler) {
	coaches := r.Group("/coaches")
	{
		coaches.POST("", handler.Create)
		coaches.PUT("/:id/availability", handler.ReplaceAvailability)
	}
}
