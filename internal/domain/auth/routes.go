package auth

import "github.com/gin-gonic/gin"

func RegisterPublicRoutes(r *gin.RouterGroup, handler *Handler) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", handler.Register)
		authGroup.POST("/login", handler.Login)
	}
}

func RegisterProtectedRoutes(r *gin.RouterGroup, handler *Handler) {
	r.GET("/users/me", handler.GetMe)
}

func RegisterAdminRoutes(r *gin.RouterGroup, handler *Handler) {
	r.POST("/users", handler.CreateAccount)
}
