// Package router assembles the gin engine: global middleware, the public,
// authenticated and role-gated groups, the planning socket and /healthz.
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gymplanner/internal/config"
	"gymplanner/internal/domain"
	"gymplanner/internal/domain/auth"
	"gymplanner/internal/domain/coach"
	"gymplanner/internal/domain/planning"
	"gymplanner/internal/domain/reservation"
	"gymplanner/internal/domain/session"
	"gymplanner/internal/middleware"
	"gymplanner/internal/pkg/jwt"
	"gymplanner/internal/pkg/response"
)

type Handlers struct {
	Auth        *auth.Handler
	Coach       *coach.Handler
	Session     *session.Handler
	Reservation *reservation.Handler
	Planning    *planning.Handler
}

func Setup(cfg *config.Config, h Handlers, tokens *jwt.Service, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	if cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(logger),
		middleware.CORS(cfg.Server.CORS.AllowOrigins),
	)

	r.GET("/healthz", healthz(db))
	planning.RegisterRoutes(r, h.Planning)

	v1 := r.Group("/api/v1")
	auth.RegisterPublicRoutes(v1, h.Auth)
	coach.RegisterPublicRoutes(v1, h.Coach)
	session.RegisterPublicRoutes(v1, h.Session)

	protected := v1.Group("", middleware.JWTAuth(tokens))
	auth.RegisterProtectedRoutes(protected, h.Auth)
	coach.RegisterAuthRoutes(protected, h.Coach)
	reservation.RegisterAuthRoutes(protected, h.Reservation)

	booking := protected.Group("", middleware.RequireRole(domain.RoleMember, domain.RoleAdmin))
	reservation.RegisterBookingRoutes(booking, h.Reservation)

	staff := protected.Group("", middleware.RequireRole(domain.RoleCoach, domain.RoleAdmin))
	reservation.RegisterStaffRoutes(staff, h.Reservation)

	admin := protected.Group("", middleware.AdminOnly())
	auth.RegisterAdminRoutes(admin, h.Auth)
	coach.RegisterAdminRoutes(admin, h.Coach)
	session.RegisterAdminRoutes(admin, h.Session)

	return r
}

func healthz(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			response.CustomError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database is unreachable")
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	}
}
