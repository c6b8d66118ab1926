package reservation

import "github.com/gin-gonic/gin"

// RegisterBookingRoutes expects r to admit members and admins.
func RegisterBookingRoutes(r *gin.RouterGroup, handler *Handler) {
	r.POST("/reservations", handler.Book)
}

// RegisterAuthRoutes expects r to admit any authenticated user.
func RegisterAuthRoutes(r *gin.RouterGroup, handler *Handler) {
	reservations := r.Group("/reservations")
	{
		reservations.GET("/me", handler.Mine)
		reservations.DELETE("/:id", handler.Cancel)
	}
}

// RegisterStaffRoutes expects r to admit coaches and admins. Coaches are
// further limited to their own sessions by the service.
func RegisterStaffRoutes(r *gin.RouterGroup, handler *Handler) {
	r.PATCH("/reservations/:id/attendance", handler.MarkAttendance)

	sessions := r.Group("/sessions/:id")
	{
		sessions.GET("/reservations", handler.SessionReservations)
		sessions.GET("/roster", handler.Roster)
		sessions.GET("/roster.xlsx", handler.RosterExport)
	}
}
