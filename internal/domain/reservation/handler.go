package reservation

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gymplanner/internal/domain"
	"gymplanner/internal/pkg/response"
	"gymplanner/internal/pkg/validator"
)

type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func actorFrom(c *gin.Context) Actor {
	return Actor{
		UserID: c.GetString("user_id"),
		Role:   domain.UserRole(c.GetString("role")),
	}
}

// Book handles POST /api/v1/reservations
func (h *Handler) Book(c *gin.Context) {
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", errs)
		return
	}

	res, err := h.service.BookFor(c.Request.Context(), actorFrom(c), req.MemberID, req.SessionID)
	if err != nil {
		response.SchedulingError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"reservation": toResponse(res)})
}

// Mine handles GET /api/v1/reservations/me
func (h *Handler) Mine(c *gin.Context) {
	list, err := h.service.ListForMember(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		response.CustomError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reservations": toResponses(list)})
}

// Cancel handles DELETE /api/v1/reservations/:id
func (h *Handler) Cancel(c *gin.Context) {
	if err := h.service.Cancel(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		response.SchedulingError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"cancelled": true})
}

// MarkAttendance handles PATCH /api/v1/reservations/:id/attendance
func (h *Handler) MarkAttendance(c *gin.Context) {
	var req AttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", errs)
		return
	}

	res, err := h.service.MarkAttendance(c.Request.Context(), actorFrom(c), c.Param("id"), *req.Present)
	if err != nil {
		response.SchedulingError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reservation": toResponse(res)})
}

// SessionReservations handles GET /api/v1/sessions/:id/reservations
func (h *Handler) SessionReservations(c *gin.Context) {
	list, err := h.service.ListForSession(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		response.SchedulingError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reservations": toResponses(list)})
}

// Roster handles GET /api/v1/sessions/:id/roster
func (h *Handler) Roster(c *gin.Context) {
	sess, entries, err := h.service.Roster(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		response.SchedulingError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"session_id": sess.ID,
		"capacity":   sess.Capacity,
		"enrolled":   sess.EnrolledCount,
		"members":    entries,
	})
}

// RosterExport handles GET /api/v1/sessions/:id/roster.xlsx
func (h *Handler) RosterExport(c *gin.Context) {
	sess, entries, err := h.service.Roster(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		response.SchedulingError(c, err)
		return
	}

	buf, err := WriteRosterWorkbook(sess, entries)
	if err != nil {
		h.logger.Error("roster export failed", zap.String("session_id", sess.ID), zap.Error(err))
		response.CustomError(c, http.StatusInternalServerError, "EXPORT_FAILED", err)
		return
	}

	filename := fmt.Sprintf("roster-%s-%s.xlsx", sess.Date, sess.Activity)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
