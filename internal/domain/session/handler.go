package session

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gymplanner/internal/pkg/response"
	"gymplanner/internal/pkg/timeslot"
	"gymplanner/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /api/v1/sessions?date=&coach_id=
func (h *Handler) List(c *gin.Context) {
	var f Filter
	if raw := c.Query("date"); raw != "" {
		d, err := timeslot.ParseDate(raw)
		if err != nil {
			response.CustomError(c, http.StatusBadRequest, "INVALID_DATE", "date must be YYYY-MM-DD")
			return
		}
		f.Date = &d
	}
	f.CoachID = c.Query("coach_id")

	sessions, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		response.CustomError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err)
		return
	}

	out := make([]SessionResponse, 0, len(sessions))
	for i := range sessions {
		out = append(out, toResponse(&sessions[i]))
	}
	response.Success(c, http.StatusOK, gin.H{"sessions": out})
}

// Create handles POST /api/v1/sessions (admin)
func (h *Handler) Create(c *gin.Context) {
	req, ok := bindSchedule(c)
	if !ok {
		return
	}

	sess, err := h.service.Create(c.Request.Context(), req.toCandidate())
	if err != nil {
		response.SchedulingError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"session": toResponse(sess)})
}

// Update handles PUT /api/v1/sessions/:id (admin)
func (h *Handler) Update(c *gin.Context) {
	req, ok := bindSchedule(c)
	if !ok {
		return
	}

	sess, err := h.service.Update(c.Request.Context(), c.Param("id"), req.toCandidate())
	if err != nil {
		response.SchedulingError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": toResponse(sess)})
}

// Complete handles PATCH /api/v1/sessions/:id/complete (admin)
func (h *Handler) Complete(c *gin.Context) {
	sess, err := h.service.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.SchedulingError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": toResponse(sess)})
}

// Delete handles DELETE /api/v1/sessions/:id (admin)
func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.SchedulingError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// Calendar handles GET /api/v1/coaches/:id/calendar.ics
func (h *Handler) Calendar(c *gin.Context) {
	body, err := h.service.CoachCalendar(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.SchedulingError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="coach-`+c.Param("id")+`.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

func bindSchedule(c *gin.Context) (*ScheduleSessionRequest, bool) {
	var req ScheduleSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return nil, false
	}
	if errs := validator.Validate(&req); errs != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", errs)
		return nil, false
	}
	return &req, true
}
