package coach

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gymplanner/internal/pkg/response"
	"gymplanner/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /api/v1/coaches
func (h *Handler) List(c *gin.Context) {
	coaches, err := h.service.List(c.Request.Context())
	if err != nil {
		response.CustomError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err)
		return
	}

	out := make([]CoachResponse, 0, len(coaches))
	for i := range coaches {
		out = append(out, toResponse(&coaches[i]))
	}
	response.Success(c, http.StatusOK, gin.H{"coaches": out})
}

// Create handles POST /api/v1/coaches (admin)
func (h *Handler) Create(c *gin.Context) {
	var req CreateCoachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", errs)
		return
	}

	coach, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"coach": toResponse(coach)})
}

// GetAvailability handles GET /api/v1/coaches/:id/availability
func (h *Handler) GetAvailability(c *gin.Context) {
	windows, err := h.service.GetAvailability(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"availability": windows})
}

// ReplaceAvailability handles PUT /api/v1/coaches/:id/availability (admin)
func (h *Handler) ReplaceAvailability(c *gin.Context) {
	var req ReplaceAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", errs)
		return
	}

	windows, err := h.service.ReplaceAvailability(c.Request.Context(), c.Param("id"), req.Windows)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"availability": windows})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrCoachNotFound):
		response.CustomError(c, http.StatusNotFound, "COACH_NOT_FOUND", "Coach not found")
	case errors.Is(err, ErrNoSpecialty),
		errors.Is(err, ErrTooManySpecialties),
		errors.Is(err, ErrUnknownSpecialty),
		errors.Is(err, ErrDuplicateSpecialty):
		response.CustomError(c, http.StatusBadRequest, "INVALID_SPECIALTIES", err.Error())
	case errors.Is(err, ErrInvalidWindow):
		response.CustomError(c, http.StatusBadRequest, "INVALID_WINDOW", err.Error())
	case errors.Is(err, ErrUserNotCoach):
		response.CustomError(c, http.StatusBadRequest, "USER_NOT_COACH", err.Error())
	case errors.Is(err, ErrUserAlreadyLinked):
		response.CustomError(c, http.StatusConflict, "USER_ALREADY_LINKED", err.Error())
	default:
		response.CustomError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err)
	}
}
