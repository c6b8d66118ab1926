package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gymplanner/internal/pkg/response"
	"gymplanner/internal/pkg/validator"
	"gymplanner/internal/repository"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register handles POST /api/v1/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bind(c, &req) {
		return
	}

	user, err := h.service.RegisterMember(c.Request.Context(), req)
	if err != nil {
		writeRegisterError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"user": toUserResponse(user)})
}

// CreateAccount handles POST /api/v1/users (admin)
func (h *Handler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if !bind(c, &req) {
		return
	}

	user, err := h.service.CreateAccount(c.Request.Context(), req)
	if err != nil {
		writeRegisterError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"user": toUserResponse(user)})
}

// Login handles POST /api/v1/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !bind(c, &req) {
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.CustomError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Email or password is incorrect")
			return
		}
		response.CustomError(c, http.StatusInternalServerError, "LOGIN_FAILED", err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user": toUserResponse(result.User),
		"tokens": gin.H{
			"access_token": result.AccessToken,
		},
	})
}

// GetMe handles GET /api/v1/users/me
func (h *Handler) GetMe(c *gin.Context) {
	user, err := h.service.GetMe(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			response.CustomError(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
			return
		}
		response.CustomError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": toUserResponse(user)})
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return false
	}
	if errs := validator.Validate(req); errs != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", errs)
		return false
	}
	return true
}

func writeRegisterError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrEmailAlreadyExists):
		response.CustomError(c, http.StatusConflict, "EMAIL_EXISTS", "This email is already registered")
	case errors.Is(err, ErrInvalidRole):
		response.CustomError(c, http.StatusBadRequest, "INVALID_ROLE", "Role must be member, coach or admin")
	default:
		response.CustomError(c, http.StatusInternalServerError, "REGISTRATION_FAILED", err)
	}
}
