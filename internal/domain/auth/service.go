package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gymplanner/internal/domain"
	"gymplanner/internal/repository"
)

// UserRepositoryInterface is the part of the user store auth needs.
type UserRepositoryInterface interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type tokenIssuer interface {
	GenerateToken(userID string, role string) (string, error)
}

type Service struct {
	users  UserRepositoryInterface
	jwt    tokenIssuer
	logger *zap.Logger
}

type LoginResult struct {
	User        *domain.User
	AccessToken string
}

func NewService(users UserRepositoryInterface, jwt tokenIssuer, logger *zap.Logger) *Service {
	return &Service{users: users, jwt: jwt, logger: logger}
}

// RegisterMember is the public sign-up. It always creates a member.
func (s *Service) RegisterMember(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	return s.createUser(ctx, req, domain.RoleMember)
}

// CreateAccount lets an admin create an account with any role.
func (s *Service) CreateAccount(ctx context.Context, req CreateAccountRequest) (*domain.User, error) {
	if !req.Role.Valid() {
		return nil, ErrInvalidRole
	}
	return s.createUser(ctx, req.RegisterRequest, req.Role)
}

func (s *Service) createUser(ctx context.Context, req RegisterRequest, role domain.UserRole) (*domain.User, error) {
	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        repository.NormalizeEmail(req.Email),
		PasswordHash: hash,
		Role:         role,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        strings.TrimSpace(req.Phone),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(role)))
	user.PasswordHash = ""
	return user, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := CheckPassword(req.Password, user.PasswordHash); err != nil {
		s.logger.Info("login rejected", zap.String("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return &LoginResult{User: user, AccessToken: token}, nil
}

func (s *Service) GetMe(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}
