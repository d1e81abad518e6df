package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gofinapi/finapi/internal/auth"
	"github.com/gofinapi/finapi/internal/domain"
	"github.com/gofinapi/finapi/internal/logging"
)

type userRepo interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type UserService struct {
	users userRepo
}

func NewUserService(users userRepo) *UserService {
	return &UserService{users: users}
}

func (s *UserService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	log := logging.FromContext(ctx)

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("Register: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("Register: %w", err)
	}

	log.Info("user registered", "user_id", user.ID, "email", user.Email)

	return user, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("GetProfile: %w", err)
	}
	return user, nil
}
