package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/patshala/patshala-backend/internal/model"
	"github.com/patshala/patshala-backend/internal/repository"
)

// UserService handles account lookup and registration.
type UserService struct {
	repo *repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(repo *repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByPhone retrieves a user by phone number.
func (s *UserService) GetByPhone(ctx context.Context, phone string) (*model.User, error) {
	return s.repo.GetByPhone(ctx, phone)
}

// Register creates a student account.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest, passwordHash string) (*model.User, error) {
	user := &model.User{
		Name:         req.Name,
		Phone:        req.Phone,
		Roll:         req.Roll,
		Role:         model.RoleStudent,
		PasswordHash: passwordHash,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// IsEnrolled reports whether the user is enrolled in the given batch.
func (s *UserService) IsEnrolled(ctx context.Context, userID, batchID uuid.UUID) (bool, error) {
	batches, err := s.repo.GetEnrolledBatches(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, b := range batches {
		if b == batchID {
			return true, nil
		}
	}
	return false, nil
}
