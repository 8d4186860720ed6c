package service

import (
	"context"
	"errors"
	"fmt"

	"knowledge_hub/internal/common"
	"knowledge_hub/internal/common/security"
	"knowledge_hub/internal/domain/model"
	"knowledge_hub/internal/domain/repository"

	"github.com/go-playground/validator/v10"
)

type UserService struct {
	userRepo repository.UserRepository
	validate *validator.Validate
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo, validate: newValidator()}
}

// UpdateUserRequest carries the full replacement profile; the password is
// rehashed on every update.
type UpdateUserRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
}

func (s *UserService) List(ctx context.Context) ([]model.PublicUser, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	public := make([]model.PublicUser, 0, len(users))
	for i := range users {
		public = append(public, *users[i].Public())
	}
	return public, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*model.PublicUser, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err // common.ErrNotFound or wrapped store error
	}
	return user.Public(), nil
}

func (s *UserService) Update(ctx context.Context, targetID, requesterID string, req UpdateUserRequest) (*model.PublicUser, error) {
	existing, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if existing.ID != requesterID {
		return nil, common.ErrForbidden
	}
	if err := checkStruct(s.validate, req); err != nil {
		return nil, err
	}

	if req.Email != existing.Email {
		if _, err := s.userRepo.FindByEmail(ctx, req.Email); err == nil {
			return nil, fmt.Errorf("email already registered: %w", common.ErrConflict)
		} else if !errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	existing.FirstName = req.FirstName
	existing.LastName = req.LastName
	existing.Email = req.Email
	existing.HashedPassword = hashedPassword

	if err := s.userRepo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return existing.Public(), nil
}

func (s *UserService) Delete(ctx context.Context, targetID, requesterID string) error {
	existing, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return err
	}
	if existing.ID != requesterID {
		return common.ErrForbidden
	}
	if err := s.userRepo.Delete(ctx, targetID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
