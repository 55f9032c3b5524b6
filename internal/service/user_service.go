package service

import (
	"github.com/mohidul32/Chat-Application/internal/models"
	"github.com/mohidul32/Chat-Application/internal/repository"
)

// UserService keeps local identity rows and presence flags in sync with
// the external identity provider.
type UserService struct {
	userRepo repository.UserRepositoryInterface
}

func NewUserService(userRepo repository.UserRepositoryInterface) *UserService {
	return &UserService{userRepo: userRepo}
}

// EnsureUser refreshes the identity row from the authenticated identity
// supplied at connect time.
func (s *UserService) EnsureUser(id uint, username, fullName string) error {
	return s.userRepo.Upsert(&models.User{
		ID:       id,
		Username: username,
		FullName: fullName,
	})
}

func (s *UserService) GetUser(id uint) (*models.User, error) {
	return s.userRepo.FindByID(id)
}

func (s *UserService) SetUserOnline(userID uint) error {
	return s.userRepo.UpdateOnlineStatus(userID, true)
}

func (s *UserService) SetUserOffline(userID uint) error {
	return s.userRepo.UpdateOnlineStatus(userID, false)
}
