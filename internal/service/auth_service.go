package service

import (
	"context"
	"fmt"
	"time"

	"auth_backend/internal/apperr"
	"auth_backend/internal/model"
	"auth_backend/internal/repository"
	"auth_backend/internal/utils"

	"github.com/google/uuid"
)

// InvalidCredentialsMessage is returned for both an unknown phone and a wrong
// password so responses never reveal which of the two failed.
const InvalidCredentialsMessage = "Invalid credentials"

// AuthService provides authentication related services
type AuthService interface {
	Register(ctx context.Context, phone, password string) (*model.User, error)
	Login(ctx context.Context, phone, password string) (string, error)
}

type authService struct {
	userRepo repository.UserRepository
	issuer   *utils.TokenIssuer
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repository.UserRepository, issuer *utils.TokenIssuer) AuthService {
	return &authService{
		userRepo: userRepo,
		issuer:   issuer,
	}
}

// Register creates a new user account. The caller never receives the hash or
// the internal id back; handlers echo only the phone.
func (s *authService) Register(ctx context.Context, phone, password string) (*model.User, error) {
	existingUser, err := s.userRepo.FindByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, apperr.New(apperr.KindConflict, "User already exists")
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New(),
		Phone:        phone,
		PasswordHash: hashedPassword,
		Role:         model.DefaultRole,
		CreatedAt:    time.Now(),
	}

	// A concurrent registration between the check above and this insert is
	// resolved by the uniqueness constraint, which comes back as a Conflict.
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login authenticates a user and returns a signed access token
func (s *authService) Login(ctx context.Context, phone, password string) (string, error) {
	user, err := s.userRepo.FindByPhone(ctx, phone)
	if err != nil {
		return "", fmt.Errorf("error finding user by phone: %w", err)
	}
	if user == nil {
		return "", apperr.New(apperr.KindUnauthenticated, InvalidCredentialsMessage)
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return "", apperr.New(apperr.KindUnauthenticated, InvalidCredentialsMessage)
	}

	token, err := s.issuer.Sign(user.ID, user.Phone)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	return token, nil
}
