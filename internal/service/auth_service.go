package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/deskflow-io/deskflow/internal/apierrors"
	"github.com/deskflow-io/deskflow/internal/auth"
	"github.com/deskflow-io/deskflow/internal/models"
	"github.com/deskflow-io/deskflow/internal/repository"
)

// AuthService handles login and token subject lookup.
type AuthService struct {
	users repository.UserRepository
	jwt   *auth.JWTManager
}

// dummyHash is a valid bcrypt hash compared against when the email is
// unknown, so both failure paths cost a full bcrypt verification.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// NewAuthService creates an auth service.
func NewAuthService(users repository.UserRepository, jwt *auth.JWTManager) *AuthService {
	return &AuthService{users: users, jwt: jwt}
}

// Login verifies credentials and returns the user plus a signed access
// token. Unknown email and wrong password produce the identical error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	failed := apierrors.WithCode(apierrors.ErrUnauthorized, apierrors.CodeLoginFailed)

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, apierrors.ErrNotFound) {
		// Burn a bcrypt round anyway so the two failure paths take
		// comparable time.
		bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		return nil, "", failed
	}
	if err != nil {
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", failed
	}

	token, err := s.jwt.Issue(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Me returns the user behind a validated token subject.
func (s *AuthService) Me(ctx context.Context, userID int64) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
