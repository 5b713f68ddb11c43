package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/messagely/apiserver/internal/store"
	"github.com/messagely/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user types.User) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	All(ctx context.Context) ([]types.UserSummary, error)
	UpdateLoginTimestamp(ctx context.Context, username string) (types.User, error)
}

// RegisterParams carries the fields required to create an account.
type RegisterParams struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// AuthService verifies credentials against the user repository and manages
// account creation and login bookkeeping.
type AuthService struct {
	repo UserRepository
	cost int
}

func NewAuthService(repo UserRepository) *AuthService {
	return &AuthService{repo: repo, cost: bcrypt.DefaultCost}
}

// Register creates a new account. The password is stored only as a bcrypt
// hash; join_at and last_login_at are set to the creation time.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (types.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.cost)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, types.User{
		Username:     params.Username,
		PasswordHash: string(hashed),
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Phone:        params.Phone,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.User{}, ErrDuplicateUser
		}
		return types.User{}, err
	}
	return user, nil
}

// Authenticate checks the username/password pair and returns the account on
// success. Unknown users and wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (types.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// UpdateLoginTimestamp records a successful login for the user.
func (s *AuthService) UpdateLoginTimestamp(ctx context.Context, username string) (types.User, error) {
	return s.repo.UpdateLoginTimestamp(ctx, username)
}
