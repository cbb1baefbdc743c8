// Package services – UserService
//
// This file implements the UserService, which handles account registration,
// credential verification, and profile lookup. Passwords are hashed with
// bcrypt before they reach the repository; login failures collapse into a
// single ErrInvalidCredentials so responses do not reveal whether the
// username or the password was wrong.
package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/agrosage/go-plant-backend/internal/domain"
)

// UserRepo defines the repository contract required by UserService.
type UserRepo interface {
	// CreateUser inserts a new user row.
	CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error

	// GetUser fetches a user by id.
	GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error)

	// GetUserByUsername fetches a user by its unique username.
	GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error)
}

// TokenIssuer mints an authentication token for a verified user.
// *auth.Service satisfies it.
type TokenIssuer interface {
	Issue(userID uint, username, role string) (string, error)
}

// UserService provides account registration and credential verification.
type UserService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the user repository used by this service.
	Repo UserRepo
	// Tokens issues signed tokens after a successful login.
	Tokens TokenIssuer

	// BcryptCost overrides the hashing cost; zero means bcrypt.DefaultCost.
	BcryptCost int
}

// NewUserService constructs a UserService with the default bcrypt cost.
func NewUserService(db *gorm.DB, r UserRepo, tokens TokenIssuer) *UserService {
	return &UserService{DB: db, Repo: r, Tokens: tokens}
}

// Register creates a new account. A blank role defaults to farmer; any other
// value must be one of the known roles. The password is stored only as a
// bcrypt hash.
func (s *UserService) Register(ctx context.Context, username, password, role string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	if role == "" {
		role = domain.RoleFarmer
	}
	switch role {
	case domain.RoleFarmer, domain.RoleExpert, domain.RoleAdmin:
	default:
		return nil, ErrInvalidRole
	}

	if _, err := s.Repo.GetUserByUsername(ctx, s.DB, username); err == nil {
		return nil, ErrDuplicateUsername
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cost := s.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, err
	}

	u := &domain.User{Username: username, PasswordHash: string(hash), Role: role}
	if err := s.Repo.CreateUser(ctx, s.DB, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies the credentials and returns the user together with a signed
// token. Unknown usernames and wrong passwords both yield
// ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, username, password string) (*domain.User, string, error) {
	u, err := s.Repo.GetUserByUsername(ctx, s.DB, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.Tokens.Issue(u.ID, u.Username, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Me returns the profile of the authenticated user.
func (s *UserService) Me(ctx context.Context, userID uint) (*domain.User, error) {
	u, err := s.Repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}
