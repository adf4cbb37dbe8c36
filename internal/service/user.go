package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/edu-center/site-api/internal/models"
	"github.com/edu-center/site-api/internal/store"
	"github.com/edu-center/site-api/internal/utils"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrRegistrationClosed = errors.New("registration is closed")
	ErrPasswordRequired   = errors.New("password is required")
)

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UserExists(ctx context.Context, email, username string) (bool, error)
	CountUsers(ctx context.Context) (int64, error)
}

type UserService struct {
	store             UserStore
	allowRegistration bool
}

func NewUserService(s UserStore, allowRegistration bool) *UserService {
	return &UserService{store: s, allowRegistration: allowRegistration}
}

// Register creates an admin account. Self-registration is open while no
// accounts exist, or when it is explicitly allowed.
func (u *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	if !u.allowRegistration {
		n, err := u.store.CountUsers(ctx)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, ErrRegistrationClosed
		}
	}
	return u.CreateUser(ctx, username, email, password, models.RoleAdmin)
}

func (u *UserService) CreateUser(ctx context.Context, username, email, password string, role models.Role) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)
	if password == "" {
		return nil, ErrPasswordRequired
	}

	exists, err := u.store.UserExists(ctx, email, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserExists
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now()
	user := &models.User{
		ID:           utils.GenerateID(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return user, nil
}

// Authenticate checks credentials and returns the active user.
func (u *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := u.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	ok, err := utils.ComparePasswordAndHash(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, ErrAccountDisabled
	}
	return user, nil
}
