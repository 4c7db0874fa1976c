package service

import (
	"context"
	"errors"
	"fmt"

	"vecar-shop/internal/cart"
	"vecar-shop/internal/models"
	"vecar-shop/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrMissingCredentials rejects empty usernames or passwords.
	ErrMissingCredentials = errors.New("username and password are required")
)

type userStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id string) error
}

// UserService manages shop accounts and folds guest carts into server
// carts at login.
type UserService struct {
	store  userStore
	cart   *cart.Reconciler
	logger *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(store userStore, reconciler *cart.Reconciler) *UserService {
	return &UserService{
		store:  store,
		cart:   reconciler,
		logger: util.GetLogger(),
	}
}

// Register creates a new account with a hashed password.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID))
	return user, nil
}

// Login verifies credentials. When the session carried a guest cart, its
// lines are merged into the user's server cart; a failed merge is logged
// but never fails the login.
func (s *UserService) Login(ctx context.Context, username, password, guestID string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	if guestID != "" {
		if err := s.cart.MergeGuestCart(ctx, guestID, user.ID); err != nil {
			s.logger.Error("Guest cart merge failed on login",
				zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	return user, nil
}

// ListUsers returns every account (admin view).
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.store.GetUsers(ctx)
}

// UpdateUser changes an account's username, admin flag and, when a new
// password is supplied, its password.
func (s *UserService) UpdateUser(ctx context.Context, id, username, password string, isAdmin bool) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if username != "" {
		user.Username = username
	}
	user.IsAdmin = isAdmin
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes an account.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Info("User deleted", zap.String("user_id", id))
	return nil
}
