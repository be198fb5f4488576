package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"victoria-kids-api/internal/auth"
	"victoria-kids-api/internal/models"
	"victoria-kids-api/internal/store"
	"victoria-kids-api/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserPublisher publishes account lifecycle events.
type UserPublisher interface {
	PublishUserRegistered(ctx context.Context, event *models.UserRegisteredEvent) error
}

// UserService handles registration, login and profiles.
type UserService struct {
	store  *store.Store
	tokens *auth.TokenManager
	events UserPublisher
	logger *zap.Logger
}

// NewUserService creates a new user service. events may be nil.
func NewUserService(st *store.Store, tokens *auth.TokenManager, events UserPublisher) *UserService {
	return &UserService{
		store:  st,
		tokens: tokens,
		events: events,
		logger: util.GetLogger(),
	}
}

// RegisterRequest creates a customer account
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone"`
}

// LoginRequest authenticates by email and password
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries the user and a token pair
type AuthResponse struct {
	User         *models.User `json:"user"`
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
}

// Register creates a customer account, hashes the password and issues
// a token pair
func (us *UserService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	ctx, span := util.StartSpan(ctx, "UserService.Register")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := us.store.GetUserByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email %s already registered: %w", email, models.ErrDuplicate)
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:     req.Name,
		Email:    email,
		Password: hash,
		Phone:    req.Phone,
		Role:     models.RoleCustomer,
	}
	if err := us.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	us.logger.Info("User registered", zap.Int64("user_id", user.ID), zap.String("email", email))

	if us.events != nil {
		event := &models.UserRegisteredEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeUserRegistered,
				Timestamp: time.Now(),
			},
			UserID: user.ID,
			Name:   user.Name,
			Email:  user.Email,
		}
		if err := us.events.PublishUserRegistered(ctx, event); err != nil {
			us.logger.Error("Failed to publish user registered event",
				zap.Int64("user_id", user.ID), zap.Error(err))
		}
	}

	return us.issueTokens(user)
}

// Login authenticates a user. Wrong email and wrong password are
// indistinguishable to the caller.
func (us *UserService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	ctx, span := util.StartSpan(ctx, "UserService.Login")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := us.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", models.ErrForbidden)
		}
		return nil, err
	}
	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, fmt.Errorf("invalid credentials: %w", models.ErrForbidden)
	}

	return us.issueTokens(user)
}

// Refresh exchanges a valid refresh token for a new token pair
func (us *UserService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	userID, err := us.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	user, err := us.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return us.issueTokens(user)
}

func (us *UserService) issueTokens(user *models.User) (*AuthResponse, error) {
	token, err := us.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	refresh, err := us.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return &AuthResponse{User: user, Token: token, RefreshToken: refresh}, nil
}

// GetProfile returns the user's account record
func (us *UserService) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	return us.store.GetUserByID(ctx, userID)
}

// UpdateProfileRequest changes mutable profile fields
type UpdateProfileRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
}

// UpdateProfile updates name and phone and returns the fresh record
func (us *UserService) UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest) (*models.User, error) {
	if err := us.store.UpdateUserProfile(ctx, userID, req.Name, req.Phone); err != nil {
		return nil, err
	}
	return us.store.GetUserByID(ctx, userID)
}
