package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/workshophub/workshop-booking/internal/dto"
	"github.com/workshophub/workshop-booking/internal/models"
	"github.com/workshophub/workshop-booking/internal/repository"
	"github.com/workshophub/workshop-booking/pkg/auth"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadySubscribed  = errors.New("email already subscribed")
)

type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*models.User, string, error)
	Login(ctx context.Context, req dto.LoginRequest) (*models.User, string, error)
	Subscribe(ctx context.Context, req dto.SubscribeRequest) error
}

type authService struct {
	users       repository.UserRepository
	subscribers repository.SubscriberRepository
	jwtSecret   string
	tokenTTL    time.Duration
	validate    *validator.Validate
}

func NewAuthService(users repository.UserRepository, subscribers repository.SubscriberRepository, jwtSecret string, tokenTTL time.Duration) AuthService {
	return &authService{
		users:       users,
		subscribers: subscribers,
		jwtSecret:   jwtSecret,
		tokenTTL:    tokenTTL,
		validate:    validator.New(),
	}
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (*models.User, string, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
		Role:     models.RoleCustomer,
		Status:   models.UserActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := auth.CreateToken(s.jwtSecret, user.ID, user.Role, s.tokenTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*models.User, string, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrValidation, err)
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := auth.CreateToken(s.jwtSecret, user.ID, user.Role, s.tokenTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *authService) Subscribe(ctx context.Context, req dto.SubscribeRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	exists, err := s.subscribers.EmailExists(ctx, req.Email)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadySubscribed
	}
	return s.subscribers.Create(ctx, &models.Subscriber{Email: req.Email})
}
