package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workshophub/workshop-booking/internal/dto"
	"github.com/workshophub/workshop-booking/internal/models"
	"github.com/workshophub/workshop-booking/pkg/auth"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- Mock UserRepository ---

type mockUserRepo struct {
	createFn      func(ctx context.Context, user *models.User) error
	findByEmailFn func(ctx context.Context, email string) (*models.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}
func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, gorm.ErrRecordNotFound
}
func (m *mockUserRepo) List(ctx context.Context) ([]models.User, error) { return nil, nil }
func (m *mockUserRepo) FindActiveAdmins(ctx context.Context) ([]models.User, error) {
	return nil, nil
}
func (m *mockUserRepo) Promote(ctx context.Context, id string) error { return nil }

// --- Mock SubscriberRepository ---

type mockSubscriberRepo struct {
	existsFn func(ctx context.Context, email string) (bool, error)
	createFn func(ctx context.Context, sub *models.Subscriber) error
}

func (m *mockSubscriberRepo) Create(ctx context.Context, sub *models.Subscriber) error {
	if m.createFn != nil {
		return m.createFn(ctx, sub)
	}
	return nil
}
func (m *mockSubscriberRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, email)
	}
	return false, nil
}

const testSecret = "test-secret"

func newAuthService(users *mockUserRepo, subs *mockSubscriberRepo) AuthService {
	return NewAuthService(users, subs, testSecret, time.Hour)
}

// --- Tests ---

func TestRegister_Success(t *testing.T) {
	var stored *models.User
	users := &mockUserRepo{
		createFn: func(ctx context.Context, user *models.User) error {
			user.ID = "user-1"
			stored = user
			return nil
		},
	}
	svc := newAuthService(users, &mockSubscriberRepo{})

	user, token, err := svc.Register(context.Background(), dto.RegisterRequest{
		Name:     "Grace Hopper",
		Email:    "grace@example.com",
		Password: "secret123",
	})

	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, user.Role)
	assert.NotEmpty(t, token)

	// Password must be stored hashed, never verbatim.
	require.NotNil(t, stored)
	assert.NotEqual(t, "secret123", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("secret123")))

	claims, err := auth.ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleCustomer, claims.Role)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{ID: "existing", Email: email}, nil
		},
	}
	svc := newAuthService(users, &mockSubscriberRepo{})

	_, _, err := svc.Register(context.Background(), dto.RegisterRequest{
		Name:     "Grace Hopper",
		Email:    "grace@example.com",
		Password: "secret123",
	})

	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegister_ShortPassword(t *testing.T) {
	svc := newAuthService(&mockUserRepo{}, &mockSubscriberRepo{})

	_, _, err := svc.Register(context.Background(), dto.RegisterRequest{
		Name:     "Grace Hopper",
		Email:    "grace@example.com",
		Password: "short",
	})

	assert.ErrorIs(t, err, ErrValidation)
}

func TestLogin_WrongPassword(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("rightpass"), bcrypt.DefaultCost)
	require.NoError(t, err)

	users := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{ID: "user-1", Email: email, Password: string(hashed)}, nil
		},
	}
	svc := newAuthService(users, &mockSubscriberRepo{})

	_, _, err = svc.Login(context.Background(), dto.LoginRequest{
		Email:    "grace@example.com",
		Password: "wrongpass",
	})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := newAuthService(&mockUserRepo{}, &mockSubscriberRepo{})

	_, _, err := svc.Login(context.Background(), dto.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever1",
	})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSubscribe_Duplicate(t *testing.T) {
	subs := &mockSubscriberRepo{
		existsFn: func(ctx context.Context, email string) (bool, error) {
			return true, nil
		},
	}
	svc := newAuthService(&mockUserRepo{}, subs)

	err := svc.Subscribe(context.Background(), dto.SubscribeRequest{Email: "grace@example.com"})

	assert.ErrorIs(t, err, ErrAlreadySubscribed)
}

func TestSubscribe_Success(t *testing.T) {
	created := false
	subs := &mockSubscriberRepo{
		createFn: func(ctx context.Context, sub *models.Subscriber) error {
			created = true
			assert.Equal(t, "grace@example.com", sub.Email)
			return nil
		},
	}
	svc := newAuthService(&mockUserRepo{}, subs)

	err := svc.Subscribe(context.Background(), dto.SubscribeRequest{Email: "grace@example.com"})

	require.NoError(t, err)
	assert.True(t, created)
}
