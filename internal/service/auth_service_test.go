package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/siakad-dosen-api/internal/models"
	appErrors "github.com/noah-isme/siakad-dosen-api/pkg/errors"
)

type fakeUserRepo struct {
	user *models.User
	err  error
}

func (f *fakeUserRepo) FindByEmail(context.Context, string) (*models.User, error) {
	return f.user, f.err
}

func testUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "user-1",
		Email:        "rahmat@kampus.ac.id",
		PasswordHash: string(hash),
		FullName:     "Dr. Rahmat Hidayat",
		Role:         models.RoleDosen,
		Active:       true,
	}
}

func newTestAuthService(repo *fakeUserRepo) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "siakad-dosen-api",
	})
}

func TestLoginSuccess(t *testing.T) {
	svc := newTestAuthService(&fakeUserRepo{user: testUser(t, "rahasia123")})

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "rahmat@kampus.ac.id",
		Password: "rahasia123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "user-1", resp.User.ID)
	assert.Equal(t, models.RoleDosen, resp.User.Role)
	assert.Greater(t, resp.ExpiresIn, int64(0))
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestAuthService(&fakeUserRepo{user: testUser(t, "rahasia123")})

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "rahmat@kampus.ac.id",
		Password: "salah",
	})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	svc := newTestAuthService(&fakeUserRepo{})

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "tidakada@kampus.ac.id",
		Password: "rahasia123",
	})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestLoginInactiveAccount(t *testing.T) {
	user := testUser(t, "rahasia123")
	user.Active = false
	svc := newTestAuthService(&fakeUserRepo{user: user})

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "rahmat@kampus.ac.id",
		Password: "rahasia123",
	})
	assert.ErrorIs(t, err, appErrors.ErrInactiveAccount)
}

func TestLoginValidation(t *testing.T) {
	svc := newTestAuthService(&fakeUserRepo{})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: ""})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestValidateTokenRoundTrip(t *testing.T) {
	svc := newTestAuthService(&fakeUserRepo{user: testUser(t, "rahasia123")})

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "rahmat@kampus.ac.id",
		Password: "rahasia123",
	})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleDosen, claims.Role)
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	svc := newTestAuthService(&fakeUserRepo{user: testUser(t, "rahasia123")})

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "rahmat@kampus.ac.id",
		Password: "rahasia123",
	})
	require.NoError(t, err)

	other := NewAuthService(&fakeUserRepo{}, nil, nil, AuthConfig{AccessTokenSecret: "different"})
	_, err = other.ValidateToken(resp.AccessToken)
	assert.Error(t, err)
}
