package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolcrm/internal/authz"
	"schoolcrm/internal/repositories/inmem"
	"schoolcrm/internal/services"
)

func newUserService(t *testing.T) *services.UserService {
	t.Helper()
	db := inmem.Open()
	return services.NewUserService(inmem.NewUserRepository(db), []byte("test-secret"), time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Dana", "Dana@School.KZ", "s3cret", authz.RoleSales)
	require.NoError(t, err)
	assert.Equal(t, "dana@school.kz", u.Email, "emails are normalized")
	assert.NotEqual(t, "s3cret", u.PasswordHash)

	_, err = svc.Register(ctx, "Other", "dana@school.kz", "x", authz.RoleSales)
	assert.ErrorIs(t, err, services.ErrEmailTaken)

	token, logged, err := svc.Login(ctx, "dana@school.kz", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)

	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(u.ID), claims["user_id"])
	assert.Equal(t, float64(authz.RoleSales), claims["role_id"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "Dana", "dana@school.kz", "s3cret", authz.RoleSales)
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "dana@school.kz", "wrong")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@school.kz", "s3cret")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}
