package services

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"asset-system/internal/dto"
	"asset-system/internal/entities"
	"asset-system/pkg/constants"
	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/service"
)

type fakeCacheRepo struct {
	values map[string]string
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{values: make(map[string]string)}
}

func (r *fakeCacheRepo) Get(ctx context.Context, key string) (string, error) {
	v, ok := r.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (r *fakeCacheRepo) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	r.values[key] = value.(string)
	return nil
}

func (r *fakeCacheRepo) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(r.values, k)
	}
	return nil
}

func newAuthFixture(t *testing.T) (AuthServiceInterface, *fakeUserRepo, *fakeCacheRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	users := newFakeUserRepo(&entities.User{
		ID: 7, Fio: "Иванов И.И.", Login: "ivanov",
		PasswordHash: string(hash), Role: constants.RoleTechnician,
	})
	cache := newFakeCacheRepo()
	jwtSvc := service.NewJWTService("test-secret", time.Hour, 24*time.Hour)
	return NewAuthService(users, cache, jwtSvc, zap.NewNop()), users, cache
}

func TestLogin_Success(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	pair, err := svc.Login(context.Background(), dto.LoginDTO{Login: "ivanov", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
}

// Ответ одинаков для неизвестного логина и неверного пароля.
func TestLogin_InvalidCredentials(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), dto.LoginDTO{Login: "ivanov", Password: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), dto.LoginDTO{Login: "nobody", Password: "secret123"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestRefreshToken_Success(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	pair, err := svc.Login(context.Background(), dto.LoginDTO{Login: "ivanov", Password: "secret123"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), dto.RefreshTokenDTO{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
}

// Access-токен нельзя использовать вместо refresh-токена.
func TestRefreshToken_AccessTokenRejected(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	pair, err := svc.Login(context.Background(), dto.LoginDTO{Login: "ivanov", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.RefreshToken(context.Background(), dto.RefreshTokenDTO{RefreshToken: pair.AccessToken})
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestResolveRole_CachesResult(t *testing.T) {
	svc, users, cache := newAuthFixture(t)

	role, err := svc.ResolveRole(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, constants.RoleTechnician, role)
	assert.NotEmpty(t, cache.values)

	// Второй запрос идет из кеша и не зависит от БД.
	delete(users.users, 7)
	role, err = svc.ResolveRole(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, constants.RoleTechnician, role)
}

func TestResolveRole_UnknownUser(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.ResolveRole(context.Background(), 999)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestGetProfile(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	profile, err := svc.GetProfile(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "ivanov", profile.Login)
	assert.Equal(t, constants.RoleTechnician, profile.Role)
}
