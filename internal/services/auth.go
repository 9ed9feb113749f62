package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"asset-system/internal/dto"
	"asset-system/internal/repositories"
	"asset-system/pkg/constants"
	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/service"
)

const roleCacheTTL = 15 * time.Minute

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.TokenPairDTO, error)
	RefreshToken(ctx context.Context, payload dto.RefreshTokenDTO) (*dto.TokenPairDTO, error)
	GetProfile(ctx context.Context, userID uint64) (*dto.ProfileDTO, error)
	// ResolveRole возвращает код роли пользователя, используя кеш в Redis.
	// Реализует middleware.RoleResolverInterface.
	ResolveRole(ctx context.Context, userID uint64) (string, error)
}

type AuthService struct {
	userRepo   repositories.UserRepositoryInterface
	cacheRepo  repositories.CacheRepositoryInterface
	jwtService service.JWTService
	logger     *zap.Logger
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	jwtService service.JWTService,
	logger *zap.Logger,
) AuthServiceInterface {
	return &AuthService{
		userRepo:   userRepo,
		cacheRepo:  cacheRepo,
		jwtService: jwtService,
		logger:     logger,
	}
}

func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.TokenPairDTO, error) {
	user, err := s.userRepo.FindByLogin(ctx, payload.Login)
	if err != nil {
		// Не раскрываем, что именно неверно: логин или пароль.
		s.logger.Warn("неудачная попытка входа", zap.String("login", payload.Login))
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
		s.logger.Warn("неверный пароль", zap.String("login", payload.Login))
		return nil, apperrors.ErrInvalidCredentials
	}

	accessToken, refreshToken, err := s.jwtService.GenerateTokens(user.ID)
	if err != nil {
		s.logger.Error("ошибка генерации токенов", zap.Error(err))
		return nil, err
	}

	return &dto.TokenPairDTO{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *AuthService) RefreshToken(ctx context.Context, payload dto.RefreshTokenDTO) (*dto.TokenPairDTO, error) {
	claims, err := s.jwtService.ValidateToken(payload.RefreshToken)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefreshToken {
		return nil, apperrors.ErrInvalidToken
	}

	// Пользователь мог быть удален после выдачи токена.
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}

	accessToken, refreshToken, err := s.jwtService.GenerateTokens(user.ID)
	if err != nil {
		return nil, err
	}

	return &dto.TokenPairDTO{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *AuthService) GetProfile(ctx context.Context, userID uint64) (*dto.ProfileDTO, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &dto.ProfileDTO{
		ID:    user.ID,
		Fio:   user.Fio,
		Login: user.Login,
		Role:  user.Role,
	}
	if user.DepartmentID.Valid {
		deptID := user.DepartmentID.Uint64
		profile.DepartmentID = &deptID
	}
	return profile, nil
}

func (s *AuthService) ResolveRole(ctx context.Context, userID uint64) (string, error) {
	cacheKey := fmt.Sprintf(constants.CacheKeyUserRole, userID)

	cached, err := s.cacheRepo.Get(ctx, cacheKey)
	if err == nil && cached != "" {
		return cached, nil
	}
	if err != nil && err != redis.Nil {
		// Redis недоступен — идем в БД, кеш не критичен.
		s.logger.Warn("кеш ролей недоступен", zap.Error(err))
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}

	if err := s.cacheRepo.Set(ctx, cacheKey, user.Role, roleCacheTTL); err != nil {
		s.logger.Warn("не удалось записать роль в кеш", zap.Error(err))
	}
	return user.Role, nil
}
