package services

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"labequip-system/internal/dto"
	"labequip-system/internal/repositories"
	apperrors "labequip-system/pkg/errors"
	"labequip-system/pkg/service"
	"labequip-system/pkg/utils"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.TokenPairDTO, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenPairDTO, error)
}

type AuthService struct {
	userRepo   repositories.UserRepositoryInterface
	jwtService service.JWTService
	logger     *zap.Logger
}

func NewAuthService(userRepo repositories.UserRepositoryInterface, jwtService service.JWTService, logger *zap.Logger) AuthServiceInterface {
	return &AuthService{userRepo: userRepo, jwtService: jwtService, logger: logger}
}

func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.TokenPairDTO, error) {
	user, err := s.userRepo.FindUserByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Не раскрываем, существует ли email.
			return nil, apperrors.NewHttpError(http.StatusUnauthorized, "Неверный email или пароль", apperrors.ErrInvalidCredentials, nil)
		}
		return nil, err
	}

	if err := utils.ComparePasswords(user.PasswordHash, payload.Password); err != nil {
		s.logger.Warn("Неудачная попытка входа", zap.String("email", payload.Email))
		return nil, apperrors.NewHttpError(http.StatusUnauthorized, "Неверный email или пароль", apperrors.ErrInvalidCredentials, nil)
	}

	return s.issueTokens(user.ID, user.Role, user.Permissions)
}

// Refresh выдаёт новую пару по refresh-токену. Права перечитываются из БД:
// отозванное право не переживает обновление токена.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenPairDTO, error) {
	claims, err := s.jwtService.ValidateToken(refreshToken)
	if err != nil {
		return nil, apperrors.NewHttpError(http.StatusUnauthorized, "Недействительный refresh-токен", err, nil)
	}
	if !claims.IsRefreshToken {
		return nil, apperrors.NewHttpError(http.StatusUnauthorized, "Ожидался refresh-токен", apperrors.ErrTokenIsNotRefresh, nil)
	}

	user, err := s.userRepo.FindUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewHttpError(http.StatusUnauthorized, "Пользователь не найден", err, nil)
		}
		return nil, err
	}

	return s.issueTokens(user.ID, user.Role, user.Permissions)
}

func (s *AuthService) issueTokens(userID uint64, role string, permissions []string) (*dto.TokenPairDTO, error) {
	accessToken, refreshToken, err := s.jwtService.GenerateTokens(userID, role, permissions)
	if err != nil {
		s.logger.Error("Не удалось сгенерировать токены", zap.Uint64("user_id", userID), zap.Error(err))
		return nil, err
	}

	return &dto.TokenPairDTO{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtService.GetAccessTokenTTL().Seconds()),
	}, nil
}
