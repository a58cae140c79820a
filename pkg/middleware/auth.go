package middleware

import (
	"context"
	"strings"

	"labequip-system/pkg/contextkeys"
	apperrors "labequip-system/pkg/errors"
	"labequip-system/pkg/service"
	"labequip-system/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type AuthMiddleware struct {
	jwtService service.JWTService
	logger     *zap.Logger
}

func NewAuthMiddleware(jwtSvc service.JWTService, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtSvc,
		logger:     logger,
	}
}

// Auth — основная функция middleware.
// Извлекает токен, валидирует его и кладёт UserID и права в контекст запроса.
func (m *AuthMiddleware) Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			m.logger.Warn("AuthMiddleware: Пустой заголовок Authorization")
			return utils.ErrorResponse(c, apperrors.NewHttpError(401, apperrors.ErrEmptyAuthHeader.Error(), nil, nil), m.logger)
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			m.logger.Warn("AuthMiddleware: Неверный формат заголовка Authorization")
			return utils.ErrorResponse(c, apperrors.NewHttpError(401, apperrors.ErrInvalidAuthHeader.Error(), nil, nil), m.logger)
		}

		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			m.logger.Warn("AuthMiddleware: Ошибка валидации токена", zap.Error(err))
			return utils.ErrorResponse(c, apperrors.NewHttpError(401, apperrors.ErrInvalidToken.Error(), err, nil), m.logger)
		}

		if claims.IsRefreshToken {
			m.logger.Warn("AuthMiddleware: Попытка доступа с refresh токеном")
			return utils.ErrorResponse(c, apperrors.NewHttpError(401, apperrors.ErrTokenIsNotAccess.Error(), nil, nil), m.logger)
		}

		permissions := make(map[string]bool, len(claims.Permissions))
		for _, p := range claims.Permissions {
			permissions[p] = true
		}

		ctx := c.Request().Context()
		ctx = context.WithValue(ctx, contextkeys.UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, contextkeys.UserRoleKey, claims.Role)
		ctx = context.WithValue(ctx, contextkeys.UserPermissionsKey, permissions)
		c.SetRequest(c.Request().WithContext(ctx))

		return next(c)
	}
}
