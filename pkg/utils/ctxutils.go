package utils

import (
	"context"

	"labequip-system/pkg/contextkeys"
	apperrors "labequip-system/pkg/errors"
)

func GetUserIDFromCtx(ctx context.Context) (uint64, error) {
	userID, ok := ctx.Value(contextkeys.UserIDKey).(uint64)
	if !ok {
		return 0, apperrors.ErrUserIDNotFoundInContext
	}
	return userID, nil
}

func GetPermissionsFromCtx(ctx context.Context) map[string]bool {
	permissions, ok := ctx.Value(contextkeys.UserPermissionsKey).(map[string]bool)
	if !ok {
		return nil
	}
	return permissions
}

// HasPermission проверяет, что вызывающий пользователь обладает правом.
// Права приходят из токена и кладутся в контекст middleware-ом;
// сервисы доверяют им как заранее проверенным булевым флагам.
func HasPermission(ctx context.Context, permission string) bool {
	permissions := GetPermissionsFromCtx(ctx)
	if permissions == nil {
		return false
	}
	return permissions[permission]
}

// RequirePermission — то же, но с ошибкой вместо булевого значения.
func RequirePermission(ctx context.Context, permission string) error {
	if !HasPermission(ctx, permission) {
		return apperrors.ErrForbidden
	}
	return nil
}
