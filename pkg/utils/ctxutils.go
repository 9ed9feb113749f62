package utils

import (
	"context"

	"asset-system/pkg/contextkeys"
	apperrors "asset-system/pkg/errors"
)

// GetUserIDFromCtx достает ID текущего пользователя, записанный auth-middleware.
func GetUserIDFromCtx(ctx context.Context) (uint64, error) {
	userID, ok := ctx.Value(contextkeys.UserIDKey).(uint64)
	if !ok || userID == 0 {
		return 0, apperrors.ErrUserIDNotFoundInContext
	}
	return userID, nil
}

// GetUserRoleFromCtx достает код роли текущего пользователя.
func GetUserRoleFromCtx(ctx context.Context) (string, error) {
	role, ok := ctx.Value(contextkeys.UserRoleKey).(string)
	if !ok || role == "" {
		return "", apperrors.ErrUnauthorized
	}
	return role, nil
}
