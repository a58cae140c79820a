package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"labequip-system/internal/dto"
	"labequip-system/internal/services"
	apperrors "labequip-system/pkg/errors"
	"labequip-system/pkg/utils"
)

type AuthController struct {
	authService services.AuthServiceInterface
	logger      *zap.Logger
}

func NewAuthController(authService services.AuthServiceInterface, logger *zap.Logger) *AuthController {
	return &AuthController{authService: authService, logger: logger}
}

func (ctrl *AuthController) Login(c echo.Context) error {
	var payload dto.LoginDTO
	if err := c.Bind(&payload); err != nil {
		return utils.ErrorResponse(c, apperrors.NewHttpError(http.StatusBadRequest, "Неверное тело запроса", err, nil), ctrl.logger)
	}
	if err := c.Validate(&payload); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	tokens, err := ctrl.authService.Login(c.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, tokens, "Вход выполнен", http.StatusOK)
}

func (ctrl *AuthController) Refresh(c echo.Context) error {
	var payload struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}
	if err := c.Bind(&payload); err != nil {
		return utils.ErrorResponse(c, apperrors.NewHttpError(http.StatusBadRequest, "Неверное тело запроса", err, nil), ctrl.logger)
	}
	if err := c.Validate(&payload); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	tokens, err := ctrl.authService.Refresh(c.Request().Context(), payload.RefreshToken)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, tokens, "Токены обновлены", http.StatusOK)
}
