package utils

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	apperrors "labequip-system/pkg/errors"
	"labequip-system/pkg/types"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type HTTPResponse struct {
	Status  bool        `json:"status"`
	Body    interface{} `json:"body,omitempty"`
	Message string      `json:"message"`
}

const (
	DefaultLimit = 200
	MaxLimit     = 500
)

func ParseFilterFromQuery(values url.Values) types.Filter {
	filterReq := types.Filter{
		Sort:   make(map[string]string),
		Filter: make(map[string]interface{}),
		Limit:  DefaultLimit,
		Page:   1,
	}

	if limitStr := values.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			if l > MaxLimit {
				filterReq.Limit = MaxLimit
			} else {
				filterReq.Limit = l
			}
		}
	}

	if pageStr := values.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			filterReq.Page = p
		}
	}

	if offsetStr := values.Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			filterReq.Offset = o
		}
	} else {
		filterReq.Offset = (filterReq.Page - 1) * filterReq.Limit
	}

	filterReq.WithPagination, _ = strconv.ParseBool(values.Get("withPagination"))
	filterReq.Search = values.Get("search")

	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}

		if strings.HasPrefix(key, "sort[") && strings.HasSuffix(key, "]") {
			field := key[5 : len(key)-1]
			direction := strings.ToLower(vals[0])
			if direction == "asc" || direction == "desc" {
				filterReq.Sort[field] = direction
			}
			continue
		}

		if strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]") {
			field := key[7 : len(key)-1]

			if existing, ok := filterReq.Filter[field]; ok {
				filterReq.Filter[field] = fmt.Sprintf("%v,%s", existing, vals[0])
			} else {
				filterReq.Filter[field] = vals[0]
			}
		}
	}

	return filterReq
}

func SuccessResponse(ctx echo.Context, body interface{}, message string, code int, total ...uint64) error {
	response := &HTTPResponse{Status: true, Message: message}
	withPagination, _ := strconv.ParseBool(ctx.QueryParam("withPagination"))
	if withPagination && len(total) > 0 {
		filter := ParseFilterFromQuery(ctx.Request().URL.Query())
		totalPages := 0
		if filter.Limit > 0 {
			totalPages = (int(total[0]) + filter.Limit - 1) / filter.Limit
		}
		pagination := map[string]interface{}{
			"total_count": total[0],
			"page":        filter.Page,
			"limit":       filter.Limit,
			"total_pages": totalPages,
		}
		response.Body = map[string]interface{}{"list": body, "pagination": pagination}
	} else {
		response.Body = body
	}
	return ctx.JSON(code, response)
}

// ErrorResponse — единая точка выдачи ошибок наружу.
// Внутренние детали пишем в лог, пользователю — только сообщение и код.
func ErrorResponse(c echo.Context, err error, logger *zap.Logger) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		// Ошибки echo-валидатора переводим в наш экземпляр ValidationError,
		// чтобы формат ответа был одинаковым с доменной валидацией.
		ve := apperrors.NewValidationError()
		for _, e := range validationErrors {
			ve.Add(e.Field(), fmt.Sprintf("не прошло проверку '%s'", e.Tag()))
		}
		err = ve
	}

	httpErr := apperrors.ToHttpError(err)

	if httpErr.Code >= http.StatusInternalServerError {
		logger.Error("HTTP Error",
			zap.Int("code", httpErr.Code),
			zap.String("message", httpErr.Message),
			zap.Error(err),
		)
	} else {
		logger.Warn("HTTP Error",
			zap.Int("code", httpErr.Code),
			zap.String("message", httpErr.Message),
		)
	}

	response := map[string]interface{}{
		"status":  false,
		"message": httpErr.Message,
	}
	if httpErr.Details != nil {
		response["body"] = httpErr.Details
	}

	return c.JSON(httpErr.Code, response)
}
