package server

import (
	"errors"
	"net/http"

	"github.com/aman-zulfiqar/solana-amm/internal/amm"
	"github.com/aman-zulfiqar/solana-amm/internal/custody"
	"github.com/labstack/echo/v4"
)

// NotFoundJSON returns a custom HTTP error handler that returns JSON responses
// This ensures all errors (including 404s) have consistent JSON format
func NotFoundJSON() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		// Don't send response if already committed
		if c.Response().Committed {
			return
		}

		// Handle Echo HTTP errors (like 404, 400, etc.)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			_ = c.JSON(he.Code, ErrorResponse{
				Error: http.StatusText(he.Code),
				Code:  he.Code,
			})
			return
		}

		// Handle all other errors as internal server error
		_ = c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  http.StatusInternalServerError,
		})
	}
}

// statusFor maps engine and custody errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case amm.IsFault(err):
		return http.StatusInternalServerError
	case errors.Is(err, amm.ErrPoolNotFound):
		return http.StatusNotFound
	case errors.Is(err, amm.ErrAlreadyInitialized), errors.Is(err, amm.ErrNotInitialized),
		errors.Is(err, amm.ErrStalePool):
		return http.StatusConflict
	case errors.Is(err, custody.ErrInsufficientFunds), errors.Is(err, custody.ErrBalanceOverflow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, custody.ErrSettleContention):
		return http.StatusServiceUnavailable
	case amm.IsUserError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
