// Package httpx turns service errors into HTTP responses.
package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"bookrental/util/apperr"

	"github.com/labstack/echo/v4"
)

func Status(k apperr.Kind) int {
	switch k {
	case apperr.KindInvalid:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict, apperr.KindBusinessRule:
		return http.StatusConflict
	case apperr.KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var messages = map[apperr.Code]string{
	"BOOK_NOT_FOUND":      "book not found",
	"RENTAL_NOT_FOUND":    "rental not found",
	"OUT_OF_STOCK":        "book is out of stock",
	"ALREADY_RETURNED":    "rental already returned",
	"FORBIDDEN":           "forbidden",
	"UNAUTHENTICATED":     "unauthorized",
	"TRANSIENT_FAILURE":   "service busy, retry later",
	"INVALID_STOCK":       "stock quantity must be zero or more",
	"INVALID_INPUT":       "invalid input",
	"BOOK_IN_USE":         "book is referenced by rentals",
	"EMAIL_TAKEN":         "email already registered",
	"USERNAME_TAKEN":      "username already taken",
	"BAD_INPUT":           "bad input",
	"INVALID_CREDENTIALS": "invalid email or password",
}

// Fail writes the JSON error for err. Server-side failures are logged with
// the request id; the body never carries the internal cause.
func Fail(c echo.Context, log *slog.Logger, err error) error {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		logErr(c, log, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}

	status := Status(ae.Kind)
	if status >= http.StatusInternalServerError {
		logErr(c, log, err)
	}
	msg, ok := messages[ae.Code]
	if !ok {
		msg = http.StatusText(status)
	}
	if status == http.StatusServiceUnavailable {
		c.Response().Header().Set("Retry-After", "1")
	}
	return c.JSON(status, echo.Map{"message": msg, "code": ae.Code})
}

func logErr(c echo.Context, log *slog.Logger, err error) {
	if log == nil {
		log = slog.Default()
	}
	log.Error("request failed",
		"err", err,
		"req_id", c.Response().Header().Get(echo.HeaderXRequestID),
		"path", c.Path(),
		"method", c.Request().Method,
	)
}
