package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/checkout"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/service"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/storage"

	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// statusOf maps service, wizard and storage errors to HTTP status codes.
func statusOf(err error) int {
	var verr *checkout.ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, storage.ErrInvalidFileType),
		errors.Is(err, storage.ErrEmptyFile):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrPaymentFailed):
		return http.StatusPaymentRequired
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDuplicate),
		errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, checkout.ErrWrongStep):
		return http.StatusConflict
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// NewHTTPErrorHandler renders every error as {"error": "<message>"}.
// Unexpected errors are logged and reported without detail.
func NewHTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		body := errorResponse{Error: http.StatusText(code)}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			body.Error = fmt.Sprint(he.Message)
			if he.Internal != nil {
				logger.Debug("http error", "status", code, "error", he.Internal)
			}
		} else {
			code = statusOf(err)
			if code == http.StatusInternalServerError {
				logger.Error("unhandled error",
					"method", c.Request().Method,
					"path", c.Path(),
					"error", err,
				)
			} else {
				body.Error = err.Error()
			}
			var verr *checkout.ValidationError
			if errors.As(err, &verr) {
				body.Fields = verr.Fields
			}
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			logger.Error("write error response", "error", err)
		}
	}
}
