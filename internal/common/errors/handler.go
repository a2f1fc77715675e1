// internal/common/errors/handler.go
package errors

import (
	stderrors "errors"
	"net/http"
	"time"

	"caregiver-matching/internal/common/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler turns any error returned by a fiber handler into a JSON error object.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// NewHTTPErrorHandler returns a fiber.ErrorHandler backed by ErrorHandler.
func NewHTTPErrorHandler(logger Logger) fiber.ErrorHandler {
	return NewErrorHandler(logger).Handle
}

// Handle writes the error response. Stack traces and error details never reach the caller.
func (h *ErrorHandler) Handle(c *fiber.Ctx, err error) error {
	stdErr := h.normalizeError(err)
	status := HTTPStatus(stdErr.Code)

	h.logError(c, stdErr, status)

	return c.Status(status).JSON(ToResponse(stdErr))
}

// ToResponse builds the caller-facing body: error kind, code, message and selected metadata.
func ToResponse(stdErr *StandardError) fiber.Map {
	body := fiber.Map{
		"error":   stdErr.Kind(),
		"code":    string(stdErr.Code),
		"message": stdErr.Message,
	}
	for _, key := range []string{"engine", "fields", "available"} {
		if v, ok := stdErr.Metadata[key]; ok {
			body[key] = v
		}
	}
	return body
}

// normalizeError ensures we always have a StandardError
func (h *ErrorHandler) normalizeError(err error) *StandardError {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr
	}

	var fiberErr *fiber.Error
	if stderrors.As(err, &fiberErr) {
		return fromFiberError(fiberErr)
	}

	return NewInternalError(err)
}

func fromFiberError(e *fiber.Error) *StandardError {
	code := ErrCodeInternal
	switch e.Code {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		code = ErrCodeValidationFailed
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		code = ErrCodeNotFound
	case http.StatusTooManyRequests:
		code = ErrCodeRateLimited
	case http.StatusRequestEntityTooLarge:
		code = ErrCodeRequestEntityTooLarge
	}
	return &StandardError{
		Code:      code,
		Message:   e.Message,
		Retryable: code == ErrCodeRateLimited,
		Timestamp: time.Now().UTC(),
	}
}

func (h *ErrorHandler) logError(c *fiber.Ctx, stdErr *StandardError, status int) {
	fields := map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"errorCategory": GetErrorCategory(stdErr.Code),
		"message":       stdErr.Message,
		"details":       logger.Mask(stdErr.Details),
		"retryable":     stdErr.Retryable,
		"status":        status,
		"method":        c.Method(),
		"path":          c.Path(),
	}
	if engine, ok := stdErr.Metadata["engine"]; ok {
		fields["engine"] = engine
	}
	if rid, ok := c.Locals("requestId").(string); ok {
		fields["requestId"] = rid
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields)
		return
	}
	h.logger.Warn("request rejected", fields)
}
