package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/resume-matcher/internal/apperror"
	"alfredoptarigan/resume-matcher/internal/models"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindValidation, apperror.KindInvalidInput, apperror.KindPreconditionFailed:
		return fiber.StatusBadRequest
	case apperror.KindExternalService:
		return fiber.StatusBadGateway
	case apperror.KindTransientConnection, apperror.KindRateLimited:
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

func success(c *fiber.Ctx, status int, data any, message string) error {
	return c.Status(status).JSON(models.APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

func failure(c *fiber.Ctx, err error) error {
	kind := apperror.KindOf(err)
	message := err.Error()

	var appErr *apperror.Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		message = appErr.Message
	}
	if kind == apperror.KindInternal {
		// internal details stay in the logs
		message = "internal server error"
	}

	return c.Status(StatusFor(kind)).JSON(models.APIResponse{
		Success: false,
		Error: &models.APIError{
			Code:    string(kind),
			Message: message,
			Details: apperror.DetailsOf(err),
		},
	})
}

// ErrorHandler renders errors returned by handlers and fiber itself in the
// standard envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		kind := apperror.KindInternal
		switch {
		case fiberErr.Code == fiber.StatusNotFound:
			kind = apperror.KindNotFound
		case fiberErr.Code >= 400 && fiberErr.Code < 500:
			kind = apperror.KindInvalidInput
		}
		return c.Status(fiberErr.Code).JSON(models.APIResponse{
			Success: false,
			Error:   &models.APIError{Code: string(kind), Message: fiberErr.Message},
		})
	}
	return failure(c, err)
}

func parseID(field, value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, apperror.Validation("handlers.parse_id", fmt.Sprintf("%s is required", field)).
			WithDetail("field", field)
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, apperror.Validation("handlers.parse_id", fmt.Sprintf("invalid %s format", field)).
			WithDetail("field", field)
	}
	return id, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperror.Validation("handlers.parse_body", "invalid request payload")
	}
	return nil
}
