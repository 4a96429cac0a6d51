package utils

import (
	"errors"
	"log/slog"

	"admin-dashboard/database"
	"admin-dashboard/services"

	"github.com/gofiber/fiber/v2"
)

// OK writes {success: true, data}.
func OK(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{"success": true, "data": data})
}

// Created writes a 201 with {success: true, data}.
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": data})
}

// Message writes {success: true, message, data}.
func Message(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(fiber.Map{"success": true, "message": message, "data": data})
}

// Fail writes {success: false, error} with the given status.
func Fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "error": message})
}

// StatusFor maps an error from the service layer to an HTTP status.
func StatusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, services.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, database.ErrUnsupported):
		return fiber.StatusNotImplemented
	default:
		return fiber.StatusInternalServerError
	}
}

// Error writes err in the failure envelope. Unexpected errors keep the raw
// driver message.
func Error(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return Fail(c, status, err.Error())
}

// ErrorHandler is the app-wide fiber.Config.ErrorHandler.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return Error(c, err)
}
