package controllers

import (
	"errors"
	"fmt"

	"ruralearn/logger"
	"ruralearn/middleware"
	"ruralearn/services/assistant"
	"ruralearn/services/catalog"
	"ruralearn/services/learning"
	"ruralearn/services/recommendation"

	"github.com/gofiber/fiber/v2"
)

// Handler serves the course, certificate, assistant and admin endpoints.
type Handler struct {
	Learning       *learning.Service
	Catalog        *catalog.Service
	Recommendation *recommendation.Service
	Assistant      *assistant.Service
	UploadDir      string
	Log            *logger.Logger
}

func (h *Handler) logger() *logger.Logger {
	if h.Log == nil {
		return logger.Nop()
	}
	return h.Log
}

// userID returns the identity set by JWTMiddleware, or 0.
func userID(c *fiber.Ctx) uint {
	return middleware.UserID(c)
}

func localID(c *fiber.Ctx, key string) uint {
	id, _ := c.Locals(key).(uint)
	return id
}

// fail maps service errors onto the response envelope. Expected outcomes carry
// their own message; persistence failures are logged and reported generically.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	var incomplete *learning.IncompleteLessonsError
	var step *learning.StepError

	switch {
	case errors.Is(err, learning.ErrNotSignedIn):
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Please sign in to continue", nil)
	case errors.Is(err, learning.ErrCourseNotFound),
		errors.Is(err, catalog.ErrCourseNotFound):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	case errors.Is(err, learning.ErrEnrollmentNotFound),
		errors.Is(err, learning.ErrCertificateNotFound),
		errors.Is(err, learning.ErrLessonNotInCourse):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, capitalize(err.Error()), nil)
	case errors.Is(err, learning.ErrNotEnrolled):
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, capitalize(err.Error()), nil)
	case errors.As(err, &incomplete),
		errors.Is(err, learning.ErrNoLessons):
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, capitalize(err.Error()), nil)
	case errors.Is(err, catalog.ErrLessonNotFound):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
	case errors.Is(err, catalog.ErrInvalidLessonOrder):
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, capitalize(err.Error()), nil)
	case errors.Is(err, catalog.ErrDuplicateOrder):
		return middleware.JsonResponse(c, fiber.StatusConflict, false, capitalize(err.Error()), nil)
	case errors.Is(err, catalog.ErrCourseHasNoLesson):
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, capitalize(err.Error()), nil)
	case errors.As(err, &step):
		h.logger().Error("request failed", "op", step.Op, "step", step.Step, "error", step.Err, "path", c.Path())
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, stepMessage(step), nil)
	}

	h.logger().Error("request failed", "error", err, "path", c.Path())
	return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
}

func stepMessage(step *learning.StepError) string {
	if step.Op == learning.OpIssueCertificate {
		return "Error generating certificate. Please try again."
	}
	return fmt.Sprintf("%s failed. Please try again.", capitalize(step.Op))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
