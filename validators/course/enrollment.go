package courseValidator

import (
	"ruralearn/middleware"
	"ruralearn/validators"

	"github.com/gofiber/fiber/v2"
)

type LessonCompletionRequest struct {
	Completed *bool `json:"completed" validate:"required"`
}

// EnrollCourse validates the :id parameter of enroll/unenroll
func EnrollCourse() fiber.Handler {
	return requireIDs("id")
}

// CourseProgress validates the :course_id parameter
func CourseProgress() fiber.Handler {
	return requireIDs("course_id")
}

// LessonCompletion validates :course_id, :lesson_id and the {completed} body
func LessonCompletion() fiber.Handler {
	ids := requireIDs("course_id", "lesson_id")
	return func(c *fiber.Ctx) error {
		reqData := new(LessonCompletionRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if errors := validators.Struct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}
		c.Locals("completed", *reqData.Completed)
		return ids(c)
	}
}
