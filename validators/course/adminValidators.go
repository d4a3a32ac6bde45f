package courseValidator

import (
	"regexp"
	"strings"

	"ruralearn/middleware"
	"ruralearn/validators"

	"github.com/gofiber/fiber/v2"
)

var unsafeText = regexp.MustCompile(`[<>{}]`)

// ============ Course Validators ============

type CreateCourseRequest struct {
	Title        string `json:"title" form:"title" validate:"required,min=3,max=200"`
	Description  string `json:"description" form:"description" validate:"required,min=5"`
	Category     string `json:"category" form:"category" validate:"required,max=100"`
	Level        string `json:"level" form:"level" validate:"required,oneof=Beginner Intermediate Advanced"`
	Duration     string `json:"duration" form:"duration" validate:"max=50"`
	ThumbnailURL string `json:"image" form:"image" validate:"omitempty,url"`
}

type AddLessonRequest struct {
	Title      string `json:"title" validate:"required,min=3,max=200"`
	Content    string `json:"content"`
	Duration   int    `json:"duration" validate:"gte=0,lte=1440"`
	OrderIndex int    `json:"order_index" validate:"gte=0"`
	VideoURL   string `json:"video_url" validate:"omitempty,url"`
}

type PublishRequest struct {
	Published *bool `json:"published"`
}

// CreateCourseAdmin validates admin course creation request (JSON or multipart)
func CreateCourseAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CreateCourseRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		reqData.Title = strings.TrimSpace(reqData.Title)
		reqData.Description = strings.TrimSpace(reqData.Description)
		reqData.Category = strings.TrimSpace(reqData.Category)
		reqData.Level = normalizeLevel(reqData.Level)

		errors := validators.Struct(reqData)
		if unsafeText.MatchString(reqData.Title) {
			if errors == nil {
				errors = map[string]string{}
			}
			errors["title"] = "Title contains invalid characters!"
		}
		if errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCourse", reqData)
		return c.Next()
	}
}

// AddLesson validates the :id parameter and lesson body
func AddLesson() fiber.Handler {
	ids := requireIDs("id")
	return func(c *fiber.Ctx) error {
		reqData := new(AddLessonRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.Title = strings.TrimSpace(reqData.Title)

		if errors := validators.Struct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedLesson", reqData)
		return ids(c)
	}
}

// PublishCourse validates the :id parameter; an absent body publishes
func PublishCourse() fiber.Handler {
	ids := requireIDs("id")
	return func(c *fiber.Ctx) error {
		reqData := new(PublishRequest)
		if len(c.Body()) > 0 {
			if err := c.BodyParser(reqData); err != nil {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
			}
		}
		published := true
		if reqData.Published != nil {
			published = *reqData.Published
		}
		c.Locals("published", published)
		return ids(c)
	}
}

// ForceComplete validates :course_id and :user_id
func ForceComplete() fiber.Handler {
	return requireIDs("course_id", "user_id")
}

type UpdateCourseRequest struct {
	Title        *string `json:"title" validate:"omitempty,min=3,max=200"`
	Description  *string `json:"description" validate:"omitempty,min=5"`
	Category     *string `json:"category" validate:"omitempty,max=100"`
	Level        *string `json:"level" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	Duration     *string `json:"duration" validate:"omitempty,max=50"`
	ThumbnailURL *string `json:"image" validate:"omitempty,url"`
}

type UpdateLessonRequest struct {
	Title    *string `json:"title" validate:"omitempty,min=3,max=200"`
	Content  *string `json:"content"`
	Duration *int    `json:"duration" validate:"omitempty,gte=0,lte=1440"`
	VideoURL *string `json:"video_url" validate:"omitempty,url"`
}

type ReorderLessonsRequest struct {
	LessonIDs []uint `json:"lesson_ids" validate:"required,min=1,dive,gt=0"`
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// UpdateCourseAdmin validates :id and a partial course body
func UpdateCourseAdmin() fiber.Handler {
	ids := requireIDs("id")
	return func(c *fiber.Ctx) error {
		reqData := new(UpdateCourseRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		reqData.Title = trimmed(reqData.Title)
		reqData.Description = trimmed(reqData.Description)
		reqData.Category = trimmed(reqData.Category)
		if reqData.Level != nil {
			level := normalizeLevel(*reqData.Level)
			reqData.Level = &level
		}

		errors := validators.Struct(reqData)
		if reqData.Title != nil && unsafeText.MatchString(*reqData.Title) {
			if errors == nil {
				errors = map[string]string{}
			}
			errors["title"] = "Title contains invalid characters!"
		}
		if errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCourseUpdate", reqData)
		return ids(c)
	}
}

// DeleteCourse validates the :id parameter
func DeleteCourse() fiber.Handler {
	return requireIDs("id")
}

// UpdateLessonAdmin validates :course_id, :lesson_id and a partial lesson body
func UpdateLessonAdmin() fiber.Handler {
	ids := requireIDs("course_id", "lesson_id")
	return func(c *fiber.Ctx) error {
		reqData := new(UpdateLessonRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.Title = trimmed(reqData.Title)

		if errors := validators.Struct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedLessonUpdate", reqData)
		return ids(c)
	}
}

// DeleteLesson validates :course_id and :lesson_id
func DeleteLesson() fiber.Handler {
	return requireIDs("course_id", "lesson_id")
}

// ReorderLessons validates :id and the full ordered list of lesson ids
func ReorderLessons() fiber.Handler {
	ids := requireIDs("id")
	return func(c *fiber.Ctx) error {
		reqData := new(ReorderLessonsRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if errors := validators.Struct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedLessonOrder", reqData)
		return ids(c)
	}
}
