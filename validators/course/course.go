package courseValidator

import (
	"strings"

	"ruralearn/middleware"
	"ruralearn/validators"

	"github.com/gofiber/fiber/v2"
)

type ListQuery struct {
	Category string `query:"category" json:"category" validate:"max=100"`
	Level    string `query:"level" json:"level" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	Search   string `query:"search" json:"search" validate:"max=100"`
	Page     int    `query:"page" json:"page" validate:"gte=0"`
	Limit    int    `query:"limit" json:"limit" validate:"gte=0,lte=100"`
}

type RecommendationQuery struct {
	Interests string `query:"interests" json:"interests" validate:"max=255"`
	Level     string `query:"level" json:"level" validate:"max=50"`
	Query     string `query:"query" json:"query" validate:"max=500"`
}

type AIRecommendationRequest struct {
	Interests       string                 `json:"interests" validate:"max=255"`
	Level           string                 `json:"level" validate:"max=50"`
	Query           string                 `json:"query" validate:"max=500"`
	UserPreferences map[string]interface{} `json:"userPreferences"`
}

type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required,max=4000"`
}

type ChatRequest struct {
	Messages []ChatMessage `json:"messages" validate:"required,min=1,max=50,dive"`
}

// ListCourses validates catalog query parameters
func ListCourses() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ListQuery)
		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}
		reqData.Level = normalizeLevel(reqData.Level)

		if errors := validators.Struct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCourseList", reqData)
		return c.Next()
	}
}

// CourseID validates the :id route parameter
func CourseID() fiber.Handler {
	return requireIDs("id")
}

// Recommendations validates the local recommendation query
func Recommendations() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(RecommendationQuery)
		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}
		if errors := validators.Struct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}
		c.Locals("validatedRecommendation", reqData)
		return c.Next()
	}
}

// AIRecommendations validates the AI recommendation body. An empty body is allowed.
func AIRecommendations() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(AIRecommendationRequest)
		if len(c.Body()) > 0 {
			if err := c.BodyParser(reqData); err != nil {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
			}
		}
		if errors := validators.Struct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}
		c.Locals("validatedAIRecommendation", reqData)
		return c.Next()
	}
}

// Chat validates an assistant conversation
func Chat() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ChatRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		for i := range reqData.Messages {
			reqData.Messages[i].Role = strings.ToLower(strings.TrimSpace(reqData.Messages[i].Role))
			reqData.Messages[i].Content = strings.TrimSpace(reqData.Messages[i].Content)
		}
		if errors := validators.Struct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}
		c.Locals("validatedChat", reqData)
		return c.Next()
	}
}

// VerifyCertificate validates the :number route parameter
func VerifyCertificate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		number := strings.TrimSpace(c.Params("number"))
		if number == "" || len(number) > 64 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid certificate number!", nil)
		}
		c.Locals("certificateNumber", number)
		return c.Next()
	}
}

// requireIDs parses each named route parameter into c.Locals as uint.
// "id" and "course_id" are both stored under "courseID".
func requireIDs(names ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, name := range names {
			id, ok := validators.ParamID(c, name)
			if !ok {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid "+label(name)+"!", nil)
			}
			c.Locals(localKey(name), id)
		}
		return c.Next()
	}
}

func localKey(param string) string {
	switch param {
	case "id", "course_id":
		return "courseID"
	case "lesson_id":
		return "lessonID"
	case "user_id":
		return "targetUserID"
	}
	return param
}

func label(param string) string {
	switch param {
	case "id", "course_id":
		return "Course ID"
	case "lesson_id":
		return "Lesson ID"
	case "user_id":
		return "User ID"
	}
	return param
}

func normalizeLevel(level string) string {
	level = strings.TrimSpace(level)
	if level == "" {
		return ""
	}
	return strings.ToUpper(level[:1]) + strings.ToLower(level[1:])
}
