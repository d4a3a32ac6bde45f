package controllers

import (
	"errors"

	"ruralearn/middleware"
	"ruralearn/services/assistant"
	"ruralearn/services/catalog"
	"ruralearn/services/recommendation"
	courseValidator "ruralearn/validators/course"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) GetAllCourses(c *fiber.Ctx) error {
	reqData, _ := c.Locals("validatedCourseList").(*courseValidator.ListQuery)
	if reqData == nil {
		reqData = &courseValidator.ListQuery{}
	}

	page, err := h.Catalog.ListCourses(c.UserContext(), catalog.ListFilter{
		Category: reqData.Category,
		Level:    reqData.Level,
		Search:   reqData.Search,
		Page:     reqData.Page,
		Limit:    reqData.Limit,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", page)
}

// GetCourseDetails returns the course with its lessons, the caller's
// enrollment and certificate.
func (h *Handler) GetCourseDetails(c *fiber.Ctx) error {
	view, err := h.Learning.CourseProgress(c.UserContext(), userID(c), localID(c, "courseID"))
	if err != nil {
		return h.fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course details fetched successfully!", view)
}

func (h *Handler) GetRecommendations(c *fiber.Ctx) error {
	reqData, _ := c.Locals("validatedRecommendation").(*courseValidator.RecommendationQuery)
	if reqData == nil {
		reqData = &courseValidator.RecommendationQuery{}
	}

	result, err := h.Recommendation.Recommend(c.UserContext(), recommendation.Request{
		Interests: reqData.Interests,
		Level:     reqData.Level,
		Query:     reqData.Query,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, result.Message, result)
}

func (h *Handler) GetAIRecommendations(c *fiber.Ctx) error {
	reqData, _ := c.Locals("validatedAIRecommendation").(*courseValidator.AIRecommendationRequest)
	if reqData == nil {
		reqData = &courseValidator.AIRecommendationRequest{}
	}

	result, err := h.Recommendation.RecommendAI(c.UserContext(), recommendation.Request{
		Interests:       reqData.Interests,
		Level:           reqData.Level,
		Query:           reqData.Query,
		UserPreferences: reqData.UserPreferences,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, result.Message, result)
}

func (h *Handler) Chat(c *fiber.Ctx) error {
	reqData, _ := c.Locals("validatedChat").(*courseValidator.ChatRequest)
	if reqData == nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	history := make([]assistant.Message, 0, len(reqData.Messages))
	for _, m := range reqData.Messages {
		history = append(history, assistant.Message{Role: m.Role, Content: m.Content})
	}

	reply, err := h.Assistant.Chat(c.UserContext(), history)
	switch {
	case errors.Is(err, assistant.ErrNotConfigured):
		return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "The learning assistant is not available right now.", nil)
	case errors.Is(err, assistant.ErrEmptyMessages):
		return middleware.JsonResponse(c, fiber.StatusUnprocessableEntity, false, "At least one user message is required!", nil)
	case err != nil:
		h.logger().Error("assistant chat failed", "user_id", userID(c), "error", err)
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "The learning assistant could not answer. Please try again.", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Reply generated successfully!", fiber.Map{
		"role":    "assistant",
		"content": reply,
	})
}
