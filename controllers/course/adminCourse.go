package controllers

import (
	"errors"

	"ruralearn/middleware"
	"ruralearn/services/catalog"
	"ruralearn/utils"
	courseValidator "ruralearn/validators/course"

	"github.com/gofiber/fiber/v2"
)

// AdminCreateCourse creates an unpublished course. A multipart "thumbnail"
// file, when sent, replaces the image URL.
func (h *Handler) AdminCreateCourse(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedCourse").(*courseValidator.CreateCourseRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	thumbnail := reqData.ThumbnailURL
	if file, err := c.FormFile("thumbnail"); err == nil {
		stored, err := utils.SaveThumbnail(file, h.UploadDir)
		if err != nil {
			if errors.Is(err, utils.ErrUnsupportedImage) || errors.Is(err, utils.ErrImageTooLarge) {
				return middleware.ValidationErrorResponse(c, map[string]string{"thumbnail": err.Error()})
			}
			h.logger().Error("thumbnail upload failed", "error", err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to upload thumbnail!", nil)
		}
		thumbnail = utils.GetFileURL(stored)
	}

	course, err := h.Catalog.CreateCourse(c.UserContext(), catalog.CourseInput{
		Title:        reqData.Title,
		Description:  reqData.Description,
		Category:     reqData.Category,
		Level:        reqData.Level,
		Duration:     reqData.Duration,
		ThumbnailURL: thumbnail,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully!", course)
}

func (h *Handler) AdminAddLesson(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedLesson").(*courseValidator.AddLessonRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	lesson, err := h.Catalog.AddLesson(c.UserContext(), localID(c, "courseID"), catalog.LessonInput{
		Title:      reqData.Title,
		Content:    reqData.Content,
		Duration:   reqData.Duration,
		OrderIndex: reqData.OrderIndex,
		VideoURL:   reqData.VideoURL,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Lesson added successfully!", lesson)
}

func (h *Handler) AdminPublishCourse(c *fiber.Ctx) error {
	published, _ := c.Locals("published").(bool)

	course, err := h.Catalog.SetPublished(c.UserContext(), localID(c, "courseID"), published)
	if err != nil {
		return h.fail(c, err)
	}

	message := "Course published successfully!"
	if !published {
		message = "Course unpublished successfully!"
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, course)
}

// AdminForceComplete marks every lesson complete for a learner. Support tool,
// only routed when debug tools are enabled.
func (h *Handler) AdminForceComplete(c *fiber.Ctx) error {
	target := localID(c, "targetUserID")
	courseID := localID(c, "courseID")

	result, err := h.Learning.ForceCompleteAll(c.UserContext(), target, courseID)
	if err != nil && result == nil {
		return h.fail(c, err)
	}
	h.logger().Warn("force-complete used", "admin_id", userID(c), "user_id", target, "course_id", courseID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusOK, true,
			"All lessons marked complete, but the certificate could not be generated yet.", result)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "All lessons marked complete!", result)
}

func (h *Handler) AdminUpdateCourse(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedCourseUpdate").(*courseValidator.UpdateCourseRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	course, err := h.Catalog.UpdateCourse(c.UserContext(), localID(c, "courseID"), catalog.CourseUpdate{
		Title:        reqData.Title,
		Description:  reqData.Description,
		Category:     reqData.Category,
		Level:        reqData.Level,
		Duration:     reqData.Duration,
		ThumbnailURL: reqData.ThumbnailURL,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course updated successfully!", course)
}

func (h *Handler) AdminDeleteCourse(c *fiber.Ctx) error {
	if err := h.Catalog.DeleteCourse(c.UserContext(), localID(c, "courseID")); err != nil {
		return h.fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course deleted successfully!", nil)
}

func (h *Handler) AdminUpdateLesson(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedLessonUpdate").(*courseValidator.UpdateLessonRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	lesson, err := h.Catalog.UpdateLesson(c.UserContext(), localID(c, "courseID"), localID(c, "lessonID"), catalog.LessonUpdate{
		Title:    reqData.Title,
		Content:  reqData.Content,
		Duration: reqData.Duration,
		VideoURL: reqData.VideoURL,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson updated successfully!", lesson)
}

// AdminDeleteLesson removes a lesson; learner progress for the course is
// recomputed by the catalog service afterwards.
func (h *Handler) AdminDeleteLesson(c *fiber.Ctx) error {
	if err := h.Catalog.DeleteLesson(c.UserContext(), localID(c, "courseID"), localID(c, "lessonID")); err != nil {
		return h.fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson deleted successfully!", nil)
}

func (h *Handler) AdminReorderLessons(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedLessonOrder").(*courseValidator.ReorderLessonsRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	lessons, err := h.Catalog.ReorderLessons(c.UserContext(), localID(c, "courseID"), reqData.LessonIDs)
	if err != nil {
		return h.fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lessons reordered successfully!", lessons)
}
