package controllers

import (
	"ruralearn/middleware"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) EnrollInCourse(c *fiber.Ctx) error {
	courseID := localID(c, "courseID")

	enrollment, already, err := h.Learning.Enroll(c.UserContext(), userID(c), courseID)
	if err != nil {
		return h.fail(c, err)
	}
	if already {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "You are already enrolled in this course.", enrollment)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Enrolled in course successfully!", enrollment)
}

func (h *Handler) UnenrollFromCourse(c *fiber.Ctx) error {
	courseID := localID(c, "courseID")

	if err := h.Learning.Unenroll(c.UserContext(), userID(c), courseID); err != nil {
		return h.fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Unenrolled from course successfully!", nil)
}

// MarkLessonComplete sets or clears a lesson's completion and returns the
// recomputed enrollment progress.
func (h *Handler) MarkLessonComplete(c *fiber.Ctx) error {
	courseID := localID(c, "courseID")
	lessonID := localID(c, "lessonID")
	completed, _ := c.Locals("completed").(bool)

	result, err := h.Learning.SetLessonCompletion(c.UserContext(), userID(c), courseID, lessonID, completed)
	if err != nil {
		if result == nil {
			return h.fail(c, err)
		}
		// progress is committed; only the automatic certificate failed
		h.logger().Warn("certificate not issued after completion", "user_id", userID(c), "course_id", courseID, "error", err)
		return middleware.JsonResponse(c, fiber.StatusOK, true,
			"Progress saved, but the certificate could not be generated yet. Please try again.", result)
	}

	message := "Lesson progress updated!"
	if result.CertificateNew {
		message = "Congratulations! You completed the course and earned a certificate."
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, result)
}

func (h *Handler) GetUserProgress(c *fiber.Ctx) error {
	view, err := h.Learning.CourseProgress(c.UserContext(), userID(c), localID(c, "courseID"))
	if err != nil {
		return h.fail(c, err)
	}
	if view.Enrollment == nil {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not enrolled in this course", nil)
	}

	progress := fiber.Map{
		"course_id":         view.Course.ID,
		"progress":          view.Enrollment.Progress,
		"completed":         view.Enrollment.Completed,
		"completed_lessons": view.CompletedLessons,
		"total_lessons":     view.TotalLessons,
		"last_accessed":     view.Enrollment.LastAccessed,
		"lessons":           view.Lessons,
		"certificate":       view.Certificate,
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", progress)
}

func (h *Handler) GetUserEnrollmentsList(c *fiber.Ctx) error {
	enrollments, err := h.Learning.ListEnrollments(c.UserContext(), userID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", enrollments)
}
