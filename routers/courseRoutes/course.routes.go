package courseRoutes

import (
	controllers "ruralearn/controllers/course"
	"ruralearn/middleware"
	"ruralearn/models"
	validators "ruralearn/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up all user-facing course routes
func SetupCourseRoutes(app *fiber.App, h *controllers.Handler) {
	userGroup := app.Group("/course")

	// Catalog and recommendations (public)
	userGroup.Get("/list", validators.ListCourses(), h.GetAllCourses)
	userGroup.Get("/recommendations", validators.Recommendations(), h.GetRecommendations)
	userGroup.Post("/ai-recommendations", middleware.OptionalJWTMiddleware, validators.AIRecommendations(), h.GetAIRecommendations)

	userGroup.Get("/:id", middleware.JWTMiddleware, validators.CourseID(), h.GetCourseDetails)

	// Enrollment
	enroll := middleware.CheckPermissionMiddleware(models.PermissionEnroll)
	userGroup.Post("/:id/enroll", middleware.JWTMiddleware, enroll, validators.EnrollCourse(), h.EnrollInCourse)
	userGroup.Delete("/:id/enroll", middleware.JWTMiddleware, enroll, validators.EnrollCourse(), h.UnenrollFromCourse)

	// Lesson completion and progress
	track := middleware.CheckPermissionMiddleware(models.PermissionTrackProgress)
	userGroup.Post("/:course_id/lesson/:lesson_id/complete", middleware.JWTMiddleware, track, validators.LessonCompletion(), h.MarkLessonComplete)
	userGroup.Get("/:course_id/progress", middleware.JWTMiddleware, validators.CourseProgress(), h.GetUserProgress)

	// Certificate
	certs := middleware.CheckPermissionMiddleware(models.PermissionCertificates)
	userGroup.Post("/:course_id/certificate", middleware.JWTMiddleware, certs, validators.CourseProgress(), h.GenerateCertificate)

	// User enrollments and certificates
	userEnrollGroup := app.Group("/user", middleware.JWTMiddleware)
	userEnrollGroup.Get("/enrollments", h.GetUserEnrollmentsList)
	userEnrollGroup.Get("/certificates", certs, h.GetUserCertificates)

	app.Get("/certificate/verify/:number", validators.VerifyCertificate(), h.VerifyCertificate)

	assistantGroup := app.Group("/assistant", middleware.JWTMiddleware)
	assistantGroup.Post("/chat", middleware.CheckPermissionMiddleware(models.PermissionAssistant), validators.Chat(), h.Chat)
}
