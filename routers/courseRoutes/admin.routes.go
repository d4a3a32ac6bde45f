package courseRoutes

import (
	controllers "ruralearn/controllers/course"
	"ruralearn/middleware"
	"ruralearn/models"
	validators "ruralearn/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminCourseRoutes sets up all admin course management routes
func SetupAdminCourseRoutes(app *fiber.App, h *controllers.Handler) {
	manage := middleware.CheckPermissionMiddleware(models.PermissionManageCourses)

	adminGroup := app.Group("/admin/course", middleware.JWTMiddleware)

	adminGroup.Post("/create", manage, validators.CreateCourseAdmin(), h.AdminCreateCourse)
	adminGroup.Post("/:id/lesson", manage, validators.AddLesson(), h.AdminAddLesson)
	adminGroup.Post("/:id/publish", manage, validators.PublishCourse(), h.AdminPublishCourse)
	adminGroup.Put("/:id", manage, validators.UpdateCourseAdmin(), h.AdminUpdateCourse)
	adminGroup.Delete("/:id", manage, validators.DeleteCourse(), h.AdminDeleteCourse)
	adminGroup.Put("/:id/lessons/order", manage, validators.ReorderLessons(), h.AdminReorderLessons)
	adminGroup.Put("/:course_id/lesson/:lesson_id", manage, validators.UpdateLessonAdmin(), h.AdminUpdateLesson)
	adminGroup.Delete("/:course_id/lesson/:lesson_id", manage, validators.DeleteLesson(), h.AdminDeleteLesson)

	// Support tool, hidden unless ENABLE_DEBUG_TOOLS is set
	adminGroup.Post("/:course_id/user/:user_id/force-complete",
		middleware.DebugToolsEnabled,
		middleware.CheckPermissionMiddleware(models.PermissionDebugTools),
		validators.ForceComplete(),
		h.AdminForceComplete)

	// Dashboard
	dashGroup := app.Group("/admin/dashboard", middleware.JWTMiddleware)
	dashGroup.Get("/stats", manage, h.AdminDashboardStats)
}
