package middleware

import (
	"errors"
	"time"

	"ruralearn/config"
	"ruralearn/database"
	"ruralearn/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CheckPermissionMiddleware returns a middleware that checks if the user has the required permission
func CheckPermissionMiddleware(requiredPermission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userId").(uint)
		if !ok {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized: User ID not found", nil)
		}

		var user models.User
		if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
		}
		if user.IsBlocked && user.BlockedUntil != nil && user.BlockedUntil.After(time.Now()) {
			return JsonResponse(c, fiber.StatusForbidden, false, "Your account is blocked!", nil)
		}

		var permission models.Permission
		err := database.Database.Db.Where("user_id = ? AND permission = ? AND is_deleted = ?",
			userID, requiredPermission, false).First(&permission).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return JsonResponse(c, fiber.StatusForbidden, false, "You do not have permission to access this resource!", nil)
			}
			return JsonResponse(c, fiber.StatusInternalServerError, false, "Server error while checking permissions!", nil)
		}

		return c.Next()
	}
}

// DebugToolsEnabled hides support-only routes unless ENABLE_DEBUG_TOOLS is set.
func DebugToolsEnabled(c *fiber.Ctx) error {
	if config.AppConfig == nil || !config.AppConfig.EnableDebugTools {
		return JsonResponse(c, fiber.StatusNotFound, false, "Cannot "+c.Method()+" "+c.Path(), nil)
	}
	return c.Next()
}
