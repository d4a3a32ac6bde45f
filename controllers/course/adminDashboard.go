package controllers

import (
	"ruralearn/middleware"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) AdminDashboardStats(c *fiber.Ctx) error {
	stats, err := h.Catalog.DashboardStats(c.UserContext())
	if err != nil {
		h.logger().Error("dashboard stats failed", "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch dashboard stats!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Dashboard stats fetched successfully!", stats)
}
