package controllers

import (
	"ruralearn/middleware"

	"github.com/gofiber/fiber/v2"
)

// GenerateCertificate issues the certificate once every lesson is complete.
// Asking again returns the certificate already on file.
func (h *Handler) GenerateCertificate(c *fiber.Ctx) error {
	cert, created, err := h.Learning.Issue(c.UserContext(), userID(c), localID(c, "courseID"))
	if err != nil {
		return h.fail(c, err)
	}
	if created {
		return middleware.JsonResponse(c, fiber.StatusCreated, true, "Certificate generated successfully!", cert)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate fetched successfully!", cert)
}

func (h *Handler) GetUserCertificates(c *fiber.Ctx) error {
	certs, err := h.Learning.ListCertificates(c.UserContext(), userID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificates fetched successfully!", certs)
}

func (h *Handler) VerifyCertificate(c *fiber.Ctx) error {
	number, _ := c.Locals("certificateNumber").(string)

	verification, err := h.Learning.VerifyCertificate(c.UserContext(), number)
	if err != nil {
		return h.fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate is valid.", verification)
}
