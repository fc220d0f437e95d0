package order

import (
	"github.com/gofiber/fiber/v2"

	"github.com/luizxsoto/checkout-api-sub000/internal/apperr"
	"github.com/luizxsoto/checkout-api-sub000/internal/auth"
	"github.com/luizxsoto/checkout-api-sub000/internal/listing"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

// List handles GET /orders
func (h *Handler) List(c *fiber.Ctx) error {
	var params listing.Params
	if err := c.QueryParser(&params); err != nil {
		return apperr.New(apperr.ValidationException, 400, "Invalid query string")
	}
	rows, err := h.service.List(c.UserContext(), auth.GetUser(c), params)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": rows})
}

// Show handles GET /orders/:id
func (h *Handler) Show(c *fiber.Ctx) error {
	rec, err := h.service.Show(c.UserContext(), auth.GetUser(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": rec})
}

// Create handles POST /orders
func (h *Handler) Create(c *fiber.Ctx) error {
	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return apperr.New(apperr.ValidationException, 400, "Invalid JSON body")
	}
	rec, err := h.service.Create(c.UserContext(), auth.GetUser(c), body)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": rec})
}
