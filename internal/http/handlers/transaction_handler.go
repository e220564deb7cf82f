package handlers

import (
	"checkstand/internal/domain"
	"checkstand/internal/repos"
	"checkstand/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type TransactionHandler struct {
	Txns *repos.TransactionRepo
}

// GET /api/v1/transactions/:id
func (h *TransactionHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid transaction id"})
	}
	t, err := h.Txns.GetWithItems(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "transaction not found"})
	}
	return c.JSON(t)
}

// GET /api/v1/transactions (behind RequireUser): history for the logged-in user.
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	u, ok := c.Locals("user").(*domain.User)
	if !ok || u == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
	}
	skip, limit := validate.Page(c.Query("skip"), c.Query("limit"))
	out, err := h.Txns.ListByUser(u.ID, limit, skip)
	if err != nil {
		return fail(c, "transactions.list", err)
	}
	return c.JSON(out)
}
