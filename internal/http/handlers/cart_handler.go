package handlers

import (
	"time"

	applog "checkstand/internal/log"
	"checkstand/internal/services"
	"checkstand/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CartHandler struct {
	Cart *services.CartService
	Age  *services.AgeService
	Auth *services.AuthService
}

// owner resolves the cart owner key: the logged-in user when the session is
// bound, otherwise the session itself.
func (h *CartHandler) owner(c *fiber.Ctx) (userID, sessionID string) {
	sid := ensureSID(c)
	if u, err := h.Auth.CurrentUser(sid); err == nil && u != nil {
		return u.ID, ""
	}
	return "", sid
}

// GET /api/v1/cart
func (h *CartHandler) Get(c *fiber.Ctx) error {
	userID, sessionID := h.owner(c)
	cart, err := h.Cart.GetOrCreate(userID, sessionID)
	if err != nil {
		return fail(c, "cart.get", err)
	}
	return c.JSON(cart)
}

type addItemReq struct {
	ProductID      string `json:"product_id"`
	Quantity       int    `json:"quantity"`
	SkipStockCheck bool   `json:"skip_stock_check"`
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	var req addItemReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if _, ok := validate.ID(req.ProductID); !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product_id"})
	}

	userID, sessionID := h.owner(c)
	cart, err := h.Cart.GetOrCreate(userID, sessionID)
	if err != nil {
		return fail(c, "cart.items.add", err)
	}
	if _, err := h.Cart.AddItem(cart.ID, req.ProductID, req.Quantity, req.SkipStockCheck); err != nil {
		return fail(c, "cart.items.add", err)
	}

	cart, err = h.Cart.GetOrCreate(userID, sessionID)
	if err != nil {
		return fail(c, "cart.items.add", err)
	}
	return c.JSON(cart)
}

type updateItemReq struct {
	Quantity int `json:"quantity"`
}

// PUT /api/v1/cart/items/:id
func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	itemID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid item id"})
	}
	var req updateItemReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	userID, sessionID := h.owner(c)
	cart, err := h.Cart.GetOrCreate(userID, sessionID)
	if err != nil {
		return fail(c, "cart.items.update", err)
	}
	if err := h.Cart.UpdateItem(cart.ID, itemID, req.Quantity); err != nil {
		return fail(c, "cart.items.update", err)
	}

	cart, err = h.Cart.GetOrCreate(userID, sessionID)
	if err != nil {
		return fail(c, "cart.items.update", err)
	}
	return c.JSON(cart)
}

// DELETE /api/v1/cart/items/:id
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	itemID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid item id"})
	}

	userID, sessionID := h.owner(c)
	cart, err := h.Cart.GetOrCreate(userID, sessionID)
	if err != nil {
		return fail(c, "cart.items.remove", err)
	}
	if err := h.Cart.RemoveItem(cart.ID, itemID); err != nil {
		return fail(c, "cart.items.remove", err)
	}

	cart, err = h.Cart.GetOrCreate(userID, sessionID)
	if err != nil {
		return fail(c, "cart.items.remove", err)
	}
	return c.JSON(cart)
}

// POST /api/v1/cart/verify-age
// Birth date comes from the X-Birth-Date header (2006-01-02). A cart without
// restricted items verifies without it; the logged-in user's stored date of
// birth is used as a fallback.
func (h *CartHandler) VerifyAge(c *fiber.Ctx) error {
	userID, sessionID := h.owner(c)
	cart, err := h.Cart.GetOrCreate(userID, sessionID)
	if err != nil {
		return fail(c, "cart.verify_age", err)
	}

	var birth *time.Time
	if bd, ok := validate.BirthDate(c.Get("X-Birth-Date")); ok {
		birth = &bd
	} else if userID != "" {
		if u, err := h.Auth.CurrentUser(ensureSID(c)); err == nil && u != nil && u.DateOfBirth != "" {
			if bd, ok := validate.BirthDate(u.DateOfBirth); ok {
				birth = &bd
			}
		}
	}

	verified, err := h.Age.Verify(cart.ID, birth)
	if err != nil {
		applog.Security(c, "cart.verify_age.fail", map[string]any{"cart_id": cart.ID, "reason": err.Error()})
		return fail(c, "cart.verify_age", err)
	}
	applog.Audit(c, "cart.verify_age", map[string]any{"cart_id": cart.ID, "verified": verified})
	return c.JSON(fiber.Map{"verified": verified})
}

// GET /api/v1/cart/totals
func (h *CartHandler) Totals(c *fiber.Ctx) error {
	userID, sessionID := h.owner(c)
	cart, err := h.Cart.GetOrCreate(userID, sessionID)
	if err != nil {
		return fail(c, "cart.totals", err)
	}
	totals, err := h.Cart.Totals(cart.ID)
	if err != nil {
		return fail(c, "cart.totals", err)
	}
	return c.JSON(totals)
}
