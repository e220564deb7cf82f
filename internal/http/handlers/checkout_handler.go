package handlers

import (
	"checkstand/internal/domain"
	applog "checkstand/internal/log"
	"checkstand/internal/services"
	"checkstand/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CheckoutHandler struct {
	Cart      *services.CartService
	Checkouts *services.CheckoutService
	Payments  *services.PaymentService
	Auth      *services.AuthService
}

func (h *CheckoutHandler) owner(c *fiber.Ctx) (userID, sessionID string) {
	sid := ensureSID(c)
	if u, err := h.Auth.CurrentUser(sid); err == nil && u != nil {
		return u.ID, ""
	}
	return "", sid
}

type checkoutReq struct {
	Method  string            `json:"method"`
	Amount  float64           `json:"amount"`
	Details map[string]string `json:"details"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(c *fiber.Ctx) error {
	var req checkoutReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	userID, sessionID := h.owner(c)
	cart, err := h.Cart.GetOrCreate(userID, sessionID)
	if err != nil {
		return fail(c, "checkout", err)
	}

	res, err := h.Checkouts.Checkout(cart.ID, domain.PaymentMethod(req.Method), req.Amount, services.PaymentDetails(req.Details))
	if err != nil {
		applog.Security(c, "checkout.fail", map[string]any{"cart_id": cart.ID, "error": err.Error()})
		return fail(c, "checkout", err)
	}

	applog.Audit(c, "checkout.complete", map[string]any{
		"cart_id":        cart.ID,
		"transaction_id": res.Transaction.ID,
		"total":          res.Transaction.TotalAmount,
		"receipt_number": res.ReceiptNumber,
	})
	return c.JSON(res)
}

type refundReq struct {
	Amount *float64 `json:"amount"`
}

// POST /api/v1/payments/:id/refund
func (h *CheckoutHandler) Refund(c *fiber.Ctx) error {
	paymentID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payment id"})
	}
	var req refundReq
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}
	}

	p, err := h.Payments.RefundPayment(paymentID, req.Amount)
	if err != nil {
		return fail(c, "payment.refund", err)
	}
	applog.Audit(c, "payment.refund", map[string]any{
		"payment_id": p.ID,
		"status":     string(p.Status),
	})
	return c.JSON(p)
}
