package handlers

import (
	"errors"

	applog "checkstand/internal/log"
	"checkstand/internal/services"

	"github.com/gofiber/fiber/v2"
)

// fail maps the service error taxonomy to client-visible statuses:
// stock shortfall 400 with details, validation 400, age 403, payment 402,
// missing stock ledger 404, anything else 500 with the detail kept
// server-side.
func fail(c *fiber.Ctx, action string, err error) error {
	var stockErr *services.InsufficientStockError
	if errors.As(err, &stockErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":      "insufficient_stock",
			"product_id": stockErr.ProductID,
			"available":  stockErr.Available,
			"requested":  stockErr.Requested,
		})
	}

	var cartErr *services.CartValidationError
	if errors.As(err, &cartErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "cart_validation",
			"detail": cartErr.Reason,
		})
	}

	var ageErr *services.AgeVerificationError
	if errors.As(err, &ageErr) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":  "age_verification",
			"detail": ageErr.Reason,
		})
	}

	var payErr *services.PaymentProcessingError
	if errors.As(err, &payErr) {
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"error":  "payment_processing",
			"detail": payErr.Reason,
		})
	}

	if errors.Is(err, services.ErrStockNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "stock_not_found",
		})
	}

	applog.Error(c, action, err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal",
	})
}
