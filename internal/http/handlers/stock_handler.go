package handlers

import (
	"strconv"

	applog "checkstand/internal/log"
	"checkstand/internal/services"
	"checkstand/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type StockHandler struct {
	Stock *services.StockService
}

type adjustReq struct {
	ProductID string `json:"product_id"`
	Delta     int    `json:"delta"`
}

// POST /api/v1/stock/adjust
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var req adjustReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if _, ok := validate.ID(req.ProductID); !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product_id"})
	}
	if req.Delta == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "delta must be non-zero"})
	}

	rec, err := h.Stock.Adjust(req.ProductID, req.Delta)
	if err != nil {
		return fail(c, "stock.adjust", err)
	}
	applog.Audit(c, "stock.adjust", map[string]any{
		"product_id": req.ProductID,
		"delta":      req.Delta,
		"quantity":   rec.Quantity,
	})
	return c.JSON(rec)
}

type bulkAdjustReq struct {
	Adjustments []services.Adjustment `json:"adjustments"`
}

// POST /api/v1/stock/bulk-adjust
// All entries apply or none do.
func (h *StockHandler) BulkAdjust(c *fiber.Ctx) error {
	var req bulkAdjustReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if len(req.Adjustments) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no adjustments"})
	}

	recs, err := h.Stock.BulkAdjust(req.Adjustments)
	if err != nil {
		return fail(c, "stock.bulk_adjust", err)
	}
	applog.Audit(c, "stock.bulk_adjust", map[string]any{"count": len(recs)})
	return c.JSON(recs)
}

// GET /api/v1/stock/low?threshold=&skip=&limit=
func (h *StockHandler) Low(c *fiber.Ctx) error {
	threshold := -1
	if t := c.Query("threshold"); t != "" {
		n, err := strconv.Atoi(t)
		if err != nil || n < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid threshold"})
		}
		threshold = n
	}
	skip, limit := validate.Page(c.Query("skip"), c.Query("limit"))

	recs, err := h.Stock.LowStock(threshold, skip, limit)
	if err != nil {
		return fail(c, "stock.low", err)
	}
	return c.JSON(recs)
}
