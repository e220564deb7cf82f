package handlers

import (
	"strings"

	"checkstand/internal/domain"
	"checkstand/internal/services"
	"checkstand/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	Catalog *services.CatalogService
	Stock   *services.StockService
}

// GET /api/v1/products?q=&category=&skip=&limit=
func (h *ProductHandler) List(c *fiber.Ctx) error {
	skip, limit := validate.Page(c.Query("skip"), c.Query("limit"))

	if q := strings.TrimSpace(c.Query("q")); q != "" {
		q, ok := validate.Q(q)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid search query"})
		}
		out, err := h.Catalog.Search(strings.ToLower(q), skip, limit)
		if err != nil {
			return fail(c, "products.search", err)
		}
		return c.JSON(out)
	}

	if cat := c.Query("category"); cat != "" {
		category := domain.ProductCategory(cat)
		if !category.Valid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown category"})
		}
		out, err := h.Catalog.ListByCategory(category, skip, limit)
		if err != nil {
			return fail(c, "products.by_category", err)
		}
		return c.JSON(out)
	}

	out, err := h.Catalog.ListActive(skip, limit)
	if err != nil {
		return fail(c, "products.list", err)
	}
	return c.JSON(out)
}

// GET /api/v1/products/:id
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
	}
	p, err := h.Catalog.GetProduct(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
	}
	return c.JSON(p)
}

// GET /api/v1/products/barcode/:code
// Kiosk scanner lookup.
func (h *ProductHandler) GetByBarcode(c *fiber.Ctx) error {
	code, ok := validate.Barcode(c.Params("code"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid barcode"})
	}
	p, err := h.Catalog.GetByBarcode(code)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
	}
	return c.JSON(p)
}

// GET /api/v1/availability?productId=
func (h *ProductHandler) Availability(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.Query("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing productId"})
	}
	avail, err := h.Stock.Availability(productID)
	if err != nil {
		return fail(c, "availability.check", err)
	}
	return c.JSON(avail)
}
