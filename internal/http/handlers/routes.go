package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	applog "checkstand/internal/log"
)

// Register mounts every route on the app. Shared by main and the handler
// tests so both exercise the same table.
func Register(app *fiber.App, deps *Deps) {
	api := app.Group("/api/v1")

	api.Get("/products", deps.ProductHandler.List)
	api.Get("/products/barcode/:code", deps.ProductHandler.GetByBarcode)
	api.Get("/products/:id", deps.ProductHandler.Get)
	api.Get("/availability", deps.ProductHandler.Availability)

	api.Get("/cart", deps.CartHandler.Get)
	api.Post("/cart/items", deps.CartHandler.AddItem)
	api.Put("/cart/items/:id", deps.CartHandler.UpdateItem)
	api.Delete("/cart/items/:id", deps.CartHandler.RemoveItem)
	api.Post("/cart/verify-age", deps.CartHandler.VerifyAge)
	api.Get("/cart/totals", deps.CartHandler.Totals)

	api.Post("/checkout", deps.CheckoutHandler.Checkout)
	api.Post("/payments/:id/refund", deps.CheckoutHandler.Refund)

	api.Get("/transactions", RequireUser(deps.Auth), deps.TransactionHandler.List)
	api.Get("/transactions/:id", deps.TransactionHandler.Get)

	admin := RequireAdmin(deps.Auth)
	api.Post("/stock/adjust", admin, deps.StockHandler.Adjust)
	api.Post("/stock/bulk-adjust", admin, deps.StockHandler.BulkAdjust)
	api.Get("/stock/low", admin, deps.StockHandler.Low)

	// Auth (login throttled)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts, try again later"})
		},
	}), deps.AuthHandler.Login)
	app.Post("/logout", deps.AuthHandler.Logout)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})
}
