package handlers

import (
	"checkstand/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"checkstand/internal/repos"
)

type Deps struct {
	ProductHandler     *ProductHandler
	StockHandler       *StockHandler
	CartHandler        *CartHandler
	CheckoutHandler    *CheckoutHandler
	TransactionHandler *TransactionHandler
	AuthHandler        *AuthHandler
	Auth               *services.AuthService
}

func NewDeps(db *sqlx.DB, gw services.Gateway) *Deps {
	prodRepo := repos.NewProductRepo(db)
	stockRepo := repos.NewStockRepo(db)
	cartRepo := repos.NewCartRepo(db)
	txnRepo := repos.NewTransactionRepo(db)
	payRepo := repos.NewPaymentRepo(db)
	userRepo := repos.NewUserRepo(db)

	catalogSvc := services.NewCatalogService(prodRepo)
	stockSvc := services.NewStockService(stockRepo)
	cartSvc := services.NewCartService(cartRepo, prodRepo, stockSvc)
	ageSvc := services.NewAgeService(cartRepo)
	paySvc := services.NewPaymentService(payRepo, txnRepo, gw)
	checkoutSvc := services.NewCheckoutService(cartRepo, txnRepo, stockRepo, paySvc)
	authSvc := &services.AuthService{Users: userRepo, Carts: cartSvc}

	return &Deps{
		ProductHandler:     &ProductHandler{Catalog: catalogSvc, Stock: stockSvc},
		StockHandler:       &StockHandler{Stock: stockSvc},
		CartHandler:        &CartHandler{Cart: cartSvc, Age: ageSvc, Auth: authSvc},
		CheckoutHandler:    &CheckoutHandler{Cart: cartSvc, Checkouts: checkoutSvc, Payments: paySvc, Auth: authSvc},
		TransactionHandler: &TransactionHandler{Txns: txnRepo},
		AuthHandler:        &AuthHandler{Auth: authSvc},
		Auth:               authSvc,
	}
}

// ensureSID guarantees a session cookie so guests get a cart owner key.
func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false, // set true behind TLS
		})
	}
	return sid
}
