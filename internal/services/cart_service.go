package services

import (
	"database/sql"
	"fmt"
	"math"

	"checkstand/internal/domain"
	"checkstand/internal/repos"
)

type CartService struct {
	Carts *repos.CartRepo
	Prods *repos.ProductRepo
	Stock *StockService
}

func NewCartService(carts *repos.CartRepo, prods *repos.ProductRepo, stock *StockService) *CartService {
	return &CartService{Carts: carts, Prods: prods, Stock: stock}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// GetOrCreate returns the owner's active cart, creating one lazily. Exactly
// one of userID/sessionID must be set. A concurrent duplicate create loses
// against the active-cart unique index and falls back to the winner's row.
func (s *CartService) GetOrCreate(userID, sessionID string) (domain.Cart, error) {
	if (userID == "") == (sessionID == "") {
		return domain.Cart{}, &CartValidationError{Reason: "exactly one of user_id or session_id must be provided"}
	}

	cart, err := s.lookupActive(userID, sessionID)
	if err == sql.ErrNoRows {
		cart, err = s.Carts.Create(userID, sessionID)
		if repos.IsConflict(err) {
			cart, err = s.lookupActive(userID, sessionID)
		}
	}
	if err != nil {
		return domain.Cart{}, err
	}

	cart.Items, err = s.Carts.Items(cart.ID)
	return cart, err
}

func (s *CartService) lookupActive(userID, sessionID string) (domain.Cart, error) {
	if userID != "" {
		return s.Carts.ActiveByUser(userID)
	}
	return s.Carts.ActiveBySession(sessionID)
}

func (s *CartService) activeCart(cartID string) (domain.Cart, error) {
	cart, err := s.Carts.Get(cartID)
	if err == sql.ErrNoRows {
		return domain.Cart{}, &CartValidationError{Reason: "cart not found"}
	}
	if err != nil {
		return domain.Cart{}, err
	}
	if !cart.IsActive {
		return domain.Cart{}, &CartValidationError{Reason: "cart is no longer active"}
	}
	return cart, nil
}

// AddItem validates the product, checks stock (unless skipped), and upserts
// the line. The price snapshot is taken once, at first add; re-adding the
// same product only increments quantity. Stock is not reserved here; the
// checkout-time adjust is where the race is adjudicated.
func (s *CartService) AddItem(cartID, productID string, qty int, skipStockCheck bool) (domain.CartItem, error) {
	if qty < 1 {
		return domain.CartItem{}, &CartValidationError{Reason: "quantity must be positive"}
	}
	if _, err := s.activeCart(cartID); err != nil {
		return domain.CartItem{}, err
	}

	p, err := s.Prods.Get(productID)
	if err == sql.ErrNoRows {
		return domain.CartItem{}, &CartValidationError{Reason: fmt.Sprintf("product %s not found", productID)}
	}
	if err != nil {
		return domain.CartItem{}, err
	}
	if p.Status != domain.ProductActive {
		return domain.CartItem{}, &CartValidationError{Reason: fmt.Sprintf("product %s is not for sale (%s)", productID, p.Status)}
	}

	if !skipStockCheck {
		have, err := s.Stock.Stock.Qty(productID)
		if err != nil && err != sql.ErrNoRows {
			return domain.CartItem{}, err
		}
		if err == sql.ErrNoRows {
			have = 0
		}
		if have < qty {
			return domain.CartItem{}, &InsufficientStockError{ProductID: productID, Available: have, Requested: qty}
		}
	}

	if err := s.Carts.UpsertItem(cartID, productID, qty, p.CurrentPrice); err != nil {
		return domain.CartItem{}, err
	}

	items, err := s.Carts.Items(cartID)
	if err != nil {
		return domain.CartItem{}, err
	}
	for _, it := range items {
		if it.ProductID == productID {
			return it, nil
		}
	}
	return domain.CartItem{}, fmt.Errorf("cart item for %s missing after upsert", productID)
}

func (s *CartService) UpdateItem(cartID, itemID string, qty int) error {
	if qty < 1 {
		return &CartValidationError{Reason: "quantity must be positive"}
	}
	if _, err := s.activeCart(cartID); err != nil {
		return err
	}
	err := s.Carts.UpdateItemQty(cartID, itemID, qty)
	if err == sql.ErrNoRows {
		return &CartValidationError{Reason: "cart item not found"}
	}
	return err
}

func (s *CartService) RemoveItem(cartID, itemID string) error {
	if _, err := s.activeCart(cartID); err != nil {
		return err
	}
	err := s.Carts.DeleteItem(cartID, itemID)
	if err == sql.ErrNoRows {
		return &CartValidationError{Reason: "cart item not found"}
	}
	return err
}

// Clear removes every line from the cart. The cart itself stays as it was.
func (s *CartService) Clear(cartID string) error {
	if _, err := s.Carts.Get(cartID); err == sql.ErrNoRows {
		return &CartValidationError{Reason: "cart not found"}
	} else if err != nil {
		return err
	}
	return s.Carts.ClearItems(cartID)
}

// Totals recomputes from the stored snapshots: subtotal from
// price_at_addition, tax from each product's current tax rate. All-zero for
// an empty cart. Idempotent, no side effect.
func (s *CartService) Totals(cartID string) (domain.CartTotals, error) {
	if _, err := s.Carts.Get(cartID); err == sql.ErrNoRows {
		return domain.CartTotals{}, &CartValidationError{Reason: "cart not found"}
	} else if err != nil {
		return domain.CartTotals{}, err
	}
	items, err := s.Carts.Items(cartID)
	if err != nil {
		return domain.CartTotals{}, err
	}
	return totalsOf(items), nil
}

func totalsOf(items []domain.CartItem) domain.CartTotals {
	var t domain.CartTotals
	for _, it := range items {
		line := float64(it.Quantity) * it.PriceAtAddition
		t.Subtotal += line
		t.Tax += line * it.TaxRate
		t.ItemCount++
	}
	t.Subtotal = roundCents(t.Subtotal)
	t.Tax = roundCents(t.Tax)
	t.Total = roundCents(t.Subtotal + t.Tax)
	return t
}

// Merge folds a guest cart into the user's cart after login and returns the
// resulting cart. With no guest cart this is just GetOrCreate for the user.
func (s *CartService) Merge(sessionID, userID string) (domain.Cart, error) {
	if sessionID == "" || userID == "" {
		return domain.Cart{}, &CartValidationError{Reason: "both session_id and user_id are required for merge"}
	}
	if _, err := s.Carts.MergeInto(sessionID, userID); err != nil {
		return domain.Cart{}, err
	}
	return s.GetOrCreate(userID, "")
}
