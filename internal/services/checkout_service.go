package services

import (
	"database/sql"
	"fmt"
	"math"

	"checkstand/internal/domain"
	"checkstand/internal/repos"

	"github.com/google/uuid"
)

// CheckoutService turns an active cart into an immutable priced transaction
// and drives payment capture against it.
type CheckoutService struct {
	Carts    *repos.CartRepo
	Txns     *repos.TransactionRepo
	Stock    *repos.StockRepo
	Payments *PaymentService
}

func NewCheckoutService(carts *repos.CartRepo, txns *repos.TransactionRepo, stock *repos.StockRepo, payments *PaymentService) *CheckoutService {
	return &CheckoutService{Carts: carts, Txns: txns, Stock: stock, Payments: payments}
}

// ConvertCartToTransaction snapshots the cart into a Transaction plus
// TransactionItems, decrements stock per line, and deactivates the cart,
// all in one database transaction. Any stock shortfall rolls the whole
// conversion back (no Transaction, no items, no stock change, cart stays
// active) and surfaces the offending product. Totals are recomputed from the
// items as read inside the transaction; no caller-supplied total is trusted.
func (s *CheckoutService) ConvertCartToTransaction(cartID string) (domain.Transaction, error) {
	return s.convert(cartID, nil)
}

// convert does the conversion work. When approved is non-nil it is the
// client-authorized amount, compared against the totals computed inside the
// transaction: the comparison and the snapshot read the same rows, so a cart
// that mutated after the client saw its totals aborts the conversion rather
// than capturing an amount the client never approved.
func (s *CheckoutService) convert(cartID string, approved *float64) (domain.Transaction, error) {
	cart, err := s.Carts.Get(cartID)
	if err == sql.ErrNoRows {
		return domain.Transaction{}, &CartValidationError{Reason: "cart not found"}
	}
	if err != nil {
		return domain.Transaction{}, err
	}
	if !cart.IsActive {
		return domain.Transaction{}, &CartValidationError{Reason: "cart has already been converted or deactivated"}
	}

	tx, err := s.Carts.Begin()
	if err != nil {
		return domain.Transaction{}, err
	}
	defer func() { _ = tx.Rollback() }()

	items, err := s.Carts.ItemsTx(tx, cartID)
	if err != nil {
		return domain.Transaction{}, err
	}
	if len(items) == 0 {
		return domain.Transaction{}, &CartValidationError{Reason: "cart is empty"}
	}
	for _, it := range items {
		if it.AgeRestriction != domain.AgeNone && !it.IsAgeVerified {
			return domain.Transaction{}, &CartValidationError{
				Reason: fmt.Sprintf("item %s requires age verification before checkout", it.ProductName),
			}
		}
	}

	totals := totalsOf(items)
	if approved != nil && math.Abs(*approved-totals.Total) >= 0.005 {
		return domain.Transaction{}, &CartValidationError{
			Reason: fmt.Sprintf("payment amount %.2f does not match cart total %.2f", *approved, totals.Total),
		}
	}
	txn := domain.Transaction{
		ID:            uuid.NewString(),
		UserID:        cart.UserID,
		CartID:        cartID,
		Status:        domain.TxnCompleted,
		Subtotal:      totals.Subtotal,
		TaxAmount:     totals.Tax,
		TotalAmount:   totals.Total,
		PaymentStatus: domain.PaymentPending,
	}
	if err := s.Txns.CreateTx(tx, txn); err != nil {
		return domain.Transaction{}, err
	}

	for _, it := range items {
		if err := s.Txns.InsertItemTx(tx, domain.TransactionItem{
			ID:             uuid.NewString(),
			TransactionID:  txn.ID,
			ProductID:      it.ProductID,
			Quantity:       it.Quantity,
			Price:          it.PriceAtAddition,
			TaxRate:        it.TaxRate,
			WasAgeVerified: it.IsAgeVerified,
		}); err != nil {
			return domain.Transaction{}, err
		}

		rec, applied, err := s.Stock.AdjustTx(tx, it.ProductID, -it.Quantity)
		if err == sql.ErrNoRows {
			return domain.Transaction{}, ErrStockNotFound
		}
		if err != nil {
			return domain.Transaction{}, err
		}
		if !applied {
			// Rollback undoes the header, the snapshots, and every prior
			// decrement; the cart stays active for a retry.
			return domain.Transaction{}, &InsufficientStockError{
				ProductID: it.ProductID,
				Available: rec.Quantity,
				Requested: it.Quantity,
			}
		}
	}

	if err := s.Carts.DeactivateTx(tx, cartID); err == sql.ErrNoRows {
		return domain.Transaction{}, &CartValidationError{Reason: "cart was converted concurrently"}
	} else if err != nil {
		return domain.Transaction{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.Transaction{}, err
	}
	return s.Txns.GetWithItems(txn.ID)
}

type CheckoutResult struct {
	Transaction   domain.Transaction `json:"transaction"`
	Payment       domain.Payment     `json:"payment"`
	ReceiptNumber string             `json:"receipt_number"`
}

// Checkout converts the cart and captures payment in sequence. The
// caller-supplied amount must match the total computed inside the conversion
// transaction to the cent; a mismatch rolls the conversion back with nothing
// written. A gateway failure leaves the converted transaction in place with
// payment_status=failed.
func (s *CheckoutService) Checkout(cartID string, method domain.PaymentMethod, amount float64, details PaymentDetails) (CheckoutResult, error) {
	if !method.Valid() {
		return CheckoutResult{}, &CartValidationError{Reason: "unknown payment method " + string(method)}
	}

	txn, err := s.convert(cartID, &amount)
	if err != nil {
		return CheckoutResult{}, err
	}

	payment, err := s.Payments.ProcessPayment(txn.ID, method, txn.TotalAmount, details)
	if err != nil {
		// The sale record stands; only its payment status is failed.
		return CheckoutResult{Transaction: txn}, err
	}

	txn, err = s.Txns.GetWithItems(txn.ID)
	if err != nil {
		return CheckoutResult{}, err
	}
	return CheckoutResult{
		Transaction:   txn,
		Payment:       payment,
		ReceiptNumber: payment.ReceiptNumber,
	}, nil
}
