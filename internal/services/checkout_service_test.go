package services_test

import (
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"

	"checkstand/internal/domain"
	"checkstand/internal/repos"
	"checkstand/internal/services"
)

func newCheckout(db *sqlx.DB, gw services.Gateway) (*services.CheckoutService, *services.CartService) {
	carts := repos.NewCartRepo(db)
	txns := repos.NewTransactionRepo(db)
	stock := repos.NewStockRepo(db)
	payments := services.NewPaymentService(repos.NewPaymentRepo(db), txns, gw)
	return services.NewCheckoutService(carts, txns, stock, payments), newCartService(db)
}

func countRows(t *testing.T, db *sqlx.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := db.Get(&n, query, args...); err != nil {
		t.Fatal(err)
	}
	return n
}

func TestConvertCartNotFound(t *testing.T) {
	db := memdb(t)
	svc, _ := newCheckout(db, services.SimulatedGateway{})

	var cartErr *services.CartValidationError
	if _, err := svc.ConvertCartToTransaction("nope"); !errors.As(err, &cartErr) {
		t.Fatalf("want CartValidationError, got %v", err)
	}
}

func TestConvertEmptyCart(t *testing.T) {
	db := memdb(t)
	svc, carts := newCheckout(db, services.SimulatedGateway{})

	cart, _ := carts.GetOrCreate("", "sess-1")
	var cartErr *services.CartValidationError
	if _, err := svc.ConvertCartToTransaction(cart.ID); !errors.As(err, &cartErr) {
		t.Fatalf("want CartValidationError, got %v", err)
	}
}

func TestConvertBlocksUnverifiedRestrictedItem(t *testing.T) {
	db := memdb(t)
	addProduct(t, db, "lager", 11.99, 0.0875, "21+")
	addStock(t, db, "lager", 10)
	svc, carts := newCheckout(db, services.SimulatedGateway{})

	cart, _ := carts.GetOrCreate("", "sess-1")
	if _, err := carts.AddItem(cart.ID, "lager", 1, false); err != nil {
		t.Fatal(err)
	}

	var cartErr *services.CartValidationError
	if _, err := svc.ConvertCartToTransaction(cart.ID); !errors.As(err, &cartErr) {
		t.Fatalf("want CartValidationError, got %v", err)
	}
	if stockQty(t, db, "lager") != 10 {
		t.Fatal("blocked conversion must not touch stock")
	}
}

func TestConvertSuccess(t *testing.T) {
	db := memdb(t)
	addProduct(t, db, "prod-a", 10.00, 0.08, "none")
	addProduct(t, db, "prod-b", 5.00, 0.00, "none")
	addStock(t, db, "prod-a", 10)
	addStock(t, db, "prod-b", 10)
	svc, carts := newCheckout(db, services.SimulatedGateway{})

	cart, _ := carts.GetOrCreate("u-1", "")
	if _, err := carts.AddItem(cart.ID, "prod-a", 2, false); err != nil {
		t.Fatal(err)
	}
	if _, err := carts.AddItem(cart.ID, "prod-b", 1, false); err != nil {
		t.Fatal(err)
	}

	txn, err := svc.ConvertCartToTransaction(cart.ID)
	if err != nil {
		t.Fatal(err)
	}
	if txn.Subtotal != 25.00 || txn.TaxAmount != 1.60 || txn.TotalAmount != 26.60 {
		t.Fatalf("bad totals: %+v", txn)
	}
	if txn.Status != domain.TxnCompleted || txn.PaymentStatus != domain.PaymentPending {
		t.Fatalf("bad statuses: %+v", txn)
	}
	if txn.UserID != "u-1" || txn.CartID != cart.ID {
		t.Fatalf("bad ownership: %+v", txn)
	}
	if len(txn.Items) != 2 {
		t.Fatalf("want 2 items, got %+v", txn.Items)
	}
	for _, it := range txn.Items {
		if it.ProductID == "prod-a" && (it.Quantity != 2 || it.Price != 10.00) {
			t.Fatalf("bad item snapshot: %+v", it)
		}
	}

	if stockQty(t, db, "prod-a") != 8 || stockQty(t, db, "prod-b") != 9 {
		t.Fatal("stock not decremented per line")
	}

	got, err := repos.NewCartRepo(db).Get(cart.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.IsActive {
		t.Fatal("cart must be deactivated by conversion")
	}

	// a deactivated cart cannot be converted again
	var cartErr *services.CartValidationError
	if _, err := svc.ConvertCartToTransaction(cart.ID); !errors.As(err, &cartErr) {
		t.Fatalf("second convert: want CartValidationError, got %v", err)
	}
}

func TestConvertRollsBackOnStockShortfall(t *testing.T) {
	db := memdb(t)
	addProduct(t, db, "prod-a", 10.00, 0, "none")
	addProduct(t, db, "prod-b", 5.00, 0, "none")
	addStock(t, db, "prod-a", 10)
	addStock(t, db, "prod-b", 1)
	svc, carts := newCheckout(db, services.SimulatedGateway{})

	cart, _ := carts.GetOrCreate("", "sess-1")
	if _, err := carts.AddItem(cart.ID, "prod-a", 2, false); err != nil {
		t.Fatal(err)
	}
	// second line oversells: stock checks at add time are advisory only
	if _, err := carts.AddItem(cart.ID, "prod-b", 3, true); err != nil {
		t.Fatal(err)
	}

	_, err := svc.ConvertCartToTransaction(cart.ID)
	var stockErr *services.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("want InsufficientStockError, got %v", err)
	}
	if stockErr.ProductID != "prod-b" || stockErr.Available != 1 || stockErr.Requested != 3 {
		t.Fatalf("bad error fields: %+v", stockErr)
	}

	// nothing persisted: no header, no items, stock intact, cart still active
	if countRows(t, db, `SELECT COUNT(*) FROM transactions`) != 0 {
		t.Fatal("transaction header leaked past rollback")
	}
	if countRows(t, db, `SELECT COUNT(*) FROM transaction_items`) != 0 {
		t.Fatal("transaction items leaked past rollback")
	}
	if stockQty(t, db, "prod-a") != 10 {
		t.Fatal("first line's decrement survived the rollback")
	}
	cartRow, _ := repos.NewCartRepo(db).Get(cart.ID)
	if !cartRow.IsActive {
		t.Fatal("cart must stay active after a failed conversion")
	}

	// restock and the same cart converts cleanly
	if err := repos.NewStockRepo(db).UpsertQty("prod-b", 5); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ConvertCartToTransaction(cart.ID); err != nil {
		t.Fatalf("retry after restock failed: %v", err)
	}
	if stockQty(t, db, "prod-a") != 8 || stockQty(t, db, "prod-b") != 2 {
		t.Fatal("retry did not decrement stock")
	}
}

func TestConvertContendingCarts(t *testing.T) {
	db := memdb(t)
	addProduct(t, db, "prod-a", 10.00, 0, "none")
	addStock(t, db, "prod-a", 3)
	svc, carts := newCheckout(db, services.SimulatedGateway{})

	c1, _ := carts.GetOrCreate("", "sess-1")
	c2, _ := carts.GetOrCreate("", "sess-2")
	if _, err := carts.AddItem(c1.ID, "prod-a", 2, false); err != nil {
		t.Fatal(err)
	}
	if _, err := carts.AddItem(c2.ID, "prod-a", 2, false); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.ConvertCartToTransaction(c1.ID); err != nil {
		t.Fatal(err)
	}

	_, err := svc.ConvertCartToTransaction(c2.ID)
	var stockErr *services.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("want InsufficientStockError, got %v", err)
	}
	if stockErr.Available != 1 || stockErr.Requested != 2 {
		t.Fatalf("bad error fields: %+v", stockErr)
	}
	if stockQty(t, db, "prod-a") != 1 {
		t.Fatalf("want 1 left, got %d", stockQty(t, db, "prod-a"))
	}
}

func TestCheckoutAmountMismatch(t *testing.T) {
	db := memdb(t)
	addProduct(t, db, "prod-a", 10.00, 0.08, "none")
	addStock(t, db, "prod-a", 10)
	svc, carts := newCheckout(db, services.SimulatedGateway{})

	cart, _ := carts.GetOrCreate("", "sess-1")
	if _, err := carts.AddItem(cart.ID, "prod-a", 2, false); err != nil {
		t.Fatal(err)
	}

	// cart total is 21.60; the stale client amount is refused up front
	_, err := svc.Checkout(cart.ID, domain.MethodCreditCard, 20.00, nil)
	var cartErr *services.CartValidationError
	if !errors.As(err, &cartErr) {
		t.Fatalf("want CartValidationError, got %v", err)
	}
	if countRows(t, db, `SELECT COUNT(*) FROM transactions`) != 0 {
		t.Fatal("mismatch must be rejected before anything is written")
	}
	if stockQty(t, db, "prod-a") != 10 {
		t.Fatal("mismatch must not touch stock")
	}
}

func TestCheckoutStaleAmountAfterCartChange(t *testing.T) {
	db := memdb(t)
	addProduct(t, db, "prod-a", 10.00, 0, "none")
	addProduct(t, db, "prod-b", 5.00, 0, "none")
	addStock(t, db, "prod-a", 10)
	addStock(t, db, "prod-b", 10)
	svc, carts := newCheckout(db, services.SimulatedGateway{})

	cart, _ := carts.GetOrCreate("", "sess-1")
	if _, err := carts.AddItem(cart.ID, "prod-a", 1, false); err != nil {
		t.Fatal(err)
	}
	tot, err := carts.Totals(cart.ID)
	if err != nil {
		t.Fatal(err)
	}

	// the cart grows after the client saw its total
	if _, err := carts.AddItem(cart.ID, "prod-b", 1, false); err != nil {
		t.Fatal(err)
	}

	// the stale approved amount must never be captured, and the larger
	// recomputed total must not be captured either
	_, err = svc.Checkout(cart.ID, domain.MethodCreditCard, tot.Total, nil)
	var cartErr *services.CartValidationError
	if !errors.As(err, &cartErr) {
		t.Fatalf("want CartValidationError, got %v", err)
	}
	if countRows(t, db, `SELECT COUNT(*) FROM transactions`) != 0 {
		t.Fatal("refused checkout left a transaction behind")
	}
	if countRows(t, db, `SELECT COUNT(*) FROM payments`) != 0 {
		t.Fatal("refused checkout captured a payment")
	}
	if stockQty(t, db, "prod-a") != 10 || stockQty(t, db, "prod-b") != 10 {
		t.Fatal("refused checkout touched stock")
	}
	cartRow, _ := repos.NewCartRepo(db).Get(cart.ID)
	if !cartRow.IsActive {
		t.Fatal("cart must stay active for a retry with the new total")
	}

	// re-approving the current total goes through
	tot, _ = carts.Totals(cart.ID)
	if _, err := svc.Checkout(cart.ID, domain.MethodCreditCard, tot.Total, nil); err != nil {
		t.Fatal(err)
	}
}

func TestCheckoutSuccess(t *testing.T) {
	db := memdb(t)
	addProduct(t, db, "prod-a", 10.00, 0.08, "none")
	addStock(t, db, "prod-a", 10)
	svc, carts := newCheckout(db, services.SimulatedGateway{})

	cart, _ := carts.GetOrCreate("u-1", "")
	if _, err := carts.AddItem(cart.ID, "prod-a", 2, false); err != nil {
		t.Fatal(err)
	}

	res, err := svc.Checkout(cart.ID, domain.MethodCreditCard, 21.60, services.PaymentDetails{"last_four": "4242"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Payment.Status != domain.PaymentCompleted || res.Payment.Amount != 21.60 {
		t.Fatalf("bad payment: %+v", res.Payment)
	}
	if res.Payment.LastFour != "4242" {
		t.Fatalf("want masked card digits, got %q", res.Payment.LastFour)
	}
	if res.ReceiptNumber == "" || res.ReceiptNumber != res.Payment.ReceiptNumber {
		t.Fatalf("bad receipt number: %q", res.ReceiptNumber)
	}
	if res.Transaction.PaymentStatus != domain.PaymentCompleted {
		t.Fatalf("transaction not flagged paid: %+v", res.Transaction)
	}
	if res.Transaction.PaymentMethod != domain.MethodCreditCard {
		t.Fatalf("method not recorded: %+v", res.Transaction)
	}
}

func TestCheckoutGatewayDecline(t *testing.T) {
	db := memdb(t)
	addProduct(t, db, "prod-a", 10.00, 0, "none")
	addStock(t, db, "prod-a", 10)
	svc, carts := newCheckout(db, services.DecliningGateway{})

	cart, _ := carts.GetOrCreate("", "sess-1")
	if _, err := carts.AddItem(cart.ID, "prod-a", 1, false); err != nil {
		t.Fatal(err)
	}

	res, err := svc.Checkout(cart.ID, domain.MethodDebitCard, 10.00, nil)
	var payErr *services.PaymentProcessingError
	if !errors.As(err, &payErr) {
		t.Fatalf("want PaymentProcessingError, got %v", err)
	}

	// the sale record stands, flagged failed, for reconciliation
	if res.Transaction.ID == "" {
		t.Fatal("declined checkout must still return the converted transaction")
	}
	txn, err := repos.NewTransactionRepo(db).Get(res.Transaction.ID)
	if err != nil {
		t.Fatal(err)
	}
	if txn.PaymentStatus != domain.PaymentFailed {
		t.Fatalf("want payment_status failed, got %+v", txn)
	}
	if countRows(t, db, `SELECT COUNT(*) FROM payments WHERE transaction_id = ? AND status = 'failed'`, txn.ID) != 1 {
		t.Fatal("declined capture must persist a failed payment row")
	}
	// conversion already committed, so stock stays decremented
	if stockQty(t, db, "prod-a") != 9 {
		t.Fatalf("want 9, got %d", stockQty(t, db, "prod-a"))
	}
}
