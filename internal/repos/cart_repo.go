package repos

import (
	"database/sql"
	"strings"

	"checkstand/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

const cartCols = `
  id, COALESCE(user_id,'') AS user_id, COALESCE(session_id,'') AS session_id,
  is_active, created_at, COALESCE(updated_at,'') AS updated_at`

func (r *CartRepo) Get(cartID string) (domain.Cart, error) {
	var c domain.Cart
	err := r.db.Get(&c, `SELECT `+cartCols+` FROM carts WHERE id = ?`, cartID)
	return c, err
}

func (r *CartRepo) ActiveByUser(userID string) (domain.Cart, error) {
	var c domain.Cart
	err := r.db.Get(&c, `SELECT `+cartCols+` FROM carts WHERE user_id = ? AND is_active = 1`, userID)
	return c, err
}

func (r *CartRepo) ActiveBySession(sessionID string) (domain.Cart, error) {
	var c domain.Cart
	err := r.db.Get(&c, `SELECT `+cartCols+` FROM carts WHERE session_id = ? AND is_active = 1`, sessionID)
	return c, err
}

// Create inserts a new active cart for the given owner. The partial unique
// indexes on (user_id)/(session_id) WHERE is_active=1 reject a duplicate
// create; callers should re-lookup on a constraint error (see IsConflict).
func (r *CartRepo) Create(userID, sessionID string) (domain.Cart, error) {
	id := uuid.NewString()
	var uid, sid any
	if userID != "" {
		uid = userID
	}
	if sessionID != "" {
		sid = sessionID
	}
	_, err := r.db.Exec(`
		INSERT INTO carts(id, user_id, session_id, is_active, updated_at)
		VALUES(?, ?, ?, 1, CURRENT_TIMESTAMP)
	`, id, uid, sid)
	if err != nil {
		return domain.Cart{}, err
	}
	return r.Get(id)
}

// IsConflict reports whether err is a uniqueness violation from the
// active-cart-per-owner guard.
func IsConflict(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

const itemCols = `
  ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.price_at_addition,
  ci.is_age_verified, ci.added_at,
  p.name, p.tax_rate, p.age_restriction`

// Items returns the cart's items joined with catalog tax/age data.
func (r *CartRepo) Items(cartID string) ([]domain.CartItem, error) {
	return cartItems(r.db, cartID)
}

func (r *CartRepo) ItemsTx(tx *sqlx.Tx, cartID string) ([]domain.CartItem, error) {
	return cartItems(tx, cartID)
}

func cartItems(e sqlx.Ext, cartID string) ([]domain.CartItem, error) {
	out := []domain.CartItem{}
	err := sqlx.Select(e, &out, `
	  SELECT `+itemCols+`
	  FROM cart_items ci JOIN products p ON p.id = ci.product_id
	  WHERE ci.cart_id = ?
	  ORDER BY ci.added_at, ci.id
	`, cartID)
	return out, err
}

func (r *CartRepo) GetItem(cartID, itemID string) (domain.CartItem, error) {
	var it domain.CartItem
	err := r.db.Get(&it, `
	  SELECT `+itemCols+`
	  FROM cart_items ci JOIN products p ON p.id = ci.product_id
	  WHERE ci.cart_id = ? AND ci.id = ?
	`, cartID, itemID)
	return it, err
}

// UpsertItem inserts a line with the given price snapshot, or increments the
// quantity of an existing line. The stored price_at_addition is never
// overwritten on conflict: the first snapshot wins.
func (r *CartRepo) UpsertItem(cartID, productID string, qty int, price float64) error {
	_, err := r.db.Exec(`
		INSERT INTO cart_items(id, cart_id, product_id, quantity, price_at_addition)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(cart_id, product_id) DO UPDATE
		SET quantity = cart_items.quantity + excluded.quantity
	`, uuid.NewString(), cartID, productID, qty, price)
	if err == nil {
		_, _ = r.db.Exec(`UPDATE carts SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`, cartID)
	}
	return err
}

func (r *CartRepo) UpdateItemQty(cartID, itemID string, qty int) error {
	res, err := r.db.Exec(`
		UPDATE cart_items SET quantity = ? WHERE cart_id = ? AND id = ?
	`, qty, cartID, itemID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *CartRepo) DeleteItem(cartID, itemID string) error {
	res, err := r.db.Exec(`DELETE FROM cart_items WHERE cart_id = ? AND id = ?`, cartID, itemID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ClearItems deletes every line of the cart.
func (r *CartRepo) ClearItems(cartID string) error {
	if _, err := r.db.Exec(`DELETE FROM cart_items WHERE cart_id = ?`, cartID); err != nil {
		return err
	}
	_, err := r.db.Exec(`UPDATE carts SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`, cartID)
	return err
}

// MarkItemsAgeVerified flips every restricted line in one statement; partial
// verification is never persisted.
func (r *CartRepo) MarkItemsAgeVerified(cartID string) error {
	_, err := r.db.Exec(`
		UPDATE cart_items SET is_age_verified = 1
		WHERE cart_id = ?
		  AND product_id IN (SELECT id FROM products WHERE age_restriction != 'none')
	`, cartID)
	return err
}

func (r *CartRepo) DeactivateTx(tx *sqlx.Tx, cartID string) error {
	res, err := tx.Exec(`
		UPDATE carts SET is_active = 0, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND is_active = 1
	`, cartID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MergeInto folds the guest cart for sessionID into the user's active cart.
// No guest cart: nothing happens and ok=false. User has no cart: the guest
// cart row is reassigned (session cleared, user set). Both exist: quantities
// of shared products are summed, new products keep the guest price snapshot,
// and the guest cart row is deleted. The whole merge is one transaction.
func (r *CartRepo) MergeInto(sessionID, userID string) (ok bool, err error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var guestID, userCartID sql.NullString
	if err := tx.Get(&guestID, `SELECT id FROM carts WHERE session_id = ? AND is_active = 1`, sessionID); err != nil && err != sql.ErrNoRows {
		return false, err
	}
	if err := tx.Get(&userCartID, `SELECT id FROM carts WHERE user_id = ? AND is_active = 1`, userID); err != nil && err != sql.ErrNoRows {
		return false, err
	}

	if !guestID.Valid {
		return false, tx.Commit()
	}

	if !userCartID.Valid {
		if _, err := tx.Exec(`
			UPDATE carts SET user_id = ?, session_id = NULL, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, userID, guestID.String); err != nil {
			return false, err
		}
		return true, tx.Commit()
	}

	type line struct {
		ProductID string  `db:"product_id"`
		Quantity  int     `db:"quantity"`
		Price     float64 `db:"price_at_addition"`
	}
	var lines []line
	if err := tx.Select(&lines, `
		SELECT product_id, quantity, price_at_addition FROM cart_items WHERE cart_id = ?
	`, guestID.String); err != nil {
		return false, err
	}

	for _, it := range lines {
		if _, err := tx.Exec(`
			INSERT INTO cart_items(id, cart_id, product_id, quantity, price_at_addition)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(cart_id, product_id) DO UPDATE
			SET quantity = cart_items.quantity + excluded.quantity
		`, uuid.NewString(), userCartID.String, it.ProductID, it.Quantity, it.Price); err != nil {
			return false, err
		}
	}

	if _, err := tx.Exec(`DELETE FROM cart_items WHERE cart_id = ?`, guestID.String); err != nil {
		return false, err
	}
	if _, err := tx.Exec(`DELETE FROM carts WHERE id = ?`, guestID.String); err != nil {
		return false, err
	}
	if _, err := tx.Exec(`UPDATE carts SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`, userCartID.String); err != nil {
		return false, err
	}

	return true, tx.Commit()
}

func (r *CartRepo) Begin() (*sqlx.Tx, error) { return r.db.Beginx() }
