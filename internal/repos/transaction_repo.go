package repos

import (
	"checkstand/internal/domain"

	"github.com/jmoiron/sqlx"
)

type TransactionRepo struct{ db *sqlx.DB }

func NewTransactionRepo(db *sqlx.DB) *TransactionRepo { return &TransactionRepo{db: db} }

const txnCols = `
  id, COALESCE(user_id,'') AS user_id, cart_id, status,
  subtotal, tax_amount, total_amount,
  COALESCE(payment_method,'') AS payment_method, payment_status,
  created_at, COALESCE(completed_at,'') AS completed_at`

// CreateTx inserts the transaction header inside a caller-owned transaction
// (the checkout unit of work).
func (r *TransactionRepo) CreateTx(tx *sqlx.Tx, t domain.Transaction) error {
	var uid any
	if t.UserID != "" {
		uid = t.UserID
	}
	_, err := tx.Exec(`
	  INSERT INTO transactions
	    (id, user_id, cart_id, status, subtotal, tax_amount, total_amount, payment_method, payment_status, completed_at)
	  VALUES
	    (?, ?, ?, ?, ?, ?, ?, NULLIF(?, ''), ?, CURRENT_TIMESTAMP)
	`, t.ID, uid, t.CartID, t.Status, t.Subtotal, t.TaxAmount, t.TotalAmount, string(t.PaymentMethod), t.PaymentStatus)
	return err
}

func (r *TransactionRepo) InsertItemTx(tx *sqlx.Tx, it domain.TransactionItem) error {
	_, err := tx.Exec(`
	  INSERT INTO transaction_items(id, transaction_id, product_id, quantity, price, tax_rate, was_age_verified)
	  VALUES(?, ?, ?, ?, ?, ?, ?)
	`, it.ID, it.TransactionID, it.ProductID, it.Quantity, it.Price, it.TaxRate, it.WasAgeVerified)
	return err
}

func (r *TransactionRepo) Get(id string) (domain.Transaction, error) {
	var t domain.Transaction
	err := r.db.Get(&t, `SELECT `+txnCols+` FROM transactions WHERE id = ?`, id)
	return t, err
}

// GetWithItems loads a transaction and its line-item snapshots.
func (r *TransactionRepo) GetWithItems(id string) (domain.Transaction, error) {
	t, err := r.Get(id)
	if err != nil {
		return domain.Transaction{}, err
	}
	err = r.db.Select(&t.Items, `
	  SELECT id, transaction_id, product_id, quantity, price, tax_rate, was_age_verified
	  FROM transaction_items
	  WHERE transaction_id = ?
	  ORDER BY id
	`, id)
	return t, err
}

func (r *TransactionRepo) ByCart(cartID string) (domain.Transaction, error) {
	var t domain.Transaction
	err := r.db.Get(&t, `SELECT `+txnCols+` FROM transactions WHERE cart_id = ?`, cartID)
	return t, err
}

func (r *TransactionRepo) ListByUser(userID string, limit, offset int) ([]domain.Transaction, error) {
	out := []domain.Transaction{}
	err := r.db.Select(&out, `
	  SELECT `+txnCols+` FROM transactions
	  WHERE user_id = ?
	  ORDER BY datetime(created_at) DESC
	  LIMIT ? OFFSET ?`, userID, limit, offset)
	return out, err
}

func (r *TransactionRepo) UpdatePaymentStatus(id string, status domain.PaymentStatus, method domain.PaymentMethod) error {
	_, err := r.db.Exec(`
	  UPDATE transactions SET payment_status = ?, payment_method = ? WHERE id = ?
	`, status, method, id)
	return err
}

func (r *TransactionRepo) UpdateStatus(id string, status domain.TransactionStatus) error {
	_, err := r.db.Exec(`UPDATE transactions SET status = ? WHERE id = ?`, status, id)
	return err
}
