package repos

import (
	"checkstand/internal/domain"

	"github.com/jmoiron/sqlx"
)

type PaymentRepo struct{ db *sqlx.DB }

func NewPaymentRepo(db *sqlx.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentCols = `
  id, transaction_id, amount, method, status,
  COALESCE(processor_reference,'') AS processor_reference,
  COALESCE(last_four,'') AS last_four,
  COALESCE(receipt_number,'') AS receipt_number,
  created_at, COALESCE(processed_at,'') AS processed_at`

func (r *PaymentRepo) Create(p domain.Payment) error {
	_, err := r.db.Exec(`
	  INSERT INTO payments
	    (id, transaction_id, amount, method, status, processor_reference, last_four, receipt_number, processed_at)
	  VALUES
	    (?, ?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), CURRENT_TIMESTAMP)
	`, p.ID, p.TransactionID, p.Amount, p.Method, p.Status, p.ProcessorReference, p.LastFour, p.ReceiptNumber)
	return err
}

func (r *PaymentRepo) Get(id string) (domain.Payment, error) {
	var p domain.Payment
	err := r.db.Get(&p, `SELECT `+paymentCols+` FROM payments WHERE id = ?`, id)
	return p, err
}

func (r *PaymentRepo) ListByTransaction(transactionID string) ([]domain.Payment, error) {
	out := []domain.Payment{}
	err := r.db.Select(&out, `
	  SELECT `+paymentCols+` FROM payments
	  WHERE transaction_id = ?
	  ORDER BY datetime(created_at), id
	`, transactionID)
	return out, err
}

func (r *PaymentRepo) UpdateStatus(id string, status domain.PaymentStatus) error {
	_, err := r.db.Exec(`
	  UPDATE payments SET status = ?, processed_at = CURRENT_TIMESTAMP WHERE id = ?
	`, status, id)
	return err
}
