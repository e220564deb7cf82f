package repos

import (
	"checkstand/internal/domain"

	"github.com/jmoiron/sqlx"
)

type StockRepo struct{ db *sqlx.DB }

func NewStockRepo(db *sqlx.DB) *StockRepo { return &StockRepo{db: db} }

const stockCols = `
  product_id, quantity, low_stock_threshold, reorder_threshold,
  COALESCE(last_restocked,'') AS last_restocked`

func (r *StockRepo) Get(productID string) (domain.StockRecord, error) {
	var rec domain.StockRecord
	err := r.db.Get(&rec, `SELECT `+stockCols+` FROM stock WHERE product_id = ?`, productID)
	return rec, err
}

// Qty returns current quantity; sql.ErrNoRows when no stock record exists.
func (r *StockRepo) Qty(productID string) (int, error) {
	var qty int
	err := r.db.Get(&qty, `SELECT quantity FROM stock WHERE product_id = ?`, productID)
	return qty, err
}

// Adjust applies a signed delta with a single conditional UPDATE so two
// concurrent sales can never both drive quantity past zero.
// applied=false with a nil error means the row exists but the delta would
// make quantity negative; rec then carries the current quantity.
// A missing record surfaces as sql.ErrNoRows.
func (r *StockRepo) Adjust(productID string, delta int) (rec domain.StockRecord, applied bool, err error) {
	return adjustStock(r.db, productID, delta)
}

// AdjustTx is Adjust inside a caller-owned transaction (checkout, bulk adjust).
func (r *StockRepo) AdjustTx(tx *sqlx.Tx, productID string, delta int) (domain.StockRecord, bool, error) {
	return adjustStock(tx, productID, delta)
}

func adjustStock(e sqlx.Ext, productID string, delta int) (domain.StockRecord, bool, error) {
	res, err := e.Exec(`
		UPDATE stock
		SET quantity = quantity + ?,
		    last_restocked = CASE WHEN ? > 0 THEN CURRENT_TIMESTAMP ELSE last_restocked END
		WHERE product_id = ? AND quantity + ? >= 0
	`, delta, delta, productID, delta)
	if err != nil {
		return domain.StockRecord{}, false, err
	}
	n, _ := res.RowsAffected()

	var rec domain.StockRecord
	if err := sqlx.Get(e, &rec, `SELECT `+stockCols+` FROM stock WHERE product_id = ?`, productID); err != nil {
		return domain.StockRecord{}, false, err // sql.ErrNoRows: no ledger entry at all
	}
	return rec, n > 0, nil
}

// UpsertQty sets an absolute quantity, creating the record if needed.
func (r *StockRepo) UpsertQty(productID string, qty int) error {
	_, err := r.db.Exec(`
		INSERT INTO stock(product_id, quantity)
		VALUES (?, ?)
		ON CONFLICT(product_id) DO UPDATE SET quantity = excluded.quantity
	`, productID, qty)
	return err
}

// LowStock lists records at or below a threshold; when threshold < 0 each
// record's own low_stock_threshold applies.
func (r *StockRepo) LowStock(threshold, limit, offset int) ([]domain.StockRecord, error) {
	var out []domain.StockRecord
	if threshold >= 0 {
		err := r.db.Select(&out, `
		  SELECT `+stockCols+` FROM stock
		  WHERE quantity <= ?
		  ORDER BY quantity, product_id
		  LIMIT ? OFFSET ?`, threshold, limit, offset)
		return out, err
	}
	err := r.db.Select(&out, `
	  SELECT `+stockCols+` FROM stock
	  WHERE quantity <= low_stock_threshold
	  ORDER BY quantity, product_id
	  LIMIT ? OFFSET ?`, limit, offset)
	return out, err
}

func (r *StockRepo) Begin() (*sqlx.Tx, error) { return r.db.Beginx() }
