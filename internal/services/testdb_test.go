package services_test

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"checkstand/internal/repos"
	"checkstand/internal/services"
)

// memdb builds the full schema in-memory. One connection only: every new
// connection to ":memory:" would see a fresh empty database.
func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	schema := `
	CREATE TABLE products(id TEXT PRIMARY KEY, barcode TEXT UNIQUE, sku TEXT UNIQUE, name TEXT,
	  description TEXT, category TEXT, status TEXT DEFAULT 'active', age_restriction TEXT DEFAULT 'none',
	  current_price NUMERIC, tax_rate NUMERIC DEFAULT 0, created_at TEXT DEFAULT CURRENT_TIMESTAMP, updated_at TEXT);
	CREATE TABLE stock(product_id TEXT PRIMARY KEY, quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
	  low_stock_threshold INTEGER DEFAULT 10, reorder_threshold INTEGER DEFAULT 5, last_restocked TEXT);
	CREATE TABLE users(id TEXT PRIMARY KEY, email TEXT UNIQUE, name TEXT, password_hash TEXT,
	  role TEXT DEFAULT 'customer', date_of_birth TEXT, created_at TEXT DEFAULT CURRENT_TIMESTAMP);
	CREATE TABLE sessions(id TEXT PRIMARY KEY, user_id TEXT, created_at TEXT DEFAULT CURRENT_TIMESTAMP, last_seen TEXT);
	CREATE TABLE carts(id TEXT PRIMARY KEY, user_id TEXT NULL, session_id TEXT NULL,
	  is_active INTEGER NOT NULL DEFAULT 1, created_at TEXT DEFAULT CURRENT_TIMESTAMP, updated_at TEXT,
	  CHECK ((user_id IS NULL) + (session_id IS NULL) = 1));
	CREATE UNIQUE INDEX idx_carts_user_active ON carts(user_id) WHERE is_active = 1 AND user_id IS NOT NULL;
	CREATE UNIQUE INDEX idx_carts_session_active ON carts(session_id) WHERE is_active = 1 AND session_id IS NOT NULL;
	CREATE TABLE cart_items(id TEXT PRIMARY KEY, cart_id TEXT, product_id TEXT,
	  quantity INTEGER CHECK (quantity > 0), price_at_addition NUMERIC,
	  is_age_verified INTEGER DEFAULT 0, added_at TEXT DEFAULT CURRENT_TIMESTAMP,
	  UNIQUE (cart_id, product_id));
	CREATE TABLE transactions(id TEXT PRIMARY KEY, user_id TEXT, cart_id TEXT UNIQUE, status TEXT,
	  subtotal NUMERIC, tax_amount NUMERIC, total_amount NUMERIC, payment_method TEXT,
	  payment_status TEXT DEFAULT 'pending', created_at TEXT DEFAULT CURRENT_TIMESTAMP, completed_at TEXT);
	CREATE TABLE transaction_items(id TEXT PRIMARY KEY, transaction_id TEXT, product_id TEXT,
	  quantity INTEGER, price NUMERIC, tax_rate NUMERIC, was_age_verified INTEGER DEFAULT 0);
	CREATE TABLE payments(id TEXT PRIMARY KEY, transaction_id TEXT, amount NUMERIC, method TEXT,
	  status TEXT DEFAULT 'pending', processor_reference TEXT, last_four TEXT, receipt_number TEXT,
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP, processed_at TEXT);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatal(err)
	}
	return db
}

func addProduct(t *testing.T, db *sqlx.DB, id string, price, taxRate float64, restriction string) {
	t.Helper()
	_, err := db.Exec(`
	  INSERT INTO products(id, barcode, sku, name, category, status, age_restriction, current_price, tax_rate)
	  VALUES(?, ?, ?, ?, 'grocery', 'active', ?, ?, ?)
	`, id, "bc-"+id, "sku-"+id, "Product "+id, restriction, price, taxRate)
	if err != nil {
		t.Fatal(err)
	}
}

func addStock(t *testing.T, db *sqlx.DB, productID string, qty int) {
	t.Helper()
	if _, err := db.Exec(`INSERT INTO stock(product_id, quantity, low_stock_threshold) VALUES(?, ?, 5)`, productID, qty); err != nil {
		t.Fatal(err)
	}
}

func stockQty(t *testing.T, db *sqlx.DB, productID string) int {
	t.Helper()
	var qty int
	if err := db.Get(&qty, `SELECT quantity FROM stock WHERE product_id = ?`, productID); err != nil {
		t.Fatal(err)
	}
	return qty
}

// newCartService wires the usual trio against one db.
func newCartService(db *sqlx.DB) *services.CartService {
	return services.NewCartService(
		repos.NewCartRepo(db),
		repos.NewProductRepo(db),
		services.NewStockService(repos.NewStockRepo(db)),
	)
}
