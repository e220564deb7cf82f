package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed baseline data if DB is empty (products/stock)
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	// Ensure demo users exist (idempotent; safe to run every start)
	if err := seedUsers(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Products
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  barcode TEXT NOT NULL UNIQUE,
  sku TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  description TEXT,
  category TEXT NOT NULL CHECK (category IN ('grocery','electronics','clothing','pharmacy','alcohol','other')),
  status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active','discontinued','out_of_stock','recalled')),
  age_restriction TEXT NOT NULL DEFAULT 'none' CHECK (age_restriction IN ('none','18+','21+')),
  current_price NUMERIC NOT NULL CHECK (current_price > 0),
  tax_rate NUMERIC NOT NULL DEFAULT 0 CHECK (tax_rate >= 0 AND tax_rate <= 1),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);
CREATE INDEX IF NOT EXISTS idx_products_name     ON products(LOWER(name));

-- Stock ledger (one row per product; quantity can never go negative)
CREATE TABLE IF NOT EXISTS stock(
  product_id TEXT PRIMARY KEY REFERENCES products(id) ON DELETE CASCADE,
  quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
  low_stock_threshold INTEGER NOT NULL DEFAULT 10,
  reorder_threshold INTEGER NOT NULL DEFAULT 5,
  last_restocked TEXT
);

-- Users & Sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'customer' CHECK (role IN ('customer','admin')),
  date_of_birth TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);

-- Carts: owned by exactly one of user_id / session_id.
-- Partial unique indexes guard the concurrent get-or-create race:
-- at most one active cart per owner.
CREATE TABLE IF NOT EXISTS carts(
  id TEXT PRIMARY KEY,
  user_id TEXT NULL REFERENCES users(id) ON DELETE CASCADE,
  session_id TEXT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT,
  CHECK ((user_id IS NULL) + (session_id IS NULL) = 1)
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_carts_user_active
  ON carts(user_id) WHERE is_active = 1 AND user_id IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS idx_carts_session_active
  ON carts(session_id) WHERE is_active = 1 AND session_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS cart_items(
  id TEXT PRIMARY KEY,
  cart_id    TEXT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE RESTRICT,
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  price_at_addition NUMERIC NOT NULL,
  is_age_verified INTEGER NOT NULL DEFAULT 0,
  added_at TEXT DEFAULT CURRENT_TIMESTAMP,
  UNIQUE (cart_id, product_id)
);
CREATE INDEX IF NOT EXISTS idx_cart_items_cart ON cart_items(cart_id);

-- Transactions: permanent 1:1 with the converted cart (unique cart_id)
CREATE TABLE IF NOT EXISTS transactions(
  id TEXT PRIMARY KEY,
  user_id TEXT NULL,
  cart_id TEXT NOT NULL UNIQUE REFERENCES carts(id),
  status TEXT NOT NULL DEFAULT 'completed' CHECK (status IN ('in_progress','completed','cancelled','suspended')),
  subtotal NUMERIC NOT NULL CHECK (subtotal >= 0),
  tax_amount NUMERIC NOT NULL CHECK (tax_amount >= 0),
  total_amount NUMERIC NOT NULL CHECK (total_amount >= 0),
  payment_method TEXT,
  payment_status TEXT NOT NULL DEFAULT 'pending' CHECK (payment_status IN ('pending','completed','failed','refunded','partially_refunded')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  completed_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id);
CREATE INDEX IF NOT EXISTS idx_transactions_created ON transactions(created_at);

CREATE TABLE IF NOT EXISTS transaction_items(
  id TEXT PRIMARY KEY,
  transaction_id TEXT NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id),
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  price NUMERIC NOT NULL CHECK (price > 0),
  tax_rate NUMERIC NOT NULL,
  was_age_verified INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_transaction_items_txn ON transaction_items(transaction_id);

-- Payments: a transaction may accumulate several rows (retries, refunds)
CREATE TABLE IF NOT EXISTS payments(
  id TEXT PRIMARY KEY,
  transaction_id TEXT NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
  amount NUMERIC NOT NULL CHECK (amount > 0),
  method TEXT NOT NULL CHECK (method IN ('credit_card','debit_card','cash','mobile_pay','gift_card')),
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','completed','failed','refunded','partially_refunded')),
  processor_reference TEXT,
  last_four TEXT,
  receipt_number TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  processed_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_payments_txn ON payments(transaction_id);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo products/stock")

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO products(id,barcode,sku,name,description,category,status,age_restriction,current_price,tax_rate) VALUES
	  ('milk-1l','0000000010017','GRO-MILK-1L','Whole Milk 1L','Dairy','grocery','active','none',2.49,0.0),
	  ('bread-wht','0000000010024','GRO-BRD-WHT','White Bread Loaf','Bakery','grocery','active','none',1.99,0.0),
	  ('usb-c-cable','0000000020013','ELC-USBC-1M','USB-C Cable 1m','Electronics accessory','electronics','active','none',9.99,0.0875),
	  ('ibuprofen-200','0000000030010','PHM-IBU-200','Ibuprofen 200mg','Pain relief, 24 tablets','pharmacy','active','none',5.49,0.0),
	  ('lager-6pk','0000000040017','ALC-LGR-6PK','Lager 6-Pack','Domestic lager, 6x330ml','alcohol','active','21+',11.99,0.0875),
	  ('red-wine-750','0000000040024','ALC-WNE-750','Red Wine 750ml','Cabernet Sauvignon','alcohol','active','21+',15.99,0.0875),
	  ('lottery-scratch','0000000050014','OTH-LOT-001','Lottery Scratcher','Instant-win ticket','other','active','18+',5.00,0.0)`)

	tx.MustExec(`INSERT INTO stock(product_id,quantity,low_stock_threshold,reorder_threshold) VALUES
	  ('milk-1l',40,10,5),
	  ('bread-wht',25,10,5),
	  ('usb-c-cable',12,5,3),
	  ('ibuprofen-200',30,10,5),
	  ('lager-6pk',18,6,3),
	  ('red-wine-750',8,6,3),
	  ('lottery-scratch',100,20,10)`)

	return tx.Commit()
}

// seedUsers ensures demo customers exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role, DOB, Hash string
	}
	mk := func(id, email, name, role, dob, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), 12)
		return u{ID: id, Email: email, Name: name, Role: role, DOB: dob, Hash: string(h)}
	}

	users := []u{
		mk("u-alice", "alice@checkstand.test", "Alice", "customer", "1990-06-15", "Passw0rd!"),
		mk("u-bob", "bob@checkstand.test", "Bob", "customer", "2008-01-20", "Passw0rd!"),
		mk("u-carol", "carol@checkstand.test", "Carol", "customer", "", "Passw0rd!"),
		mk("u-dana", "dana@checkstand.test", "Dana", "admin", "1985-02-10", "Passw0rd!"),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		dob := any(nil)
		if x.DOB != "" {
			dob = x.DOB
		}
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,name,password_hash,role,date_of_birth)
			VALUES(?,?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Name, x.Hash, x.Role, dob); err != nil {
			return err
		}
	}

	return tx.Commit()
}
