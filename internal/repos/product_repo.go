package repos

import (
	"checkstand/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `
  id, barcode, sku, name, COALESCE(description,'') AS description,
  category, status, age_restriction, current_price, tax_rate,
  created_at, COALESCE(updated_at,'') AS updated_at`

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
	return p, err
}

func (r *ProductRepo) GetByBarcode(barcode string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `SELECT `+productCols+` FROM products WHERE barcode = ?`, barcode)
	return p, err
}

func (r *ProductRepo) ListActive(limit, offset int) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT `+productCols+` FROM products
	  WHERE status = 'active'
	  ORDER BY name
	  LIMIT ? OFFSET ?`, limit, offset)
	return out, err
}

func (r *ProductRepo) ListByCategory(category string, limit, offset int) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT `+productCols+` FROM products
	  WHERE category = ? AND status = 'active'
	  ORDER BY name
	  LIMIT ? OFFSET ?`, category, limit, offset)
	return out, err
}

func (r *ProductRepo) Search(q string, limit, offset int) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT `+productCols+` FROM products
	  WHERE status = 'active'
	    AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ?)
	  ORDER BY name
	  LIMIT ? OFFSET ?`, "%"+q+"%", "%"+q+"%", limit, offset)
	return out, err
}
