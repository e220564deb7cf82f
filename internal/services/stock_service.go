package services

import (
	"database/sql"

	"checkstand/internal/domain"
	"checkstand/internal/repos"
)

type StockService struct {
	Stock *repos.StockRepo
}

func NewStockService(stock *repos.StockRepo) *StockService {
	return &StockService{Stock: stock}
}

// CheckStock reports whether at least qty units are available. No side effect;
// a missing stock record counts as unavailable.
func (s *StockService) CheckStock(productID string, qty int) (bool, error) {
	have, err := s.Stock.Qty(productID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return have >= qty, nil
}

// Adjust applies a signed delta (positive = restock, negative = sale).
func (s *StockService) Adjust(productID string, delta int) (domain.StockRecord, error) {
	rec, applied, err := s.Stock.Adjust(productID, delta)
	if err == sql.ErrNoRows {
		return domain.StockRecord{}, ErrStockNotFound
	}
	if err != nil {
		return domain.StockRecord{}, err
	}
	if !applied {
		return domain.StockRecord{}, &InsufficientStockError{
			ProductID: productID,
			Available: rec.Quantity,
			Requested: -delta,
		}
	}
	return rec, nil
}

type Adjustment struct {
	ProductID string `json:"product_id"`
	Delta     int    `json:"delta"`
}

// BulkAdjust applies every adjustment or none. The first failure aborts the
// transaction and is returned unchanged so the caller sees which entry
// caused the rollback.
func (s *StockService) BulkAdjust(adjs []Adjustment) ([]domain.StockRecord, error) {
	if len(adjs) == 0 {
		return nil, nil
	}
	tx, err := s.Stock.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	out := make([]domain.StockRecord, 0, len(adjs))
	for _, a := range adjs {
		rec, applied, err := s.Stock.AdjustTx(tx, a.ProductID, a.Delta)
		if err == sql.ErrNoRows {
			return nil, ErrStockNotFound
		}
		if err != nil {
			return nil, err
		}
		if !applied {
			return nil, &InsufficientStockError{
				ProductID: a.ProductID,
				Available: rec.Quantity,
				Requested: -a.Delta,
			}
		}
		out = append(out, rec)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

// Availability converts quantity against the record's low-stock threshold.
func (s *StockService) Availability(productID string) (domain.Availability, error) {
	rec, err := s.Stock.Get(productID)
	if err == sql.ErrNoRows {
		// No ledger entry: treat as 0.
		return domain.Availability{Status: "OUT_OF_STOCK", Qty: 0}, nil
	}
	if err != nil {
		return domain.Availability{}, err
	}

	status := "OUT_OF_STOCK"
	switch {
	case rec.Quantity > rec.LowStockThreshold:
		status = "IN_STOCK"
	case rec.Quantity > 0:
		status = "LOW_STOCK"
	}
	return domain.Availability{Status: status, Qty: rec.Quantity}, nil
}

// LowStock lists records at or below threshold; threshold < 0 means each
// record's own low_stock_threshold.
func (s *StockService) LowStock(threshold, skip, limit int) ([]domain.StockRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.Stock.LowStock(threshold, limit, skip)
}
