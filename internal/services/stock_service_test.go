package services_test

import (
	"errors"
	"sync"
	"testing"

	"checkstand/internal/repos"
	"checkstand/internal/services"
)

func TestCheckStock(t *testing.T) {
	db := memdb(t)
	addProduct(t, db, "milk", 2.49, 0, "none")
	addStock(t, db, "milk", 3)
	svc := services.NewStockService(repos.NewStockRepo(db))

	ok, err := svc.CheckStock("milk", 3)
	if err != nil || !ok {
		t.Fatalf("want available, got ok=%v err=%v", ok, err)
	}
	ok, err = svc.CheckStock("milk", 4)
	if err != nil || ok {
		t.Fatalf("want unavailable, got ok=%v err=%v", ok, err)
	}
	// no stock record at all counts as unavailable, not an error
	ok, err = svc.CheckStock("ghost", 1)
	if err != nil || ok {
		t.Fatalf("missing record: want false, got ok=%v err=%v", ok, err)
	}
}

func TestAdjustNeverNegative(t *testing.T) {
	db := memdb(t)
	addProduct(t, db, "milk", 2.49, 0, "none")
	addStock(t, db, "milk", 3)
	svc := services.NewStockService(repos.NewStockRepo(db))

	rec, err := svc.Adjust("milk", -2)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Quantity != 1 {
		t.Fatalf("want 1, got %d", rec.Quantity)
	}

	_, err = svc.Adjust("milk", -2)
	var stockErr *services.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("want InsufficientStockError, got %v", err)
	}
	if stockErr.Available != 1 || stockErr.Requested != 2 || stockErr.ProductID != "milk" {
		t.Fatalf("bad error fields: %+v", stockErr)
	}
	if got := stockQty(t, db, "milk"); got != 1 {
		t.Fatalf("failed adjust must not change stock, got %d", got)
	}

	// exhausting to exactly zero is allowed
	if rec, err = svc.Adjust("milk", -1); err != nil || rec.Quantity != 0 {
		t.Fatalf("want qty 0, got %d err=%v", rec.Quantity, err)
	}
}

func TestAdjustMissingRecord(t *testing.T) {
	db := memdb(t)
	svc := services.NewStockService(repos.NewStockRepo(db))

	if _, err := svc.Adjust("ghost", -1); !errors.Is(err, services.ErrStockNotFound) {
		t.Fatalf("want ErrStockNotFound, got %v", err)
	}
}

func TestAdjustRestock(t *testing.T) {
	db := memdb(t)
	addProduct(t, db, "milk", 2.49, 0, "none")
	addStock(t, db, "milk", 0)
	svc := services.NewStockService(repos.NewStockRepo(db))

	rec, err := svc.Adjust("milk", 10)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Quantity != 10 {
		t.Fatalf("want 10, got %d", rec.Quantity)
	}
	if rec.LastRestocked == "" {
		t.Fatal("restock should stamp last_restocked")
	}
}

// Concurrent sales totaling more than available stock: exactly enough succeed
// to drain stock to zero, the rest fail, quantity never goes negative.
func TestConcurrentAdjustExhaustsToZero(t *testing.T) {
	db := memdb(t)
	addProduct(t, db, "milk", 2.49, 0, "none")
	addStock(t, db, "milk", 5)
	svc := services.NewStockService(repos.NewStockRepo(db))

	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Adjust("milk", -1)
		}(i)
	}
	wg.Wait()

	okCount := 0
	for _, err := range errs {
		if err == nil {
			okCount++
		} else {
			var stockErr *services.InsufficientStockError
			if !errors.As(err, &stockErr) {
				t.Fatalf("unexpected error: %v", err)
			}
		}
	}
	if okCount != 5 {
		t.Fatalf("want exactly 5 successes, got %d", okCount)
	}
	if got := stockQty(t, db, "milk"); got != 0 {
		t.Fatalf("want qty 0, got %d", got)
	}
}

func TestBulkAdjustAllOrNothing(t *testing.T) {
	db := memdb(t)
	addProduct(t, db, "milk", 2.49, 0, "none")
	addProduct(t, db, "bread", 1.99, 0, "none")
	addStock(t, db, "milk", 10)
	addStock(t, db, "bread", 1)
	svc := services.NewStockService(repos.NewStockRepo(db))

	_, err := svc.BulkAdjust([]services.Adjustment{
		{ProductID: "milk", Delta: -5},
		{ProductID: "bread", Delta: -2},
	})
	var stockErr *services.InsufficientStockError
	if !errors.As(err, &stockErr) || stockErr.ProductID != "bread" {
		t.Fatalf("want InsufficientStockError for bread, got %v", err)
	}
	// first entry rolled back
	if got := stockQty(t, db, "milk"); got != 10 {
		t.Fatalf("milk must be untouched after rollback, got %d", got)
	}

	recs, err := svc.BulkAdjust([]services.Adjustment{
		{ProductID: "milk", Delta: -5},
		{ProductID: "bread", Delta: -1},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].Quantity != 5 || recs[1].Quantity != 0 {
		t.Fatalf("bad results: %+v", recs)
	}
}

func TestAvailability(t *testing.T) {
	db := memdb(t)
	addProduct(t, db, "milk", 2.49, 0, "none")
	addStock(t, db, "milk", 6) // threshold 5
	svc := services.NewStockService(repos.NewStockRepo(db))

	a, err := svc.Availability("milk")
	if err != nil || a.Status != "IN_STOCK" || a.Qty != 6 {
		t.Fatalf("want IN_STOCK(6), got %+v err=%v", a, err)
	}

	if _, err := svc.Adjust("milk", -4); err != nil {
		t.Fatal(err)
	}
	a, _ = svc.Availability("milk")
	if a.Status != "LOW_STOCK" || a.Qty != 2 {
		t.Fatalf("want LOW_STOCK(2), got %+v", a)
	}

	a, err = svc.Availability("ghost")
	if err != nil || a.Status != "OUT_OF_STOCK" {
		t.Fatalf("want OUT_OF_STOCK, got %+v err=%v", a, err)
	}
}

func TestLowStock(t *testing.T) {
	db := memdb(t)
	addProduct(t, db, "milk", 2.49, 0, "none")
	addProduct(t, db, "bread", 1.99, 0, "none")
	addStock(t, db, "milk", 2)
	addStock(t, db, "bread", 50)
	svc := services.NewStockService(repos.NewStockRepo(db))

	recs, err := svc.LowStock(-1, 0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].ProductID != "milk" {
		t.Fatalf("want only milk low, got %+v", recs)
	}

	recs, err = svc.LowStock(60, 0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("explicit threshold 60 should match both, got %+v", recs)
	}
}
