package services

import (
	"errors"
	"fmt"
)

// ErrStockNotFound means a product has no stock ledger entry at all,
// as opposed to an entry with too little quantity.
var ErrStockNotFound = errors.New("stock record not found")

// InsufficientStockError carries what the client needs to display:
// which product fell short, what was left, what was asked for.
type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

type AgeVerificationError struct {
	Reason string
}

func (e *AgeVerificationError) Error() string { return "age verification failed: " + e.Reason }

type CartValidationError struct {
	Reason string
}

func (e *CartValidationError) Error() string { return "cart validation failed: " + e.Reason }

type PaymentProcessingError struct {
	Reason string
}

func (e *PaymentProcessingError) Error() string { return "payment processing failed: " + e.Reason }
