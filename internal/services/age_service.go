package services

import (
	"database/sql"
	"fmt"
	"time"

	"checkstand/internal/domain"
	"checkstand/internal/repos"
)

// AgeService gates age-restricted cart items. Now is injectable so tests can
// pin "today" for the birthday arithmetic.
type AgeService struct {
	Carts *repos.CartRepo
	Now   func() time.Time
}

func NewAgeService(carts *repos.CartRepo) *AgeService {
	return &AgeService{Carts: carts, Now: time.Now}
}

// HasRestrictedItems reports whether any line's product carries an age
// restriction.
func (s *AgeService) HasRestrictedItems(cartID string) (bool, error) {
	items, err := s.cartItems(cartID)
	if err != nil {
		return false, err
	}
	for _, it := range items {
		if it.AgeRestriction != domain.AgeNone {
			return true, nil
		}
	}
	return false, nil
}

// Verify checks the purchaser's age against the strictest restriction in the
// cart. Verification is all-or-nothing: one underage item fails the whole
// cart, and only full success marks the restricted lines verified (in a
// single update). A cart without restricted items verifies trivially.
func (s *AgeService) Verify(cartID string, birthDate *time.Time) (bool, error) {
	items, err := s.cartItems(cartID)
	if err != nil {
		return false, err
	}

	var restricted []domain.CartItem
	for _, it := range items {
		if it.AgeRestriction != domain.AgeNone {
			restricted = append(restricted, it)
		}
	}
	if len(restricted) == 0 {
		return true, nil
	}

	if birthDate == nil {
		return false, &AgeVerificationError{Reason: "birth date required for age verification"}
	}

	age := yearsBetween(*birthDate, s.Now())
	for _, it := range restricted {
		required := it.AgeRestriction.RequiredAge()
		if age < required {
			return false, &AgeVerificationError{
				Reason: fmt.Sprintf("item %s requires age %d+", it.ProductName, required),
			}
		}
	}

	if err := s.Carts.MarkItemsAgeVerified(cartID); err != nil {
		return false, err
	}
	return true, nil
}

func (s *AgeService) cartItems(cartID string) ([]domain.CartItem, error) {
	if _, err := s.Carts.Get(cartID); err == sql.ErrNoRows {
		return nil, &CartValidationError{Reason: "cart not found"}
	} else if err != nil {
		return nil, err
	}
	return s.Carts.Items(cartID)
}

// yearsBetween computes age in whole years; a birthday not yet reached this
// calendar year does not count.
func yearsBetween(birth, today time.Time) int {
	years := today.Year() - birth.Year()
	if today.Month() < birth.Month() ||
		(today.Month() == birth.Month() && today.Day() < birth.Day()) {
		years--
	}
	return years
}
