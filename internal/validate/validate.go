package validate

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	reEmail   = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reID      = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reBarcode = regexp.MustCompile(`^[0-9]{8,14}$`)
	reQ       = regexp.MustCompile(`^[A-Za-z0-9 _'\-]{1,50}$`)
)

// ID validates a simple resource identifier (product/cart/payment ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Barcode validates EAN/UPC-style numeric barcodes.
func Barcode(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reBarcode.MatchString(s)
}

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 50 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Q validates a product search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if len(s) > 50 {
		s = s[:50]
	}
	return s, reQ.MatchString(s)
}

// Qty parses a quantity; zero or negative values are rejected, not clamped,
// so the caller can surface a validation error.
func Qty(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 999 {
		return 0, false
	}
	return n, true
}

// BirthDate parses the X-Birth-Date header (2006-01-02) and rejects future dates.
func BirthDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil || t.After(time.Now()) {
		return time.Time{}, false
	}
	return t, true
}

// Page clamps skip/limit pagination to sane bounds.
func Page(skipS, limitS string) (skip, limit int) {
	skip, _ = strconv.Atoi(skipS)
	if skip < 0 {
		skip = 0
	}
	limit, _ = strconv.Atoi(limitS)
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return skip, limit
}
