package model

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const MinItemNameLength = 3

// Transaction is an immutable credit entry. Credit is fixed at write time as
// ItemPrice - AmountPaid and may be negative when the customer overpaid.
type Transaction struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	ItemName   string    `json:"item_name"`
	ItemPrice  int64     `json:"item_price"`
	AmountPaid int64     `json:"amount_paid"`
	Credit     int64     `json:"credit"`
	Note       *string   `json:"note,omitempty"`
	Date       time.Time `json:"date"`
}

// TransactionView is a transaction joined with its owner's name.
type TransactionView struct {
	Transaction
	CustomerName        string `json:"customer_name"`
	CustomerDisplayName string `json:"customer_display_name"`
}

// TransactionCreateRequest is the input of the transaction recorder. Amounts
// are pointers so a missing value can be told apart from zero.
type TransactionCreateRequest struct {
	CustomerName   string
	ItemName       string
	ItemPrice      *int64
	AmountPaid     *int64
	Date           time.Time // zero means now
	Note           string
	IdempotencyKey string
}

func (p TransactionCreateRequest) Validate() error {
	if CanonicalName(p.CustomerName) == "" {
		return NewValidationError("customer_name", "is required")
	}
	item := strings.TrimSpace(p.ItemName)
	if item == "" {
		return NewValidationError("item_name", "is required")
	}
	if utf8.RuneCountInString(item) < MinItemNameLength {
		return NewValidationError("item_name", "must be at least 3 characters")
	}
	if err := validateAmount("item_price", p.ItemPrice); err != nil {
		return err
	}
	return validateAmount("amount_paid", p.AmountPaid)
}

func validateAmount(field string, v *int64) error {
	if v == nil {
		return NewValidationError(field, "is required")
	}
	if *v < 0 {
		return NewValidationError(field, "must not be negative")
	}
	return nil
}

// ParseAmount converts user-entered text into an amount in the smallest
// currency unit. Empty, non-numeric, fractional and negative input is rejected.
func ParseAmount(field, raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, NewValidationError(field, "is required")
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n < 0 {
			return nil, NewValidationError(field, "must not be negative")
		}
		return &n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, NewValidationError(field, "must be a number")
	}
	if f < 0 {
		return nil, NewValidationError(field, "must not be negative")
	}
	if f != math.Trunc(f) {
		return nil, NewValidationError(field, "must be a whole number")
	}
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold
	if f >= math.MaxInt64 {
		return nil, NewValidationError(field, "is too large")
	}
	n := int64(f)
	return &n, nil
}

// TransactionFilter narrows transaction listings; results are newest first.
type TransactionFilter struct {
	CustomerID *int64
	Since      *time.Time // exclusive lower bound on Date
	Limit      int
	Offset     int
}
