// Package rules holds the pure validation and normalization logic for ledger
// records. Nothing here touches the ledger; callers get back either a
// normalized record with a fresh id or a *ledger.ValidationError.
package rules

import (
	"strings"
	"time"

	"ghazistore/backend/internal/domain"
	"ghazistore/backend/internal/ledger"
	"ghazistore/backend/internal/xid"
)

const dateLayout = "2006-01-02"

// ParseDate parses an ISO calendar-date string (YYYY-MM-DD).
func ParseDate(value string) (time.Time, error) {
	return time.Parse(dateLayout, strings.TrimSpace(value))
}

// DateOf formats t as an ISO calendar-date string in UTC.
func DateOf(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// IsExpired reports whether the item's expiry date is strictly before asOf's
// calendar date. Time of day is ignored on both sides. An unparseable expiry
// date is treated as not expired; creation validation keeps that case out of
// the ledger.
func IsExpired(item domain.Item, asOf time.Time) bool {
	expiry, err := ParseDate(item.ExpiryDate)
	if err != nil {
		return false
	}
	today, err := ParseDate(DateOf(asOf))
	if err != nil {
		return false
	}
	return expiry.Before(today)
}

// NewItem validates and normalizes a new stock item. Expiry exactly on asOf's
// calendar date is accepted; only strictly earlier dates are rejected.
func NewItem(req domain.ItemCreateRequest, asOf time.Time) (domain.Item, error) {
	name := strings.TrimSpace(req.Name)
	batch := strings.TrimSpace(req.Batch)
	if name == "" {
		return domain.Item{}, &ledger.ValidationError{Field: "name", Reason: "required"}
	}
	if batch == "" {
		return domain.Item{}, &ledger.ValidationError{Field: "batch", Reason: "required"}
	}
	if req.Quantity < 1 {
		return domain.Item{}, &ledger.ValidationError{Field: "quantity", Reason: "must be a positive number"}
	}
	if req.PurchasePrice.Sign() <= 0 {
		return domain.Item{}, &ledger.ValidationError{Field: "purchase_price", Reason: "must be a positive number"}
	}
	if req.SellingPrice.Sign() <= 0 {
		return domain.Item{}, &ledger.ValidationError{Field: "selling_price", Reason: "must be a positive number"}
	}
	if strings.TrimSpace(req.ExpiryDate) == "" {
		return domain.Item{}, &ledger.ValidationError{Field: "expiry_date", Reason: "required"}
	}
	expiry, err := ParseDate(req.ExpiryDate)
	if err != nil {
		return domain.Item{}, &ledger.ValidationError{Field: "expiry_date", Reason: "must be a YYYY-MM-DD date"}
	}
	today, _ := ParseDate(DateOf(asOf))
	if expiry.Before(today) {
		return domain.Item{}, &ledger.ValidationError{Field: "expiry_date", Reason: "must not be in the past"}
	}

	return domain.Item{
		ID:            xid.New("item"),
		Name:          name,
		Batch:         batch,
		Quantity:      req.Quantity,
		PurchasePrice: req.PurchasePrice,
		SellingPrice:  req.SellingPrice,
		ExpiryDate:    DateOf(expiry),
	}, nil
}

// NewRecovery validates a cash recovery entry. An empty date defaults to
// asOf's calendar date.
func NewRecovery(req domain.RecoveryCreateRequest, asOf time.Time) (domain.Recovery, error) {
	source := strings.TrimSpace(req.Source)
	if source == "" {
		return domain.Recovery{}, &ledger.ValidationError{Field: "source", Reason: "required"}
	}
	if req.Amount.Sign() <= 0 {
		return domain.Recovery{}, &ledger.ValidationError{Field: "amount", Reason: "must be a positive number"}
	}
	date, err := normalizeDate(req.Date, asOf)
	if err != nil {
		return domain.Recovery{}, &ledger.ValidationError{Field: "date", Reason: "must be a YYYY-MM-DD date"}
	}

	return domain.Recovery{
		ID:          xid.New("rcv"),
		Date:        date,
		Amount:      req.Amount,
		Source:      source,
		Description: strings.TrimSpace(req.Description),
	}, nil
}

// NewExpense validates an expense entry. An empty date defaults to asOf's
// calendar date.
func NewExpense(req domain.ExpenseCreateRequest, asOf time.Time) (domain.Expense, error) {
	category := strings.TrimSpace(req.Category)
	if category == "" {
		return domain.Expense{}, &ledger.ValidationError{Field: "category", Reason: "required"}
	}
	if req.Amount.Sign() <= 0 {
		return domain.Expense{}, &ledger.ValidationError{Field: "amount", Reason: "must be a positive number"}
	}
	date, err := normalizeDate(req.Date, asOf)
	if err != nil {
		return domain.Expense{}, &ledger.ValidationError{Field: "date", Reason: "must be a YYYY-MM-DD date"}
	}

	return domain.Expense{
		ID:          xid.New("exp"),
		Date:        date,
		Amount:      req.Amount,
		Category:    category,
		Description: strings.TrimSpace(req.Description),
	}, nil
}

func normalizeDate(value string, asOf time.Time) (string, error) {
	if strings.TrimSpace(value) == "" {
		return DateOf(asOf), nil
	}
	parsed, err := ParseDate(value)
	if err != nil {
		return "", err
	}
	return DateOf(parsed), nil
}
